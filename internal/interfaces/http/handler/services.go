package handler

import (
	"context"
	"io"

	"github.com/google/uuid"

	billingapp "github.com/invoicer/backend/internal/application/billing"
	catalogapp "github.com/invoicer/backend/internal/application/catalog"
	identityapp "github.com/invoicer/backend/internal/application/identity"
	partnerapp "github.com/invoicer/backend/internal/application/partner"
	reportapp "github.com/invoicer/backend/internal/application/report"
	"github.com/invoicer/backend/internal/domain/report"
)

// The interfaces below are the parts of the application services the
// handlers call. The concrete services satisfy them; tests use mocks.

type AuthService interface {
	Register(ctx context.Context, req identityapp.RegisterRequest) (*identityapp.AuthResponse, error)
	Login(ctx context.Context, req identityapp.LoginRequest, ip string) (*identityapp.AuthResponse, error)
	Refresh(ctx context.Context, req identityapp.RefreshRequest) (*identityapp.AuthResponse, error)
	Logout(ctx context.Context, input identityapp.LogoutInput) error
	Me(ctx context.Context, userID uuid.UUID) (*identityapp.UserResponse, error)
}

type ClientService interface {
	Create(ctx context.Context, ownerID uuid.UUID, req partnerapp.ClientRequest) (*partnerapp.ClientResponse, error)
	GetByID(ctx context.Context, ownerID, id uuid.UUID) (*partnerapp.ClientResponse, error)
	List(ctx context.Context, ownerID uuid.UUID, filter partnerapp.ClientListFilter) ([]partnerapp.ClientResponse, int64, error)
	Update(ctx context.Context, ownerID, id uuid.UUID, req partnerapp.ClientRequest) (*partnerapp.ClientResponse, error)
	Delete(ctx context.Context, ownerID, id uuid.UUID) error
	Import(ctx context.Context, ownerID uuid.UUID, r io.Reader, dryRun bool) (*partnerapp.ClientImportResult, error)
}

type CompanyService interface {
	Create(ctx context.Context, ownerID uuid.UUID, req partnerapp.CreateCompanyRequest) (*partnerapp.CompanyResponse, error)
	GetByID(ctx context.Context, ownerID, id uuid.UUID) (*partnerapp.CompanyResponse, error)
	List(ctx context.Context, ownerID uuid.UUID) ([]partnerapp.CompanyResponse, error)
	Update(ctx context.Context, ownerID, id uuid.UUID, req partnerapp.UpdateCompanyRequest) (*partnerapp.CompanyResponse, error)
	Delete(ctx context.Context, ownerID, id uuid.UUID) error
	ListPaymentMethods(ctx context.Context, ownerID, companyID uuid.UUID) ([]partnerapp.PaymentMethodResponse, error)
	AddPaymentMethod(ctx context.Context, ownerID, companyID uuid.UUID, req partnerapp.PaymentMethodRequest) (*partnerapp.PaymentMethodResponse, error)
	DeletePaymentMethod(ctx context.Context, ownerID, companyID, methodID uuid.UUID) error
}

type ServiceItemService interface {
	Create(ctx context.Context, ownerID uuid.UUID, req catalogapp.CreateServiceItemRequest) (*catalogapp.ServiceItemResponse, error)
	GetByID(ctx context.Context, ownerID, id uuid.UUID) (*catalogapp.ServiceItemResponse, error)
	List(ctx context.Context, ownerID uuid.UUID, filter catalogapp.ServiceItemListFilter) ([]catalogapp.ServiceItemResponse, int64, error)
	Update(ctx context.Context, ownerID, id uuid.UUID, req catalogapp.UpdateServiceItemRequest) (*catalogapp.ServiceItemResponse, error)
	Delete(ctx context.Context, ownerID, id uuid.UUID) error
}

type OrderService interface {
	Create(ctx context.Context, ownerID uuid.UUID, req billingapp.OrderRequest) (*billingapp.OrderResponse, error)
	GetByID(ctx context.Context, ownerID, id uuid.UUID) (*billingapp.OrderResponse, error)
	List(ctx context.Context, ownerID uuid.UUID, filter billingapp.OrderListFilter) ([]billingapp.OrderResponse, int64, error)
	Update(ctx context.Context, ownerID, id uuid.UUID, req billingapp.OrderRequest) (*billingapp.OrderResponse, error)
	ChangeStatus(ctx context.Context, ownerID, id uuid.UUID, req billingapp.OrderStatusRequest) (*billingapp.OrderResponse, error)
	Delete(ctx context.Context, ownerID, id uuid.UUID) error
	GenerateInvoice(ctx context.Context, ownerID, id uuid.UUID, req billingapp.GenerateInvoiceRequest) (*billingapp.InvoiceResponse, error)
}

type InvoiceService interface {
	Create(ctx context.Context, ownerID uuid.UUID, req billingapp.CreateInvoiceRequest) (*billingapp.InvoiceResponse, error)
	GetByID(ctx context.Context, ownerID, id uuid.UUID) (*billingapp.InvoiceResponse, error)
	List(ctx context.Context, ownerID uuid.UUID, filter billingapp.InvoiceListFilter) ([]billingapp.InvoiceResponse, int64, error)
	Update(ctx context.Context, ownerID, id uuid.UUID, req billingapp.UpdateInvoiceRequest) (*billingapp.InvoiceResponse, error)
	Delete(ctx context.Context, ownerID, id uuid.UUID) error
	Cancel(ctx context.Context, ownerID, id uuid.UUID) (*billingapp.InvoiceResponse, error)
}

type DocumentService interface {
	PDF(ctx context.Context, ownerID, id uuid.UUID) (*billingapp.InvoicePDF, error)
	Send(ctx context.Context, ownerID, id uuid.UUID) (*billingapp.SendInvoiceResponse, error)
	ArchiveLink(ctx context.Context, ownerID, id uuid.UUID) (*billingapp.ArchiveLinkResponse, error)
}

type PaymentService interface {
	Create(ctx context.Context, ownerID uuid.UUID, req billingapp.CreatePaymentRequest) (*billingapp.PaymentResult, error)
	GetByID(ctx context.Context, ownerID, id uuid.UUID) (*billingapp.PaymentResponse, error)
	List(ctx context.Context, ownerID uuid.UUID, filter billingapp.PaymentListFilter) ([]billingapp.PaymentResponse, int64, error)
	ListByInvoice(ctx context.Context, ownerID, invoiceID uuid.UUID) ([]billingapp.PaymentResponse, error)
	Update(ctx context.Context, ownerID, id uuid.UUID, req billingapp.UpdatePaymentRequest) (*billingapp.PaymentResult, error)
	Delete(ctx context.Context, ownerID, id uuid.UUID) (*billingapp.InvoiceResponse, error)
}

type SubscriptionService interface {
	Create(ctx context.Context, ownerID uuid.UUID, req billingapp.CreateSubscriptionRequest) (*billingapp.SubscriptionResponse, error)
	GetByID(ctx context.Context, ownerID, id uuid.UUID) (*billingapp.SubscriptionResponse, error)
	List(ctx context.Context, ownerID uuid.UUID, filter billingapp.SubscriptionListFilter) ([]billingapp.SubscriptionResponse, int64, error)
	Update(ctx context.Context, ownerID, id uuid.UUID, req billingapp.UpdateSubscriptionRequest) (*billingapp.SubscriptionResponse, error)
	Cancel(ctx context.Context, ownerID, id uuid.UUID) (*billingapp.SubscriptionResponse, error)
	Due(ctx context.Context, ownerID uuid.UUID, days int) (*billingapp.DueSubscriptionsResponse, error)
	GenerateInvoice(ctx context.Context, ownerID, id uuid.UUID, req billingapp.GenerateInvoiceRequest) (*billingapp.GeneratedInvoiceResponse, error)
}

type ReportService interface {
	Overview(ctx context.Context, ownerID uuid.UUID) (*reportapp.OverviewResponse, error)
	Revenue(ctx context.Context, ownerID uuid.UUID, months int) (*reportapp.RevenueResponse, error)
	TopClients(ctx context.Context, ownerID uuid.UUID, limit int) ([]report.ClientTotals, error)
}

var (
	_ AuthService         = (*identityapp.AuthService)(nil)
	_ ClientService       = (*partnerapp.ClientService)(nil)
	_ CompanyService      = (*partnerapp.CompanyService)(nil)
	_ ServiceItemService  = (*catalogapp.ServiceItemService)(nil)
	_ OrderService        = (*billingapp.OrderService)(nil)
	_ InvoiceService      = (*billingapp.InvoiceService)(nil)
	_ DocumentService     = (*billingapp.DocumentService)(nil)
	_ PaymentService      = (*billingapp.PaymentService)(nil)
	_ SubscriptionService = (*billingapp.SubscriptionService)(nil)
	_ ReportService       = (*reportapp.ReportService)(nil)
)
