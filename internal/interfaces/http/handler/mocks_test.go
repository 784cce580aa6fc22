package handler

import (
	"context"
	"io"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	billingapp "github.com/invoicer/backend/internal/application/billing"
	identityapp "github.com/invoicer/backend/internal/application/identity"
	partnerapp "github.com/invoicer/backend/internal/application/partner"
	reportapp "github.com/invoicer/backend/internal/application/report"
	"github.com/invoicer/backend/internal/domain/report"
)

type mockAuthService struct{ mock.Mock }

func (m *mockAuthService) Register(ctx context.Context, req identityapp.RegisterRequest) (*identityapp.AuthResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identityapp.AuthResponse), args.Error(1)
}

func (m *mockAuthService) Login(ctx context.Context, req identityapp.LoginRequest, ip string) (*identityapp.AuthResponse, error) {
	args := m.Called(ctx, req, ip)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identityapp.AuthResponse), args.Error(1)
}

func (m *mockAuthService) Refresh(ctx context.Context, req identityapp.RefreshRequest) (*identityapp.AuthResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identityapp.AuthResponse), args.Error(1)
}

func (m *mockAuthService) Logout(ctx context.Context, input identityapp.LogoutInput) error {
	return m.Called(ctx, input).Error(0)
}

func (m *mockAuthService) Me(ctx context.Context, userID uuid.UUID) (*identityapp.UserResponse, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identityapp.UserResponse), args.Error(1)
}

type mockClientService struct{ mock.Mock }

func (m *mockClientService) Create(ctx context.Context, ownerID uuid.UUID, req partnerapp.ClientRequest) (*partnerapp.ClientResponse, error) {
	args := m.Called(ctx, ownerID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*partnerapp.ClientResponse), args.Error(1)
}

func (m *mockClientService) GetByID(ctx context.Context, ownerID, id uuid.UUID) (*partnerapp.ClientResponse, error) {
	args := m.Called(ctx, ownerID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*partnerapp.ClientResponse), args.Error(1)
}

func (m *mockClientService) List(ctx context.Context, ownerID uuid.UUID, filter partnerapp.ClientListFilter) ([]partnerapp.ClientResponse, int64, error) {
	args := m.Called(ctx, ownerID, filter)
	return args.Get(0).([]partnerapp.ClientResponse), args.Get(1).(int64), args.Error(2)
}

func (m *mockClientService) Update(ctx context.Context, ownerID, id uuid.UUID, req partnerapp.ClientRequest) (*partnerapp.ClientResponse, error) {
	args := m.Called(ctx, ownerID, id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*partnerapp.ClientResponse), args.Error(1)
}

func (m *mockClientService) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	return m.Called(ctx, ownerID, id).Error(0)
}

func (m *mockClientService) Import(ctx context.Context, ownerID uuid.UUID, r io.Reader, dryRun bool) (*partnerapp.ClientImportResult, error) {
	body, _ := io.ReadAll(r)
	args := m.Called(ctx, ownerID, string(body), dryRun)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*partnerapp.ClientImportResult), args.Error(1)
}

type mockInvoiceService struct{ mock.Mock }

func (m *mockInvoiceService) Create(ctx context.Context, ownerID uuid.UUID, req billingapp.CreateInvoiceRequest) (*billingapp.InvoiceResponse, error) {
	args := m.Called(ctx, ownerID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billingapp.InvoiceResponse), args.Error(1)
}

func (m *mockInvoiceService) GetByID(ctx context.Context, ownerID, id uuid.UUID) (*billingapp.InvoiceResponse, error) {
	args := m.Called(ctx, ownerID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billingapp.InvoiceResponse), args.Error(1)
}

func (m *mockInvoiceService) List(ctx context.Context, ownerID uuid.UUID, filter billingapp.InvoiceListFilter) ([]billingapp.InvoiceResponse, int64, error) {
	args := m.Called(ctx, ownerID, filter)
	return args.Get(0).([]billingapp.InvoiceResponse), args.Get(1).(int64), args.Error(2)
}

func (m *mockInvoiceService) Update(ctx context.Context, ownerID, id uuid.UUID, req billingapp.UpdateInvoiceRequest) (*billingapp.InvoiceResponse, error) {
	args := m.Called(ctx, ownerID, id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billingapp.InvoiceResponse), args.Error(1)
}

func (m *mockInvoiceService) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	return m.Called(ctx, ownerID, id).Error(0)
}

func (m *mockInvoiceService) Cancel(ctx context.Context, ownerID, id uuid.UUID) (*billingapp.InvoiceResponse, error) {
	args := m.Called(ctx, ownerID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billingapp.InvoiceResponse), args.Error(1)
}

type mockDocumentService struct{ mock.Mock }

func (m *mockDocumentService) PDF(ctx context.Context, ownerID, id uuid.UUID) (*billingapp.InvoicePDF, error) {
	args := m.Called(ctx, ownerID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billingapp.InvoicePDF), args.Error(1)
}

func (m *mockDocumentService) Send(ctx context.Context, ownerID, id uuid.UUID) (*billingapp.SendInvoiceResponse, error) {
	args := m.Called(ctx, ownerID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billingapp.SendInvoiceResponse), args.Error(1)
}

func (m *mockDocumentService) ArchiveLink(ctx context.Context, ownerID, id uuid.UUID) (*billingapp.ArchiveLinkResponse, error) {
	args := m.Called(ctx, ownerID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billingapp.ArchiveLinkResponse), args.Error(1)
}

type mockPaymentService struct{ mock.Mock }

func (m *mockPaymentService) Create(ctx context.Context, ownerID uuid.UUID, req billingapp.CreatePaymentRequest) (*billingapp.PaymentResult, error) {
	args := m.Called(ctx, ownerID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billingapp.PaymentResult), args.Error(1)
}

func (m *mockPaymentService) GetByID(ctx context.Context, ownerID, id uuid.UUID) (*billingapp.PaymentResponse, error) {
	args := m.Called(ctx, ownerID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billingapp.PaymentResponse), args.Error(1)
}

func (m *mockPaymentService) List(ctx context.Context, ownerID uuid.UUID, filter billingapp.PaymentListFilter) ([]billingapp.PaymentResponse, int64, error) {
	args := m.Called(ctx, ownerID, filter)
	return args.Get(0).([]billingapp.PaymentResponse), args.Get(1).(int64), args.Error(2)
}

func (m *mockPaymentService) ListByInvoice(ctx context.Context, ownerID, invoiceID uuid.UUID) ([]billingapp.PaymentResponse, error) {
	args := m.Called(ctx, ownerID, invoiceID)
	return args.Get(0).([]billingapp.PaymentResponse), args.Error(1)
}

func (m *mockPaymentService) Update(ctx context.Context, ownerID, id uuid.UUID, req billingapp.UpdatePaymentRequest) (*billingapp.PaymentResult, error) {
	args := m.Called(ctx, ownerID, id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billingapp.PaymentResult), args.Error(1)
}

func (m *mockPaymentService) Delete(ctx context.Context, ownerID, id uuid.UUID) (*billingapp.InvoiceResponse, error) {
	args := m.Called(ctx, ownerID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billingapp.InvoiceResponse), args.Error(1)
}

type mockSubscriptionService struct{ mock.Mock }

func (m *mockSubscriptionService) Create(ctx context.Context, ownerID uuid.UUID, req billingapp.CreateSubscriptionRequest) (*billingapp.SubscriptionResponse, error) {
	args := m.Called(ctx, ownerID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billingapp.SubscriptionResponse), args.Error(1)
}

func (m *mockSubscriptionService) GetByID(ctx context.Context, ownerID, id uuid.UUID) (*billingapp.SubscriptionResponse, error) {
	args := m.Called(ctx, ownerID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billingapp.SubscriptionResponse), args.Error(1)
}

func (m *mockSubscriptionService) List(ctx context.Context, ownerID uuid.UUID, filter billingapp.SubscriptionListFilter) ([]billingapp.SubscriptionResponse, int64, error) {
	args := m.Called(ctx, ownerID, filter)
	return args.Get(0).([]billingapp.SubscriptionResponse), args.Get(1).(int64), args.Error(2)
}

func (m *mockSubscriptionService) Update(ctx context.Context, ownerID, id uuid.UUID, req billingapp.UpdateSubscriptionRequest) (*billingapp.SubscriptionResponse, error) {
	args := m.Called(ctx, ownerID, id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billingapp.SubscriptionResponse), args.Error(1)
}

func (m *mockSubscriptionService) Cancel(ctx context.Context, ownerID, id uuid.UUID) (*billingapp.SubscriptionResponse, error) {
	args := m.Called(ctx, ownerID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billingapp.SubscriptionResponse), args.Error(1)
}

func (m *mockSubscriptionService) Due(ctx context.Context, ownerID uuid.UUID, days int) (*billingapp.DueSubscriptionsResponse, error) {
	args := m.Called(ctx, ownerID, days)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billingapp.DueSubscriptionsResponse), args.Error(1)
}

func (m *mockSubscriptionService) GenerateInvoice(ctx context.Context, ownerID, id uuid.UUID, req billingapp.GenerateInvoiceRequest) (*billingapp.GeneratedInvoiceResponse, error) {
	args := m.Called(ctx, ownerID, id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billingapp.GeneratedInvoiceResponse), args.Error(1)
}

type mockReportService struct{ mock.Mock }

func (m *mockReportService) Overview(ctx context.Context, ownerID uuid.UUID) (*reportapp.OverviewResponse, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*reportapp.OverviewResponse), args.Error(1)
}

func (m *mockReportService) Revenue(ctx context.Context, ownerID uuid.UUID, months int) (*reportapp.RevenueResponse, error) {
	args := m.Called(ctx, ownerID, months)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*reportapp.RevenueResponse), args.Error(1)
}

func (m *mockReportService) TopClients(ctx context.Context, ownerID uuid.UUID, limit int) ([]report.ClientTotals, error) {
	args := m.Called(ctx, ownerID, limit)
	return args.Get(0).([]report.ClientTotals), args.Error(1)
}
