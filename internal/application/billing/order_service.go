package billing

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/invoicer/backend/internal/domain/billing"
	"github.com/invoicer/backend/internal/domain/catalog"
	"github.com/invoicer/backend/internal/domain/partner"
	"github.com/invoicer/backend/internal/domain/shared"
	"github.com/invoicer/backend/internal/infrastructure/telemetry"
)

// OrderService manages orders and generates invoices from them
type OrderService struct {
	tx          shared.Transactor
	orderRepo   billing.OrderRepository
	invoiceRepo billing.InvoiceRepository
	clientRepo  partner.ClientRepository
	companyRepo partner.CompanyRepository
	serviceRepo catalog.ServiceItemRepository
	numbers     numberer
	recorder    Recorder
	logger      *zap.Logger
	now         func() time.Time
}

// NewOrderService creates a new OrderService. recorder may be nil.
func NewOrderService(
	tx shared.Transactor,
	orderRepo billing.OrderRepository,
	invoiceRepo billing.InvoiceRepository,
	clientRepo partner.ClientRepository,
	companyRepo partner.CompanyRepository,
	serviceRepo catalog.ServiceItemRepository,
	settings Settings,
	recorder Recorder,
	logger *zap.Logger,
) *OrderService {
	settings = settings.withDefaults()
	return &OrderService{
		tx:          tx,
		orderRepo:   orderRepo,
		invoiceRepo: invoiceRepo,
		clientRepo:  clientRepo,
		companyRepo: companyRepo,
		serviceRepo: serviceRepo,
		numbers:     numberer{repo: invoiceRepo, prefix: settings.InvoiceNumberPrefix},
		recorder:    recorderOrNop(recorder),
		logger:      logger,
		now:         systemClock,
	}
}

// orderInput resolves the client and the optional service template
func (s *OrderService) orderInput(ctx context.Context, ownerID uuid.UUID, req OrderRequest) (billing.OrderInput, error) {
	client, err := findClient(ctx, s.clientRepo, ownerID, req.ClientID)
	if err != nil {
		return billing.OrderInput{}, err
	}
	in := billing.OrderInput{
		ClientID:    client.ID,
		ServiceID:   req.ServiceID,
		Description: req.Description,
		Amount:      req.Amount,
		Currency:    currencyOf(req.Currency),
		Frequency:   billing.Frequency(req.Frequency),
		StartDate:   dateOrZero(req.StartDate),
		EndDate:     datePtr(req.EndDate),
		Notes:       req.Notes,
	}

	if req.ServiceID != nil {
		item, err := s.serviceRepo.FindByID(ctx, ownerID, *req.ServiceID)
		if shared.IsNotFound(err) {
			return billing.OrderInput{}, shared.NewDomainError("INVALID_SERVICE", "Service not found")
		}
		if err != nil {
			return billing.OrderInput{}, err
		}
		if in.Description == "" {
			in.Description = item.Name
		}
		if in.Amount.IsZero() {
			in.Amount = item.DefaultPrice
		}
		if in.Currency == "" {
			in.Currency = item.Currency
		}
		if in.Frequency == "" {
			in.Frequency = item.BillingCycle
		}
	}
	if in.Currency == "" {
		in.Currency = client.PreferredCurrency
	}
	return in, nil
}

// Create creates an ACTIVE order
func (s *OrderService) Create(ctx context.Context, ownerID uuid.UUID, req OrderRequest) (*OrderResponse, error) {
	in, err := s.orderInput(ctx, ownerID, req)
	if err != nil {
		return nil, err
	}
	order, err := billing.NewOrder(ownerID, in)
	if err != nil {
		return nil, err
	}
	if err := s.orderRepo.Save(ctx, order); err != nil {
		return nil, err
	}

	resp := ToOrderResponse(order, s.now())
	return &resp, nil
}

// GetByID retrieves an order
func (s *OrderService) GetByID(ctx context.Context, ownerID, id uuid.UUID) (*OrderResponse, error) {
	order, err := s.orderRepo.FindByID(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	resp := ToOrderResponse(order, s.now())
	return &resp, nil
}

// List retrieves a page of orders
func (s *OrderService) List(ctx context.Context, ownerID uuid.UUID, filter OrderListFilter) ([]OrderResponse, int64, error) {
	orders, total, err := s.orderRepo.FindAll(ctx, ownerID, filter.toDomain())
	if err != nil {
		return nil, 0, err
	}
	now := s.now()
	return lo.Map(orders, func(o billing.Order, _ int) OrderResponse {
		return ToOrderResponse(&o, now)
	}), total, nil
}

// Update replaces the terms of an order
func (s *OrderService) Update(ctx context.Context, ownerID, id uuid.UUID, req OrderRequest) (*OrderResponse, error) {
	in, err := s.orderInput(ctx, ownerID, req)
	if err != nil {
		return nil, err
	}

	var order *billing.Order
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		order, err = s.orderRepo.FindByIDForUpdate(ctx, ownerID, id)
		if err != nil {
			return err
		}
		if err := order.Update(in); err != nil {
			return err
		}
		return s.orderRepo.Save(ctx, order)
	})
	if err != nil {
		return nil, err
	}

	resp := ToOrderResponse(order, s.now())
	return &resp, nil
}

// ChangeStatus moves an order between ACTIVE and PAUSED, or to CANCELLED
func (s *OrderService) ChangeStatus(ctx context.Context, ownerID, id uuid.UUID, req OrderStatusRequest) (*OrderResponse, error) {
	var order *billing.Order
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		order, err = s.orderRepo.FindByIDForUpdate(ctx, ownerID, id)
		if err != nil {
			return err
		}
		if err := order.ChangeStatus(billing.OrderStatus(req.Status), s.now()); err != nil {
			return err
		}
		return s.orderRepo.Save(ctx, order)
	})
	if err != nil {
		return nil, err
	}

	resp := ToOrderResponse(order, s.now())
	return &resp, nil
}

// Delete removes an order that never produced an invoice
func (s *OrderService) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	return s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.orderRepo.FindByIDForUpdate(ctx, ownerID, id); err != nil {
			return err
		}
		count, err := s.invoiceRepo.CountByOrder(ctx, ownerID, id)
		if err != nil {
			return err
		}
		if count > 0 {
			return billing.ErrOrderHasInvoices.WithDetails(map[string]int64{"invoices": count})
		}
		return s.orderRepo.Delete(ctx, ownerID, id)
	})
}

// GenerateInvoice creates a DRAFT invoice for the order's amount, issued by
// the requested or the default company and due after its payment terms.
func (s *OrderService) GenerateInvoice(ctx context.Context, ownerID, id uuid.UUID, req GenerateInvoiceRequest) (*InvoiceResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "order", "generate_invoice", telemetry.SpanAttrOrderID, id.String())
	defer span.End()

	company, err := resolveCompany(ctx, s.companyRepo, ownerID, req.CompanyID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	issue := dateOrZero(req.IssueDate)
	if issue.IsZero() {
		issue = now
	}

	var inv *billing.Invoice
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		order, err := s.orderRepo.FindByIDForUpdate(ctx, ownerID, id)
		if err != nil {
			return err
		}
		if err := order.CanGenerateInvoice(); err != nil {
			return err
		}
		orderID := order.ID
		inv, err = billing.NewInvoice(ownerID, billing.NewInvoiceInput{
			InvoiceNumber: req.InvoiceNumber,
			ClientID:      order.ClientID,
			CompanyID:     company.ID,
			OrderID:       &orderID,
			Amount:        order.Amount,
			Currency:      order.Currency,
			IssueDate:     issue,
			DueDate:       dueDateFor(issue, company),
			Description:   order.Description,
			Notes:         req.Notes,
		})
		if err != nil {
			return err
		}
		if err := s.numbers.assign(ctx, inv, now); err != nil {
			return err
		}
		if err := s.invoiceRepo.Save(ctx, inv); err != nil {
			return err
		}
		order.MarkInvoiced(now)
		return s.orderRepo.Save(ctx, order)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		if inv != nil {
			return nil, duplicateNumber(err, inv.InvoiceNumber)
		}
		return nil, err
	}

	s.recorder.InvoiceCreated(SourceOrder)
	s.logger.Info("Invoice generated from order",
		zap.String("order_id", id.String()),
		zap.String("invoice_number", inv.InvoiceNumber))

	resp := ToInvoiceResponse(inv)
	return &resp, nil
}
