package billing

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/invoicer/backend/internal/domain/billing"
	"github.com/invoicer/backend/internal/domain/partner"
	"github.com/invoicer/backend/internal/domain/shared"
	"github.com/invoicer/backend/internal/infrastructure/telemetry"
)

// InvoiceService handles invoice CRUD and status changes
type InvoiceService struct {
	tx          shared.Transactor
	invoiceRepo billing.InvoiceRepository
	paymentRepo billing.PaymentRepository
	orderRepo   billing.OrderRepository
	clientRepo  partner.ClientRepository
	companyRepo partner.CompanyRepository
	numbers     numberer
	recorder    Recorder
	logger      *zap.Logger
	now         func() time.Time
}

// NewInvoiceService creates a new InvoiceService. recorder may be nil.
func NewInvoiceService(
	tx shared.Transactor,
	invoiceRepo billing.InvoiceRepository,
	paymentRepo billing.PaymentRepository,
	orderRepo billing.OrderRepository,
	clientRepo partner.ClientRepository,
	companyRepo partner.CompanyRepository,
	settings Settings,
	recorder Recorder,
	logger *zap.Logger,
) *InvoiceService {
	settings = settings.withDefaults()
	return &InvoiceService{
		tx:          tx,
		invoiceRepo: invoiceRepo,
		paymentRepo: paymentRepo,
		orderRepo:   orderRepo,
		clientRepo:  clientRepo,
		companyRepo: companyRepo,
		numbers:     numberer{repo: invoiceRepo, prefix: settings.InvoiceNumberPrefix},
		recorder:    recorderOrNop(recorder),
		logger:      logger,
		now:         systemClock,
	}
}

// Create creates a DRAFT invoice. Without a due date the invoice is due after
// the company's payment terms; without a currency it uses the client's.
func (s *InvoiceService) Create(ctx context.Context, ownerID uuid.UUID, req CreateInvoiceRequest) (*InvoiceResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "invoice", "create", telemetry.SpanAttrOwnerID, ownerID.String())
	defer span.End()

	client, err := findClient(ctx, s.clientRepo, ownerID, req.ClientID)
	if err != nil {
		return nil, err
	}
	company, err := resolveCompany(ctx, s.companyRepo, ownerID, req.CompanyID)
	if err != nil {
		return nil, err
	}
	if req.OrderID != nil {
		order, err := s.orderRepo.FindByID(ctx, ownerID, *req.OrderID)
		if shared.IsNotFound(err) {
			return nil, shared.NewDomainError("INVALID_ORDER", "Order not found")
		}
		if err != nil {
			return nil, err
		}
		if order.ClientID != client.ID {
			return nil, shared.NewDomainError("INVALID_ORDER", "Order belongs to another client")
		}
	}

	now := s.now()
	issue := dateOrZero(req.IssueDate)
	if issue.IsZero() {
		issue = now
	}
	due := dateOrZero(req.DueDate)
	if due.IsZero() {
		due = dueDateFor(issue, company)
	}
	currency := currencyOf(req.Currency)
	if currency == "" {
		currency = client.PreferredCurrency
	}

	inv, err := billing.NewInvoice(ownerID, billing.NewInvoiceInput{
		InvoiceNumber: req.InvoiceNumber,
		ClientID:      client.ID,
		CompanyID:     company.ID,
		OrderID:       req.OrderID,
		Amount:        req.Amount,
		Currency:      currency,
		IssueDate:     issue,
		DueDate:       due,
		Description:   req.Description,
		Notes:         req.Notes,
		Items:         toLineItems(req.Items),
	})
	if err != nil {
		return nil, err
	}

	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.numbers.assign(ctx, inv, now); err != nil {
			return err
		}
		return s.invoiceRepo.Save(ctx, inv)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, duplicateNumber(err, inv.InvoiceNumber)
	}

	s.recorder.InvoiceCreated(SourceManual)
	telemetry.SetAttributes(span, telemetry.SpanAttrInvoiceNumber, inv.InvoiceNumber)
	s.logger.Info("Invoice created",
		zap.String("invoice_id", inv.ID.String()),
		zap.String("invoice_number", inv.InvoiceNumber),
		zap.String("amount", inv.Amount.String()))

	resp := ToInvoiceResponse(inv)
	return &resp, nil
}

// GetByID retrieves an invoice. Reading never changes its status.
func (s *InvoiceService) GetByID(ctx context.Context, ownerID, id uuid.UUID) (*InvoiceResponse, error) {
	inv, err := s.invoiceRepo.FindByID(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	resp := ToInvoiceResponse(inv)
	return &resp, nil
}

// List retrieves a page of invoices
func (s *InvoiceService) List(ctx context.Context, ownerID uuid.UUID, filter InvoiceListFilter) ([]InvoiceResponse, int64, error) {
	invoices, total, err := s.invoiceRepo.FindAll(ctx, ownerID, filter.toDomain())
	if err != nil {
		return nil, 0, err
	}
	return lo.Map(invoices, func(inv billing.Invoice, _ int) InvoiceResponse {
		return ToInvoiceResponse(&inv)
	}), total, nil
}

// Update applies a partial update. Core fields only change while DRAFT.
func (s *InvoiceService) Update(ctx context.Context, ownerID, id uuid.UUID, req UpdateInvoiceRequest) (*InvoiceResponse, error) {
	if req.ClientID != nil {
		if _, err := findClient(ctx, s.clientRepo, ownerID, *req.ClientID); err != nil {
			return nil, err
		}
	}
	if req.CompanyID != nil {
		if _, err := resolveCompany(ctx, s.companyRepo, ownerID, req.CompanyID); err != nil {
			return nil, err
		}
	}

	var inv *billing.Invoice
	var before billing.InvoiceStatus
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		inv, err = s.invoiceRepo.FindByIDForUpdate(ctx, ownerID, id)
		if err != nil {
			return err
		}
		before = inv.Status
		if err := inv.Update(req.toUpdate()); err != nil {
			return err
		}
		return s.invoiceRepo.Save(ctx, inv)
	})
	if err != nil {
		return nil, err
	}
	if inv.Status != before {
		s.recorder.InvoiceTransitioned(inv.Status.String())
	}

	resp := ToInvoiceResponse(inv)
	return &resp, nil
}

// Delete removes an invoice without payments
func (s *InvoiceService) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	return s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		inv, err := s.invoiceRepo.FindByIDForUpdate(ctx, ownerID, id)
		if err != nil {
			return err
		}
		count, err := s.paymentRepo.CountByInvoice(ctx, inv.ID)
		if err != nil {
			return err
		}
		if count > 0 {
			return billing.ErrInvoiceHasPayments.WithDetails(map[string]int64{"payments": count})
		}
		if err := s.invoiceRepo.Delete(ctx, ownerID, id); err != nil {
			return err
		}
		s.logger.Info("Invoice deleted",
			zap.String("invoice_id", id.String()),
			zap.String("invoice_number", inv.InvoiceNumber))
		return nil
	})
}

// Cancel voids a DRAFT or SENT invoice without payments
func (s *InvoiceService) Cancel(ctx context.Context, ownerID, id uuid.UUID) (*InvoiceResponse, error) {
	var inv *billing.Invoice
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		inv, err = s.invoiceRepo.FindByIDForUpdate(ctx, ownerID, id)
		if err != nil {
			return err
		}
		if err := inv.Cancel(s.now()); err != nil {
			return err
		}
		return s.invoiceRepo.Save(ctx, inv)
	})
	if err != nil {
		return nil, err
	}
	s.recorder.InvoiceTransitioned(inv.Status.String())

	resp := ToInvoiceResponse(inv)
	return &resp, nil
}

// duplicateNumber turns a unique-index violation on save into the invoice
// number conflict, which is what it means here.
func duplicateNumber(err error, number string) error {
	if de, ok := shared.AsDomainError(err); ok && de.Code == shared.ErrAlreadyExists.Code {
		return billing.ErrDuplicateInvoiceNumber.WithDetails(map[string]string{"invoice_number": number})
	}
	return err
}
