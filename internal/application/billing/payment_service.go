package billing

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/invoicer/backend/internal/domain/billing"
	"github.com/invoicer/backend/internal/domain/shared"
	"github.com/invoicer/backend/internal/infrastructure/telemetry"
)

// PaymentService records payments and keeps the paid total and status of
// their invoice in step. Every change runs under a row lock on the invoice so
// concurrent payments cannot overpay it.
type PaymentService struct {
	tx          shared.Transactor
	invoiceRepo billing.InvoiceRepository
	paymentRepo billing.PaymentRepository
	recorder    Recorder
	logger      *zap.Logger
	now         func() time.Time
}

// NewPaymentService creates a new PaymentService. recorder may be nil.
func NewPaymentService(
	tx shared.Transactor,
	invoiceRepo billing.InvoiceRepository,
	paymentRepo billing.PaymentRepository,
	recorder Recorder,
	logger *zap.Logger,
) *PaymentService {
	return &PaymentService{
		tx:          tx,
		invoiceRepo: invoiceRepo,
		paymentRepo: paymentRepo,
		recorder:    recorderOrNop(recorder),
		logger:      logger,
		now:         systemClock,
	}
}

// Create applies a payment to its invoice. Reaching the full amount marks the
// invoice PAID; exceeding it is rejected.
func (s *PaymentService) Create(ctx context.Context, ownerID uuid.UUID, req CreatePaymentRequest) (*PaymentResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "payment", "create",
		telemetry.SpanAttrInvoiceID, req.InvoiceID.String(),
		telemetry.SpanAttrAmount, req.Amount.String())
	defer span.End()

	var inv *billing.Invoice
	var payment *billing.Payment
	var before billing.InvoiceStatus
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		inv, err = s.invoiceRepo.FindByIDForUpdate(ctx, ownerID, req.InvoiceID)
		if err != nil {
			return err
		}
		before = inv.Status
		payment, err = billing.NewPayment(inv, billing.NewPaymentInput{
			Amount:    req.Amount,
			Method:    billing.PaymentMethod(req.Method),
			PaidDate:  dateOrZero(req.PaidDate),
			Reference: req.Reference,
			Notes:     req.Notes,
		})
		if err != nil {
			return err
		}
		if err := inv.ApplyPayment(payment.Amount, s.now()); err != nil {
			return err
		}
		if err := s.paymentRepo.Save(ctx, payment); err != nil {
			return err
		}
		return s.invoiceRepo.Save(ctx, inv)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.recorder.PaymentRecorded(payment.Method.String(), payment.Currency.String(), payment.Amount)
	if inv.Status != before {
		s.recorder.InvoiceTransitioned(inv.Status.String())
	}
	s.logger.Info("Payment recorded",
		zap.String("payment_id", payment.ID.String()),
		zap.String("invoice_id", inv.ID.String()),
		zap.String("amount", payment.Amount.String()),
		zap.String("invoice_status", inv.Status.String()))

	return &PaymentResult{Payment: ToPaymentResponse(payment), Invoice: ToInvoiceResponse(inv)}, nil
}

// GetByID retrieves a payment
func (s *PaymentService) GetByID(ctx context.Context, ownerID, id uuid.UUID) (*PaymentResponse, error) {
	payment, err := s.paymentRepo.FindByID(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	resp := ToPaymentResponse(payment)
	return &resp, nil
}

// List retrieves a page of payments
func (s *PaymentService) List(ctx context.Context, ownerID uuid.UUID, filter PaymentListFilter) ([]PaymentResponse, int64, error) {
	payments, total, err := s.paymentRepo.FindAll(ctx, ownerID, filter.toDomain())
	if err != nil {
		return nil, 0, err
	}
	return toPaymentResponses(payments), total, nil
}

// ListByInvoice returns all payments of an invoice, oldest first
func (s *PaymentService) ListByInvoice(ctx context.Context, ownerID, invoiceID uuid.UUID) ([]PaymentResponse, error) {
	if _, err := s.invoiceRepo.FindByID(ctx, ownerID, invoiceID); err != nil {
		return nil, err
	}
	payments, err := s.paymentRepo.FindByInvoice(ctx, ownerID, invoiceID)
	if err != nil {
		return nil, err
	}
	return toPaymentResponses(payments), nil
}

// Update edits a payment and reconciles its invoice
func (s *PaymentService) Update(ctx context.Context, ownerID, id uuid.UUID, req UpdatePaymentRequest) (*PaymentResult, error) {
	var inv *billing.Invoice
	var payment *billing.Payment
	var before billing.InvoiceStatus
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		payment, err = s.paymentRepo.FindByID(ctx, ownerID, id)
		if err != nil {
			return err
		}
		inv, err = s.invoiceRepo.FindByIDForUpdate(ctx, ownerID, payment.InvoiceID)
		if err != nil {
			return err
		}
		before = inv.Status
		if err := payment.Update(req.toUpdate()); err != nil {
			return err
		}
		if err := s.paymentRepo.Save(ctx, payment); err != nil {
			return err
		}
		return s.reconcile(ctx, inv)
	})
	if err != nil {
		return nil, err
	}
	if inv.Status != before {
		s.recorder.InvoiceTransitioned(inv.Status.String())
	}

	return &PaymentResult{Payment: ToPaymentResponse(payment), Invoice: ToInvoiceResponse(inv)}, nil
}

// Delete removes a payment and reconciles its invoice. A PAID invoice that
// is no longer covered reopens.
func (s *PaymentService) Delete(ctx context.Context, ownerID, id uuid.UUID) (*InvoiceResponse, error) {
	var inv *billing.Invoice
	var before billing.InvoiceStatus
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		payment, err := s.paymentRepo.FindByID(ctx, ownerID, id)
		if err != nil {
			return err
		}
		inv, err = s.invoiceRepo.FindByIDForUpdate(ctx, ownerID, payment.InvoiceID)
		if err != nil {
			return err
		}
		before = inv.Status
		if err := s.paymentRepo.Delete(ctx, ownerID, id); err != nil {
			return err
		}
		return s.reconcile(ctx, inv)
	})
	if err != nil {
		return nil, err
	}
	if inv.Status != before {
		s.recorder.InvoiceTransitioned(inv.Status.String())
	}
	s.logger.Info("Payment deleted",
		zap.String("payment_id", id.String()),
		zap.String("invoice_id", inv.ID.String()),
		zap.String("invoice_status", inv.Status.String()))

	resp := ToInvoiceResponse(inv)
	return &resp, nil
}

// reconcile recomputes the paid total from the stored payments
func (s *PaymentService) reconcile(ctx context.Context, inv *billing.Invoice) error {
	total, err := s.paymentRepo.SumByInvoice(ctx, inv.ID)
	if err != nil {
		return err
	}
	if err := inv.ReconcilePayments(total, s.now()); err != nil {
		return err
	}
	return s.invoiceRepo.Save(ctx, inv)
}

func toPaymentResponses(payments []billing.Payment) []PaymentResponse {
	return lo.Map(payments, func(p billing.Payment, _ int) PaymentResponse {
		return ToPaymentResponse(&p)
	})
}
