package billing

import (
	"context"
	"fmt"
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

// MaxDueWindowDays bounds the due query
const MaxDueWindowDays = 365

// SubscriptionService manages recurring subscriptions
type SubscriptionService struct {
	tx          shared.Transactor
	subRepo     billing.SubscriptionRepository
	invoiceRepo billing.InvoiceRepository
	clientRepo  partner.ClientRepository
	companyRepo partner.CompanyRepository
	serviceRepo catalog.ServiceItemRepository
	numbers     numberer
	dueDays     int
	recorder    Recorder
	logger      *zap.Logger
	now         func() time.Time
}

// NewSubscriptionService creates a new SubscriptionService. recorder may be nil.
func NewSubscriptionService(
	tx shared.Transactor,
	subRepo billing.SubscriptionRepository,
	invoiceRepo billing.InvoiceRepository,
	clientRepo partner.ClientRepository,
	companyRepo partner.CompanyRepository,
	serviceRepo catalog.ServiceItemRepository,
	settings Settings,
	recorder Recorder,
	logger *zap.Logger,
) *SubscriptionService {
	settings = settings.withDefaults()
	return &SubscriptionService{
		tx:          tx,
		subRepo:     subRepo,
		invoiceRepo: invoiceRepo,
		clientRepo:  clientRepo,
		companyRepo: companyRepo,
		serviceRepo: serviceRepo,
		numbers:     numberer{repo: invoiceRepo, prefix: settings.InvoiceNumberPrefix},
		dueDays:     settings.DueWindowDays,
		recorder:    recorderOrNop(recorder),
		logger:      logger,
		now:         systemClock,
	}
}

func (s *SubscriptionService) findService(ctx context.Context, ownerID, id uuid.UUID) (*catalog.ServiceItem, error) {
	item, err := s.serviceRepo.FindByID(ctx, ownerID, id)
	if shared.IsNotFound(err) {
		return nil, shared.NewDomainError("INVALID_SERVICE", "Service not found")
	}
	if err != nil {
		return nil, err
	}
	return item, nil
}

// Create starts an ACTIVE subscription. The first billing date is the next
// billing day strictly after the start date.
func (s *SubscriptionService) Create(ctx context.Context, ownerID uuid.UUID, req CreateSubscriptionRequest) (*SubscriptionResponse, error) {
	client, err := findClient(ctx, s.clientRepo, ownerID, req.ClientID)
	if err != nil {
		return nil, err
	}
	item, err := s.findService(ctx, ownerID, req.ServiceID)
	if err != nil {
		return nil, err
	}
	if !item.IsActive {
		return nil, shared.NewDomainError("INVALID_SERVICE", "Service is inactive")
	}
	company, err := resolveCompany(ctx, s.companyRepo, ownerID, req.CompanyID)
	if err != nil {
		return nil, err
	}

	start := dateOrZero(req.StartDate)
	if start.IsZero() {
		start = s.now()
	}
	in := billing.NewSubscriptionInput{
		ClientID:     client.ID,
		ServiceID:    item.ID,
		CompanyID:    company.ID,
		Price:        item.DefaultPrice,
		Currency:     currencyOf(req.Currency),
		BillingCycle: billing.Frequency(req.BillingCycle),
		StartDate:    start,
		Notes:        req.Notes,
	}
	if req.Price != nil {
		in.Price = *req.Price
	}
	if in.Currency == "" {
		in.Currency = item.Currency
	}
	if in.BillingCycle == "" && item.BillingCycle.IsMonthBased() {
		in.BillingCycle = item.BillingCycle
	}
	switch {
	case req.BillingDay != nil:
		in.BillingDay = *req.BillingDay
	case item.DefaultBillingDay != nil:
		in.BillingDay = *item.DefaultBillingDay
	default:
		in.BillingDay = billing.DateOf(start).Day()
	}

	sub, err := billing.NewSubscription(ownerID, in)
	if err != nil {
		return nil, err
	}
	if err := s.subRepo.Save(ctx, sub); err != nil {
		return nil, err
	}
	s.logger.Info("Subscription created",
		zap.String("subscription_id", sub.ID.String()),
		zap.Time("next_billing_date", sub.NextBillingDate))

	resp := ToSubscriptionResponse(sub)
	return &resp, nil
}

// GetByID retrieves a subscription, cancelled ones included
func (s *SubscriptionService) GetByID(ctx context.Context, ownerID, id uuid.UUID) (*SubscriptionResponse, error) {
	sub, err := s.subRepo.FindByID(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	resp := ToSubscriptionResponse(sub)
	return &resp, nil
}

// List retrieves a page of subscriptions; cancelled ones are hidden by default
func (s *SubscriptionService) List(ctx context.Context, ownerID uuid.UUID, filter SubscriptionListFilter) ([]SubscriptionResponse, int64, error) {
	subs, total, err := s.subRepo.FindAll(ctx, ownerID, filter.toDomain())
	if err != nil {
		return nil, 0, err
	}
	return toSubscriptionResponses(subs), total, nil
}

// Update applies a partial update. A changed billing day recomputes the next
// billing date from today.
func (s *SubscriptionService) Update(ctx context.Context, ownerID, id uuid.UUID, req UpdateSubscriptionRequest) (*SubscriptionResponse, error) {
	if req.ServiceID != nil {
		if _, err := s.findService(ctx, ownerID, *req.ServiceID); err != nil {
			return nil, err
		}
	}
	if req.CompanyID != nil {
		if _, err := resolveCompany(ctx, s.companyRepo, ownerID, req.CompanyID); err != nil {
			return nil, err
		}
	}

	var sub *billing.Subscription
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		sub, err = s.subRepo.FindByIDForUpdate(ctx, ownerID, id)
		if err != nil {
			return err
		}
		if err := sub.Update(req.toUpdate(), s.now()); err != nil {
			return err
		}
		return s.subRepo.Save(ctx, sub)
	})
	if err != nil {
		return nil, err
	}

	resp := ToSubscriptionResponse(sub)
	return &resp, nil
}

// Cancel soft-deletes a subscription
func (s *SubscriptionService) Cancel(ctx context.Context, ownerID, id uuid.UUID) (*SubscriptionResponse, error) {
	var sub *billing.Subscription
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		sub, err = s.subRepo.FindByIDForUpdate(ctx, ownerID, id)
		if err != nil {
			return err
		}
		if err := sub.Cancel(s.now()); err != nil {
			return err
		}
		return s.subRepo.Save(ctx, sub)
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("Subscription cancelled", zap.String("subscription_id", id.String()))

	resp := ToSubscriptionResponse(sub)
	return &resp, nil
}

// Due lists ACTIVE subscriptions billing between today and days from now,
// earliest first. days <= 0 uses the configured window.
func (s *SubscriptionService) Due(ctx context.Context, ownerID uuid.UUID, days int) (*DueSubscriptionsResponse, error) {
	if days <= 0 {
		days = s.dueDays
	}
	if days > MaxDueWindowDays {
		return nil, shared.NewDomainError("INVALID_DAYS", fmt.Sprintf("days must not exceed %d", MaxDueWindowDays))
	}
	from, to := billing.DueWindow(s.now(), days)
	subs, err := s.subRepo.FindDue(ctx, ownerID, from, to)
	if err != nil {
		return nil, err
	}
	return &DueSubscriptionsResponse{
		From:          Date{from},
		To:            Date{to},
		Days:          days,
		Subscriptions: toSubscriptionResponses(subs),
	}, nil
}

// GenerateInvoice bills the current cycle: it creates a DRAFT invoice for the
// subscription price and moves the next billing date one cycle forward, in
// one transaction.
func (s *SubscriptionService) GenerateInvoice(ctx context.Context, ownerID, id uuid.UUID, req GenerateInvoiceRequest) (*GeneratedInvoiceResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "subscription", "generate_invoice", telemetry.SpanAttrSubscriptionID, id.String())
	defer span.End()

	now := s.now()
	issue := dateOrZero(req.IssueDate)
	if issue.IsZero() {
		issue = now
	}

	var inv *billing.Invoice
	var sub *billing.Subscription
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		sub, err = s.subRepo.FindByIDForUpdate(ctx, ownerID, id)
		if err != nil {
			return err
		}
		if err := sub.CanBill(); err != nil {
			return err
		}
		companyID := sub.CompanyID
		if req.CompanyID != nil {
			companyID = *req.CompanyID
		}
		company, err := resolveCompany(ctx, s.companyRepo, ownerID, &companyID)
		if err != nil {
			return err
		}
		item, err := s.findService(ctx, ownerID, sub.ServiceID)
		if err != nil {
			return err
		}

		subID := sub.ID
		inv, err = billing.NewInvoice(ownerID, billing.NewInvoiceInput{
			InvoiceNumber:  req.InvoiceNumber,
			ClientID:       sub.ClientID,
			CompanyID:      company.ID,
			SubscriptionID: &subID,
			Amount:         sub.Price,
			Currency:       sub.Currency,
			IssueDate:      issue,
			DueDate:        dueDateFor(issue, company),
			Description:    fmt.Sprintf("%s, billing period from %s", item.Name, sub.NextBillingDate.Format(DateLayout)),
			Notes:          req.Notes,
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
		if err := sub.AdvanceCycle(now); err != nil {
			return err
		}
		return s.subRepo.Save(ctx, sub)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		if inv != nil {
			return nil, duplicateNumber(err, inv.InvoiceNumber)
		}
		return nil, err
	}

	s.recorder.InvoiceCreated(SourceSubscription)
	s.logger.Info("Invoice generated from subscription",
		zap.String("subscription_id", id.String()),
		zap.String("invoice_number", inv.InvoiceNumber),
		zap.Time("next_billing_date", sub.NextBillingDate))

	return &GeneratedInvoiceResponse{
		Invoice:      ToInvoiceResponse(inv),
		Subscription: ToSubscriptionResponse(sub),
	}, nil
}

func toSubscriptionResponses(subs []billing.Subscription) []SubscriptionResponse {
	return lo.Map(subs, func(sub billing.Subscription, _ int) SubscriptionResponse {
		return ToSubscriptionResponse(&sub)
	})
}
