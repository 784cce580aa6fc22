package billing

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/invoicer/backend/internal/domain/billing"
	"github.com/invoicer/backend/internal/domain/partner"
	"github.com/invoicer/backend/internal/domain/shared"
	"github.com/invoicer/backend/internal/domain/shared/valueobject"
)

// Recorder receives billing events for metrics. *telemetry.Metrics satisfies it.
type Recorder interface {
	InvoiceCreated(source string)
	InvoiceSent()
	InvoiceTransitioned(status string)
	PaymentRecorded(method, currency string, amount decimal.Decimal)
	PDFRendered(elapsed time.Duration, err error)
	MailDelivered(kind string, err error)
}

type nopRecorder struct{}

func (nopRecorder) InvoiceCreated(string) {}
func (nopRecorder) InvoiceSent() {}
func (nopRecorder) InvoiceTransitioned(string) {}
func (nopRecorder) PaymentRecorded(string, string, decimal.Decimal) {}
func (nopRecorder) PDFRendered(time.Duration, error) {}
func (nopRecorder) MailDelivered(string, error) {}

func recorderOrNop(r Recorder) Recorder {
	if r == nil {
		return nopRecorder{}
	}
	return r
}

// Invoice sources for Recorder.InvoiceCreated
const (
	SourceManual       = "manual"
	SourceOrder        = "order"
	SourceSubscription = "subscription"
)

// Settings are the billing defaults shared by the services
type Settings struct {
	InvoiceNumberPrefix     string
	DefaultPaymentTermsDays int
	DueWindowDays           int
}

func (s Settings) withDefaults() Settings {
	if s.InvoiceNumberPrefix == "" {
		s.InvoiceNumberPrefix = billing.DefaultInvoiceNumberPrefix
	}
	if s.DueWindowDays <= 0 {
		s.DueWindowDays = billing.DefaultDueWindowDays
	}
	return s
}

// maxNumberDraws bounds how many taken numbers assign skips in one period
const maxNumberDraws = 50

// numberer assigns invoice numbers inside the creating transaction
type numberer struct {
	repo   billing.InvoiceRepository
	prefix string
}

// assign keeps a caller-supplied number after a uniqueness check, or draws
// the next number of the current period. Generated numbers already taken
// by a manual entry are skipped; the counter stays advanced past them.
func (n numberer) assign(ctx context.Context, inv *billing.Invoice, now time.Time) error {
	if inv.InvoiceNumber != "" {
		exists, err := n.repo.ExistsByNumber(ctx, inv.InvoiceNumber)
		if err != nil {
			return err
		}
		if exists {
			return billing.ErrDuplicateInvoiceNumber.WithDetails(map[string]string{"invoice_number": inv.InvoiceNumber})
		}
		return nil
	}
	period := billing.SequencePeriod(now)
	for range maxNumberDraws {
		seq, err := n.repo.NextSequence(ctx, period)
		if err != nil {
			return err
		}
		number := billing.FormatInvoiceNumber(n.prefix, period, seq)
		taken, err := n.repo.ExistsByNumber(ctx, number)
		if err != nil {
			return err
		}
		if !taken {
			inv.InvoiceNumber = number
			return nil
		}
	}
	return billing.ErrDuplicateInvoiceNumber.WithDetails(map[string]string{"period": period})
}

// resolveCompany returns the requested company or the user's default one
func resolveCompany(ctx context.Context, repo partner.CompanyRepository, ownerID uuid.UUID, id *uuid.UUID) (*partner.Company, error) {
	if id != nil && *id != uuid.Nil {
		company, err := repo.FindByID(ctx, ownerID, *id)
		if shared.IsNotFound(err) {
			return nil, shared.NewDomainError("INVALID_COMPANY", "Company not found")
		}
		return company, err
	}
	company, err := repo.FindDefault(ctx, ownerID)
	if shared.IsNotFound(err) {
		return nil, shared.NewDomainError("NO_DEFAULT_COMPANY", "Create a company or pass company_id")
	}
	return company, err
}

func findClient(ctx context.Context, repo partner.ClientRepository, ownerID, id uuid.UUID) (*partner.Client, error) {
	client, err := repo.FindByID(ctx, ownerID, id)
	if shared.IsNotFound(err) {
		return nil, shared.NewDomainError("INVALID_CLIENT", "Client not found")
	}
	return client, err
}

func dueDateFor(issue time.Time, company *partner.Company) time.Time {
	return billing.DateOf(issue).AddDate(0, 0, company.PaymentTermsDays)
}

func currencyOf(s string) valueobject.Currency {
	return valueobject.Currency(strings.ToUpper(strings.TrimSpace(s)))
}

func systemClock() time.Time {
	return time.Now().UTC()
}
