package report

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/invoicer/backend/internal/domain/billing"
	"github.com/invoicer/backend/internal/domain/report"
	"github.com/invoicer/backend/internal/domain/shared"
	"github.com/invoicer/backend/internal/domain/shared/valueobject"
)

// Report limits
const (
	DefaultRevenueMonths = 12
	MaxRevenueMonths     = 36
	DefaultTopClients    = 10
	MaxTopClients        = 100
)

// ReportService provides the dashboard reports. All totals are kept per
// currency.
type ReportService struct {
	repo   report.Repository
	logger *zap.Logger
	now    func() time.Time
}

// NewReportService creates a new ReportService
func NewReportService(repo report.Repository, logger *zap.Logger) *ReportService {
	return &ReportService{
		repo:   repo,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// OverviewResponse is the dashboard summary
type OverviewResponse struct {
	Clients             int64                   `json:"clients"`
	ActiveSubscriptions int64                   `json:"active_subscriptions"`
	InvoicesByStatus    map[string]int64        `json:"invoices_by_status"`
	Outstanding         []report.CurrencyAmount `json:"outstanding"`
	Overdue             []report.CurrencyAmount `json:"overdue"`
	RevenueThisMonth    []report.CurrencyAmount `json:"revenue_this_month"`
	MRR                 []report.CurrencyAmount `json:"mrr"`
	GeneratedAt         time.Time               `json:"generated_at"`
}

// Overview runs the summary queries concurrently
func (s *ReportService) Overview(ctx context.Context, ownerID uuid.UUID) (*OverviewResponse, error) {
	now := s.now()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	resp := &OverviewResponse{
		InvoicesByStatus: make(map[string]int64),
		GeneratedAt:      now,
	}

	var (
		counts    []report.StatusCount
		payments  []report.PaymentEntry
		recurring []report.RecurringEntry
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		resp.Clients, err = s.repo.CountClients(gctx, ownerID)
		return err
	})
	g.Go(func() (err error) {
		resp.ActiveSubscriptions, err = s.repo.CountActiveSubscriptions(gctx, ownerID)
		return err
	})
	g.Go(func() (err error) {
		counts, err = s.repo.InvoiceStatusCounts(gctx, ownerID)
		return err
	})
	g.Go(func() (err error) {
		resp.Outstanding, err = s.repo.OutstandingByCurrency(gctx, ownerID,
			billing.InvoiceStatusSent, billing.InvoiceStatusOverdue)
		return err
	})
	g.Go(func() (err error) {
		resp.Overdue, err = s.repo.OutstandingByCurrency(gctx, ownerID, billing.InvoiceStatusOverdue)
		return err
	})
	g.Go(func() (err error) {
		payments, err = s.repo.PaymentsBetween(gctx, ownerID, monthStart, billing.DateOf(now))
		return err
	})
	g.Go(func() (err error) {
		recurring, err = s.repo.ActiveRecurring(gctx, ownerID)
		return err
	})
	if err := g.Wait(); err != nil {
		s.logger.Error("Failed to build overview report", zap.String("owner_id", ownerID.String()), zap.Error(err))
		return nil, err
	}

	for _, st := range []billing.InvoiceStatus{
		billing.InvoiceStatusDraft, billing.InvoiceStatusSent, billing.InvoiceStatusPaid,
		billing.InvoiceStatusOverdue, billing.InvoiceStatusCancelled,
	} {
		resp.InvoicesByStatus[st.String()] = 0
	}
	for _, c := range counts {
		resp.InvoicesByStatus[c.Status.String()] = c.Count
	}

	revenue := newTotals()
	for _, p := range payments {
		revenue.add(p.Currency, p.Amount)
	}
	resp.RevenueThisMonth = revenue.list()
	resp.MRR = MonthlyRecurring(recurring)
	resp.Outstanding = nonNil(resp.Outstanding)
	resp.Overdue = nonNil(resp.Overdue)
	return resp, nil
}

// MonthlyRecurring normalizes active subscription prices to one month and
// sums them per currency
func MonthlyRecurring(entries []report.RecurringEntry) []report.CurrencyAmount {
	mrr := newTotals()
	for _, e := range entries {
		mrr.add(e.Currency, e.Price.Mul(e.BillingCycle.MonthlyFactor()))
	}
	return mrr.list()
}

// RevenueMonth is one calendar month of received payments
type RevenueMonth struct {
	Month  string                  `json:"month"`
	Totals []report.CurrencyAmount `json:"totals"`
}

// RevenueResponse lists the last N months, oldest first
type RevenueResponse struct {
	Months []RevenueMonth `json:"months"`
	From   string         `json:"from"`
	To     string         `json:"to"`
}

// Revenue groups payments of the last months months (current one included)
// by calendar month. Months without payments are present with empty totals.
func (s *ReportService) Revenue(ctx context.Context, ownerID uuid.UUID, months int) (*RevenueResponse, error) {
	if months <= 0 {
		months = DefaultRevenueMonths
	}
	if months > MaxRevenueMonths {
		return nil, shared.NewDomainError("INVALID_MONTHS", fmt.Sprintf("months must not exceed %d", MaxRevenueMonths))
	}

	now := s.now()
	current := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	first := current.AddDate(0, -(months - 1), 0)
	payments, err := s.repo.PaymentsBetween(ctx, ownerID, first, billing.DateOf(now))
	if err != nil {
		return nil, err
	}

	buckets := make(map[string]*totals, months)
	resp := &RevenueResponse{
		Months: make([]RevenueMonth, 0, months),
		From:   first.Format("2006-01"),
		To:     current.Format("2006-01"),
	}
	for m := first; !m.After(current); m = m.AddDate(0, 1, 0) {
		buckets[m.Format("2006-01")] = newTotals()
	}
	for _, p := range payments {
		if b, ok := buckets[p.PaidDate.UTC().Format("2006-01")]; ok {
			b.add(p.Currency, p.Amount)
		}
	}
	for m := first; !m.After(current); m = m.AddDate(0, 1, 0) {
		key := m.Format("2006-01")
		resp.Months = append(resp.Months, RevenueMonth{Month: key, Totals: buckets[key].list()})
	}
	return resp, nil
}

// TopClients ranks clients by paid amount. limit <= 0 uses the default.
func (s *ReportService) TopClients(ctx context.Context, ownerID uuid.UUID, limit int) ([]report.ClientTotals, error) {
	if limit <= 0 {
		limit = DefaultTopClients
	}
	if limit > MaxTopClients {
		limit = MaxTopClients
	}
	rows, err := s.repo.TopClients(ctx, ownerID, limit)
	if err != nil {
		return nil, err
	}
	return nonNil(rows), nil
}

// totals accumulates amounts per currency
type totals struct {
	byCurrency map[valueobject.Currency]decimal.Decimal
}

func newTotals() *totals {
	return &totals{byCurrency: make(map[valueobject.Currency]decimal.Decimal)}
}

func (t *totals) add(currency valueobject.Currency, amount decimal.Decimal) {
	t.byCurrency[currency] = t.byCurrency[currency].Add(amount)
}

// list returns the totals rounded to cents, sorted by currency code
func (t *totals) list() []report.CurrencyAmount {
	out := make([]report.CurrencyAmount, 0, len(t.byCurrency))
	for c, amount := range t.byCurrency {
		out = append(out, report.CurrencyAmount{Currency: c, Amount: amount.Round(2)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Currency < out[j].Currency })
	return out
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
