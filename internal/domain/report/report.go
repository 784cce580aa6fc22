// Package report holds the read models behind the dashboard endpoints.
// Amounts are never summed across currencies.
package report

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/invoicer/backend/internal/domain/billing"
	"github.com/invoicer/backend/internal/domain/shared/valueobject"
)

// CurrencyAmount is a total in a single currency
type CurrencyAmount struct {
	Currency valueobject.Currency `json:"currency"`
	Amount   decimal.Decimal      `json:"amount"`
}

// StatusCount counts invoices in one status
type StatusCount struct {
	Status billing.InvoiceStatus `json:"status"`
	Count  int64                 `json:"count"`
}

// PaymentEntry is the slice of a payment the revenue report needs
type PaymentEntry struct {
	PaidDate time.Time
	Amount   decimal.Decimal
	Currency valueobject.Currency
}

// RecurringEntry is the slice of an active subscription MRR needs
type RecurringEntry struct {
	Price        decimal.Decimal
	Currency     valueobject.Currency
	BillingCycle billing.Frequency
}

// ClientTotals aggregates a client's non-cancelled invoices in one currency
type ClientTotals struct {
	ClientID     uuid.UUID            `json:"client_id"`
	ClientName   string               `json:"client_name"`
	Currency     valueobject.Currency `json:"currency"`
	InvoiceCount int64                `json:"invoice_count"`
	Invoiced     decimal.Decimal      `json:"invoiced"`
	Paid         decimal.Decimal      `json:"paid"`
	Outstanding  decimal.Decimal      `json:"outstanding"`
}

// Repository runs the aggregate queries for one owner
type Repository interface {
	CountClients(ctx context.Context, ownerID uuid.UUID) (int64, error)
	CountActiveSubscriptions(ctx context.Context, ownerID uuid.UUID) (int64, error)
	InvoiceStatusCounts(ctx context.Context, ownerID uuid.UUID) ([]StatusCount, error)
	// OutstandingByCurrency sums amount minus paid over invoices in statuses
	OutstandingByCurrency(ctx context.Context, ownerID uuid.UUID, statuses ...billing.InvoiceStatus) ([]CurrencyAmount, error)
	// PaymentsBetween returns payments with paid date in [from, to]
	PaymentsBetween(ctx context.Context, ownerID uuid.UUID, from, to time.Time) ([]PaymentEntry, error)
	ActiveRecurring(ctx context.Context, ownerID uuid.UUID) ([]RecurringEntry, error)
	// TopClients ranks clients by paid amount
	TopClients(ctx context.Context, ownerID uuid.UUID, limit int) ([]ClientTotals, error)
}
