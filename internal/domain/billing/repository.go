package billing

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/invoicer/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// InvoiceFilter narrows invoice listings
type InvoiceFilter struct {
	shared.Filter
	Status    InvoiceStatus
	ClientID  *uuid.UUID
	CompanyID *uuid.UUID
	OrderID   *uuid.UUID
}

// InvoiceRepository persists invoices. All lookups are scoped by owner.
type InvoiceRepository interface {
	FindByID(ctx context.Context, ownerID, id uuid.UUID) (*Invoice, error)
	// FindByIDForUpdate locks the row for the rest of the surrounding transaction.
	FindByIDForUpdate(ctx context.Context, ownerID, id uuid.UUID) (*Invoice, error)
	FindAll(ctx context.Context, ownerID uuid.UUID, filter InvoiceFilter) ([]Invoice, int64, error)
	Save(ctx context.Context, invoice *Invoice) error
	Delete(ctx context.Context, ownerID, id uuid.UUID) error
	ExistsByNumber(ctx context.Context, number string) (bool, error)
	// NextSequence increments and returns the generated-number counter of period.
	NextSequence(ctx context.Context, period string) (int64, error)
	CountByOrder(ctx context.Context, ownerID, orderID uuid.UUID) (int64, error)
	// FindPastDue returns SENT invoices of every owner whose due date is before asOf.
	FindPastDue(ctx context.Context, asOf time.Time, limit int) ([]Invoice, error)
	// FindReminderCandidates returns OVERDUE invoices of every owner not reminded since before.
	FindReminderCandidates(ctx context.Context, before time.Time, limit int) ([]Invoice, error)
}

// PaymentFilter narrows payment listings
type PaymentFilter struct {
	shared.Filter
	InvoiceID *uuid.UUID
	Method    PaymentMethod
	From      *time.Time
	To        *time.Time
}

// PaymentRepository persists payments
type PaymentRepository interface {
	FindByID(ctx context.Context, ownerID, id uuid.UUID) (*Payment, error)
	FindAll(ctx context.Context, ownerID uuid.UUID, filter PaymentFilter) ([]Payment, int64, error)
	FindByInvoice(ctx context.Context, ownerID, invoiceID uuid.UUID) ([]Payment, error)
	SumByInvoice(ctx context.Context, invoiceID uuid.UUID) (decimal.Decimal, error)
	CountByInvoice(ctx context.Context, invoiceID uuid.UUID) (int64, error)
	Save(ctx context.Context, payment *Payment) error
	Delete(ctx context.Context, ownerID, id uuid.UUID) error
}

// OrderFilter narrows order listings
type OrderFilter struct {
	shared.Filter
	Status   OrderStatus
	ClientID *uuid.UUID
}

// OrderRepository persists orders
type OrderRepository interface {
	FindByID(ctx context.Context, ownerID, id uuid.UUID) (*Order, error)
	FindByIDForUpdate(ctx context.Context, ownerID, id uuid.UUID) (*Order, error)
	FindAll(ctx context.Context, ownerID uuid.UUID, filter OrderFilter) ([]Order, int64, error)
	Save(ctx context.Context, order *Order) error
	Delete(ctx context.Context, ownerID, id uuid.UUID) error
}

// SubscriptionFilter narrows subscription listings. Cancelled subscriptions
// are hidden unless IncludeCancelled is set or Status asks for them.
type SubscriptionFilter struct {
	shared.Filter
	Status           SubscriptionStatus
	ClientID         *uuid.UUID
	IncludeCancelled bool
}

// SubscriptionRepository persists subscriptions. There is no hard delete.
type SubscriptionRepository interface {
	FindByID(ctx context.Context, ownerID, id uuid.UUID) (*Subscription, error)
	FindByIDForUpdate(ctx context.Context, ownerID, id uuid.UUID) (*Subscription, error)
	FindAll(ctx context.Context, ownerID uuid.UUID, filter SubscriptionFilter) ([]Subscription, int64, error)
	// FindDue returns ACTIVE subscriptions billing within [from, to], earliest first.
	FindDue(ctx context.Context, ownerID uuid.UUID, from, to time.Time) ([]Subscription, error)
	// FindExpiredAdvance returns PAID_IN_ADVANCE subscriptions of every owner whose window ended before asOf.
	FindExpiredAdvance(ctx context.Context, asOf time.Time, limit int) ([]Subscription, error)
	Save(ctx context.Context, subscription *Subscription) error
}
