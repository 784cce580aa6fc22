package billing

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/invoicer/backend/internal/domain/shared"
	"github.com/invoicer/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// OrderStatus represents the status of an order
type OrderStatus string

const (
	OrderStatusActive    OrderStatus = "ACTIVE"
	OrderStatusPaused    OrderStatus = "PAUSED"
	OrderStatusCancelled OrderStatus = "CANCELLED"
)

var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusActive: {OrderStatusPaused, OrderStatusCancelled},
	OrderStatusPaused: {OrderStatusActive, OrderStatusCancelled},
}

// IsValid checks if the status is known
func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderStatusActive, OrderStatusPaused, OrderStatusCancelled:
		return true
	}
	return false
}

// String returns the string representation of OrderStatus
func (s OrderStatus) String() string {
	return string(s)
}

// CanTransitionTo validates a status change
func (s OrderStatus) CanTransitionTo(target OrderStatus) bool {
	for _, allowed := range orderTransitions[s] {
		if allowed == target {
			return true
		}
	}
	return false
}

// Order is a one-off or recurring engagement with a client that invoices
// are generated from.
type Order struct {
	shared.OwnedEntity
	ClientID       uuid.UUID
	ServiceID      *uuid.UUID
	Description    string
	Amount         decimal.Decimal
	Currency       valueobject.Currency
	Frequency      Frequency
	Status         OrderStatus
	StartDate      time.Time
	EndDate        *time.Time
	LastInvoicedAt *time.Time
	Notes          string
}

// OrderInput carries the mutable fields of an order
type OrderInput struct {
	ClientID    uuid.UUID
	ServiceID   *uuid.UUID
	Description string
	Amount      decimal.Decimal
	Currency    valueobject.Currency
	Frequency   Frequency
	StartDate   time.Time
	EndDate     *time.Time
	Notes       string
}

func (in OrderInput) validate() error {
	if in.ClientID == uuid.Nil {
		return shared.NewDomainError("INVALID_CLIENT", "Client ID cannot be empty")
	}
	if strings.TrimSpace(in.Description) == "" {
		return shared.NewDomainError("INVALID_DESCRIPTION", "Description cannot be empty")
	}
	if !in.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	if !in.Currency.IsValid() {
		return shared.NewDomainError("INVALID_CURRENCY", fmt.Sprintf("Unsupported currency %s", in.Currency))
	}
	if !in.Frequency.IsValid() {
		return shared.NewDomainError("INVALID_FREQUENCY", fmt.Sprintf("Unknown frequency %q", in.Frequency))
	}
	if in.EndDate != nil && !in.StartDate.IsZero() && DateOf(*in.EndDate).Before(DateOf(in.StartDate)) {
		return shared.NewDomainError("INVALID_END_DATE", "End date cannot be before start date")
	}
	return nil
}

// NewOrder creates an ACTIVE order
func NewOrder(ownerID uuid.UUID, in OrderInput) (*Order, error) {
	if in.Currency == "" {
		in.Currency = valueobject.DefaultCurrency
	}
	if in.Frequency == "" {
		in.Frequency = FrequencyOneTime
	}
	if in.StartDate.IsZero() {
		in.StartDate = time.Now()
	}
	if err := in.validate(); err != nil {
		return nil, err
	}
	o := &Order{
		OwnedEntity: shared.NewOwnedEntity(ownerID),
		Status:      OrderStatusActive,
	}
	o.apply(in)
	return o, nil
}

func (o *Order) apply(in OrderInput) {
	o.ClientID = in.ClientID
	o.ServiceID = in.ServiceID
	o.Description = strings.TrimSpace(in.Description)
	o.Amount = in.Amount.Round(4)
	o.Currency = in.Currency
	o.Frequency = in.Frequency
	o.StartDate = DateOf(in.StartDate)
	if in.EndDate != nil {
		end := DateOf(*in.EndDate)
		o.EndDate = &end
	} else {
		o.EndDate = nil
	}
	o.Notes = in.Notes
}

// Update replaces the order's terms. Cancelled orders are frozen.
func (o *Order) Update(in OrderInput) error {
	if o.Status == OrderStatusCancelled {
		return ErrInvalidTransition.WithDetails(map[string]string{"from": o.Status.String(), "action": "update"})
	}
	if in.StartDate.IsZero() {
		in.StartDate = o.StartDate
	}
	if err := in.validate(); err != nil {
		return err
	}
	o.apply(in)
	o.Touch()
	return nil
}

// ChangeStatus moves the order to target
func (o *Order) ChangeStatus(target OrderStatus, now time.Time) error {
	if !target.IsValid() {
		return shared.NewDomainError("INVALID_STATUS", fmt.Sprintf("Unknown order status %q", target))
	}
	if !o.Status.CanTransitionTo(target) {
		return ErrInvalidTransition.WithDetails(map[string]string{"from": o.Status.String(), "to": target.String()})
	}
	o.Status = target
	if target == OrderStatusCancelled && o.EndDate == nil {
		end := DateOf(now)
		o.EndDate = &end
	}
	o.UpdatedAt = now
	return nil
}

// CanGenerateInvoice checks that the order is billable
func (o *Order) CanGenerateInvoice() error {
	if o.Status != OrderStatusActive {
		return ErrInvalidTransition.WithDetails(map[string]string{"from": o.Status.String(), "action": "generate-invoice"})
	}
	return nil
}

// MarkInvoiced stamps the last invoice generation time
func (o *Order) MarkInvoiced(now time.Time) {
	o.LastInvoicedAt = &now
	o.UpdatedAt = now
}

// NextDueDate is the next billing occurrence after now, anchored on the
// start date. One-time orders are due on their start date until invoiced.
// Returns false when nothing further is due.
func (o *Order) NextDueDate(now time.Time) (time.Time, bool) {
	if o.Status == OrderStatusCancelled {
		return time.Time{}, false
	}
	if !o.Frequency.IsRecurring() {
		if o.LastInvoicedAt != nil {
			return time.Time{}, false
		}
		return o.StartDate, true
	}
	due := o.StartDate
	today := DateOf(now)
	for i := 1; due.Before(today); i++ {
		if o.Frequency.IsMonthBased() {
			due = AddMonthsClamped(o.StartDate, i*o.Frequency.Months(), o.StartDate.Day())
		} else {
			due = o.StartDate.AddDate(0, 0, 7*i)
		}
	}
	if o.EndDate != nil && due.After(*o.EndDate) {
		return time.Time{}, false
	}
	return due, true
}
