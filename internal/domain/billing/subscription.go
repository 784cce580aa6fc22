package billing

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/invoicer/backend/internal/domain/shared"
	"github.com/invoicer/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// SubscriptionStatus represents the status of a recurring subscription
type SubscriptionStatus string

const (
	SubscriptionStatusActive        SubscriptionStatus = "ACTIVE"
	SubscriptionStatusPaused        SubscriptionStatus = "PAUSED"
	SubscriptionStatusCancelled     SubscriptionStatus = "CANCELLED"
	SubscriptionStatusPaidInAdvance SubscriptionStatus = "PAID_IN_ADVANCE"
)

var subscriptionTransitions = map[SubscriptionStatus][]SubscriptionStatus{
	SubscriptionStatusActive:        {SubscriptionStatusPaused, SubscriptionStatusPaidInAdvance, SubscriptionStatusCancelled},
	SubscriptionStatusPaused:        {SubscriptionStatusActive, SubscriptionStatusPaidInAdvance, SubscriptionStatusCancelled},
	SubscriptionStatusPaidInAdvance: {SubscriptionStatusActive, SubscriptionStatusCancelled},
}

// IsValid checks if the status is known
func (s SubscriptionStatus) IsValid() bool {
	switch s {
	case SubscriptionStatusActive, SubscriptionStatusPaused,
		SubscriptionStatusCancelled, SubscriptionStatusPaidInAdvance:
		return true
	}
	return false
}

// String returns the string representation of SubscriptionStatus
func (s SubscriptionStatus) String() string {
	return string(s)
}

// IsTerminal returns true for CANCELLED
func (s SubscriptionStatus) IsTerminal() bool {
	return s == SubscriptionStatusCancelled
}

// CanTransitionTo validates a status change
func (s SubscriptionStatus) CanTransitionTo(target SubscriptionStatus) bool {
	for _, allowed := range subscriptionTransitions[s] {
		if allowed == target {
			return true
		}
	}
	return false
}

// ParseSubscriptionStatus validates a status string
func ParseSubscriptionStatus(s string) (SubscriptionStatus, error) {
	status := SubscriptionStatus(s)
	if !status.IsValid() {
		return "", shared.NewDomainError("INVALID_STATUS", fmt.Sprintf("Unknown subscription status %q", s))
	}
	return status, nil
}

// Subscription is a standing agreement to bill a client for a service at a
// fixed price on a billing day.
type Subscription struct {
	shared.OwnedEntity
	ClientID         uuid.UUID
	ServiceID        uuid.UUID
	CompanyID        uuid.UUID
	Price            decimal.Decimal
	Currency         valueobject.Currency
	BillingDay       int
	BillingCycle     Frequency
	Status           SubscriptionStatus
	StartDate        time.Time
	EndDate          *time.Time
	NextBillingDate  time.Time
	AdvancePaidUntil *time.Time
	LastInvoicedAt   *time.Time
	Notes            string
}

// NewSubscriptionInput carries the fields of a new subscription
type NewSubscriptionInput struct {
	ClientID     uuid.UUID
	ServiceID    uuid.UUID
	CompanyID    uuid.UUID
	Price        decimal.Decimal
	Currency     valueobject.Currency
	BillingDay   int
	BillingCycle Frequency
	StartDate    time.Time
	Notes        string
}

// NewSubscription creates an ACTIVE subscription. The first billing date is
// the next billing day strictly after the start date.
func NewSubscription(ownerID uuid.UUID, in NewSubscriptionInput) (*Subscription, error) {
	if in.ClientID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_CLIENT", "Client ID cannot be empty")
	}
	if in.ServiceID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_SERVICE", "Service ID cannot be empty")
	}
	if in.CompanyID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_COMPANY", "Company ID cannot be empty")
	}
	if !in.Price.IsPositive() {
		return nil, ErrInvalidAmount
	}
	if in.Currency == "" {
		in.Currency = valueobject.DefaultCurrency
	}
	if !in.Currency.IsValid() {
		return nil, shared.NewDomainError("INVALID_CURRENCY", fmt.Sprintf("Unsupported currency %s", in.Currency))
	}
	if in.BillingCycle == "" {
		in.BillingCycle = FrequencyMonthly
	}
	if !in.BillingCycle.IsMonthBased() {
		return nil, shared.NewDomainError("INVALID_BILLING_CYCLE", "Subscriptions bill monthly, quarterly or yearly")
	}
	if in.StartDate.IsZero() {
		in.StartDate = time.Now()
	}
	next, err := NextBillingDate(in.BillingDay, in.StartDate)
	if err != nil {
		return nil, err
	}
	return &Subscription{
		OwnedEntity:     shared.NewOwnedEntity(ownerID),
		ClientID:        in.ClientID,
		ServiceID:       in.ServiceID,
		CompanyID:       in.CompanyID,
		Price:           in.Price.Round(4),
		Currency:        in.Currency,
		BillingDay:      in.BillingDay,
		BillingCycle:    in.BillingCycle,
		Status:          SubscriptionStatusActive,
		StartDate:       DateOf(in.StartDate),
		NextBillingDate: next,
		Notes:           in.Notes,
	}, nil
}

// SubscriptionUpdate is a partial update; nil fields are left untouched.
type SubscriptionUpdate struct {
	ServiceID        *uuid.UUID
	CompanyID        *uuid.UUID
	Price            *decimal.Decimal
	Currency         *valueobject.Currency
	BillingDay       *int
	BillingCycle     *Frequency
	Status           *SubscriptionStatus
	AdvancePaidUntil *time.Time
	Notes            *string
}

// Update applies u at time now. A changed billing day recomputes the next
// billing date from now; an unchanged one leaves it alone.
func (s *Subscription) Update(u SubscriptionUpdate, now time.Time) error {
	if s.Status.IsTerminal() {
		return ErrInvalidTransition.WithDetails(map[string]string{"from": s.Status.String(), "action": "update"})
	}
	if u.ServiceID != nil && *u.ServiceID != uuid.Nil {
		s.ServiceID = *u.ServiceID
	}
	if u.CompanyID != nil && *u.CompanyID != uuid.Nil {
		s.CompanyID = *u.CompanyID
	}
	if u.Price != nil {
		if !u.Price.IsPositive() {
			return ErrInvalidAmount
		}
		s.Price = u.Price.Round(4)
	}
	if u.Currency != nil {
		if !u.Currency.IsValid() {
			return shared.NewDomainError("INVALID_CURRENCY", fmt.Sprintf("Unsupported currency %s", *u.Currency))
		}
		s.Currency = *u.Currency
	}
	if u.BillingCycle != nil {
		if !u.BillingCycle.IsMonthBased() {
			return shared.NewDomainError("INVALID_BILLING_CYCLE", "Subscriptions bill monthly, quarterly or yearly")
		}
		s.BillingCycle = *u.BillingCycle
	}
	if u.BillingDay != nil && *u.BillingDay != s.BillingDay {
		if err := s.ChangeBillingDay(*u.BillingDay, now); err != nil {
			return err
		}
	}
	if u.Notes != nil {
		s.Notes = *u.Notes
	}
	if u.Status != nil && *u.Status != s.Status {
		if err := s.ChangeStatus(*u.Status, u.AdvancePaidUntil, now); err != nil {
			return err
		}
	} else if u.AdvancePaidUntil != nil && s.Status == SubscriptionStatusPaidInAdvance {
		if err := s.extendAdvance(*u.AdvancePaidUntil, now); err != nil {
			return err
		}
	}
	s.UpdatedAt = now
	return nil
}

// ChangeBillingDay sets a new anchor and recomputes NextBillingDate from now
func (s *Subscription) ChangeBillingDay(day int, now time.Time) error {
	ref := now
	if s.Status == SubscriptionStatusPaidInAdvance && s.AdvancePaidUntil != nil && s.AdvancePaidUntil.After(now) {
		ref = *s.AdvancePaidUntil
	}
	next, err := NextBillingDate(day, ref)
	if err != nil {
		return err
	}
	s.BillingDay = day
	s.NextBillingDate = next
	return nil
}

// ChangeStatus moves the subscription to target. PAID_IN_ADVANCE requires
// advancePaidUntil in the future and pushes the next billing date past it.
func (s *Subscription) ChangeStatus(target SubscriptionStatus, advancePaidUntil *time.Time, now time.Time) error {
	if !target.IsValid() {
		return shared.NewDomainError("INVALID_STATUS", fmt.Sprintf("Unknown subscription status %q", target))
	}
	if !s.Status.CanTransitionTo(target) {
		return ErrInvalidTransition.WithDetails(map[string]string{"from": s.Status.String(), "to": target.String()})
	}
	switch target {
	case SubscriptionStatusCancelled:
		end := now
		s.EndDate = &end
	case SubscriptionStatusPaidInAdvance:
		if advancePaidUntil == nil {
			return shared.NewDomainError("ADVANCE_DATE_REQUIRED", "advance_paid_until is required for PAID_IN_ADVANCE")
		}
		if err := s.extendAdvance(*advancePaidUntil, now); err != nil {
			return err
		}
	case SubscriptionStatusActive:
		if !s.NextBillingDate.After(DateOf(now)) {
			next, err := NextBillingDate(s.BillingDay, now)
			if err != nil {
				return err
			}
			s.NextBillingDate = next
		}
	}
	s.Status = target
	s.UpdatedAt = now
	return nil
}

func (s *Subscription) extendAdvance(until, now time.Time) error {
	until = DateOf(until)
	if !until.After(DateOf(now)) {
		return shared.NewDomainError("INVALID_ADVANCE_DATE", "advance_paid_until must be in the future")
	}
	next, err := NextBillingDate(s.BillingDay, until)
	if err != nil {
		return err
	}
	s.AdvancePaidUntil = &until
	s.NextBillingDate = next
	return nil
}

// Cancel soft-deletes the subscription: status CANCELLED, end date now
func (s *Subscription) Cancel(now time.Time) error {
	return s.ChangeStatus(SubscriptionStatusCancelled, nil, now)
}

// ExpireAdvance returns a PAID_IN_ADVANCE subscription to ACTIVE once its
// prepaid window has ended. Returns true when the status changed.
func (s *Subscription) ExpireAdvance(now time.Time) bool {
	if s.Status != SubscriptionStatusPaidInAdvance || s.AdvancePaidUntil == nil {
		return false
	}
	if !IsPastDue(*s.AdvancePaidUntil, now) {
		return false
	}
	s.Status = SubscriptionStatusActive
	s.UpdatedAt = now
	return true
}

// CanBill checks that an invoice may be generated for the current cycle
func (s *Subscription) CanBill() error {
	if s.Status != SubscriptionStatusActive {
		return ErrInvalidTransition.WithDetails(map[string]string{"from": s.Status.String(), "action": "generate-invoice"})
	}
	return nil
}

// AdvanceCycle moves NextBillingDate forward by one billing cycle after an
// invoice was generated for the current one.
func (s *Subscription) AdvanceCycle(now time.Time) error {
	if err := s.CanBill(); err != nil {
		return err
	}
	s.NextBillingDate = AddMonthsClamped(s.NextBillingDate, s.BillingCycle.Months(), s.BillingDay)
	s.LastInvoicedAt = &now
	s.UpdatedAt = now
	return nil
}

// IsDueWithin reports whether an ACTIVE subscription bills inside the due window.
func (s *Subscription) IsDueWithin(now time.Time, days int) bool {
	if s.Status != SubscriptionStatusActive {
		return false
	}
	from, to := DueWindow(now, days)
	return !s.NextBillingDate.Before(from) && !s.NextBillingDate.After(to)
}

// MonthlyAmount is the price normalized to one month
func (s *Subscription) MonthlyAmount() decimal.Decimal {
	return s.Price.Mul(s.BillingCycle.MonthlyFactor())
}
