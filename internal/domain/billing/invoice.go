package billing

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/invoicer/backend/internal/domain/shared"
	"github.com/invoicer/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// InvoiceStatus represents the status of an invoice
type InvoiceStatus string

const (
	InvoiceStatusDraft     InvoiceStatus = "DRAFT"     // Editable, not yet delivered
	InvoiceStatusSent      InvoiceStatus = "SENT"      // Delivered to the client
	InvoiceStatusPaid      InvoiceStatus = "PAID"      // Payments cover the full amount
	InvoiceStatusOverdue   InvoiceStatus = "OVERDUE"   // Sent and past its due date
	InvoiceStatusCancelled InvoiceStatus = "CANCELLED" // Voided
)

var invoiceTransitions = map[InvoiceStatus][]InvoiceStatus{
	InvoiceStatusDraft:   {InvoiceStatusSent, InvoiceStatusPaid, InvoiceStatusCancelled},
	InvoiceStatusSent:    {InvoiceStatusPaid, InvoiceStatusOverdue, InvoiceStatusCancelled},
	InvoiceStatusOverdue: {InvoiceStatusPaid},
}

// IsValid checks if the status is a valid InvoiceStatus
func (s InvoiceStatus) IsValid() bool {
	switch s {
	case InvoiceStatusDraft, InvoiceStatusSent, InvoiceStatusPaid,
		InvoiceStatusOverdue, InvoiceStatusCancelled:
		return true
	}
	return false
}

// String returns the string representation of InvoiceStatus
func (s InvoiceStatus) String() string {
	return string(s)
}

// IsTerminal returns true for PAID and CANCELLED
func (s InvoiceStatus) IsTerminal() bool {
	return s == InvoiceStatusPaid || s == InvoiceStatusCancelled
}

// IsEditable returns true if core fields may change
func (s InvoiceStatus) IsEditable() bool {
	return s == InvoiceStatusDraft
}

// CanReceivePayment returns true if payments can be applied in this status
func (s InvoiceStatus) CanReceivePayment() bool {
	return s == InvoiceStatusDraft || s == InvoiceStatusSent || s == InvoiceStatusOverdue
}

// CanTransitionTo validates a forward status transition
func (s InvoiceStatus) CanTransitionTo(target InvoiceStatus) bool {
	for _, allowed := range invoiceTransitions[s] {
		if allowed == target {
			return true
		}
	}
	return false
}

// ParseInvoiceStatus validates a status string
func ParseInvoiceStatus(s string) (InvoiceStatus, error) {
	status := InvoiceStatus(s)
	if !status.IsValid() {
		return "", shared.NewDomainError("INVALID_STATUS", fmt.Sprintf("Unknown invoice status %q", s))
	}
	return status, nil
}

// LineItem is a single billed position on an invoice
type LineItem struct {
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}

// Total returns quantity * unit price
func (li LineItem) Total() decimal.Decimal {
	return li.Quantity.Mul(li.UnitPrice)
}

// LineItems implements GORM Scanner/Valuer for JSON storage
type LineItems []LineItem

// Value implements driver.Valuer interface for GORM to store as JSON
func (l LineItems) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal(l)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner interface for GORM to read from JSON
func (l *LineItems) Scan(value interface{}) error {
	if value == nil {
		*l = LineItems{}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return errors.New("failed to scan LineItems: unsupported type")
	}

	if len(bytes) == 0 {
		*l = LineItems{}
		return nil
	}

	return json.Unmarshal(bytes, l)
}

// Sum totals all line items
func (l LineItems) Sum() decimal.Decimal {
	total := decimal.Zero
	for _, li := range l {
		total = total.Add(li.Total())
	}
	return total
}

func (l LineItems) validate() error {
	for i, li := range l {
		if li.Description == "" {
			return shared.NewDomainError("INVALID_LINE_ITEM", fmt.Sprintf("Line item %d needs a description", i+1))
		}
		if !li.Quantity.IsPositive() {
			return shared.NewDomainError("INVALID_LINE_ITEM", fmt.Sprintf("Line item %d quantity must be positive", i+1))
		}
		if li.UnitPrice.IsNegative() {
			return shared.NewDomainError("INVALID_LINE_ITEM", fmt.Sprintf("Line item %d unit price cannot be negative", i+1))
		}
	}
	return nil
}

// Invoice is a billable document issued by a Company to a Client
type Invoice struct {
	shared.OwnedEntity
	InvoiceNumber  string
	ClientID       uuid.UUID
	CompanyID      uuid.UUID
	OrderID        *uuid.UUID
	SubscriptionID *uuid.UUID
	Amount         decimal.Decimal
	PaidAmount     decimal.Decimal
	Currency       valueobject.Currency
	IssueDate      time.Time
	DueDate        time.Time
	Status         InvoiceStatus
	Description    string
	Notes          string
	Items          LineItems
	SentDate       *time.Time
	PaidDate       *time.Time
	CancelledAt    *time.Time
	LastReminderAt *time.Time
}

// NewInvoiceInput carries the fields of a new invoice. When Items is not
// empty Amount is derived from them.
type NewInvoiceInput struct {
	InvoiceNumber  string
	ClientID       uuid.UUID
	CompanyID      uuid.UUID
	OrderID        *uuid.UUID
	SubscriptionID *uuid.UUID
	Amount         decimal.Decimal
	Currency       valueobject.Currency
	IssueDate      time.Time
	DueDate        time.Time
	Description    string
	Notes          string
	Items          LineItems
}

// NewInvoice creates a DRAFT invoice
func NewInvoice(ownerID uuid.UUID, in NewInvoiceInput) (*Invoice, error) {
	number, err := NormalizeInvoiceNumber(in.InvoiceNumber)
	if err != nil {
		return nil, err
	}
	if ownerID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_OWNER", "Owner ID cannot be empty")
	}
	if in.ClientID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_CLIENT", "Client ID cannot be empty")
	}
	if in.CompanyID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_COMPANY", "Company ID cannot be empty")
	}
	if in.Currency == "" {
		in.Currency = valueobject.DefaultCurrency
	}
	if !in.Currency.IsValid() {
		return nil, shared.NewDomainError("INVALID_CURRENCY", fmt.Sprintf("Unsupported currency %s", in.Currency))
	}

	inv := &Invoice{
		OwnedEntity:    shared.NewOwnedEntity(ownerID),
		InvoiceNumber:  number,
		ClientID:       in.ClientID,
		CompanyID:      in.CompanyID,
		OrderID:        in.OrderID,
		SubscriptionID: in.SubscriptionID,
		PaidAmount:     decimal.Zero,
		Currency:       in.Currency,
		Status:         InvoiceStatusDraft,
		Description:    in.Description,
		Notes:          in.Notes,
		Items:          LineItems{},
	}
	if err := inv.setAmount(in.Amount, in.Items); err != nil {
		return nil, err
	}
	if err := inv.setDates(in.IssueDate, in.DueDate); err != nil {
		return nil, err
	}
	return inv, nil
}

func (inv *Invoice) setAmount(amount decimal.Decimal, items LineItems) error {
	if len(items) > 0 {
		if err := items.validate(); err != nil {
			return err
		}
		amount = items.Sum()
		inv.Items = items
	}
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}
	if amount.LessThan(inv.PaidAmount) {
		return ErrOverpayment.WithDetails(map[string]string{
			"amount": amount.StringFixed(2),
			"paid":   inv.PaidAmount.StringFixed(2),
		})
	}
	inv.Amount = amount.Round(4)
	return nil
}

func (inv *Invoice) setDates(issue, due time.Time) error {
	if issue.IsZero() {
		issue = time.Now()
	}
	issue = DateOf(issue)
	if due.IsZero() {
		due = issue
	}
	due = DateOf(due)
	if due.Before(issue) {
		return shared.NewDomainError("INVALID_DUE_DATE", "Due date cannot be before issue date")
	}
	inv.IssueDate = issue
	inv.DueDate = due
	return nil
}

// InvoiceUpdate is a partial update; nil fields are left untouched.
type InvoiceUpdate struct {
	ClientID    *uuid.UUID
	CompanyID   *uuid.UUID
	Amount      *decimal.Decimal
	Currency    *valueobject.Currency
	IssueDate   *time.Time
	DueDate     *time.Time
	Items       LineItems
	Description *string
	Notes       *string
}

func (u InvoiceUpdate) touchesCoreFields() bool {
	return u.ClientID != nil || u.CompanyID != nil || u.Amount != nil || u.Currency != nil ||
		u.IssueDate != nil || u.DueDate != nil || u.Items != nil
}

// Update applies a partial update. Core fields (parties, amount, currency,
// dates, items) only change while DRAFT; description and notes can change
// until the invoice is terminal. A rejected update leaves inv unchanged.
func (inv *Invoice) Update(u InvoiceUpdate) error {
	if u.touchesCoreFields() && !inv.Status.IsEditable() {
		return ErrInvoiceNotEditable.WithDetails(map[string]string{"status": inv.Status.String()})
	}
	if !u.touchesCoreFields() && inv.Status.IsTerminal() {
		return ErrInvoiceNotEditable.WithDetails(map[string]string{"status": inv.Status.String()})
	}

	next := *inv
	if err := next.apply(u); err != nil {
		return err
	}
	*inv = next
	return nil
}

func (inv *Invoice) apply(u InvoiceUpdate) error {
	if u.ClientID != nil {
		if *u.ClientID == uuid.Nil {
			return shared.NewDomainError("INVALID_CLIENT", "Client ID cannot be empty")
		}
		inv.ClientID = *u.ClientID
	}
	if u.CompanyID != nil {
		if *u.CompanyID == uuid.Nil {
			return shared.NewDomainError("INVALID_COMPANY", "Company ID cannot be empty")
		}
		inv.CompanyID = *u.CompanyID
	}
	if u.Currency != nil {
		if !u.Currency.IsValid() {
			return shared.NewDomainError("INVALID_CURRENCY", fmt.Sprintf("Unsupported currency %s", *u.Currency))
		}
		inv.Currency = *u.Currency
	}
	switch {
	case len(u.Items) > 0:
		if err := inv.setAmount(decimal.Zero, u.Items); err != nil {
			return err
		}
	case u.Items != nil || u.Amount != nil:
		amount := inv.Amount
		if u.Amount != nil {
			amount = *u.Amount
		}
		inv.Items = LineItems{}
		if err := inv.setAmount(amount, nil); err != nil {
			return err
		}
	}
	if u.IssueDate != nil || u.DueDate != nil {
		issue, due := inv.IssueDate, inv.DueDate
		if u.IssueDate != nil {
			issue = *u.IssueDate
		}
		if u.DueDate != nil {
			due = *u.DueDate
		}
		if err := inv.setDates(issue, due); err != nil {
			return err
		}
	}
	if u.Description != nil {
		inv.Description = *u.Description
	}
	if u.Notes != nil {
		inv.Notes = *u.Notes
	}
	inv.Touch()
	if inv.PaidAmount.IsPositive() {
		return inv.settle(inv.PaidAmount, inv.UpdatedAt)
	}
	return nil
}

// Outstanding returns the unpaid remainder
func (inv *Invoice) Outstanding() decimal.Decimal {
	return inv.Amount.Sub(inv.PaidAmount)
}

// IsFullyPaid reports whether payments cover the amount
func (inv *Invoice) IsFullyPaid() bool {
	return inv.PaidAmount.GreaterThanOrEqual(inv.Amount)
}

// CanSend checks whether the invoice may be delivered. SENT and OVERDUE
// invoices may be re-delivered.
func (inv *Invoice) CanSend() error {
	switch inv.Status {
	case InvoiceStatusDraft, InvoiceStatusSent, InvoiceStatusOverdue:
		return nil
	}
	return ErrInvalidTransition.WithDetails(map[string]string{"from": inv.Status.String(), "action": "send"})
}

// MarkSent records delivery. Only a DRAFT changes status; re-sends are no-ops.
// Returns true when the status changed.
func (inv *Invoice) MarkSent(now time.Time) (bool, error) {
	if err := inv.CanSend(); err != nil {
		return false, err
	}
	if inv.Status != InvoiceStatusDraft {
		return false, nil
	}
	inv.Status = InvoiceStatusSent
	inv.SentDate = &now
	inv.UpdatedAt = now
	return true, nil
}

// ApplyPayment adds a payment of amount to the invoice.
// Overpayment is rejected; reaching the full amount moves the invoice to PAID.
func (inv *Invoice) ApplyPayment(amount decimal.Decimal, now time.Time) error {
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}
	if inv.Status == InvoiceStatusCancelled {
		return ErrInvalidTransition.WithDetails(map[string]string{"from": inv.Status.String(), "action": "pay"})
	}
	if inv.PaidAmount.Add(amount).GreaterThan(inv.Amount) {
		return ErrOverpayment.WithDetails(map[string]string{
			"amount":      amount.StringFixed(2),
			"outstanding": inv.Outstanding().StringFixed(2),
		})
	}
	return inv.settle(inv.PaidAmount.Add(amount), now)
}

// ReconcilePayments replaces the paid total after a payment was edited or
// removed and moves the status accordingly. A PAID invoice that is no longer
// fully paid returns to OVERDUE, SENT or DRAFT depending on its history.
func (inv *Invoice) ReconcilePayments(paidTotal decimal.Decimal, now time.Time) error {
	if paidTotal.IsNegative() {
		return ErrInvalidAmount
	}
	if paidTotal.GreaterThan(inv.Amount) {
		return ErrOverpayment.WithDetails(map[string]string{
			"paid":   paidTotal.StringFixed(2),
			"amount": inv.Amount.StringFixed(2),
		})
	}
	if inv.Status == InvoiceStatusCancelled {
		return ErrInvalidTransition.WithDetails(map[string]string{"from": inv.Status.String(), "action": "pay"})
	}
	if inv.Status == InvoiceStatusPaid && paidTotal.LessThan(inv.Amount) {
		inv.PaidAmount = paidTotal
		inv.PaidDate = nil
		inv.Status = inv.reopenedStatus(now)
		inv.UpdatedAt = now
		return nil
	}
	return inv.settle(paidTotal, now)
}

func (inv *Invoice) settle(paidTotal decimal.Decimal, now time.Time) error {
	inv.PaidAmount = paidTotal
	if inv.IsFullyPaid() && inv.Status != InvoiceStatusPaid {
		if !inv.Status.CanTransitionTo(InvoiceStatusPaid) {
			return ErrInvalidTransition.WithDetails(map[string]string{"from": inv.Status.String(), "to": InvoiceStatusPaid.String()})
		}
		inv.Status = InvoiceStatusPaid
		inv.PaidDate = &now
	}
	inv.UpdatedAt = now
	return nil
}

func (inv *Invoice) reopenedStatus(now time.Time) InvoiceStatus {
	if inv.SentDate == nil {
		return InvoiceStatusDraft
	}
	if IsPastDue(inv.DueDate, now) {
		return InvoiceStatusOverdue
	}
	return InvoiceStatusSent
}

// MarkOverdue moves a SENT invoice past its due date to OVERDUE.
// Returns true when the status changed.
func (inv *Invoice) MarkOverdue(now time.Time) bool {
	if inv.Status != InvoiceStatusSent || !IsPastDue(inv.DueDate, now) {
		return false
	}
	inv.Status = InvoiceStatusOverdue
	inv.UpdatedAt = now
	return true
}

// Cancel voids a DRAFT or SENT invoice without payments
func (inv *Invoice) Cancel(now time.Time) error {
	if !inv.Status.CanTransitionTo(InvoiceStatusCancelled) {
		return ErrInvalidTransition.WithDetails(map[string]string{"from": inv.Status.String(), "to": InvoiceStatusCancelled.String()})
	}
	if inv.PaidAmount.IsPositive() {
		return ErrInvoiceHasPayments
	}
	inv.Status = InvoiceStatusCancelled
	inv.CancelledAt = &now
	inv.UpdatedAt = now
	return nil
}

// RecordReminder stamps the time a payment reminder went out
func (inv *Invoice) RecordReminder(now time.Time) {
	inv.LastReminderAt = &now
	inv.UpdatedAt = now
}

// NeedsReminder reports whether an OVERDUE invoice has not been reminded
// within cooldown.
func (inv *Invoice) NeedsReminder(now time.Time, cooldown time.Duration) bool {
	if inv.Status != InvoiceStatusOverdue {
		return false
	}
	return inv.LastReminderAt == nil || now.Sub(*inv.LastReminderAt) >= cooldown
}
