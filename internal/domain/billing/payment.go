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

// PaymentMethod is how the money was received
type PaymentMethod string

const (
	PaymentMethodBankTransfer PaymentMethod = "BANK_TRANSFER"
	PaymentMethodCard         PaymentMethod = "CARD"
	PaymentMethodCash         PaymentMethod = "CASH"
	PaymentMethodPayPal       PaymentMethod = "PAYPAL"
	PaymentMethodCrypto       PaymentMethod = "CRYPTO"
	PaymentMethodCheck        PaymentMethod = "CHECK"
	PaymentMethodOther        PaymentMethod = "OTHER"
)

// IsValid checks if the method is known
func (m PaymentMethod) IsValid() bool {
	switch m {
	case PaymentMethodBankTransfer, PaymentMethodCard, PaymentMethodCash, PaymentMethodPayPal,
		PaymentMethodCrypto, PaymentMethodCheck, PaymentMethodOther:
		return true
	}
	return false
}

// String returns the string representation of PaymentMethod
func (m PaymentMethod) String() string {
	return string(m)
}

// Payment is money received against exactly one invoice
type Payment struct {
	shared.OwnedEntity
	InvoiceID uuid.UUID
	Amount    decimal.Decimal
	Currency  valueobject.Currency
	Method    PaymentMethod
	PaidDate  time.Time
	Reference string
	Notes     string
}

// NewPaymentInput carries the fields of a new payment
type NewPaymentInput struct {
	Amount    decimal.Decimal
	Method    PaymentMethod
	PaidDate  time.Time
	Reference string
	Notes     string
}

// NewPayment creates a payment for invoice. It does not touch the invoice;
// callers apply it with Invoice.ApplyPayment inside the same transaction.
func NewPayment(invoice *Invoice, in NewPaymentInput) (*Payment, error) {
	if invoice == nil {
		return nil, shared.NewDomainError("INVALID_INVOICE", "Invoice is required")
	}
	if !in.Amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	if in.Method == "" {
		in.Method = PaymentMethodBankTransfer
	}
	if !in.Method.IsValid() {
		return nil, shared.NewDomainError("INVALID_PAYMENT_METHOD", fmt.Sprintf("Unknown payment method %q", in.Method))
	}
	if in.PaidDate.IsZero() {
		in.PaidDate = time.Now()
	}
	return &Payment{
		OwnedEntity: shared.NewOwnedEntity(invoice.OwnerID),
		InvoiceID:   invoice.ID,
		Amount:      in.Amount.Round(4),
		Currency:    invoice.Currency,
		Method:      in.Method,
		PaidDate:    DateOf(in.PaidDate),
		Reference:   strings.TrimSpace(in.Reference),
		Notes:       in.Notes,
	}, nil
}

// PaymentUpdate is a partial update; nil fields are left untouched.
type PaymentUpdate struct {
	Amount    *decimal.Decimal
	Method    *PaymentMethod
	PaidDate  *time.Time
	Reference *string
	Notes     *string
}

// Update applies u. The owning invoice must be reconciled afterwards.
func (p *Payment) Update(u PaymentUpdate) error {
	if u.Amount != nil {
		if !u.Amount.IsPositive() {
			return ErrInvalidAmount
		}
		p.Amount = u.Amount.Round(4)
	}
	if u.Method != nil {
		if !u.Method.IsValid() {
			return shared.NewDomainError("INVALID_PAYMENT_METHOD", fmt.Sprintf("Unknown payment method %q", *u.Method))
		}
		p.Method = *u.Method
	}
	if u.PaidDate != nil {
		p.PaidDate = DateOf(*u.PaidDate)
	}
	if u.Reference != nil {
		p.Reference = strings.TrimSpace(*u.Reference)
	}
	if u.Notes != nil {
		p.Notes = *u.Notes
	}
	p.Touch()
	return nil
}
