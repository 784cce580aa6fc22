package billing

import "github.com/invoicer/backend/internal/domain/shared"

var (
	ErrInvalidBillingDay      = shared.NewDomainError("INVALID_BILLING_DAY", "Billing day must be between 1 and 31")
	ErrInvalidAmount          = shared.NewDomainError("INVALID_AMOUNT", "Amount must be positive")
	ErrInvoiceNotEditable     = shared.NewDomainError("INVOICE_NOT_EDITABLE", "Only draft invoices can be edited")
	ErrOverpayment            = shared.NewDomainError("OVERPAYMENT", "Payment exceeds the outstanding balance")
	ErrInvoiceHasPayments     = shared.NewDomainError("HAS_PAYMENTS", "Invoice has payments recorded")
	ErrInvalidTransition      = shared.NewDomainError("INVALID_TRANSITION", "Status transition is not allowed")
	ErrDuplicateInvoiceNumber = shared.NewDomainError("ALREADY_EXISTS", "Invoice number already exists")
	ErrOrderHasInvoices       = shared.NewDomainError("HAS_INVOICES", "Order has invoices")
	ErrInvalidInvoiceNumber   = shared.NewDomainError("INVALID_INVOICE_NUMBER", "Invoice number is invalid")
)
