package printing

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/invoicer/backend/internal/domain/billing"
	"github.com/invoicer/backend/internal/domain/partner"
)

// InvoiceDocument is everything printed on an invoice, flattened for templates
type InvoiceDocument struct {
	Number         string
	Status         string
	IssueDate      time.Time
	DueDate        time.Time
	Currency       string
	Amount         decimal.Decimal
	Paid           decimal.Decimal
	Outstanding    decimal.Decimal
	Description    string
	Notes          string
	Lines          []DocumentLine
	Seller         Party
	Buyer          Party
	PaymentMethods []DocumentPaymentMethod
}

// Party is the issuer or the recipient block
type Party struct {
	Name         string
	Contact      string
	Email        string
	Phone        string
	AddressLines []string
	TaxCode      string
	VATNumber    string
	Registration string
	BankName     string
	IBAN         string
	SWIFT        string
}

// DocumentLine is one row of the items table
type DocumentLine struct {
	Description string
	Quantity    decimal.Decimal
	UnitPrice   decimal.Decimal
	Total       decimal.Decimal
}

// DocumentPaymentMethod is a printed payment instruction
type DocumentPaymentMethod struct {
	Type    string
	Name    string
	Details []string
}

// NewInvoiceDocument assembles the printable view of inv. Invoices without
// line items print a single row carrying the description and amount.
func NewInvoiceDocument(inv *billing.Invoice, client *partner.Client, company *partner.Company, methods []partner.PaymentMethod) *InvoiceDocument {
	doc := &InvoiceDocument{
		Number:      inv.InvoiceNumber,
		Status:      string(inv.Status),
		IssueDate:   inv.IssueDate,
		DueDate:     inv.DueDate,
		Currency:    string(inv.Currency),
		Amount:      inv.Amount,
		Paid:        inv.PaidAmount,
		Outstanding: inv.Outstanding(),
		Description: inv.Description,
		Notes:       inv.Notes,
	}

	if len(inv.Items) > 0 {
		for _, item := range inv.Items {
			doc.Lines = append(doc.Lines, DocumentLine{
				Description: item.Description,
				Quantity:    item.Quantity,
				UnitPrice:   item.UnitPrice,
				Total:       item.Total(),
			})
		}
	} else {
		desc := inv.Description
		if desc == "" {
			desc = "Services rendered"
		}
		doc.Lines = []DocumentLine{{
			Description: desc,
			Quantity:    decimal.NewFromInt(1),
			UnitPrice:   inv.Amount,
			Total:       inv.Amount,
		}}
	}

	if company != nil {
		name := company.LegalName
		if name == "" {
			name = company.Name
		}
		doc.Seller = Party{
			Name:         name,
			Email:        company.Email,
			Phone:        company.Phone,
			AddressLines: company.Address.Lines(),
			TaxCode:      company.TaxCode,
			Registration: company.RegistrationNumber,
			BankName:     company.BankName,
			IBAN:         company.IBAN,
			SWIFT:        company.SWIFT,
		}
	}
	if client != nil {
		doc.Buyer = Party{
			Name:         client.DisplayName(),
			Email:        client.Email,
			Phone:        client.Phone,
			AddressLines: client.Address.Lines(),
			VATNumber:    client.VATNumber,
			Registration: client.RegistrationNumber,
		}
		if client.CompanyName != "" {
			doc.Buyer.Contact = client.Name
		} else {
			doc.Buyer.Contact = client.ContactPerson
		}
	}

	for i := range methods {
		m := &methods[i]
		doc.PaymentMethods = append(doc.PaymentMethods, DocumentPaymentMethod{
			Type:    string(m.Type),
			Name:    m.Name,
			Details: paymentDetailLines(m),
		})
	}
	return doc
}

func paymentDetailLines(m *partner.PaymentMethod) []string {
	var keys []string
	switch m.Type {
	case partner.PaymentMethodTypeBankAccount:
		keys = []string{"iban", "swift", "bank_name", "account_holder"}
	case partner.PaymentMethodTypeCryptoWallet:
		keys = []string{"network", "address"}
	case partner.PaymentMethodTypePayPal:
		keys = []string{"email"}
	default:
		keys = []string{"instructions"}
	}
	var lines []string
	for _, k := range keys {
		if v := m.DetailString(k); v != "" {
			lines = append(lines, detailLabels[k]+": "+v)
		}
	}
	return lines
}

var detailLabels = map[string]string{
	"iban":           "IBAN",
	"swift":          "SWIFT",
	"bank_name":      "Bank",
	"account_holder": "Account holder",
	"network":        "Network",
	"address":        "Address",
	"email":          "PayPal",
	"instructions":   "Instructions",
}
