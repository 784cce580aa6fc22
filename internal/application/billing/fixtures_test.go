package billing

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/invoicer/backend/internal/domain/billing"
	"github.com/invoicer/backend/internal/domain/catalog"
	"github.com/invoicer/backend/internal/domain/partner"
)

func newClient(t *testing.T, ownerID uuid.UUID, email string) *partner.Client {
	t.Helper()
	c, err := partner.NewClient(ownerID, partner.ClientInput{
		Name:     "Acme GmbH",
		Email:    email,
		CCEmails: []string{"accounting@acme.test"},
	})
	require.NoError(t, err)
	return c
}

func newCompany(t *testing.T, ownerID uuid.UUID, terms int) *partner.Company {
	t.Helper()
	c, err := partner.NewCompany(ownerID, partner.CompanyInput{Name: "Studio", PaymentTermsDays: terms, IsDefault: true})
	require.NoError(t, err)
	return c
}

func newInvoice(t *testing.T, ownerID uuid.UUID, amount string) *billing.Invoice {
	t.Helper()
	inv, err := billing.NewInvoice(ownerID, billing.NewInvoiceInput{
		InvoiceNumber: "INV-202507-00001",
		ClientID:      uuid.New(),
		CompanyID:     uuid.New(),
		Amount:        decimal.RequireFromString(amount),
		IssueDate:     testNow,
		DueDate:       testNow.AddDate(0, 0, 14),
	})
	require.NoError(t, err)
	return inv
}

func newSentInvoice(t *testing.T, ownerID uuid.UUID, amount string, due time.Time) *billing.Invoice {
	t.Helper()
	inv, err := billing.NewInvoice(ownerID, billing.NewInvoiceInput{
		InvoiceNumber: "INV-202506-00007",
		ClientID:      uuid.New(),
		CompanyID:     uuid.New(),
		Amount:        decimal.RequireFromString(amount),
		IssueDate:     due.AddDate(0, 0, -14),
		DueDate:       due,
	})
	require.NoError(t, err)
	_, err = inv.MarkSent(due.AddDate(0, 0, -14))
	require.NoError(t, err)
	return inv
}

func newServiceItem(t *testing.T, ownerID uuid.UUID) *catalog.ServiceItem {
	t.Helper()
	item, err := catalog.NewServiceItem(ownerID, catalog.ServiceItemInput{
		Name:         "Managed hosting",
		Category:     catalog.CategoryHosting,
		DefaultPrice: decimal.NewFromInt(49),
		IsRecurring:  true,
	})
	require.NoError(t, err)
	return item
}
