package partner

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/invoicer/backend/internal/domain/shared"
	"github.com/invoicer/backend/internal/domain/shared/valueobject"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requireCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	de, ok := shared.AsDomainError(err)
	require.True(t, ok)
	assert.Equal(t, code, de.Code)
}

func TestNewClient(t *testing.T) {
	c, err := NewClient(uuid.New(), ClientInput{
		Name:      "  Acme GmbH ",
		Email:     "Billing@Acme.DE",
		CCEmails:  []string{"cfo@acme.de", "CFO@acme.de", " ", "ops@acme.de"},
		VATNumber: "de 123 456 789",
	})
	require.NoError(t, err)
	assert.Equal(t, "Acme GmbH", c.Name)
	assert.Equal(t, "billing@acme.de", c.Email)
	assert.Equal(t, []string{"cfo@acme.de", "ops@acme.de"}, c.CCEmails)
	assert.Equal(t, "DE123456789", c.VATNumber)
	assert.Equal(t, valueobject.DefaultCurrency, c.PreferredCurrency)
	assert.True(t, c.HasEmail())

	_, err = NewClient(uuid.New(), ClientInput{Name: ""})
	requireCode(t, err, "INVALID_NAME")

	_, err = NewClient(uuid.New(), ClientInput{Name: "x", CCEmails: []string{"nope"}})
	requireCode(t, err, "INVALID_CC_EMAILS")

	_, err = NewClient(uuid.New(), ClientInput{Name: "x", PreferredCurrency: "XXX"})
	requireCode(t, err, "INVALID_CURRENCY")
}

func TestCompany(t *testing.T) {
	c, err := NewCompany(uuid.New(), CompanyInput{
		Name:  "Studio",
		IBAN:  "DE89 3704 0044 0532 0130 00",
		SWIFT: "cobadeffxxx",
	})
	require.NoError(t, err)
	assert.Equal(t, "Studio", c.LegalName)
	assert.Equal(t, "DE89370400440532013000", c.IBAN)
	assert.Equal(t, "COBADEFFXXX", c.SWIFT)

	badIBAN := "DE00370400440532013000"
	requireCode(t, c.Update(CompanyUpdate{IBAN: &badIBAN}), "INVALID_IBAN")
	assert.Equal(t, "DE89370400440532013000", c.IBAN, "failed update leaves company untouched")

	name := "Studio Two"
	require.NoError(t, c.Update(CompanyUpdate{Name: &name}))
	assert.Equal(t, "Studio Two", c.Name)

	_, err = NewCompany(uuid.New(), CompanyInput{Name: "x", PaymentTermsDays: 400})
	requireCode(t, err, "INVALID_PAYMENT_TERMS")
}

func TestValidIBAN(t *testing.T) {
	assert.True(t, ValidIBAN("GB82WEST12345698765432"))
	assert.True(t, ValidIBAN("DE89370400440532013000"))
	assert.False(t, ValidIBAN("GB82WEST12345698765431"))
	assert.False(t, ValidIBAN("SHORT"))
}

func TestNewPaymentMethod(t *testing.T) {
	company, err := NewCompany(uuid.New(), CompanyInput{Name: "Studio"})
	require.NoError(t, err)

	pm, err := NewPaymentMethod(company, PaymentMethodTypeBankAccount, "Main account",
		json.RawMessage(`{"iban":"gb82 west 1234 5698 7654 32","bank":"West"}`), true)
	require.NoError(t, err)
	assert.Equal(t, company.ID, pm.CompanyID)
	assert.Equal(t, company.OwnerID, pm.OwnerID)
	assert.Equal(t, "GB82WEST12345698765432", pm.DetailString("iban"))

	_, err = NewPaymentMethod(company, PaymentMethodTypeCryptoWallet, "BTC", json.RawMessage(`{"address":"bc1q"}`), false)
	requireCode(t, err, "INVALID_DETAILS")

	_, err = NewPaymentMethod(company, PaymentMethodTypeOther, "Cash", json.RawMessage(`[1,2]`), false)
	requireCode(t, err, "INVALID_DETAILS")

	_, err = NewPaymentMethod(company, "CHEQUE", "x", nil, false)
	requireCode(t, err, "INVALID_PAYMENT_METHOD_TYPE")

	other, err := NewPaymentMethod(company, PaymentMethodTypeOther, "Cash", nil, false)
	require.NoError(t, err)
	assert.JSONEq(t, `{}`, string(other.Details))
}
