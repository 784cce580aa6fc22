package printing

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTemplateEngine_RenderInvoice(t *testing.T) {
	engine, err := NewTemplateEngine()
	require.NoError(t, err)

	html, err := engine.RenderInvoice(sampleDocument(t))
	require.NoError(t, err)

	assert.Contains(t, html, "INV-202507-00001")
	assert.Contains(t, html, "€1,234.50")
	assert.Contains(t, html, "€1,034.50")
	assert.Contains(t, html, "Design work")
	assert.Contains(t, html, "01 Jul 2025")
	assert.Contains(t, html, "IBAN DE89370400440532013000")
	assert.Contains(t, html, "Acme &lt;GmbH&gt;")
	assert.NotContains(t, html, "Acme <GmbH>")
}

func TestTemplateEngine_NilDocument(t *testing.T) {
	engine, err := NewTemplateEngine()
	require.NoError(t, err)

	_, err = engine.RenderInvoice(nil)
	var rerr *RenderError
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, ErrCodeInvalidDocument, rerr.Code)
}

func TestTemplateEngine_CustomTemplate(t *testing.T) {
	engine, err := NewTemplateEngine(WithInvoiceTemplate(`<p>{{.Number}} {{formatMoney .Amount .Currency}}</p>`))
	require.NoError(t, err)

	html, err := engine.RenderInvoice(&InvoiceDocument{Number: "A-1", Amount: decimal.NewFromInt(5), Currency: "USD"})
	require.NoError(t, err)
	assert.Equal(t, "<p>A-1 $5.00</p>", html)

	_, err = NewTemplateEngine(WithInvoiceTemplate(`{{.Number`))
	var rerr *RenderError
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, ErrCodeInvalidTemplate, rerr.Code)
}

func TestTemplateHelpers(t *testing.T) {
	assert.Equal(t, "Bank Account", titleCase("BANK_ACCOUNT"))
	assert.Equal(t, "Paid In Advance", titleCase("PAID_IN_ADVANCE"))
	assert.Equal(t, "3", formatQuantity(decimal.NewFromInt(3)))
	assert.Equal(t, "1.5", formatQuantity(decimal.RequireFromString("1.50")))
	assert.Equal(t, "", formatDate(time.Time{}))
	assert.Equal(t, "12.00 XYZ", formatMoney(decimal.NewFromInt(12), "XYZ"))
}
