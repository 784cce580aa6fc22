package printing

import (
	"bytes"
	_ "embed"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/invoicer/backend/internal/domain/shared/valueobject"
)

//go:embed templates/invoice.html
var invoiceTemplate string

// TemplateEngine renders invoice documents to HTML
type TemplateEngine struct {
	invoice *template.Template
}

// TemplateEngineOption configures the template engine
type TemplateEngineOption func(*templateOptions)

type templateOptions struct {
	invoiceHTML string
}

// WithInvoiceTemplate replaces the built-in invoice layout
func WithInvoiceTemplate(html string) TemplateEngineOption {
	return func(o *templateOptions) { o.invoiceHTML = html }
}

// NewTemplateEngine parses the invoice template with the formatting helpers
func NewTemplateEngine(opts ...TemplateEngineOption) (*TemplateEngine, error) {
	o := &templateOptions{invoiceHTML: invoiceTemplate}
	for _, opt := range opts {
		opt(o)
	}
	tmpl, err := template.New("invoice").Funcs(FuncMap()).Parse(o.invoiceHTML)
	if err != nil {
		return nil, NewRenderError(ErrCodeInvalidTemplate, "failed to parse invoice template", err)
	}
	return &TemplateEngine{invoice: tmpl}, nil
}

// RenderInvoice executes the invoice template for doc
func (e *TemplateEngine) RenderInvoice(doc *InvoiceDocument) (string, error) {
	if doc == nil {
		return "", NewRenderError(ErrCodeInvalidDocument, "invoice document is nil", nil)
	}
	var buf bytes.Buffer
	if err := e.invoice.Execute(&buf, doc); err != nil {
		return "", NewRenderError(ErrCodeInvalidTemplate, "failed to execute invoice template", err)
	}
	return buf.String(), nil
}

// FuncMap returns the helpers shared by invoice and mail templates
func FuncMap() template.FuncMap {
	return template.FuncMap{
		"formatMoney":    formatMoney,
		"formatDate":     formatDate,
		"formatQuantity": formatQuantity,
		"title":          titleCase,
		"upper":          strings.ToUpper,
		"join":           strings.Join,
	}
}

// formatMoney renders amount with the currency symbol, e.g. "€1,234.50"
func formatMoney(amount decimal.Decimal, currency string) string {
	m, err := valueobject.NewMoney(amount, valueobject.Currency(currency))
	if err != nil {
		return fmt.Sprintf("%s %s", amount.StringFixed(2), currency)
	}
	return m.Format()
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("02 Jan 2006")
}

func formatQuantity(q decimal.Decimal) string {
	if q.Equal(q.Truncate(0)) {
		return q.StringFixed(0)
	}
	return q.String()
}

var titleCaser = cases.Title(language.English)

// titleCase turns enum values like "BANK_ACCOUNT" into "Bank Account"
func titleCase(s string) string {
	return titleCaser.String(strings.ToLower(strings.ReplaceAll(s, "_", " ")))
}
