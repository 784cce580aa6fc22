package mail

import (
	"bytes"
	"embed"
	"fmt"
	htmltemplate "html/template"
	texttemplate "text/template"

	"github.com/invoicer/backend/internal/infrastructure/printing"
)

//go:embed templates/*
var templateFS embed.FS

// Composer builds invoice and reminder emails
type Composer struct {
	html     *htmltemplate.Template
	text     *texttemplate.Template
	fromName string
}

// NewComposer parses the embedded mail templates. fromName signs the mails.
func NewComposer(fromName string) (*Composer, error) {
	funcs := printing.FuncMap()
	html, err := htmltemplate.New("mail").Funcs(funcs).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse html mail templates: %w", err)
	}
	text, err := texttemplate.New("mail").Funcs(texttemplate.FuncMap(funcs)).ParseFS(templateFS, "templates/*.txt")
	if err != nil {
		return nil, fmt.Errorf("failed to parse text mail templates: %w", err)
	}
	return &Composer{html: html, text: text, fromName: fromName}, nil
}

type mailData struct {
	*printing.InvoiceDocument
	FromName    string
	DaysOverdue int
}

// InvoiceMessage is the delivery mail carrying the invoice PDF
func (c *Composer) InvoiceMessage(doc *printing.InvoiceDocument, to string, cc []string, pdf []byte) (*Message, error) {
	data := mailData{InvoiceDocument: doc, FromName: c.sender(doc)}
	subject := fmt.Sprintf("Invoice %s from %s", doc.Number, data.FromName)
	return c.compose("invoice", data, subject, to, cc, pdf)
}

// ReminderMessage is the payment reminder for an overdue invoice
func (c *Composer) ReminderMessage(doc *printing.InvoiceDocument, to string, cc []string, daysOverdue int, pdf []byte) (*Message, error) {
	data := mailData{InvoiceDocument: doc, FromName: c.sender(doc), DaysOverdue: daysOverdue}
	subject := fmt.Sprintf("Payment reminder: invoice %s is overdue", doc.Number)
	return c.compose("reminder", data, subject, to, cc, pdf)
}

func (c *Composer) sender(doc *printing.InvoiceDocument) string {
	if doc.Seller.Name != "" {
		return doc.Seller.Name
	}
	return c.fromName
}

func (c *Composer) compose(name string, data mailData, subject, to string, cc []string, pdf []byte) (*Message, error) {
	var html, text bytes.Buffer
	if err := c.html.ExecuteTemplate(&html, name+".html", data); err != nil {
		return nil, fmt.Errorf("failed to render %s mail: %w", name, err)
	}
	if err := c.text.ExecuteTemplate(&text, name+".txt", data); err != nil {
		return nil, fmt.Errorf("failed to render %s mail: %w", name, err)
	}

	msg := &Message{
		To:       []string{to},
		Cc:       cc,
		Subject:  subject,
		HTMLBody: html.String(),
		TextBody: text.String(),
	}
	if len(pdf) > 0 {
		msg.Attachments = []Attachment{{
			Filename:    PDFFilename(data.Number),
			ContentType: "application/pdf",
			Data:        pdf,
		}}
	}
	return msg, nil
}

// PDFFilename is the attachment and download name of an invoice PDF
func PDFFilename(number string) string {
	return "invoice-" + number + ".pdf"
}
