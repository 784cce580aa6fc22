package printing

import (
	"bytes"
	"context"
	"strings"

	"github.com/jung-kurt/gofpdf"
)

// FPDFRenderer draws invoices directly with gofpdf. It needs no browser and
// is used where Chrome is unavailable.
type FPDFRenderer struct{}

// NewFPDFRenderer creates an FPDFRenderer
func NewFPDFRenderer() *FPDFRenderer {
	return &FPDFRenderer{}
}

const (
	fpdfMargin    = 15.0
	fpdfLineH     = 5.0
	fpdfColDesc   = 95.0
	fpdfColQty    = 20.0
	fpdfColPrice  = 32.5
	fpdfColTotal  = 32.5
	fpdfHalfWidth = 90.0
)

// RenderInvoice implements InvoiceRenderer
func (r *FPDFRenderer) RenderInvoice(ctx context.Context, doc *InvoiceDocument) ([]byte, error) {
	if doc == nil {
		return nil, NewRenderError(ErrCodeInvalidDocument, "invoice document is nil", nil)
	}
	if err := ctx.Err(); err != nil {
		return nil, NewRenderError(ErrCodeRenderTimeout, "PDF rendering was cancelled", err)
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(fpdfMargin, fpdfMargin, fpdfMargin)
	pdf.SetAutoPageBreak(true, fpdfMargin)
	pdf.SetTitle("Invoice "+doc.Number, true)
	pdf.SetCreator("invoicer", true)
	// core fonts are cp1252; this maps €, £ and accented latin letters
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 20)
	pdf.CellFormat(fpdfHalfWidth, 10, "INVOICE", "", 0, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(fpdfHalfWidth, fpdfLineH, tr("Issue date: "+formatDate(doc.IssueDate)), "", 1, "R", false, 0, "")
	pdf.SetX(fpdfMargin + fpdfHalfWidth)
	pdf.CellFormat(fpdfHalfWidth, fpdfLineH, tr("Due date: "+formatDate(doc.DueDate)), "", 1, "R", false, 0, "")
	pdf.CellFormat(0, fpdfLineH, tr("No. "+doc.Number+"  ("+titleCase(doc.Status)+")"), "", 1, "L", false, 0, "")
	pdf.Ln(8)

	top := pdf.GetY()
	drawParty(pdf, tr, "FROM", doc.Seller, fpdfMargin, top)
	sellerBottom := pdf.GetY()
	drawParty(pdf, tr, "BILL TO", doc.Buyer, fpdfMargin+fpdfHalfWidth+5, top)
	if pdf.GetY() < sellerBottom {
		pdf.SetY(sellerBottom)
	}
	pdf.Ln(8)

	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(235, 235, 235)
	pdf.CellFormat(fpdfColDesc, 7, "Description", "B", 0, "L", true, 0, "")
	pdf.CellFormat(fpdfColQty, 7, "Qty", "B", 0, "R", true, 0, "")
	pdf.CellFormat(fpdfColPrice, 7, "Unit price", "B", 0, "R", true, 0, "")
	pdf.CellFormat(fpdfColTotal, 7, "Total", "B", 1, "R", true, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	for _, line := range doc.Lines {
		pdf.CellFormat(fpdfColDesc, 6, tr(truncate(line.Description, 60)), "B", 0, "L", false, 0, "")
		pdf.CellFormat(fpdfColQty, 6, formatQuantity(line.Quantity), "B", 0, "R", false, 0, "")
		pdf.CellFormat(fpdfColPrice, 6, tr(formatMoney(line.UnitPrice, doc.Currency)), "B", 0, "R", false, 0, "")
		pdf.CellFormat(fpdfColTotal, 6, tr(formatMoney(line.Total, doc.Currency)), "B", 1, "R", false, 0, "")
	}
	pdf.Ln(4)

	totalRow := func(label, value string, bold bool) {
		style := ""
		if bold {
			style = "B"
		}
		pdf.SetFont("Helvetica", style, 10)
		pdf.SetX(fpdfMargin + fpdfColDesc + fpdfColQty)
		pdf.CellFormat(fpdfColPrice, 6, label, "", 0, "R", false, 0, "")
		pdf.CellFormat(fpdfColTotal, 6, tr(value), "", 1, "R", false, 0, "")
	}
	totalRow("Total", formatMoney(doc.Amount, doc.Currency), false)
	if doc.Paid.IsPositive() {
		totalRow("Paid", "-"+formatMoney(doc.Paid, doc.Currency), false)
	}
	totalRow("Amount due", formatMoney(doc.Outstanding, doc.Currency), true)

	if doc.Seller.IBAN != "" || len(doc.PaymentMethods) > 0 {
		pdf.Ln(8)
		pdf.SetFont("Helvetica", "B", 9)
		pdf.CellFormat(0, fpdfLineH, "PAYMENT DETAILS", "", 1, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 9)
		if doc.Seller.IBAN != "" {
			bank := "IBAN " + doc.Seller.IBAN
			if doc.Seller.SWIFT != "" {
				bank += "  SWIFT " + doc.Seller.SWIFT
			}
			if doc.Seller.BankName != "" {
				bank = doc.Seller.BankName + "  " + bank
			}
			pdf.CellFormat(0, fpdfLineH, tr(bank), "", 1, "L", false, 0, "")
		}
		for _, m := range doc.PaymentMethods {
			pdf.CellFormat(0, fpdfLineH, tr(m.Name+" ("+titleCase(m.Type)+")"), "", 1, "L", false, 0, "")
			for _, d := range m.Details {
				pdf.CellFormat(0, fpdfLineH, tr("  "+d), "", 1, "L", false, 0, "")
			}
		}
	}

	if strings.TrimSpace(doc.Notes) != "" {
		pdf.Ln(6)
		pdf.MultiCell(0, fpdfLineH, tr(doc.Notes), "", "L", false)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, NewRenderError(ErrCodeRenderFailed, "gofpdf output failed", err)
	}
	return buf.Bytes(), nil
}

func drawParty(pdf *gofpdf.Fpdf, tr func(string) string, heading string, p Party, x, y float64) {
	pdf.SetXY(x, y)
	pdf.SetFont("Helvetica", "B", 8)
	pdf.SetTextColor(120, 120, 120)
	pdf.CellFormat(fpdfHalfWidth, fpdfLineH, heading, "", 2, "L", false, 0, "")
	pdf.SetTextColor(0, 0, 0)
	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(fpdfHalfWidth, fpdfLineH, tr(p.Name), "", 2, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)

	lines := make([]string, 0, 8)
	if p.Contact != "" {
		lines = append(lines, "Attn: "+p.Contact)
	}
	lines = append(lines, p.AddressLines...)
	if p.TaxCode != "" {
		lines = append(lines, "Tax code: "+p.TaxCode)
	}
	if p.VATNumber != "" {
		lines = append(lines, "VAT: "+p.VATNumber)
	}
	if p.Registration != "" {
		lines = append(lines, "Reg. no: "+p.Registration)
	}
	if p.Email != "" {
		lines = append(lines, p.Email)
	}
	for _, l := range lines {
		pdf.CellFormat(fpdfHalfWidth, fpdfLineH, tr(l), "", 2, "L", false, 0, "")
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

// Close implements InvoiceRenderer
func (r *FPDFRenderer) Close() error { return nil }

var _ InvoiceRenderer = (*FPDFRenderer)(nil)
