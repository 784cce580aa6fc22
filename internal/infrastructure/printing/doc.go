// Package printing renders invoices to PDF.
//
// The default engine fills an embedded html/template and prints it with a
// headless Chrome driven by chromedp. The gofpdf engine draws the same
// document without a browser. Either engine is wrapped in a LimitedRenderer
// so a burst of requests cannot start an unbounded number of renders.
package printing
