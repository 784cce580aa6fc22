package printing

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/invoicer/backend/internal/infrastructure/config"
)

// InvoiceRenderer turns an invoice document into PDF bytes
type InvoiceRenderer interface {
	RenderInvoice(ctx context.Context, doc *InvoiceDocument) ([]byte, error)
	// Close releases any resources held by the renderer
	Close() error
}

// RenderError represents an error during PDF rendering
type RenderError struct {
	Code    string
	Message string
	Cause   error
}

func (e *RenderError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *RenderError) Unwrap() error {
	return e.Cause
}

// Error codes for rendering failures
const (
	ErrCodeRenderTimeout   = "RENDER_TIMEOUT"
	ErrCodeRenderFailed    = "RENDER_FAILED"
	ErrCodeInvalidHTML     = "INVALID_HTML"
	ErrCodeInvalidDocument = "INVALID_DOCUMENT"
	ErrCodeInvalidTemplate = "INVALID_TEMPLATE"
)

// NewRenderError creates a new RenderError
func NewRenderError(code, message string, cause error) *RenderError {
	return &RenderError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// NewInvoiceRenderer builds the renderer selected by cfg.Engine, capped to
// cfg.MaxConcurrent renders in flight.
func NewInvoiceRenderer(cfg config.PDFConfig, log *zap.Logger) (InvoiceRenderer, error) {
	if log == nil {
		log = zap.NewNop()
	}

	var inner InvoiceRenderer
	switch cfg.Engine {
	case "", "chromedp":
		engine, err := NewTemplateEngine()
		if err != nil {
			return nil, err
		}
		chrome, err := NewChromedpRenderer(&ChromedpConfig{
			Timeout:   cfg.Timeout,
			RemoteURL: cfg.RemoteURL,
			NoSandbox: cfg.NoSandbox,
			Logger:    log,
		})
		if err != nil {
			return nil, err
		}
		inner = NewHTMLRenderer(engine, chrome)
	case "gofpdf":
		inner = NewFPDFRenderer()
	default:
		return nil, fmt.Errorf("unknown pdf engine %q", cfg.Engine)
	}

	log.Info("Invoice renderer ready",
		zap.String("engine", cfg.Engine),
		zap.Int64("max_concurrent", cfg.MaxConcurrent))
	return NewLimitedRenderer(inner, cfg.MaxConcurrent, log), nil
}

// HTMLConverter prints an HTML page to PDF
type HTMLConverter interface {
	Render(ctx context.Context, req *RenderRequest) (*RenderResult, error)
	Close() error
}

// HTMLRenderer renders the invoice template and prints it with a browser
type HTMLRenderer struct {
	engine    *TemplateEngine
	converter HTMLConverter
}

// NewHTMLRenderer creates an HTMLRenderer
func NewHTMLRenderer(engine *TemplateEngine, converter HTMLConverter) *HTMLRenderer {
	return &HTMLRenderer{engine: engine, converter: converter}
}

// RenderInvoice implements InvoiceRenderer
func (r *HTMLRenderer) RenderInvoice(ctx context.Context, doc *InvoiceDocument) ([]byte, error) {
	html, err := r.engine.RenderInvoice(doc)
	if err != nil {
		return nil, err
	}
	result, err := r.converter.Render(ctx, &RenderRequest{
		HTML:  html,
		Title: "Invoice " + doc.Number,
	})
	if err != nil {
		return nil, err
	}
	return result.PDFData, nil
}

// Close implements InvoiceRenderer
func (r *HTMLRenderer) Close() error {
	return r.converter.Close()
}

// RenderRequest is one HTML page to print. Fragments are wrapped in a
// document titled Title.
type RenderRequest struct {
	HTML  string
	Title string
}

// RenderResult is the printed PDF
type RenderResult struct {
	PDFData []byte
	Pages   int
	Elapsed time.Duration
}

var (
	_ InvoiceRenderer = (*HTMLRenderer)(nil)
	_ HTMLConverter   = (*ChromedpRenderer)(nil)
)
