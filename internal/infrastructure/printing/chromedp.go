package printing

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
)

// Invoices print on A4 portrait with equal margins
const (
	defaultChromeTimeout = 30 * time.Second
	defaultMarginMM      = 15.0
	a4WidthMM            = 210.0
	a4HeightMM           = 297.0
	mmPerInch            = 25.4
)

type ChromedpConfig struct {
	Timeout time.Duration
	// RemoteURL is the DevTools websocket of a shared browser. If empty,
	// a local headless browser is launched on first use.
	RemoteURL string
	NoSandbox bool // needed when running as root in a container
	MarginMM  float64
	Logger    *zap.Logger
}

// ChromedpRenderer prints HTML to PDF through the Chrome DevTools Protocol.
// Every render opens a tab in one long-lived browser allocator.
type ChromedpRenderer struct {
	config      ChromedpConfig
	logger      *zap.Logger
	allocCtx    context.Context
	allocCancel context.CancelFunc
}

// NewChromedpRenderer prepares the browser allocator. The browser itself
// starts lazily with the first render.
func NewChromedpRenderer(cfg *ChromedpConfig) (*ChromedpRenderer, error) {
	r := &ChromedpRenderer{}
	if cfg != nil {
		r.config = *cfg
	}
	if r.config.Timeout <= 0 {
		r.config.Timeout = defaultChromeTimeout
	}
	if r.config.MarginMM <= 0 {
		r.config.MarginMM = defaultMarginMM
	}
	r.logger = r.config.Logger
	if r.logger == nil {
		r.logger = zap.NewNop()
	}

	if r.config.RemoteURL != "" {
		r.allocCtx, r.allocCancel = chromedp.NewRemoteAllocator(context.Background(), r.config.RemoteURL)
		return r, nil
	}
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.DisableGPU,
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("font-render-hinting", "none"),
	)
	if r.config.NoSandbox {
		opts = append(opts, chromedp.NoSandbox)
	}
	r.allocCtx, r.allocCancel = chromedp.NewExecAllocator(context.Background(), opts...)
	return r, nil
}

// Render prints req.HTML. The tab is closed when ctx ends or the timeout
// elapses, whichever comes first.
func (r *ChromedpRenderer) Render(ctx context.Context, req *RenderRequest) (*RenderResult, error) {
	if req == nil || strings.TrimSpace(req.HTML) == "" {
		return nil, NewRenderError(ErrCodeInvalidHTML, "HTML content is empty", nil)
	}
	start := time.Now()

	ctx, cancel := context.WithTimeout(ctx, r.config.Timeout)
	defer cancel()
	tabCtx, closeTab := chromedp.NewContext(r.allocCtx, chromedp.WithLogf(r.logger.Sugar().Debugf))
	defer closeTab()
	defer context.AfterFunc(ctx, closeTab)()

	doc := wrapDocument(req.Title, req.HTML)
	var pdf []byte
	err := chromedp.Run(tabCtx,
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			tree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(tree.Frame.ID, doc).Do(ctx)
		}),
		chromedp.ActionFunc(func(ctx context.Context) (err error) {
			pdf, _, err = r.printParams().Do(ctx)
			return err
		}),
	)
	switch {
	case err == nil:
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		return nil, NewRenderError(ErrCodeRenderTimeout, fmt.Sprintf("PDF rendering timed out after %v", r.config.Timeout), err)
	case errors.Is(ctx.Err(), context.Canceled):
		return nil, NewRenderError(ErrCodeRenderTimeout, "PDF rendering was cancelled", err)
	default:
		r.logger.Error("Chrome print failed", zap.String("title", req.Title), zap.Error(err))
		return nil, NewRenderError(ErrCodeRenderFailed, "chromedp execution failed", err)
	}
	if len(pdf) == 0 {
		return nil, NewRenderError(ErrCodeRenderFailed, "generated PDF is empty", nil)
	}

	res := &RenderResult{PDFData: pdf, Pages: countPages(pdf), Elapsed: time.Since(start)}
	r.logger.Debug("PDF printed",
		zap.String("title", req.Title),
		zap.Int("bytes", len(pdf)),
		zap.Int("pages", res.Pages),
		zap.Duration("elapsed", res.Elapsed))
	return res, nil
}

// printParams is A4 portrait with backgrounds, sizes in inches
func (r *ChromedpRenderer) printParams() *page.PrintToPDFParams {
	margin := r.config.MarginMM / mmPerInch
	return page.PrintToPDF().
		WithPrintBackground(true).
		WithPaperWidth(a4WidthMM / mmPerInch).
		WithPaperHeight(a4HeightMM / mmPerInch).
		WithMarginTop(margin).
		WithMarginRight(margin).
		WithMarginBottom(margin).
		WithMarginLeft(margin)
}

// wrapDocument turns a fragment into a UTF-8 document; full documents pass through
func wrapDocument(title, body string) string {
	lower := strings.ToLower(body)
	if strings.Contains(lower, "<!doctype") || strings.Contains(lower, "<html") {
		return body
	}
	var b strings.Builder
	b.WriteString(`<!DOCTYPE html><html><head><meta charset="UTF-8">`)
	if title != "" {
		fmt.Fprintf(&b, "<title>%s</title>", html.EscapeString(title))
	}
	fmt.Fprintf(&b, "</head><body>%s</body></html>", body)
	return b.String()
}

// Close stops the browser
func (r *ChromedpRenderer) Close() error {
	if r.allocCancel != nil {
		r.allocCancel()
	}
	return nil
}

// countPages counts page objects in a PDF, at least 1
func countPages(pdf []byte) int {
	n := 0
	for _, sep := range []string{"/Type /Page", "/Type/Page"} {
		n += bytes.Count(pdf, []byte(sep)) - bytes.Count(pdf, []byte(sep+"s"))
	}
	return max(n, 1)
}
