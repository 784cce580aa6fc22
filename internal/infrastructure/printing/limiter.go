package printing

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
)

const defaultMaxConcurrent = 2

// LimitedRenderer bounds the number of renders in flight. Callers beyond the
// limit wait until a slot frees up or their context ends.
type LimitedRenderer struct {
	next   InvoiceRenderer
	sem    *semaphore.Weighted
	logger *zap.Logger
}

// NewLimitedRenderer wraps next with a cap of max concurrent renders
func NewLimitedRenderer(next InvoiceRenderer, max int64, logger *zap.Logger) *LimitedRenderer {
	if max <= 0 {
		max = defaultMaxConcurrent
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LimitedRenderer{
		next:   next,
		sem:    semaphore.NewWeighted(max),
		logger: logger,
	}
}

// RenderInvoice implements InvoiceRenderer
func (r *LimitedRenderer) RenderInvoice(ctx context.Context, doc *InvoiceDocument) ([]byte, error) {
	waitStart := time.Now()
	if err := r.sem.Acquire(ctx, 1); err != nil {
		return nil, NewRenderError(ErrCodeRenderTimeout, "timed out waiting for a free renderer", err)
	}
	defer r.sem.Release(1)

	if wait := time.Since(waitStart); wait > 100*time.Millisecond {
		r.logger.Debug("Waited for renderer slot", zap.Duration("wait", wait))
	}
	return r.next.RenderInvoice(ctx, doc)
}

// Close implements InvoiceRenderer
func (r *LimitedRenderer) Close() error {
	return r.next.Close()
}

var _ InvoiceRenderer = (*LimitedRenderer)(nil)
