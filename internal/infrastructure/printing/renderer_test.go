package printing

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/invoicer/backend/internal/infrastructure/config"
)

type fakeConverter struct {
	got    *RenderRequest
	err    error
	closed bool
}

func (f *fakeConverter) Render(_ context.Context, req *RenderRequest) (*RenderResult, error) {
	f.got = req
	if f.err != nil {
		return nil, f.err
	}
	return &RenderResult{PDFData: []byte("%PDF-1.7"), Pages: 1}, nil
}

func (f *fakeConverter) Close() error {
	f.closed = true
	return nil
}

func TestHTMLRenderer_RenderInvoice(t *testing.T) {
	engine, err := NewTemplateEngine()
	require.NoError(t, err)
	conv := &fakeConverter{}
	r := NewHTMLRenderer(engine, conv)

	pdf, err := r.RenderInvoice(context.Background(), sampleDocument(t))
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.7", string(pdf))
	require.NotNil(t, conv.got)
	assert.Equal(t, "Invoice INV-202507-00001", conv.got.Title)
	assert.Contains(t, conv.got.HTML, "Design work")

	require.NoError(t, r.Close())
	assert.True(t, conv.closed)
}

func TestHTMLRenderer_PropagatesConverterError(t *testing.T) {
	engine, err := NewTemplateEngine()
	require.NoError(t, err)
	boom := NewRenderError(ErrCodeRenderFailed, "chrome crashed", errors.New("ws closed"))
	r := NewHTMLRenderer(engine, &fakeConverter{err: boom})

	_, err = r.RenderInvoice(context.Background(), sampleDocument(t))
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, "chrome crashed: ws closed", err.Error())
}

func TestNewInvoiceRenderer(t *testing.T) {
	r, err := NewInvoiceRenderer(config.PDFConfig{Engine: "gofpdf", MaxConcurrent: 1}, nil)
	require.NoError(t, err)
	limited, ok := r.(*LimitedRenderer)
	require.True(t, ok)
	assert.IsType(t, &FPDFRenderer{}, limited.next)

	_, err = NewInvoiceRenderer(config.PDFConfig{Engine: "wkhtml"}, nil)
	assert.Error(t, err)
}
