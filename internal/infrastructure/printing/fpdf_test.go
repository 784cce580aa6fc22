package printing

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFPDFRenderer_RenderInvoice(t *testing.T) {
	r := NewFPDFRenderer()
	defer r.Close()

	doc := sampleDocument(t)
	doc.Notes = "Thank you for your business.\nPayment within 14 days."

	pdf, err := r.RenderInvoice(context.Background(), doc)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(pdf, []byte("%PDF-")))
	assert.Greater(t, len(pdf), 1000)
	assert.Equal(t, 1, countPages(pdf))
}

func TestFPDFRenderer_Errors(t *testing.T) {
	r := NewFPDFRenderer()

	_, err := r.RenderInvoice(context.Background(), nil)
	var rerr *RenderError
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, ErrCodeInvalidDocument, rerr.Code)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = r.RenderInvoice(ctx, sampleDocument(t))
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, ErrCodeRenderTimeout, rerr.Code)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcd…", truncate("abcdefgh", 5))
}
