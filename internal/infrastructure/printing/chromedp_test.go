package printing

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewChromedpRenderer_Defaults(t *testing.T) {
	r, err := NewChromedpRenderer(nil)
	require.NoError(t, err)
	defer r.Close()

	assert.Equal(t, defaultChromeTimeout, r.config.Timeout)
	assert.Equal(t, defaultMarginMM, r.config.MarginMM)
	assert.NotNil(t, r.allocCtx)
}

func TestChromedpRenderer_PrintParams(t *testing.T) {
	r := &ChromedpRenderer{config: ChromedpConfig{MarginMM: 25.4}}

	params := r.printParams()
	assert.InDelta(t, 8.27, params.PaperWidth, 0.01)
	assert.InDelta(t, 11.69, params.PaperHeight, 0.01)
	assert.InDelta(t, 1.0, params.MarginTop, 0.001)
	assert.InDelta(t, 1.0, params.MarginLeft, 0.001)
	assert.False(t, params.Landscape)
	assert.True(t, params.PrintBackground)
}

func TestWrapDocument(t *testing.T) {
	full := "<!DOCTYPE html><html><body>x</body></html>"
	assert.Equal(t, full, wrapDocument("ignored", full))

	wrapped := wrapDocument("A & B", "<p>x</p>")
	assert.Contains(t, wrapped, "<!DOCTYPE html>")
	assert.Contains(t, wrapped, "<title>A &amp; B</title>")
	assert.Contains(t, wrapped, "<body><p>x</p></body>")

	assert.NotContains(t, wrapDocument("", "<p>x</p>"), "<title>")
}

func TestChromedpRenderer_RejectsEmptyHTML(t *testing.T) {
	r := &ChromedpRenderer{config: ChromedpConfig{Timeout: time.Second}}

	_, err := r.Render(context.Background(), nil)
	var rerr *RenderError
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, ErrCodeInvalidHTML, rerr.Code)

	_, err = r.Render(context.Background(), &RenderRequest{HTML: "  \n\t "})
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, ErrCodeInvalidHTML, rerr.Code)
}

func TestCountPages(t *testing.T) {
	assert.Equal(t, 1, countPages([]byte("%PDF-1.4")))
	pdf := []byte("<< /Type /Pages /Count 2 >> << /Type /Page >> << /Type /Page >>")
	assert.Equal(t, 2, countPages(pdf))
}
