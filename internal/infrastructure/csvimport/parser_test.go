package csvimport

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewParser(t *testing.T) {
	t.Run("BOM is stripped and headers normalized", func(t *testing.T) {
		p, err := NewParser(strings.NewReader("\xEF\xBB\xBFName, Company Name ,EMAIL\nAcme,Acme Ltd,a@acme.test"))
		require.NoError(t, err)
		assert.Equal(t, []string{"name", "company_name", "email"}, p.Headers())
		assert.True(t, p.HasHeader("company_name"))
	})

	t.Run("empty file", func(t *testing.T) {
		_, err := NewParser(strings.NewReader(""))
		assert.ErrorIs(t, err, ErrEmptyFile)
	})

	t.Run("invalid UTF-8", func(t *testing.T) {
		_, err := NewParser(strings.NewReader("name\n\xff\xfe"))
		assert.ErrorIs(t, err, ErrInvalidEncoding)
	})

	t.Run("blank header row", func(t *testing.T) {
		_, err := NewParser(strings.NewReader(" , \nAcme,x"))
		assert.ErrorIs(t, err, ErrMissingHeader)
	})

	t.Run("custom delimiter", func(t *testing.T) {
		p, err := NewParser(strings.NewReader("name;city\nAcme;Berlin"), WithDelimiter(';'))
		require.NoError(t, err)
		rows, err := p.ReadAll()
		require.NoError(t, err)
		assert.Equal(t, "Berlin", rows[0].Get("city"))
	})

	t.Run("multibyte text longer than the peek window", func(t *testing.T) {
		body := "name\n" + strings.Repeat("Zürich GmbH\n", 600)
		p, err := NewParser(strings.NewReader(body))
		require.NoError(t, err)
		rows, err := p.ReadAll()
		require.NoError(t, err)
		assert.Len(t, rows, 600)
	})
}

func TestParser_ReadAll(t *testing.T) {
	t.Run("line numbers skip blank rows and short rows are padded", func(t *testing.T) {
		p, err := NewParser(strings.NewReader("name,email,city\nAcme,a@acme.test,Oslo\n,,\nGlobex\n"))
		require.NoError(t, err)

		rows, err := p.ReadAll()
		require.NoError(t, err)
		require.Len(t, rows, 2)

		assert.Equal(t, 2, rows[0].Line)
		assert.Equal(t, "Oslo", rows[0].Get("city"))
		assert.Equal(t, 4, rows[1].Line)
		assert.Equal(t, "", rows[1].Get("email"))
	})

	t.Run("no data rows", func(t *testing.T) {
		p, err := NewParser(strings.NewReader("name,email\n"))
		require.NoError(t, err)
		_, err = p.ReadAll()
		assert.ErrorIs(t, err, ErrNoDataRows)
	})

	t.Run("row cap", func(t *testing.T) {
		p, err := NewParser(strings.NewReader("name\na\nb\nc\n"), WithMaxRows(2))
		require.NoError(t, err)
		_, err = p.ReadAll()
		assert.ErrorIs(t, err, ErrTooManyRows)
	})

	t.Run("quoted fields keep commas", func(t *testing.T) {
		p, err := NewParser(strings.NewReader("name,street\n\"Acme, Inc.\",\"1 Main St, Suite 2\"\n"))
		require.NoError(t, err)
		rows, err := p.ReadAll()
		require.NoError(t, err)
		assert.Equal(t, "Acme, Inc.", rows[0].Get("name"))
		assert.Equal(t, "1 Main St, Suite 2", rows[0].Get("street"))
	})
}

func TestParser_MissingHeaders(t *testing.T) {
	p, err := NewParser(strings.NewReader("email\nx@y.test"))
	require.NoError(t, err)
	assert.Equal(t, []string{"name"}, p.MissingHeaders([]string{"name", "email"}))
	assert.Empty(t, p.MissingHeaders([]string{"email"}))
}
