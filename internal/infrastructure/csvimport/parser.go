// Package csvimport reads spreadsheet exports (CSV, UTF-8, optional BOM) into
// header-keyed rows and validates them column by column, collecting
// row-level errors instead of stopping at the first one.
package csvimport

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"
)

// Parser errors
var (
	ErrEmptyFile       = errors.New("CSV file is empty")
	ErrInvalidEncoding = errors.New("CSV file is not valid UTF-8")
	ErrMissingHeader   = errors.New("CSV file missing header row")
	ErrNoDataRows      = errors.New("CSV file contains no data rows")
	ErrTooManyRows     = errors.New("CSV file exceeds the maximum number of rows")
)

// DefaultMaxRows bounds a single import
const DefaultMaxRows = 1000

// Parser reads rows keyed by normalized header name
type Parser struct {
	reader    *csv.Reader
	headers   []string
	headerMap map[string]int
	line      int
	maxRows   int
}

// ParserOption configures a Parser
type ParserOption func(*parserConfig)

type parserConfig struct {
	delimiter rune
	maxRows   int
}

// WithDelimiter sets the field delimiter (default comma)
func WithDelimiter(d rune) ParserOption {
	return func(c *parserConfig) { c.delimiter = d }
}

// WithMaxRows caps the number of data rows ReadAll accepts
func WithMaxRows(n int) ParserOption {
	return func(c *parserConfig) { c.maxRows = n }
}

// NewParser strips a UTF-8 BOM, checks the encoding and reads the header row.
// Header names are lower-cased and spaces become underscores, so "Company Name"
// and "company_name" address the same column.
func NewParser(r io.Reader, opts ...ParserOption) (*Parser, error) {
	cfg := parserConfig{delimiter: ',', maxRows: DefaultMaxRows}
	for _, opt := range opts {
		opt(&cfg)
	}

	br := bufio.NewReader(r)
	if bom, err := br.Peek(3); err == nil && bom[0] == 0xEF && bom[1] == 0xBB && bom[2] == 0xBF {
		_, _ = br.Discard(3)
	}

	head, err := br.Peek(encodingPeek)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, bufio.ErrBufferFull) {
		return nil, fmt.Errorf("read CSV: %w", err)
	}
	if len(head) == 0 {
		return nil, ErrEmptyFile
	}
	if len(head) == encodingPeek {
		head = trimPartialRune(head)
	}
	if !utf8.Valid(head) {
		return nil, ErrInvalidEncoding
	}

	reader := csv.NewReader(br)
	reader.Comma = cfg.delimiter
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	p := &Parser{reader: reader, headerMap: make(map[string]int), maxRows: cfg.maxRows}
	if err := p.readHeader(); err != nil {
		return nil, err
	}
	return p, nil
}

// encodingPeek is how much of the file is checked for valid UTF-8
const encodingPeek = 4096

// trimPartialRune drops a trailing rune cut off by the peek window
func trimPartialRune(b []byte) []byte {
	for i := 1; i < utf8.UTFMax && i <= len(b); i++ {
		if utf8.RuneStart(b[len(b)-i]) {
			if !utf8.FullRune(b[len(b)-i:]) {
				return b[:len(b)-i]
			}
			break
		}
	}
	return b
}

func (p *Parser) readHeader() error {
	record, err := p.reader.Read()
	if errors.Is(err, io.EOF) {
		return ErrMissingHeader
	}
	if err != nil {
		return fmt.Errorf("read header: %w", err)
	}
	p.line = 1

	p.headers = make([]string, len(record))
	for i, h := range record {
		name := NormalizeHeader(h)
		p.headers[i] = name
		if name != "" {
			p.headerMap[name] = i
		}
	}
	if len(p.headerMap) == 0 {
		return ErrMissingHeader
	}
	return nil
}

// NormalizeHeader lower-cases a header and joins its words with underscores
func NormalizeHeader(h string) string {
	return strings.Join(strings.Fields(strings.ToLower(h)), "_")
}

// Headers returns the normalized header names in file order
func (p *Parser) Headers() []string {
	return p.headers
}

// HasHeader reports whether the column exists
func (p *Parser) HasHeader(name string) bool {
	_, ok := p.headerMap[name]
	return ok
}

// MissingHeaders returns the required columns the file lacks
func (p *Parser) MissingHeaders(required []string) []string {
	var missing []string
	for _, h := range required {
		if !p.HasHeader(h) {
			missing = append(missing, h)
		}
	}
	return missing
}

// Row is one data row. Line is the 1-based line number in the file.
type Row struct {
	Line int
	Data map[string]string
}

// Get returns the trimmed value of column, or ""
func (r *Row) Get(column string) string {
	return r.Data[column]
}

// IsEmpty reports whether every cell is blank
func (r *Row) IsEmpty() bool {
	for _, v := range r.Data {
		if v != "" {
			return false
		}
	}
	return true
}

// Next returns the next row, or io.EOF
func (p *Parser) Next() (*Row, error) {
	record, err := p.reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, io.EOF
	}
	p.line++
	if err != nil {
		return nil, fmt.Errorf("line %d: %w", p.line, err)
	}

	row := &Row{Line: p.line, Data: make(map[string]string, len(p.headers))}
	for i, h := range p.headers {
		if h == "" {
			continue
		}
		if i < len(record) {
			row.Data[h] = strings.TrimSpace(record[i])
		} else {
			row.Data[h] = ""
		}
	}
	return row, nil
}

// ReadAll reads the remaining rows, skipping blank ones
func (p *Parser) ReadAll() ([]*Row, error) {
	var rows []*Row
	for {
		row, err := p.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		if row.IsEmpty() {
			continue
		}
		if p.maxRows > 0 && len(rows) == p.maxRows {
			return nil, ErrTooManyRows
		}
		rows = append(rows, row)
	}
	if len(rows) == 0 {
		return nil, ErrNoDataRows
	}
	return rows, nil
}
