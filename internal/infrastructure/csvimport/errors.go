package csvimport

import (
	"fmt"
	"strings"
)

// Row error codes
const (
	CodeRequired      = "REQUIRED"
	CodeInvalidType   = "INVALID_TYPE"
	CodeInvalidLength = "INVALID_LENGTH"
	CodeInvalidValue  = "INVALID_VALUE"
	CodeDuplicate     = "DUPLICATE_IN_FILE"
)

// RowError is a problem with one cell, or with a whole row when Column is empty
type RowError struct {
	Line    int    `json:"line"`
	Column  string `json:"column,omitempty"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Value   string `json:"value,omitempty"`
}

// Error implements error
func (e RowError) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("line %d, column %q: %s", e.Line, e.Column, e.Message)
	}
	return fmt.Sprintf("line %d: %s", e.Line, e.Message)
}

// ErrorCollection keeps the first max errors and counts the rest
type ErrorCollection struct {
	errors []RowError
	max    int
	total  int
	lines  map[int]struct{}
}

// NewErrorCollection creates a collection holding at most max errors (default 100)
func NewErrorCollection(max int) *ErrorCollection {
	if max <= 0 {
		max = 100
	}
	return &ErrorCollection{max: max, lines: make(map[int]struct{})}
}

// Add records err
func (c *ErrorCollection) Add(err RowError) {
	c.total++
	c.lines[err.Line] = struct{}{}
	if len(c.errors) < c.max {
		c.errors = append(c.errors, err)
	}
}

// Errors returns the kept errors in the order they were added
func (c *ErrorCollection) Errors() []RowError {
	return c.errors
}

// Total counts every error, kept or not
func (c *ErrorCollection) Total() int {
	return c.total
}

// Lines counts distinct lines with at least one error
func (c *ErrorCollection) Lines() int {
	return len(c.lines)
}

// HasErrors reports whether anything was added
func (c *ErrorCollection) HasErrors() bool {
	return c.total > 0
}

// Truncated reports whether errors were dropped
func (c *ErrorCollection) Truncated() bool {
	return c.total > c.max
}

// String lists the kept errors, one per line
func (c *ErrorCollection) String() string {
	if !c.HasErrors() {
		return "no errors"
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d error(s)", c.total)
	if c.Truncated() {
		fmt.Fprintf(&sb, " (showing first %d)", c.max)
	}
	sb.WriteString(":\n")
	for _, err := range c.errors {
		sb.WriteString("  - ")
		sb.WriteString(err.Error())
		sb.WriteByte('\n')
	}
	return sb.String()
}
