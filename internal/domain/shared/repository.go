package shared

import "context"

// List paging limits
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Filter holds the paging, search and sort parameters shared by every list
// endpoint. Resource filters (status, client, ...) live in per-resource types
// that embed it.
type Filter struct {
	Page     int
	PageSize int
	OrderBy  string
	OrderDir string
	Search   string
}

// Normalize clamps paging into range and makes OrderDir asc or desc.
// OrderBy is checked later against each repository's column whitelist.
func (f Filter) Normalize() Filter {
	f.Page = max(f.Page, 1)
	switch {
	case f.PageSize < 1:
		f.PageSize = DefaultPageSize
	case f.PageSize > MaxPageSize:
		f.PageSize = MaxPageSize
	}
	if f.OrderDir != "asc" {
		f.OrderDir = "desc"
	}
	return f
}

// Offset is the number of rows before the current page
func (f Filter) Offset() int {
	return (f.Page - 1) * f.PageSize
}

// Transactor runs fn inside a single storage transaction. Repositories called
// with the ctx handed to fn take part in that transaction.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
