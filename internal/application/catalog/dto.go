package catalog

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/invoicer/backend/internal/domain/billing"
	"github.com/invoicer/backend/internal/domain/catalog"
	"github.com/invoicer/backend/internal/domain/shared"
	"github.com/invoicer/backend/internal/domain/shared/valueobject"
)

// CreateServiceItemRequest represents a request to add a library entry
type CreateServiceItemRequest struct {
	Name              string          `json:"name" binding:"required,min=1,max=200"`
	Description       string          `json:"description" binding:"max=2000"`
	Category          string          `json:"category" binding:"omitempty,oneof=DEVELOPMENT DESIGN CONSULTING HOSTING MAINTENANCE MARKETING SUPPORT OTHER"`
	DefaultPrice      decimal.Decimal `json:"default_price"`
	Currency          string          `json:"currency" binding:"omitempty,currency"`
	IsRecurring       bool            `json:"is_recurring"`
	BillingCycle      string          `json:"billing_cycle" binding:"omitempty,oneof=ONE_TIME MONTHLY QUARTERLY YEARLY"`
	DefaultBillingDay *int            `json:"default_billing_day" binding:"omitempty,billing_day"`
}

// UpdateServiceItemRequest is a partial update
type UpdateServiceItemRequest struct {
	Name              *string          `json:"name" binding:"omitempty,min=1,max=200"`
	Description       *string          `json:"description" binding:"omitempty,max=2000"`
	Category          *string          `json:"category" binding:"omitempty,oneof=DEVELOPMENT DESIGN CONSULTING HOSTING MAINTENANCE MARKETING SUPPORT OTHER"`
	DefaultPrice      *decimal.Decimal `json:"default_price"`
	Currency          *string          `json:"currency" binding:"omitempty,currency"`
	IsRecurring       *bool            `json:"is_recurring"`
	BillingCycle      *string          `json:"billing_cycle" binding:"omitempty,oneof=ONE_TIME MONTHLY QUARTERLY YEARLY"`
	DefaultBillingDay *int             `json:"default_billing_day" binding:"omitempty,billing_day"`
	IsActive          *bool            `json:"is_active"`
}

func (r UpdateServiceItemRequest) toUpdate() catalog.ServiceItemUpdate {
	u := catalog.ServiceItemUpdate{
		Name:              r.Name,
		Description:       r.Description,
		DefaultPrice:      r.DefaultPrice,
		IsRecurring:       r.IsRecurring,
		DefaultBillingDay: r.DefaultBillingDay,
		IsActive:          r.IsActive,
	}
	if r.Category != nil {
		c := catalog.Category(*r.Category)
		u.Category = &c
	}
	if r.Currency != nil {
		c := valueobject.Currency(*r.Currency)
		u.Currency = &c
	}
	if r.BillingCycle != nil {
		f := billing.Frequency(*r.BillingCycle)
		u.BillingCycle = &f
	}
	return u
}

// ServiceItemListFilter holds the query parameters of GET /api/services
type ServiceItemListFilter struct {
	Page            int    `form:"page" binding:"omitempty,min=1"`
	PageSize        int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy         string `form:"order_by"`
	OrderDir        string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
	Search          string `form:"search"`
	Category        string `form:"category"`
	IncludeInactive bool   `form:"include_inactive"`
}

// ServiceItemResponse represents a library entry in API responses
type ServiceItemResponse struct {
	ID                uuid.UUID       `json:"id"`
	Name              string          `json:"name"`
	Description       string          `json:"description"`
	Category          string          `json:"category"`
	DefaultPrice      decimal.Decimal `json:"default_price"`
	Currency          string          `json:"currency"`
	IsRecurring       bool            `json:"is_recurring"`
	BillingCycle      string          `json:"billing_cycle"`
	DefaultBillingDay *int            `json:"default_billing_day"`
	IsActive          bool            `json:"is_active"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// ToServiceItemResponse converts a domain ServiceItem
func ToServiceItemResponse(s *catalog.ServiceItem) ServiceItemResponse {
	return ServiceItemResponse{
		ID:                s.ID,
		Name:              s.Name,
		Description:       s.Description,
		Category:          string(s.Category),
		DefaultPrice:      s.DefaultPrice,
		Currency:          s.Currency.String(),
		IsRecurring:       s.IsRecurring,
		BillingCycle:      string(s.BillingCycle),
		DefaultBillingDay: s.DefaultBillingDay,
		IsActive:          s.IsActive,
		CreatedAt:         s.CreatedAt,
		UpdatedAt:         s.UpdatedAt,
	}
}

func (f ServiceItemListFilter) toDomain() catalog.ServiceItemFilter {
	return catalog.ServiceItemFilter{
		Filter: shared.Filter{
			Page:     f.Page,
			PageSize: f.PageSize,
			OrderBy:  f.OrderBy,
			OrderDir: f.OrderDir,
			Search:   f.Search,
		}.Normalize(),
		Category:        catalog.Category(f.Category),
		IncludeInactive: f.IncludeInactive,
	}
}
