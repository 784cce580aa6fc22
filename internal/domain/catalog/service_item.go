package catalog

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/invoicer/backend/internal/domain/billing"
	"github.com/invoicer/backend/internal/domain/shared"
	"github.com/invoicer/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// Category groups catalog entries
type Category string

const (
	CategoryDevelopment Category = "DEVELOPMENT"
	CategoryDesign      Category = "DESIGN"
	CategoryConsulting  Category = "CONSULTING"
	CategoryHosting     Category = "HOSTING"
	CategoryMaintenance Category = "MAINTENANCE"
	CategoryMarketing   Category = "MARKETING"
	CategorySupport     Category = "SUPPORT"
	CategoryOther       Category = "OTHER"
)

// IsValid checks if the category is known
func (c Category) IsValid() bool {
	switch c {
	case CategoryDevelopment, CategoryDesign, CategoryConsulting, CategoryHosting,
		CategoryMaintenance, CategoryMarketing, CategorySupport, CategoryOther:
		return true
	}
	return false
}

// ServiceItem is an entry of the service library: a sellable service used as
// the price and description template of orders and subscriptions. Deleting an
// entry deactivates it.
type ServiceItem struct {
	shared.OwnedEntity
	Name              string
	Description       string
	Category          Category
	DefaultPrice      decimal.Decimal
	Currency          valueobject.Currency
	IsRecurring       bool
	BillingCycle      billing.Frequency
	DefaultBillingDay *int
	IsActive          bool
}

// ServiceItemInput carries the fields of a new entry
type ServiceItemInput struct {
	Name              string
	Description       string
	Category          Category
	DefaultPrice      decimal.Decimal
	Currency          valueobject.Currency
	IsRecurring       bool
	BillingCycle      billing.Frequency
	DefaultBillingDay *int
}

// ServiceItemUpdate is a partial update; nil fields are left untouched.
type ServiceItemUpdate struct {
	Name              *string
	Description       *string
	Category          *Category
	DefaultPrice      *decimal.Decimal
	Currency          *valueobject.Currency
	IsRecurring       *bool
	BillingCycle      *billing.Frequency
	DefaultBillingDay *int
	IsActive          *bool
}

// NewServiceItem creates an active catalog entry
func NewServiceItem(ownerID uuid.UUID, in ServiceItemInput) (*ServiceItem, error) {
	s := &ServiceItem{
		OwnedEntity:       shared.NewOwnedEntity(ownerID),
		Name:              in.Name,
		Description:       in.Description,
		Category:          in.Category,
		DefaultPrice:      in.DefaultPrice,
		Currency:          in.Currency,
		IsRecurring:       in.IsRecurring,
		BillingCycle:      in.BillingCycle,
		DefaultBillingDay: in.DefaultBillingDay,
		IsActive:          true,
	}
	if s.Category == "" {
		s.Category = CategoryOther
	}
	if s.Currency == "" {
		s.Currency = valueobject.DefaultCurrency
	}
	if err := s.normalize(); err != nil {
		return nil, err
	}
	return s, nil
}

// Update applies a partial update
func (s *ServiceItem) Update(u ServiceItemUpdate) error {
	next := *s
	if u.Name != nil {
		next.Name = *u.Name
	}
	if u.Description != nil {
		next.Description = *u.Description
	}
	if u.Category != nil {
		next.Category = *u.Category
	}
	if u.DefaultPrice != nil {
		next.DefaultPrice = *u.DefaultPrice
	}
	if u.Currency != nil {
		next.Currency = *u.Currency
	}
	if u.IsRecurring != nil {
		next.IsRecurring = *u.IsRecurring
	}
	if u.BillingCycle != nil {
		next.BillingCycle = *u.BillingCycle
	}
	if u.DefaultBillingDay != nil {
		day := *u.DefaultBillingDay
		next.DefaultBillingDay = &day
	}
	if u.IsActive != nil {
		next.IsActive = *u.IsActive
	}
	if err := next.normalize(); err != nil {
		return err
	}
	*s = next
	s.Touch()
	return nil
}

// Deactivate hides the entry from default listings
func (s *ServiceItem) Deactivate() {
	s.IsActive = false
	s.Touch()
}

func (s *ServiceItem) normalize() error {
	s.Name = strings.TrimSpace(s.Name)
	if s.Name == "" {
		return shared.NewDomainError("INVALID_NAME", "Service name cannot be empty")
	}
	if len(s.Name) > 200 {
		return shared.NewDomainError("INVALID_NAME", "Service name cannot exceed 200 characters")
	}
	if !s.Category.IsValid() {
		return shared.NewDomainError("INVALID_CATEGORY", fmt.Sprintf("Unknown category %q", s.Category))
	}
	if s.DefaultPrice.IsNegative() {
		return shared.NewDomainError("INVALID_PRICE", "Default price cannot be negative")
	}
	s.DefaultPrice = s.DefaultPrice.Round(4)
	if !s.Currency.IsValid() {
		return shared.NewDomainError("INVALID_CURRENCY", fmt.Sprintf("Unsupported currency %s", s.Currency))
	}
	if s.IsRecurring {
		if s.BillingCycle == "" {
			s.BillingCycle = billing.FrequencyMonthly
		}
		if !s.BillingCycle.IsMonthBased() {
			return shared.NewDomainError("INVALID_BILLING_CYCLE", "Recurring services bill monthly, quarterly or yearly")
		}
	} else {
		s.BillingCycle = billing.FrequencyOneTime
		s.DefaultBillingDay = nil
	}
	if s.DefaultBillingDay != nil {
		if err := billing.ValidateBillingDay(*s.DefaultBillingDay); err != nil {
			return err
		}
	}
	return nil
}
