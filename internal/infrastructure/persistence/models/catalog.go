package models

import (
	"github.com/shopspring/decimal"

	"github.com/invoicer/backend/internal/domain/billing"
	"github.com/invoicer/backend/internal/domain/catalog"
	"github.com/invoicer/backend/internal/domain/shared/valueobject"
)

// ServiceItemModel is the persistence model for a service library entry
type ServiceItemModel struct {
	OwnedModel
	Name              string               `gorm:"type:varchar(200);not null"`
	Description       string               `gorm:"type:text"`
	Category          catalog.Category     `gorm:"type:varchar(20);not null;index"`
	DefaultPrice      decimal.Decimal      `gorm:"type:decimal(18,4);not null;default:0"`
	Currency          valueobject.Currency `gorm:"type:varchar(3);not null;default:'EUR'"`
	IsRecurring       bool                 `gorm:"not null"`
	BillingCycle      billing.Frequency    `gorm:"type:varchar(20);not null"`
	DefaultBillingDay *int
	IsActive          bool `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (ServiceItemModel) TableName() string {
	return "services"
}

// ToDomain converts the persistence model to a domain ServiceItem entity
func (m *ServiceItemModel) ToDomain() *catalog.ServiceItem {
	return &catalog.ServiceItem{
		OwnedEntity:       m.ToOwnedEntity(),
		Name:              m.Name,
		Description:       m.Description,
		Category:          m.Category,
		DefaultPrice:      m.DefaultPrice,
		Currency:          m.Currency,
		IsRecurring:       m.IsRecurring,
		BillingCycle:      m.BillingCycle,
		DefaultBillingDay: m.DefaultBillingDay,
		IsActive:          m.IsActive,
	}
}

// ServiceItemModelFromDomain creates a persistence model from a domain ServiceItem
func ServiceItemModelFromDomain(s *catalog.ServiceItem) *ServiceItemModel {
	m := &ServiceItemModel{
		Name:              s.Name,
		Description:       s.Description,
		Category:          s.Category,
		DefaultPrice:      s.DefaultPrice,
		Currency:          s.Currency,
		IsRecurring:       s.IsRecurring,
		BillingCycle:      s.BillingCycle,
		DefaultBillingDay: s.DefaultBillingDay,
		IsActive:          s.IsActive,
	}
	m.FromOwnedEntity(s.OwnedEntity)
	return m
}
