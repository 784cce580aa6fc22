package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/invoicer/backend/internal/domain/shared"
	"github.com/invoicer/backend/internal/domain/shared/valueobject"
)

// BaseModel provides common persistence fields for all models
type BaseModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// ToDomain converts BaseModel to domain BaseEntity
func (m *BaseModel) ToDomain() shared.BaseEntity {
	return shared.BaseEntity{
		ID:        m.ID,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

// FromDomainBaseEntity populates BaseModel from domain BaseEntity
func (m *BaseModel) FromDomainBaseEntity(e shared.BaseEntity) {
	m.ID = e.ID
	m.CreatedAt = e.CreatedAt
	m.UpdatedAt = e.UpdatedAt
}

// OwnedModel adds the owning user to BaseModel
type OwnedModel struct {
	BaseModel
	OwnerID uuid.UUID `gorm:"type:uuid;not null;index"`
}

// ToOwnedEntity converts OwnedModel to domain OwnedEntity
func (m *OwnedModel) ToOwnedEntity() shared.OwnedEntity {
	return shared.OwnedEntity{BaseEntity: m.BaseModel.ToDomain(), OwnerID: m.OwnerID}
}

// FromOwnedEntity populates OwnedModel from domain OwnedEntity
func (m *OwnedModel) FromOwnedEntity(e shared.OwnedEntity) {
	m.FromDomainBaseEntity(e.BaseEntity)
	m.OwnerID = e.OwnerID
}

// AddressColumns stores a postal address as flat columns
type AddressColumns struct {
	Street     string `gorm:"type:varchar(255)"`
	City       string `gorm:"type:varchar(100)"`
	State      string `gorm:"type:varchar(100)"`
	PostalCode string `gorm:"type:varchar(20)"`
	Country    string `gorm:"type:varchar(100);index"`
}

func addressColumns(a valueobject.Address) AddressColumns {
	return AddressColumns{
		Street:     a.Street,
		City:       a.City,
		State:      a.State,
		PostalCode: a.PostalCode,
		Country:    a.Country,
	}
}

func (c AddressColumns) toDomain() valueobject.Address {
	return valueobject.Address{
		Street:     c.Street,
		City:       c.City,
		State:      c.State,
		PostalCode: c.PostalCode,
		Country:    c.Country,
	}
}

// AllModels lists every model for AutoMigrate in tests and sqlite deployments
func AllModels() []any {
	return []any{
		&UserModel{},
		&ClientModel{},
		&CompanyModel{},
		&PaymentMethodModel{},
		&ServiceItemModel{},
		&OrderModel{},
		&InvoiceModel{},
		&InvoiceSequenceModel{},
		&PaymentModel{},
		&SubscriptionModel{},
	}
}
