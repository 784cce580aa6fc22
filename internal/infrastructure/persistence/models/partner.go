package models

import (
	"encoding/json"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/invoicer/backend/internal/domain/partner"
	"github.com/invoicer/backend/internal/domain/shared/valueobject"
)

// ClientModel is the persistence model for the Client domain entity
type ClientModel struct {
	OwnedModel
	Name               string                     `gorm:"type:varchar(200);not null"`
	Email              string                     `gorm:"type:varchar(255);index"`
	CompanyName        string                     `gorm:"type:varchar(200)"`
	Phone              string                     `gorm:"type:varchar(50)"`
	ContactPerson      string                     `gorm:"type:varchar(200)"`
	Address            AddressColumns             `gorm:"embedded;embeddedPrefix:address_"`
	CCEmails           datatypes.JSONSlice[string] `gorm:"column:cc_emails"`
	RegistrationNumber string                     `gorm:"type:varchar(100)"`
	VATNumber          string                     `gorm:"column:vat_number;type:varchar(50)"`
	PreferredCurrency  valueobject.Currency       `gorm:"type:varchar(3);not null;default:'EUR'"`
	Notes              string                     `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (ClientModel) TableName() string {
	return "clients"
}

// ToDomain converts the persistence model to a domain Client entity
func (m *ClientModel) ToDomain() *partner.Client {
	cc := make([]string, len(m.CCEmails))
	copy(cc, m.CCEmails)
	return &partner.Client{
		OwnedEntity:        m.ToOwnedEntity(),
		Name:               m.Name,
		Email:              m.Email,
		CompanyName:        m.CompanyName,
		Phone:              m.Phone,
		ContactPerson:      m.ContactPerson,
		Address:            m.Address.toDomain(),
		CCEmails:           cc,
		RegistrationNumber: m.RegistrationNumber,
		VATNumber:          m.VATNumber,
		PreferredCurrency:  m.PreferredCurrency,
		Notes:              m.Notes,
	}
}

// ClientModelFromDomain creates a persistence model from a domain Client
func ClientModelFromDomain(c *partner.Client) *ClientModel {
	m := &ClientModel{
		Name:               c.Name,
		Email:              c.Email,
		CompanyName:        c.CompanyName,
		Phone:              c.Phone,
		ContactPerson:      c.ContactPerson,
		Address:            addressColumns(c.Address),
		CCEmails:           datatypes.JSONSlice[string](append([]string{}, c.CCEmails...)),
		RegistrationNumber: c.RegistrationNumber,
		VATNumber:          c.VATNumber,
		PreferredCurrency:  c.PreferredCurrency,
		Notes:              c.Notes,
	}
	m.FromOwnedEntity(c.OwnedEntity)
	return m
}

// CompanyModel is the persistence model for the Company domain entity
type CompanyModel struct {
	OwnedModel
	Name               string               `gorm:"type:varchar(200);not null"`
	LegalName          string               `gorm:"type:varchar(200)"`
	Address            AddressColumns       `gorm:"embedded;embeddedPrefix:address_"`
	TaxCode            string               `gorm:"type:varchar(50)"`
	RegistrationNumber string               `gorm:"type:varchar(100)"`
	Email              string               `gorm:"type:varchar(255)"`
	Phone              string               `gorm:"type:varchar(50)"`
	Website            string               `gorm:"type:varchar(255)"`
	BankName           string               `gorm:"type:varchar(200)"`
	IBAN               string               `gorm:"column:iban;type:varchar(34)"`
	SWIFT              string               `gorm:"column:swift;type:varchar(11)"`
	DefaultCurrency    valueobject.Currency `gorm:"type:varchar(3);not null;default:'EUR'"`
	PaymentTermsDays   int                  `gorm:"not null"`
	IsDefault          bool                 `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (CompanyModel) TableName() string {
	return "companies"
}

// ToDomain converts the persistence model to a domain Company entity
func (m *CompanyModel) ToDomain() *partner.Company {
	return &partner.Company{
		OwnedEntity:        m.ToOwnedEntity(),
		Name:               m.Name,
		LegalName:          m.LegalName,
		Address:            m.Address.toDomain(),
		TaxCode:            m.TaxCode,
		RegistrationNumber: m.RegistrationNumber,
		Email:              m.Email,
		Phone:              m.Phone,
		Website:            m.Website,
		BankName:           m.BankName,
		IBAN:               m.IBAN,
		SWIFT:              m.SWIFT,
		DefaultCurrency:    m.DefaultCurrency,
		PaymentTermsDays:   m.PaymentTermsDays,
		IsDefault:          m.IsDefault,
	}
}

// CompanyModelFromDomain creates a persistence model from a domain Company
func CompanyModelFromDomain(c *partner.Company) *CompanyModel {
	m := &CompanyModel{
		Name:               c.Name,
		LegalName:          c.LegalName,
		Address:            addressColumns(c.Address),
		TaxCode:            c.TaxCode,
		RegistrationNumber: c.RegistrationNumber,
		Email:              c.Email,
		Phone:              c.Phone,
		Website:            c.Website,
		BankName:           c.BankName,
		IBAN:               c.IBAN,
		SWIFT:              c.SWIFT,
		DefaultCurrency:    c.DefaultCurrency,
		PaymentTermsDays:   c.PaymentTermsDays,
		IsDefault:          c.IsDefault,
	}
	m.FromOwnedEntity(c.OwnedEntity)
	return m
}

// PaymentMethodModel is the persistence model for a company payment method
type PaymentMethodModel struct {
	OwnedModel
	CompanyID uuid.UUID                 `gorm:"type:uuid;not null;index"`
	Type      partner.PaymentMethodType `gorm:"type:varchar(20);not null"`
	Name      string                    `gorm:"type:varchar(200);not null"`
	Details   datatypes.JSON
	IsDefault bool `gorm:"not null"`
}

// TableName returns the table name for GORM
func (PaymentMethodModel) TableName() string {
	return "payment_methods"
}

// ToDomain converts the persistence model to a domain PaymentMethod entity
func (m *PaymentMethodModel) ToDomain() *partner.PaymentMethod {
	return &partner.PaymentMethod{
		OwnedEntity: m.ToOwnedEntity(),
		CompanyID:   m.CompanyID,
		Type:        m.Type,
		Name:        m.Name,
		Details:     json.RawMessage(m.Details),
		IsDefault:   m.IsDefault,
	}
}

// PaymentMethodModelFromDomain creates a persistence model from a domain PaymentMethod
func PaymentMethodModelFromDomain(p *partner.PaymentMethod) *PaymentMethodModel {
	m := &PaymentMethodModel{
		CompanyID: p.CompanyID,
		Type:      p.Type,
		Name:      p.Name,
		Details:   datatypes.JSON(p.Details),
		IsDefault: p.IsDefault,
	}
	m.FromOwnedEntity(p.OwnedEntity)
	return m
}
