package partner

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/invoicer/backend/internal/domain/partner"
	"github.com/invoicer/backend/internal/domain/shared"
	"github.com/invoicer/backend/internal/domain/shared/valueobject"
)

// =============================================================================
// Shared DTOs
// =============================================================================

// AddressDTO is a postal address in requests and responses
type AddressDTO struct {
	Street     string `json:"street" binding:"max=300"`
	City       string `json:"city" binding:"max=100"`
	State      string `json:"state" binding:"max=100"`
	PostalCode string `json:"postal_code" binding:"max=20"`
	Country    string `json:"country" binding:"max=100"`
}

func (a AddressDTO) toDomain() valueobject.Address {
	return valueobject.Address{
		Street:     a.Street,
		City:       a.City,
		State:      a.State,
		PostalCode: a.PostalCode,
		Country:    a.Country,
	}
}

func toAddressDTO(a valueobject.Address) AddressDTO {
	return AddressDTO{
		Street:     a.Street,
		City:       a.City,
		State:      a.State,
		PostalCode: a.PostalCode,
		Country:    a.Country,
	}
}

// =============================================================================
// Client DTOs
// =============================================================================

// ClientRequest creates or fully replaces a client
type ClientRequest struct {
	Name               string     `json:"name" binding:"required,min=1,max=200"`
	Email              string     `json:"email" binding:"omitempty,email,max=200"`
	CompanyName        string     `json:"company_name" binding:"max=200"`
	Phone              string     `json:"phone" binding:"max=50"`
	ContactPerson      string     `json:"contact_person" binding:"max=200"`
	Address            AddressDTO `json:"address"`
	CCEmails           []string   `json:"cc_emails" binding:"max=10,dive,email"`
	RegistrationNumber string     `json:"registration_number" binding:"max=50"`
	VATNumber          string     `json:"vat_number" binding:"max=50"`
	PreferredCurrency  string     `json:"preferred_currency" binding:"omitempty,currency"`
	Notes              string     `json:"notes" binding:"max=2000"`
}

func (r ClientRequest) toInput() partner.ClientInput {
	return partner.ClientInput{
		Name:               r.Name,
		Email:              r.Email,
		CompanyName:        r.CompanyName,
		Phone:              r.Phone,
		ContactPerson:      r.ContactPerson,
		Address:            r.Address.toDomain(),
		CCEmails:           r.CCEmails,
		RegistrationNumber: r.RegistrationNumber,
		VATNumber:          r.VATNumber,
		PreferredCurrency:  valueobject.Currency(r.PreferredCurrency),
		Notes:              r.Notes,
	}
}

// ClientListFilter holds the query parameters of GET /api/clients
type ClientListFilter struct {
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy  string `form:"order_by"`
	OrderDir string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
	Search   string `form:"search"`
	Country  string `form:"country"`
}

// ClientResponse represents a client in API responses
type ClientResponse struct {
	ID                 uuid.UUID  `json:"id"`
	Name               string     `json:"name"`
	Email              string     `json:"email"`
	CompanyName        string     `json:"company_name"`
	Phone              string     `json:"phone"`
	ContactPerson      string     `json:"contact_person"`
	Address            AddressDTO `json:"address"`
	CCEmails           []string   `json:"cc_emails"`
	RegistrationNumber string     `json:"registration_number"`
	VATNumber          string     `json:"vat_number"`
	PreferredCurrency  string     `json:"preferred_currency"`
	Notes              string     `json:"notes"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

// ToClientResponse converts a domain client
func ToClientResponse(c *partner.Client) ClientResponse {
	cc := c.CCEmails
	if cc == nil {
		cc = []string{}
	}
	return ClientResponse{
		ID:                 c.ID,
		Name:               c.Name,
		Email:              c.Email,
		CompanyName:        c.CompanyName,
		Phone:              c.Phone,
		ContactPerson:      c.ContactPerson,
		Address:            toAddressDTO(c.Address),
		CCEmails:           cc,
		RegistrationNumber: c.RegistrationNumber,
		VATNumber:          c.VATNumber,
		PreferredCurrency:  c.PreferredCurrency.String(),
		Notes:              c.Notes,
		CreatedAt:          c.CreatedAt,
		UpdatedAt:          c.UpdatedAt,
	}
}

// =============================================================================
// Company DTOs
// =============================================================================

// CreateCompanyRequest creates a company
type CreateCompanyRequest struct {
	Name               string     `json:"name" binding:"required,min=1,max=200"`
	LegalName          string     `json:"legal_name" binding:"max=200"`
	Address            AddressDTO `json:"address"`
	TaxCode            string     `json:"tax_code" binding:"max=50"`
	RegistrationNumber string     `json:"registration_number" binding:"max=50"`
	Email              string     `json:"email" binding:"omitempty,email,max=200"`
	Phone              string     `json:"phone" binding:"max=50"`
	Website            string     `json:"website" binding:"omitempty,url,max=200"`
	BankName           string     `json:"bank_name" binding:"max=200"`
	IBAN               string     `json:"iban" binding:"max=40"`
	SWIFT              string     `json:"swift" binding:"max=11"`
	DefaultCurrency    string     `json:"default_currency" binding:"omitempty,currency"`
	PaymentTermsDays   *int       `json:"payment_terms_days" binding:"omitempty,min=0,max=365"`
	IsDefault          bool       `json:"is_default"`
}

// UpdateCompanyRequest is a partial company update
type UpdateCompanyRequest struct {
	Name               *string     `json:"name" binding:"omitempty,min=1,max=200"`
	LegalName          *string     `json:"legal_name" binding:"omitempty,max=200"`
	Address            *AddressDTO `json:"address"`
	TaxCode            *string     `json:"tax_code" binding:"omitempty,max=50"`
	RegistrationNumber *string     `json:"registration_number" binding:"omitempty,max=50"`
	Email              *string     `json:"email" binding:"omitempty,email,max=200"`
	Phone              *string     `json:"phone" binding:"omitempty,max=50"`
	Website            *string     `json:"website" binding:"omitempty,max=200"`
	BankName           *string     `json:"bank_name" binding:"omitempty,max=200"`
	IBAN               *string     `json:"iban" binding:"omitempty,max=40"`
	SWIFT              *string     `json:"swift" binding:"omitempty,max=11"`
	DefaultCurrency    *string     `json:"default_currency" binding:"omitempty,currency"`
	PaymentTermsDays   *int        `json:"payment_terms_days" binding:"omitempty,min=0,max=365"`
	IsDefault          *bool       `json:"is_default"`
}

func (r UpdateCompanyRequest) toUpdate() partner.CompanyUpdate {
	u := partner.CompanyUpdate{
		Name:               r.Name,
		LegalName:          r.LegalName,
		TaxCode:            r.TaxCode,
		RegistrationNumber: r.RegistrationNumber,
		Email:              r.Email,
		Phone:              r.Phone,
		Website:            r.Website,
		BankName:           r.BankName,
		IBAN:               r.IBAN,
		SWIFT:              r.SWIFT,
		PaymentTermsDays:   r.PaymentTermsDays,
	}
	if r.Address != nil {
		u.Address = lo.ToPtr(r.Address.toDomain())
	}
	if r.DefaultCurrency != nil {
		u.DefaultCurrency = lo.ToPtr(valueobject.Currency(*r.DefaultCurrency))
	}
	return u
}

// CompanyResponse represents a company in API responses
type CompanyResponse struct {
	ID                 uuid.UUID  `json:"id"`
	Name               string     `json:"name"`
	LegalName          string     `json:"legal_name"`
	Address            AddressDTO `json:"address"`
	TaxCode            string     `json:"tax_code"`
	RegistrationNumber string     `json:"registration_number"`
	Email              string     `json:"email"`
	Phone              string     `json:"phone"`
	Website            string     `json:"website"`
	BankName           string     `json:"bank_name"`
	IBAN               string     `json:"iban"`
	SWIFT              string     `json:"swift"`
	DefaultCurrency    string     `json:"default_currency"`
	PaymentTermsDays   int        `json:"payment_terms_days"`
	IsDefault          bool       `json:"is_default"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

// ToCompanyResponse converts a domain company
func ToCompanyResponse(c *partner.Company) CompanyResponse {
	return CompanyResponse{
		ID:                 c.ID,
		Name:               c.Name,
		LegalName:          c.LegalName,
		Address:            toAddressDTO(c.Address),
		TaxCode:            c.TaxCode,
		RegistrationNumber: c.RegistrationNumber,
		Email:              c.Email,
		Phone:              c.Phone,
		Website:            c.Website,
		BankName:           c.BankName,
		IBAN:               c.IBAN,
		SWIFT:              c.SWIFT,
		DefaultCurrency:    c.DefaultCurrency.String(),
		PaymentTermsDays:   c.PaymentTermsDays,
		IsDefault:          c.IsDefault,
		CreatedAt:          c.CreatedAt,
		UpdatedAt:          c.UpdatedAt,
	}
}

// =============================================================================
// Payment method DTOs
// =============================================================================

// PaymentMethodRequest adds a payment method to a company
type PaymentMethodRequest struct {
	Type      string          `json:"type" binding:"required,oneof=BANK_ACCOUNT CRYPTO_WALLET PAYPAL OTHER"`
	Name      string          `json:"name" binding:"required,min=1,max=100"`
	Details   json.RawMessage `json:"details"`
	IsDefault bool            `json:"is_default"`
}

// PaymentMethodResponse represents a payment method in API responses
type PaymentMethodResponse struct {
	ID        uuid.UUID       `json:"id"`
	CompanyID uuid.UUID       `json:"company_id"`
	Type      string          `json:"type"`
	Name      string          `json:"name"`
	Details   json.RawMessage `json:"details"`
	IsDefault bool            `json:"is_default"`
	CreatedAt time.Time       `json:"created_at"`
}

// ToPaymentMethodResponse converts a domain payment method
func ToPaymentMethodResponse(pm *partner.PaymentMethod) PaymentMethodResponse {
	return PaymentMethodResponse{
		ID:        pm.ID,
		CompanyID: pm.CompanyID,
		Type:      string(pm.Type),
		Name:      pm.Name,
		Details:   pm.Details,
		IsDefault: pm.IsDefault,
		CreatedAt: pm.CreatedAt,
	}
}

func toFilter(page, pageSize int, orderBy, orderDir, search string) shared.Filter {
	return shared.Filter{
		Page:     page,
		PageSize: pageSize,
		OrderBy:  orderBy,
		OrderDir: orderDir,
		Search:   search,
	}.Normalize()
}
