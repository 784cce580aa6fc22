package partner

import (
	"fmt"
	"math/big"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/invoicer/backend/internal/domain/shared"
	"github.com/invoicer/backend/internal/domain/shared/valueobject"
)

var swiftRegex = regexp.MustCompile(`^[A-Z]{6}[A-Z0-9]{2}([A-Z0-9]{3})?$`)

// Company is the issuing business entity controlled by the user. A user may
// run several companies; exactly one of them is the default.
type Company struct {
	shared.OwnedEntity
	Name               string
	LegalName          string
	Address            valueobject.Address
	TaxCode            string
	RegistrationNumber string
	Email              string
	Phone              string
	Website            string
	BankName           string
	IBAN               string
	SWIFT              string
	DefaultCurrency    valueobject.Currency
	PaymentTermsDays   int
	IsDefault          bool
}

// CompanyInput carries company fields for creation
type CompanyInput struct {
	Name               string
	LegalName          string
	Address            valueobject.Address
	TaxCode            string
	RegistrationNumber string
	Email              string
	Phone              string
	Website            string
	BankName           string
	IBAN               string
	SWIFT              string
	DefaultCurrency    valueobject.Currency
	PaymentTermsDays   int
	IsDefault          bool
}

// CompanyUpdate is a partial update; nil fields are left untouched.
type CompanyUpdate struct {
	Name               *string
	LegalName          *string
	Address            *valueobject.Address
	TaxCode            *string
	RegistrationNumber *string
	Email              *string
	Phone              *string
	Website            *string
	BankName           *string
	IBAN               *string
	SWIFT              *string
	DefaultCurrency    *valueobject.Currency
	PaymentTermsDays   *int
	IsDefault          *bool
}

// NewCompany creates a company. Whether it becomes the default is decided by
// the caller, who knows about the user's other companies.
func NewCompany(ownerID uuid.UUID, in CompanyInput) (*Company, error) {
	c := &Company{OwnedEntity: shared.NewOwnedEntity(ownerID)}
	if in.DefaultCurrency == "" {
		in.DefaultCurrency = valueobject.DefaultCurrency
	}
	c.Name = in.Name
	c.LegalName = in.LegalName
	c.Address = in.Address.Normalize()
	c.TaxCode = in.TaxCode
	c.RegistrationNumber = in.RegistrationNumber
	c.Email = in.Email
	c.Phone = in.Phone
	c.Website = in.Website
	c.BankName = in.BankName
	c.IBAN = in.IBAN
	c.SWIFT = in.SWIFT
	c.DefaultCurrency = in.DefaultCurrency
	c.PaymentTermsDays = in.PaymentTermsDays
	c.IsDefault = in.IsDefault
	if err := c.normalize(); err != nil {
		return nil, err
	}
	return c, nil
}

// Update applies a partial update
func (c *Company) Update(u CompanyUpdate) error {
	next := *c
	setString(&next.Name, u.Name)
	setString(&next.LegalName, u.LegalName)
	setString(&next.TaxCode, u.TaxCode)
	setString(&next.RegistrationNumber, u.RegistrationNumber)
	setString(&next.Email, u.Email)
	setString(&next.Phone, u.Phone)
	setString(&next.Website, u.Website)
	setString(&next.BankName, u.BankName)
	setString(&next.IBAN, u.IBAN)
	setString(&next.SWIFT, u.SWIFT)
	if u.Address != nil {
		next.Address = u.Address.Normalize()
	}
	if u.DefaultCurrency != nil {
		next.DefaultCurrency = *u.DefaultCurrency
	}
	if u.PaymentTermsDays != nil {
		next.PaymentTermsDays = *u.PaymentTermsDays
	}
	if u.IsDefault != nil {
		next.IsDefault = *u.IsDefault
	}
	if err := next.normalize(); err != nil {
		return err
	}
	*c = next
	c.Touch()
	return nil
}

func (c *Company) normalize() error {
	c.Name = strings.TrimSpace(c.Name)
	if c.Name == "" {
		return shared.NewDomainError("INVALID_NAME", "Company name cannot be empty")
	}
	if len(c.Name) > 200 {
		return shared.NewDomainError("INVALID_NAME", "Company name cannot exceed 200 characters")
	}
	c.LegalName = strings.TrimSpace(c.LegalName)
	if c.LegalName == "" {
		c.LegalName = c.Name
	}
	c.TaxCode = strings.ToUpper(strings.TrimSpace(c.TaxCode))
	c.RegistrationNumber = strings.TrimSpace(c.RegistrationNumber)
	c.Email = normalizeEmail(c.Email)
	if c.Email != "" {
		if err := validateEmail(c.Email); err != nil {
			return err
		}
	}
	c.Phone = strings.TrimSpace(c.Phone)
	c.Website = strings.TrimSpace(c.Website)
	c.BankName = strings.TrimSpace(c.BankName)
	c.IBAN = strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(c.IBAN), " ", ""))
	if c.IBAN != "" && !ValidIBAN(c.IBAN) {
		return shared.NewDomainError("INVALID_IBAN", "IBAN checksum is invalid")
	}
	c.SWIFT = strings.ToUpper(strings.TrimSpace(c.SWIFT))
	if c.SWIFT != "" && !swiftRegex.MatchString(c.SWIFT) {
		return shared.NewDomainError("INVALID_SWIFT", "SWIFT/BIC must be 8 or 11 characters")
	}
	if !c.DefaultCurrency.IsValid() {
		return shared.NewDomainError("INVALID_CURRENCY", fmt.Sprintf("Unsupported currency %s", c.DefaultCurrency))
	}
	if c.PaymentTermsDays < 0 || c.PaymentTermsDays > 365 {
		return shared.NewDomainError("INVALID_PAYMENT_TERMS", "Payment terms must be between 0 and 365 days")
	}
	return nil
}

// MarkDefault flags the company as the user's default
func (c *Company) MarkDefault() {
	c.IsDefault = true
	c.Touch()
}

// ValidIBAN runs the ISO 13616 mod-97 check
func ValidIBAN(iban string) bool {
	if len(iban) < 15 || len(iban) > 34 {
		return false
	}
	rearranged := iban[4:] + iban[:4]
	var digits strings.Builder
	for _, r := range rearranged {
		switch {
		case r >= '0' && r <= '9':
			digits.WriteRune(r)
		case r >= 'A' && r <= 'Z':
			digits.WriteString(fmt.Sprintf("%d", r-'A'+10))
		default:
			return false
		}
	}
	n, ok := new(big.Int).SetString(digits.String(), 10)
	if !ok {
		return false
	}
	return new(big.Int).Mod(n, big.NewInt(97)).Int64() == 1
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}
