package partner

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/invoicer/backend/internal/domain/shared"
	"github.com/invoicer/backend/internal/domain/shared/valueobject"
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// MaxCCEmails bounds the carbon-copy list of a client
const MaxCCEmails = 10

// Client is the billed counterparty
type Client struct {
	shared.OwnedEntity
	Name               string
	Email              string
	CompanyName        string
	Phone              string
	ContactPerson      string
	Address            valueobject.Address
	CCEmails           []string
	RegistrationNumber string
	VATNumber          string
	PreferredCurrency  valueobject.Currency
	Notes              string
}

// ClientInput carries the full set of client fields
type ClientInput struct {
	Name               string
	Email              string
	CompanyName        string
	Phone              string
	ContactPerson      string
	Address            valueobject.Address
	CCEmails           []string
	RegistrationNumber string
	VATNumber          string
	PreferredCurrency  valueobject.Currency
	Notes              string
}

// NewClient creates a new client
func NewClient(ownerID uuid.UUID, in ClientInput) (*Client, error) {
	c := &Client{OwnedEntity: shared.NewOwnedEntity(ownerID)}
	if err := c.apply(in); err != nil {
		return nil, err
	}
	return c, nil
}

// Update replaces all client fields
func (c *Client) Update(in ClientInput) error {
	if err := c.apply(in); err != nil {
		return err
	}
	c.Touch()
	return nil
}

func (c *Client) apply(in ClientInput) error {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return shared.NewDomainError("INVALID_NAME", "Client name cannot be empty")
	}
	if len(name) > 200 {
		return shared.NewDomainError("INVALID_NAME", "Client name cannot exceed 200 characters")
	}
	email := normalizeEmail(in.Email)
	if email != "" {
		if err := validateEmail(email); err != nil {
			return err
		}
	}
	cc, err := normalizeCCEmails(in.CCEmails)
	if err != nil {
		return err
	}
	currency := in.PreferredCurrency
	if currency == "" {
		currency = valueobject.DefaultCurrency
	}
	if !currency.IsValid() {
		return shared.NewDomainError("INVALID_CURRENCY", fmt.Sprintf("Unsupported currency %s", currency))
	}

	c.Name = name
	c.Email = email
	c.CompanyName = strings.TrimSpace(in.CompanyName)
	c.Phone = strings.TrimSpace(in.Phone)
	c.ContactPerson = strings.TrimSpace(in.ContactPerson)
	c.Address = in.Address.Normalize()
	c.CCEmails = cc
	c.RegistrationNumber = strings.TrimSpace(in.RegistrationNumber)
	c.VATNumber = strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(in.VATNumber), " ", ""))
	c.PreferredCurrency = currency
	c.Notes = in.Notes
	return nil
}

// HasEmail reports whether invoices can be delivered to the client
func (c *Client) HasEmail() bool {
	return c.Email != ""
}

// DisplayName prefers the company name for business clients
func (c *Client) DisplayName() string {
	if c.CompanyName != "" {
		return c.CompanyName
	}
	return c.Name
}

func normalizeCCEmails(list []string) ([]string, error) {
	if len(list) > MaxCCEmails {
		return nil, shared.NewDomainError("INVALID_CC_EMAILS", fmt.Sprintf("At most %d cc emails are allowed", MaxCCEmails))
	}
	seen := make(map[string]bool, len(list))
	out := make([]string, 0, len(list))
	for _, e := range list {
		e = normalizeEmail(e)
		if e == "" || seen[e] {
			continue
		}
		if err := validateEmail(e); err != nil {
			return nil, shared.NewDomainError("INVALID_CC_EMAILS", fmt.Sprintf("Invalid cc email %q", e))
		}
		seen[e] = true
		out = append(out, e)
	}
	return out, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validateEmail(email string) error {
	if len(email) > 200 {
		return shared.NewDomainError("INVALID_EMAIL", "Email cannot exceed 200 characters")
	}
	if !emailRegex.MatchString(email) {
		return shared.NewDomainError("INVALID_EMAIL", "Invalid email format")
	}
	return nil
}
