package partner

import (
	"context"

	"github.com/google/uuid"
	"github.com/invoicer/backend/internal/domain/shared"
)

// ClientFilter narrows client listings
type ClientFilter struct {
	shared.Filter
	Country string
}

// ClientRepository persists clients. All lookups are scoped by owner.
type ClientRepository interface {
	FindByID(ctx context.Context, ownerID, id uuid.UUID) (*Client, error)
	FindAll(ctx context.Context, ownerID uuid.UUID, filter ClientFilter) ([]Client, int64, error)
	Save(ctx context.Context, client *Client) error
	Delete(ctx context.Context, ownerID, id uuid.UUID) error
	// CountReferences counts orders, invoices and subscriptions pointing at the client.
	CountReferences(ctx context.Context, ownerID, id uuid.UUID) (int64, error)
}

// CompanyRepository persists companies
type CompanyRepository interface {
	FindByID(ctx context.Context, ownerID, id uuid.UUID) (*Company, error)
	FindAll(ctx context.Context, ownerID uuid.UUID) ([]Company, error)
	FindDefault(ctx context.Context, ownerID uuid.UUID) (*Company, error)
	// FindOldest returns the earliest created company other than exceptID.
	FindOldest(ctx context.Context, ownerID, exceptID uuid.UUID) (*Company, error)
	Count(ctx context.Context, ownerID uuid.UUID) (int64, error)
	Save(ctx context.Context, company *Company) error
	Delete(ctx context.Context, ownerID, id uuid.UUID) error
	// ClearDefault unsets the default flag on every company of owner except exceptID.
	ClearDefault(ctx context.Context, ownerID, exceptID uuid.UUID) error
	// CountReferences counts invoices and subscriptions issued by the company.
	CountReferences(ctx context.Context, ownerID, id uuid.UUID) (int64, error)
}

// PaymentMethodRepository persists payment methods
type PaymentMethodRepository interface {
	FindByID(ctx context.Context, ownerID, id uuid.UUID) (*PaymentMethod, error)
	FindByCompany(ctx context.Context, ownerID, companyID uuid.UUID) ([]PaymentMethod, error)
	Save(ctx context.Context, method *PaymentMethod) error
	Delete(ctx context.Context, ownerID, id uuid.UUID) error
	// ClearDefault unsets the default flag on the company's other methods.
	ClearDefault(ctx context.Context, companyID, exceptID uuid.UUID) error
}
