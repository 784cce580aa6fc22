package catalog

import (
	"context"

	"github.com/google/uuid"
	"github.com/invoicer/backend/internal/domain/shared"
)

// ServiceItemFilter narrows catalog listings
type ServiceItemFilter struct {
	shared.Filter
	Category        Category
	IncludeInactive bool
}

// ServiceItemRepository persists the service library
type ServiceItemRepository interface {
	FindByID(ctx context.Context, ownerID, id uuid.UUID) (*ServiceItem, error)
	FindAll(ctx context.Context, ownerID uuid.UUID, filter ServiceItemFilter) ([]ServiceItem, int64, error)
	Save(ctx context.Context, item *ServiceItem) error
}
