package catalog

import (
	"context"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/invoicer/backend/internal/domain/billing"
	"github.com/invoicer/backend/internal/domain/catalog"
	"github.com/invoicer/backend/internal/domain/shared/valueobject"
)

// ServiceItemService manages the service library
type ServiceItemService struct {
	repo   catalog.ServiceItemRepository
	logger *zap.Logger
}

// NewServiceItemService creates a new ServiceItemService
func NewServiceItemService(repo catalog.ServiceItemRepository, logger *zap.Logger) *ServiceItemService {
	return &ServiceItemService{repo: repo, logger: logger}
}

// Create adds an active entry
func (s *ServiceItemService) Create(ctx context.Context, ownerID uuid.UUID, req CreateServiceItemRequest) (*ServiceItemResponse, error) {
	item, err := catalog.NewServiceItem(ownerID, catalog.ServiceItemInput{
		Name:              req.Name,
		Description:       req.Description,
		Category:          catalog.Category(req.Category),
		DefaultPrice:      req.DefaultPrice,
		Currency:          valueobject.Currency(req.Currency),
		IsRecurring:       req.IsRecurring,
		BillingCycle:      billing.Frequency(req.BillingCycle),
		DefaultBillingDay: req.DefaultBillingDay,
	})
	if err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, item); err != nil {
		return nil, err
	}

	resp := ToServiceItemResponse(item)
	return &resp, nil
}

// GetByID retrieves an entry, inactive ones included
func (s *ServiceItemService) GetByID(ctx context.Context, ownerID, id uuid.UUID) (*ServiceItemResponse, error) {
	item, err := s.repo.FindByID(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	resp := ToServiceItemResponse(item)
	return &resp, nil
}

// List returns a page of entries. Inactive entries are hidden unless requested.
func (s *ServiceItemService) List(ctx context.Context, ownerID uuid.UUID, filter ServiceItemListFilter) ([]ServiceItemResponse, int64, error) {
	items, total, err := s.repo.FindAll(ctx, ownerID, filter.toDomain())
	if err != nil {
		return nil, 0, err
	}
	return lo.Map(items, func(item catalog.ServiceItem, _ int) ServiceItemResponse {
		return ToServiceItemResponse(&item)
	}), total, nil
}

// Update applies a partial update
func (s *ServiceItemService) Update(ctx context.Context, ownerID, id uuid.UUID, req UpdateServiceItemRequest) (*ServiceItemResponse, error) {
	item, err := s.repo.FindByID(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	if err := item.Update(req.toUpdate()); err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, item); err != nil {
		return nil, err
	}

	resp := ToServiceItemResponse(item)
	return &resp, nil
}

// Delete deactivates an entry. Orders and subscriptions keep referencing it.
func (s *ServiceItemService) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	item, err := s.repo.FindByID(ctx, ownerID, id)
	if err != nil {
		return err
	}
	if !item.IsActive {
		return nil
	}
	item.Deactivate()
	if err := s.repo.Save(ctx, item); err != nil {
		return err
	}
	s.logger.Info("Service deactivated", zap.String("service_id", id.String()))
	return nil
}
