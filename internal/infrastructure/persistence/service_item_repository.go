package persistence

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/invoicer/backend/internal/domain/catalog"
	"github.com/invoicer/backend/internal/infrastructure/persistence/models"
)

// GormServiceItemRepository implements catalog.ServiceItemRepository using GORM
type GormServiceItemRepository struct {
	db *gorm.DB
}

// NewGormServiceItemRepository creates a new GormServiceItemRepository
func NewGormServiceItemRepository(db *gorm.DB) *GormServiceItemRepository {
	return &GormServiceItemRepository{db: db}
}

// FindByID finds one of owner's services, active or not
func (r *GormServiceItemRepository) FindByID(ctx context.Context, ownerID, id uuid.UUID) (*catalog.ServiceItem, error) {
	var model models.ServiceItemModel
	if err := conn(ctx, r.db).Scopes(ownedBy(ownerID)).First(&model, "id = ?", id).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindAll returns one page of owner's services. Inactive entries are hidden
// unless the filter includes them.
func (r *GormServiceItemRepository) FindAll(ctx context.Context, ownerID uuid.UUID, filter catalog.ServiceItemFilter) ([]catalog.ServiceItem, int64, error) {
	f := filter.Normalize()
	filtered := func(db *gorm.DB) *gorm.DB {
		db = db.Scopes(ownedBy(ownerID), search(f.Search, "name", "description"))
		if !filter.IncludeInactive {
			db = db.Where("is_active = ?", true)
		}
		if filter.Category != "" {
			db = db.Where("category = ?", filter.Category)
		}
		return db
	}

	var total int64
	if err := conn(ctx, r.db).Model(&models.ServiceItemModel{}).Scopes(filtered).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.ServiceItemModel
	err := conn(ctx, r.db).
		Scopes(filtered, ordered(f, ServiceItemSortFields, "name", false), paginate(f)).
		Find(&rows).Error
	if err != nil {
		return nil, 0, err
	}

	items := make([]catalog.ServiceItem, len(rows))
	for i := range rows {
		items[i] = *rows[i].ToDomain()
	}
	return items, total, nil
}

// Save inserts or updates a service
func (r *GormServiceItemRepository) Save(ctx context.Context, item *catalog.ServiceItem) error {
	return translateError(conn(ctx, r.db).Save(models.ServiceItemModelFromDomain(item)).Error)
}

var _ catalog.ServiceItemRepository = (*GormServiceItemRepository)(nil)
