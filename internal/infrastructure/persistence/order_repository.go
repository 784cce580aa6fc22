package persistence

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/invoicer/backend/internal/domain/billing"
	"github.com/invoicer/backend/internal/domain/shared"
	"github.com/invoicer/backend/internal/infrastructure/persistence/models"
)

// GormOrderRepository implements billing.OrderRepository using GORM
type GormOrderRepository struct {
	db *gorm.DB
}

// NewGormOrderRepository creates a new GormOrderRepository
func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// FindByID finds one of owner's orders
func (r *GormOrderRepository) FindByID(ctx context.Context, ownerID, id uuid.UUID) (*billing.Order, error) {
	var model models.OrderModel
	if err := conn(ctx, r.db).Scopes(ownedBy(ownerID)).First(&model, "id = ?", id).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindByIDForUpdate finds an order and locks its row
func (r *GormOrderRepository) FindByIDForUpdate(ctx context.Context, ownerID, id uuid.UUID) (*billing.Order, error) {
	var model models.OrderModel
	err := conn(ctx, r.db).Scopes(ownedBy(ownerID), forUpdate).Where("id = ?", id).Take(&model).Error
	if err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindAll returns one page of owner's orders and the total match count
func (r *GormOrderRepository) FindAll(ctx context.Context, ownerID uuid.UUID, filter billing.OrderFilter) ([]billing.Order, int64, error) {
	f := filter.Normalize()
	filtered := func(db *gorm.DB) *gorm.DB {
		db = db.Scopes(ownedBy(ownerID), search(f.Search, "description", "notes"))
		if filter.Status != "" {
			db = db.Where("status = ?", filter.Status)
		}
		if filter.ClientID != nil {
			db = db.Where("client_id = ?", *filter.ClientID)
		}
		return db
	}

	var total int64
	if err := conn(ctx, r.db).Model(&models.OrderModel{}).Scopes(filtered).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.OrderModel
	err := conn(ctx, r.db).
		Scopes(filtered, ordered(f, OrderSortFields, "created_at", true), paginate(f)).
		Find(&rows).Error
	if err != nil {
		return nil, 0, err
	}

	orders := make([]billing.Order, len(rows))
	for i := range rows {
		orders[i] = *rows[i].ToDomain()
	}
	return orders, total, nil
}

// Save inserts or updates an order
func (r *GormOrderRepository) Save(ctx context.Context, order *billing.Order) error {
	return translateError(conn(ctx, r.db).Save(models.OrderModelFromDomain(order)).Error)
}

// Delete removes one of owner's orders
func (r *GormOrderRepository) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	result := conn(ctx, r.db).Scopes(ownedBy(ownerID)).Delete(&models.OrderModel{}, "id = ?", id)
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

var _ billing.OrderRepository = (*GormOrderRepository)(nil)
