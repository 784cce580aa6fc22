package persistence

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/invoicer/backend/internal/domain/partner"
	"github.com/invoicer/backend/internal/domain/shared"
	"github.com/invoicer/backend/internal/infrastructure/persistence/models"
)

// GormClientRepository implements partner.ClientRepository using GORM
type GormClientRepository struct {
	db *gorm.DB
}

// NewGormClientRepository creates a new GormClientRepository
func NewGormClientRepository(db *gorm.DB) *GormClientRepository {
	return &GormClientRepository{db: db}
}

// FindByID finds one of owner's clients
func (r *GormClientRepository) FindByID(ctx context.Context, ownerID, id uuid.UUID) (*partner.Client, error) {
	var model models.ClientModel
	if err := conn(ctx, r.db).Scopes(ownedBy(ownerID)).First(&model, "id = ?", id).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindAll returns one page of owner's clients and the total match count
func (r *GormClientRepository) FindAll(ctx context.Context, ownerID uuid.UUID, filter partner.ClientFilter) ([]partner.Client, int64, error) {
	f := filter.Normalize()
	filtered := func(db *gorm.DB) *gorm.DB {
		db = db.Scopes(ownedBy(ownerID), search(f.Search, "name", "email", "company_name", "contact_person"))
		if filter.Country != "" {
			db = db.Where("address_country = ?", filter.Country)
		}
		return db
	}

	var total int64
	if err := conn(ctx, r.db).Model(&models.ClientModel{}).Scopes(filtered).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.ClientModel
	err := conn(ctx, r.db).
		Scopes(filtered, ordered(f, ClientSortFields, "name", false), paginate(f)).
		Find(&rows).Error
	if err != nil {
		return nil, 0, err
	}

	clients := make([]partner.Client, len(rows))
	for i := range rows {
		clients[i] = *rows[i].ToDomain()
	}
	return clients, total, nil
}

// Save inserts or updates a client
func (r *GormClientRepository) Save(ctx context.Context, client *partner.Client) error {
	return translateError(conn(ctx, r.db).Save(models.ClientModelFromDomain(client)).Error)
}

// Delete removes one of owner's clients
func (r *GormClientRepository) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	result := conn(ctx, r.db).Scopes(ownedBy(ownerID)).Delete(&models.ClientModel{}, "id = ?", id)
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// CountReferences counts orders, invoices and subscriptions of the client
func (r *GormClientRepository) CountReferences(ctx context.Context, ownerID, id uuid.UUID) (int64, error) {
	return countReferences(ctx, r.db, ownerID, "client_id", id,
		&models.OrderModel{}, &models.InvoiceModel{}, &models.SubscriptionModel{})
}

// countReferences sums rows of each table whose column points at id
func countReferences(ctx context.Context, db *gorm.DB, ownerID uuid.UUID, column string, id uuid.UUID, tables ...any) (int64, error) {
	var total int64
	for _, table := range tables {
		var n int64
		err := conn(ctx, db).Model(table).Scopes(ownedBy(ownerID)).Where(column+" = ?", id).Count(&n).Error
		if err != nil {
			return 0, err
		}
		total += n
	}
	return total, nil
}

var _ partner.ClientRepository = (*GormClientRepository)(nil)
