package persistence

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/invoicer/backend/internal/domain/partner"
	"github.com/invoicer/backend/internal/domain/shared"
	"github.com/invoicer/backend/internal/infrastructure/persistence/models"
)

// GormPaymentMethodRepository implements partner.PaymentMethodRepository using GORM
type GormPaymentMethodRepository struct {
	db *gorm.DB
}

// NewGormPaymentMethodRepository creates a new GormPaymentMethodRepository
func NewGormPaymentMethodRepository(db *gorm.DB) *GormPaymentMethodRepository {
	return &GormPaymentMethodRepository{db: db}
}

// FindByID finds one of owner's payment methods
func (r *GormPaymentMethodRepository) FindByID(ctx context.Context, ownerID, id uuid.UUID) (*partner.PaymentMethod, error) {
	var model models.PaymentMethodModel
	if err := conn(ctx, r.db).Scopes(ownedBy(ownerID)).First(&model, "id = ?", id).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindByCompany lists a company's payment methods, default first
func (r *GormPaymentMethodRepository) FindByCompany(ctx context.Context, ownerID, companyID uuid.UUID) ([]partner.PaymentMethod, error) {
	var rows []models.PaymentMethodModel
	err := conn(ctx, r.db).Scopes(ownedBy(ownerID)).
		Where("company_id = ?", companyID).
		Order("is_default DESC").Order("created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	methods := make([]partner.PaymentMethod, len(rows))
	for i := range rows {
		methods[i] = *rows[i].ToDomain()
	}
	return methods, nil
}

// Save inserts or updates a payment method
func (r *GormPaymentMethodRepository) Save(ctx context.Context, method *partner.PaymentMethod) error {
	return translateError(conn(ctx, r.db).Save(models.PaymentMethodModelFromDomain(method)).Error)
}

// Delete removes one of owner's payment methods
func (r *GormPaymentMethodRepository) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	result := conn(ctx, r.db).Scopes(ownedBy(ownerID)).Delete(&models.PaymentMethodModel{}, "id = ?", id)
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// ClearDefault unsets the default flag on the company's other methods
func (r *GormPaymentMethodRepository) ClearDefault(ctx context.Context, companyID, exceptID uuid.UUID) error {
	return conn(ctx, r.db).Model(&models.PaymentMethodModel{}).
		Where("company_id = ? AND id <> ? AND is_default = ?", companyID, exceptID, true).
		Update("is_default", false).Error
}

var _ partner.PaymentMethodRepository = (*GormPaymentMethodRepository)(nil)
