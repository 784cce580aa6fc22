package persistence

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/invoicer/backend/internal/domain/partner"
	"github.com/invoicer/backend/internal/domain/shared"
	"github.com/invoicer/backend/internal/infrastructure/persistence/models"
)

// GormCompanyRepository implements partner.CompanyRepository using GORM
type GormCompanyRepository struct {
	db *gorm.DB
}

// NewGormCompanyRepository creates a new GormCompanyRepository
func NewGormCompanyRepository(db *gorm.DB) *GormCompanyRepository {
	return &GormCompanyRepository{db: db}
}

// FindByID finds one of owner's companies
func (r *GormCompanyRepository) FindByID(ctx context.Context, ownerID, id uuid.UUID) (*partner.Company, error) {
	var model models.CompanyModel
	if err := conn(ctx, r.db).Scopes(ownedBy(ownerID)).First(&model, "id = ?", id).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindAll lists owner's companies, default first
func (r *GormCompanyRepository) FindAll(ctx context.Context, ownerID uuid.UUID) ([]partner.Company, error) {
	var rows []models.CompanyModel
	err := conn(ctx, r.db).Scopes(ownedBy(ownerID)).
		Order("is_default DESC").Order("created_at ASC").Order("id").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	companies := make([]partner.Company, len(rows))
	for i := range rows {
		companies[i] = *rows[i].ToDomain()
	}
	return companies, nil
}

// FindDefault returns owner's default company
func (r *GormCompanyRepository) FindDefault(ctx context.Context, ownerID uuid.UUID) (*partner.Company, error) {
	var model models.CompanyModel
	if err := conn(ctx, r.db).Scopes(ownedBy(ownerID)).Where("is_default = ?", true).First(&model).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindOldest returns the earliest created company other than exceptID
func (r *GormCompanyRepository) FindOldest(ctx context.Context, ownerID, exceptID uuid.UUID) (*partner.Company, error) {
	var model models.CompanyModel
	err := conn(ctx, r.db).Scopes(ownedBy(ownerID)).
		Where("id <> ?", exceptID).
		Order("created_at ASC").Order("id").
		Take(&model).Error
	if err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// Count counts owner's companies
func (r *GormCompanyRepository) Count(ctx context.Context, ownerID uuid.UUID) (int64, error) {
	var n int64
	err := conn(ctx, r.db).Model(&models.CompanyModel{}).Scopes(ownedBy(ownerID)).Count(&n).Error
	return n, err
}

// Save inserts or updates a company
func (r *GormCompanyRepository) Save(ctx context.Context, company *partner.Company) error {
	return translateError(conn(ctx, r.db).Save(models.CompanyModelFromDomain(company)).Error)
}

// Delete removes one of owner's companies together with its payment methods
func (r *GormCompanyRepository) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	db := conn(ctx, r.db)
	if err := db.Scopes(ownedBy(ownerID)).Delete(&models.PaymentMethodModel{}, "company_id = ?", id).Error; err != nil {
		return translateError(err)
	}
	result := db.Scopes(ownedBy(ownerID)).Delete(&models.CompanyModel{}, "id = ?", id)
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// ClearDefault unsets the default flag on owner's other companies
func (r *GormCompanyRepository) ClearDefault(ctx context.Context, ownerID, exceptID uuid.UUID) error {
	return conn(ctx, r.db).Model(&models.CompanyModel{}).
		Scopes(ownedBy(ownerID)).
		Where("id <> ? AND is_default = ?", exceptID, true).
		Update("is_default", false).Error
}

// CountReferences counts invoices and subscriptions issued by the company
func (r *GormCompanyRepository) CountReferences(ctx context.Context, ownerID, id uuid.UUID) (int64, error) {
	return countReferences(ctx, r.db, ownerID, "company_id", id,
		&models.InvoiceModel{}, &models.SubscriptionModel{})
}

var _ partner.CompanyRepository = (*GormCompanyRepository)(nil)
