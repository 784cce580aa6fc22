package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/invoicer/backend/internal/domain/billing"
	"github.com/invoicer/backend/internal/domain/shared"
	"github.com/invoicer/backend/internal/infrastructure/persistence/models"
)

// GormPaymentRepository implements billing.PaymentRepository using GORM
type GormPaymentRepository struct {
	db *gorm.DB
}

// NewGormPaymentRepository creates a new GormPaymentRepository
func NewGormPaymentRepository(db *gorm.DB) *GormPaymentRepository {
	return &GormPaymentRepository{db: db}
}

// FindByID finds one of owner's payments
func (r *GormPaymentRepository) FindByID(ctx context.Context, ownerID, id uuid.UUID) (*billing.Payment, error) {
	var model models.PaymentModel
	if err := conn(ctx, r.db).Scopes(ownedBy(ownerID)).First(&model, "id = ?", id).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindAll returns one page of owner's payments and the total match count
func (r *GormPaymentRepository) FindAll(ctx context.Context, ownerID uuid.UUID, filter billing.PaymentFilter) ([]billing.Payment, int64, error) {
	f := filter.Normalize()
	filtered := func(db *gorm.DB) *gorm.DB {
		db = db.Scopes(ownedBy(ownerID), search(f.Search, "reference", "notes"))
		if filter.InvoiceID != nil {
			db = db.Where("invoice_id = ?", *filter.InvoiceID)
		}
		if filter.Method != "" {
			db = db.Where("method = ?", filter.Method)
		}
		if filter.From != nil {
			db = db.Where("paid_date >= ?", billing.DateOf(*filter.From))
		}
		if filter.To != nil {
			db = db.Where("paid_date <= ?", billing.DateOf(*filter.To))
		}
		return db
	}

	var total int64
	if err := conn(ctx, r.db).Model(&models.PaymentModel{}).Scopes(filtered).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.PaymentModel
	err := conn(ctx, r.db).
		Scopes(filtered, ordered(f, PaymentSortFields, "paid_date", true), paginate(f)).
		Find(&rows).Error
	if err != nil {
		return nil, 0, err
	}
	return paymentsToDomain(rows), total, nil
}

// FindByInvoice lists an invoice's payments oldest first
func (r *GormPaymentRepository) FindByInvoice(ctx context.Context, ownerID, invoiceID uuid.UUID) ([]billing.Payment, error) {
	var rows []models.PaymentModel
	err := conn(ctx, r.db).Scopes(ownedBy(ownerID)).
		Where("invoice_id = ?", invoiceID).
		Order("paid_date ASC").Order("created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return paymentsToDomain(rows), nil
}

// SumByInvoice totals the payments recorded against an invoice
func (r *GormPaymentRepository) SumByInvoice(ctx context.Context, invoiceID uuid.UUID) (decimal.Decimal, error) {
	var sum decimal.NullDecimal
	err := conn(ctx, r.db).Model(&models.PaymentModel{}).
		Select("SUM(amount)").
		Where("invoice_id = ?", invoiceID).
		Scan(&sum).Error
	if err != nil {
		return decimal.Zero, err
	}
	if !sum.Valid {
		return decimal.Zero, nil
	}
	return sum.Decimal, nil
}

// CountByInvoice counts the payments of an invoice
func (r *GormPaymentRepository) CountByInvoice(ctx context.Context, invoiceID uuid.UUID) (int64, error) {
	var n int64
	err := conn(ctx, r.db).Model(&models.PaymentModel{}).Where("invoice_id = ?", invoiceID).Count(&n).Error
	return n, err
}

// Save inserts or updates a payment
func (r *GormPaymentRepository) Save(ctx context.Context, payment *billing.Payment) error {
	return translateError(conn(ctx, r.db).Save(models.PaymentModelFromDomain(payment)).Error)
}

// Delete removes one of owner's payments
func (r *GormPaymentRepository) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	result := conn(ctx, r.db).Scopes(ownedBy(ownerID)).Delete(&models.PaymentModel{}, "id = ?", id)
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func paymentsToDomain(rows []models.PaymentModel) []billing.Payment {
	payments := make([]billing.Payment, len(rows))
	for i := range rows {
		payments[i] = *rows[i].ToDomain()
	}
	return payments
}

var _ billing.PaymentRepository = (*GormPaymentRepository)(nil)
