package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/invoicer/backend/internal/domain/billing"
	"github.com/invoicer/backend/internal/domain/shared"
	"github.com/invoicer/backend/internal/infrastructure/persistence/models"
)

// GormInvoiceRepository implements billing.InvoiceRepository using GORM
type GormInvoiceRepository struct {
	db *gorm.DB
}

// NewGormInvoiceRepository creates a new GormInvoiceRepository
func NewGormInvoiceRepository(db *gorm.DB) *GormInvoiceRepository {
	return &GormInvoiceRepository{db: db}
}

// FindByID finds one of owner's invoices
func (r *GormInvoiceRepository) FindByID(ctx context.Context, ownerID, id uuid.UUID) (*billing.Invoice, error) {
	var model models.InvoiceModel
	if err := conn(ctx, r.db).Scopes(ownedBy(ownerID)).First(&model, "id = ?", id).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindByIDForUpdate finds an invoice and locks its row until the surrounding
// transaction ends. Concurrent payments on one invoice serialize here.
func (r *GormInvoiceRepository) FindByIDForUpdate(ctx context.Context, ownerID, id uuid.UUID) (*billing.Invoice, error) {
	var model models.InvoiceModel
	err := conn(ctx, r.db).Scopes(ownedBy(ownerID), forUpdate).
		Where("id = ?", id).
		Take(&model).Error
	if err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindAll returns one page of owner's invoices and the total match count
func (r *GormInvoiceRepository) FindAll(ctx context.Context, ownerID uuid.UUID, filter billing.InvoiceFilter) ([]billing.Invoice, int64, error) {
	f := filter.Normalize()
	filtered := func(db *gorm.DB) *gorm.DB {
		db = db.Scopes(ownedBy(ownerID), search(f.Search, "invoice_number", "description"))
		if filter.Status != "" {
			db = db.Where("status = ?", filter.Status)
		}
		if filter.ClientID != nil {
			db = db.Where("client_id = ?", *filter.ClientID)
		}
		if filter.CompanyID != nil {
			db = db.Where("company_id = ?", *filter.CompanyID)
		}
		if filter.OrderID != nil {
			db = db.Where("order_id = ?", *filter.OrderID)
		}
		return db
	}

	var total int64
	if err := conn(ctx, r.db).Model(&models.InvoiceModel{}).Scopes(filtered).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.InvoiceModel
	err := conn(ctx, r.db).
		Scopes(filtered, ordered(f, InvoiceSortFields, "issue_date", true), paginate(f)).
		Find(&rows).Error
	if err != nil {
		return nil, 0, err
	}
	return invoicesToDomain(rows), total, nil
}

// Save inserts or updates an invoice. A number already in use answers
// shared.ErrAlreadyExists.
func (r *GormInvoiceRepository) Save(ctx context.Context, invoice *billing.Invoice) error {
	return translateError(conn(ctx, r.db).Save(models.InvoiceModelFromDomain(invoice)).Error)
}

// Delete removes one of owner's invoices and its payments
func (r *GormInvoiceRepository) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	db := conn(ctx, r.db)
	if err := db.Scopes(ownedBy(ownerID)).Delete(&models.PaymentModel{}, "invoice_id = ?", id).Error; err != nil {
		return translateError(err)
	}
	result := db.Scopes(ownedBy(ownerID)).Delete(&models.InvoiceModel{}, "id = ?", id)
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// ExistsByNumber reports whether any invoice already uses number
func (r *GormInvoiceRepository) ExistsByNumber(ctx context.Context, number string) (bool, error) {
	var n int64
	err := conn(ctx, r.db).Model(&models.InvoiceModel{}).Where("invoice_number = ?", number).Count(&n).Error
	return n > 0, err
}

// NextSequence increments the counter of period and returns the new value.
// The upsert holds the row lock until the surrounding transaction ends.
func (r *GormInvoiceRepository) NextSequence(ctx context.Context, period string) (int64, error) {
	db := conn(ctx, r.db)
	err := db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "period"}},
		DoUpdates: clause.Assignments(map[string]any{
			"last_value": gorm.Expr("invoice_sequences.last_value + 1"),
		}),
	}).Create(&models.InvoiceSequenceModel{Period: period, LastValue: 1}).Error
	if err != nil {
		return 0, err
	}

	var seq models.InvoiceSequenceModel
	if err := db.Where("period = ?", period).Take(&seq).Error; err != nil {
		return 0, err
	}
	return seq.LastValue, nil
}

// CountByOrder counts invoices generated from an order
func (r *GormInvoiceRepository) CountByOrder(ctx context.Context, ownerID, orderID uuid.UUID) (int64, error) {
	var n int64
	err := conn(ctx, r.db).Model(&models.InvoiceModel{}).
		Scopes(ownedBy(ownerID)).
		Where("order_id = ?", orderID).
		Count(&n).Error
	return n, err
}

// FindPastDue returns SENT invoices of every owner due before asOf
func (r *GormInvoiceRepository) FindPastDue(ctx context.Context, asOf time.Time, limit int) ([]billing.Invoice, error) {
	var rows []models.InvoiceModel
	err := conn(ctx, r.db).
		Where("status = ? AND due_date < ?", billing.InvoiceStatusSent, billing.DateOf(asOf)).
		Order("due_date ASC").Order("id").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return invoicesToDomain(rows), nil
}

// FindReminderCandidates returns OVERDUE invoices of every owner that were
// never reminded or last reminded before the cutoff
func (r *GormInvoiceRepository) FindReminderCandidates(ctx context.Context, before time.Time, limit int) ([]billing.Invoice, error) {
	var rows []models.InvoiceModel
	err := conn(ctx, r.db).
		Where("status = ?", billing.InvoiceStatusOverdue).
		Where("last_reminder_at IS NULL OR last_reminder_at < ?", before).
		Order("due_date ASC").Order("id").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return invoicesToDomain(rows), nil
}

func invoicesToDomain(rows []models.InvoiceModel) []billing.Invoice {
	invoices := make([]billing.Invoice, len(rows))
	for i := range rows {
		invoices[i] = *rows[i].ToDomain()
	}
	return invoices
}

var _ billing.InvoiceRepository = (*GormInvoiceRepository)(nil)
