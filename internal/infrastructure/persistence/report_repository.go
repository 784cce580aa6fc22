package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/invoicer/backend/internal/domain/billing"
	"github.com/invoicer/backend/internal/domain/report"
	"github.com/invoicer/backend/internal/infrastructure/persistence/models"
)

// GormReportRepository implements report.Repository with aggregate queries
type GormReportRepository struct {
	db *gorm.DB
}

// NewGormReportRepository creates a new GormReportRepository
func NewGormReportRepository(db *gorm.DB) *GormReportRepository {
	return &GormReportRepository{db: db}
}

// CountClients counts owner's clients
func (r *GormReportRepository) CountClients(ctx context.Context, ownerID uuid.UUID) (int64, error) {
	var n int64
	err := conn(ctx, r.db).Model(&models.ClientModel{}).Scopes(ownedBy(ownerID)).Count(&n).Error
	return n, err
}

// CountActiveSubscriptions counts owner's ACTIVE subscriptions
func (r *GormReportRepository) CountActiveSubscriptions(ctx context.Context, ownerID uuid.UUID) (int64, error) {
	var n int64
	err := conn(ctx, r.db).Model(&models.SubscriptionModel{}).
		Scopes(ownedBy(ownerID)).
		Where("status = ?", billing.SubscriptionStatusActive).
		Count(&n).Error
	return n, err
}

// InvoiceStatusCounts groups owner's invoices by status
func (r *GormReportRepository) InvoiceStatusCounts(ctx context.Context, ownerID uuid.UUID) ([]report.StatusCount, error) {
	var rows []report.StatusCount
	err := conn(ctx, r.db).Model(&models.InvoiceModel{}).
		Scopes(ownedBy(ownerID)).
		Select("status, COUNT(*) AS count").
		Group("status").
		Order("status").
		Scan(&rows).Error
	return rows, err
}

// OutstandingByCurrency sums the unpaid remainder of invoices in statuses
func (r *GormReportRepository) OutstandingByCurrency(ctx context.Context, ownerID uuid.UUID, statuses ...billing.InvoiceStatus) ([]report.CurrencyAmount, error) {
	var rows []report.CurrencyAmount
	err := conn(ctx, r.db).Model(&models.InvoiceModel{}).
		Scopes(ownedBy(ownerID)).
		Select("currency, SUM(amount - paid_amount) AS amount").
		Where("status IN ?", statuses).
		Group("currency").
		Order("currency").
		Scan(&rows).Error
	return rows, err
}

// PaymentsBetween returns owner's payments with paid date in [from, to]
func (r *GormReportRepository) PaymentsBetween(ctx context.Context, ownerID uuid.UUID, from, to time.Time) ([]report.PaymentEntry, error) {
	var rows []models.PaymentModel
	err := conn(ctx, r.db).
		Select("paid_date", "amount", "currency").
		Scopes(ownedBy(ownerID)).
		Where("paid_date >= ? AND paid_date <= ?", billing.DateOf(from), billing.DateOf(to)).
		Order("paid_date ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	entries := make([]report.PaymentEntry, len(rows))
	for i, row := range rows {
		entries[i] = report.PaymentEntry{
			PaidDate: billing.DateOf(row.PaidDate),
			Amount:   row.Amount,
			Currency: row.Currency,
		}
	}
	return entries, nil
}

// ActiveRecurring returns price and cycle of owner's ACTIVE subscriptions
func (r *GormReportRepository) ActiveRecurring(ctx context.Context, ownerID uuid.UUID) ([]report.RecurringEntry, error) {
	var rows []report.RecurringEntry
	err := conn(ctx, r.db).Model(&models.SubscriptionModel{}).
		Scopes(ownedBy(ownerID)).
		Select("price, currency, billing_cycle").
		Where("status = ?", billing.SubscriptionStatusActive).
		Scan(&rows).Error
	return rows, err
}

// TopClients ranks owner's clients by paid amount over non-cancelled invoices
func (r *GormReportRepository) TopClients(ctx context.Context, ownerID uuid.UUID, limit int) ([]report.ClientTotals, error) {
	var rows []report.ClientTotals
	err := conn(ctx, r.db).Table("invoices AS i").
		Select(`i.client_id AS client_id, c.name AS client_name, i.currency AS currency,
			COUNT(*) AS invoice_count, SUM(i.amount) AS invoiced, SUM(i.paid_amount) AS paid`).
		Joins("JOIN clients c ON c.id = i.client_id").
		Where("i.owner_id = ? AND i.status <> ?", ownerID, billing.InvoiceStatusCancelled).
		Group("i.client_id, c.name, i.currency").
		Order("paid DESC").Order("invoiced DESC").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for i := range rows {
		rows[i].Outstanding = rows[i].Invoiced.Sub(rows[i].Paid)
	}
	return rows, nil
}

var _ report.Repository = (*GormReportRepository)(nil)
