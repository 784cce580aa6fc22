package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/invoicer/backend/internal/domain/billing"
	"github.com/invoicer/backend/internal/infrastructure/persistence/models"
)

// GormSubscriptionRepository implements billing.SubscriptionRepository using GORM
type GormSubscriptionRepository struct {
	db *gorm.DB
}

// NewGormSubscriptionRepository creates a new GormSubscriptionRepository
func NewGormSubscriptionRepository(db *gorm.DB) *GormSubscriptionRepository {
	return &GormSubscriptionRepository{db: db}
}

// FindByID finds one of owner's subscriptions, cancelled ones included
func (r *GormSubscriptionRepository) FindByID(ctx context.Context, ownerID, id uuid.UUID) (*billing.Subscription, error) {
	var model models.SubscriptionModel
	if err := conn(ctx, r.db).Scopes(ownedBy(ownerID)).First(&model, "id = ?", id).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindByIDForUpdate finds a subscription and locks its row
func (r *GormSubscriptionRepository) FindByIDForUpdate(ctx context.Context, ownerID, id uuid.UUID) (*billing.Subscription, error) {
	var model models.SubscriptionModel
	err := conn(ctx, r.db).Scopes(ownedBy(ownerID), forUpdate).Where("id = ?", id).Take(&model).Error
	if err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindAll returns one page of owner's subscriptions and the total match count
func (r *GormSubscriptionRepository) FindAll(ctx context.Context, ownerID uuid.UUID, filter billing.SubscriptionFilter) ([]billing.Subscription, int64, error) {
	f := filter.Normalize()
	filtered := func(db *gorm.DB) *gorm.DB {
		db = db.Scopes(ownedBy(ownerID), search(f.Search, "notes"))
		switch {
		case filter.Status != "":
			db = db.Where("status = ?", filter.Status)
		case !filter.IncludeCancelled:
			db = db.Where("status <> ?", billing.SubscriptionStatusCancelled)
		}
		if filter.ClientID != nil {
			db = db.Where("client_id = ?", *filter.ClientID)
		}
		return db
	}

	var total int64
	if err := conn(ctx, r.db).Model(&models.SubscriptionModel{}).Scopes(filtered).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.SubscriptionModel
	err := conn(ctx, r.db).
		Scopes(filtered, ordered(f, SubscriptionSortFields, "next_billing_date", false), paginate(f)).
		Find(&rows).Error
	if err != nil {
		return nil, 0, err
	}
	return subscriptionsToDomain(rows), total, nil
}

// FindDue returns owner's ACTIVE subscriptions billing within [from, to]
func (r *GormSubscriptionRepository) FindDue(ctx context.Context, ownerID uuid.UUID, from, to time.Time) ([]billing.Subscription, error) {
	var rows []models.SubscriptionModel
	err := conn(ctx, r.db).Scopes(ownedBy(ownerID)).
		Where("status = ?", billing.SubscriptionStatusActive).
		Where("next_billing_date >= ? AND next_billing_date <= ?", billing.DateOf(from), billing.DateOf(to)).
		Order("next_billing_date ASC").Order("id").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return subscriptionsToDomain(rows), nil
}

// FindExpiredAdvance returns PAID_IN_ADVANCE subscriptions of every owner
// whose prepaid window ended before asOf
func (r *GormSubscriptionRepository) FindExpiredAdvance(ctx context.Context, asOf time.Time, limit int) ([]billing.Subscription, error) {
	var rows []models.SubscriptionModel
	err := conn(ctx, r.db).
		Where("status = ? AND advance_paid_until < ?", billing.SubscriptionStatusPaidInAdvance, billing.DateOf(asOf)).
		Order("advance_paid_until ASC").Order("id").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return subscriptionsToDomain(rows), nil
}

// Save inserts or updates a subscription
func (r *GormSubscriptionRepository) Save(ctx context.Context, subscription *billing.Subscription) error {
	return translateError(conn(ctx, r.db).Save(models.SubscriptionModelFromDomain(subscription)).Error)
}

func subscriptionsToDomain(rows []models.SubscriptionModel) []billing.Subscription {
	subs := make([]billing.Subscription, len(rows))
	for i := range rows {
		subs[i] = *rows[i].ToDomain()
	}
	return subs
}

var _ billing.SubscriptionRepository = (*GormSubscriptionRepository)(nil)
