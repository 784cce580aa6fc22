package persistence

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/invoicer/backend/internal/domain/identity"
	"github.com/invoicer/backend/internal/infrastructure/persistence/models"
)

// GormUserRepository stores accounts in the users table
type GormUserRepository struct {
	db *gorm.DB
}

func NewGormUserRepository(db *gorm.DB) *GormUserRepository {
	return &GormUserRepository{db: db}
}

// byEmail matches the normalized form of email
func byEmail(email string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("email = ?", identity.NormalizeEmail(email))
	}
}

// Create inserts a new user. A taken email answers shared.ErrAlreadyExists.
func (r *GormUserRepository) Create(ctx context.Context, user *identity.User) error {
	return translateError(conn(ctx, r.db).Create(models.UserModelFromDomain(user)).Error)
}

func (r *GormUserRepository) Update(ctx context.Context, user *identity.User) error {
	return translateError(conn(ctx, r.db).Save(models.UserModelFromDomain(user)).Error)
}

func (r *GormUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*identity.User, error) {
	return r.first(conn(ctx, r.db).Where("id = ?", id))
}

func (r *GormUserRepository) FindByEmail(ctx context.Context, email string) (*identity.User, error) {
	return r.first(conn(ctx, r.db).Scopes(byEmail(email)))
}

func (r *GormUserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var n int64
	err := conn(ctx, r.db).Model(&models.UserModel{}).Scopes(byEmail(email)).Limit(1).Count(&n).Error
	return n > 0, translateError(err)
}

func (r *GormUserRepository) first(q *gorm.DB) (*identity.User, error) {
	var m models.UserModel
	if err := q.First(&m).Error; err != nil {
		return nil, translateError(err)
	}
	return m.ToDomain(), nil
}

var _ identity.UserRepository = (*GormUserRepository)(nil)
