package identity

import (
	"context"

	"github.com/google/uuid"
)

// UserRepository persists accounts. Email lookups ignore case and
// surrounding whitespace.
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	Update(ctx context.Context, user *User) error
	FindByID(ctx context.Context, id uuid.UUID) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
}
