package shared

import (
	"time"

	"github.com/google/uuid"
)

// BaseEntity carries identity and audit timestamps. Users embed it directly;
// business records embed OwnedEntity.
type BaseEntity struct {
	ID        uuid.UUID
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewBaseEntity stamps a fresh id and equal created/updated times
func NewBaseEntity() BaseEntity {
	now := time.Now()
	return BaseEntity{ID: uuid.New(), CreatedAt: now, UpdatedAt: now}
}

// Touch bumps UpdatedAt.
func (e *BaseEntity) Touch() {
	e.UpdatedAt = time.Now()
}

// OwnedEntity is a record belonging to one user account. Repositories scope
// every lookup by OwnerID, so a foreign record reads as not found.
type OwnedEntity struct {
	BaseEntity
	OwnerID uuid.UUID
}

func NewOwnedEntity(ownerID uuid.UUID) OwnedEntity {
	return OwnedEntity{BaseEntity: NewBaseEntity(), OwnerID: ownerID}
}
