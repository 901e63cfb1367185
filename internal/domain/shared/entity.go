package shared

import (
	"time"

	"github.com/google/uuid"
)

// BaseEntity is the identity and timestamps every stored record carries
type BaseEntity struct {
	ID        uuid.UUID
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewBaseEntity assigns a fresh id created at the given instant
func NewBaseEntity(at time.Time) BaseEntity {
	return BaseEntity{ID: uuid.New(), CreatedAt: at, UpdatedAt: at}
}

// Touch stamps UpdatedAt with the given instant
func (e *BaseEntity) Touch(at time.Time) {
	e.UpdatedAt = at
}
