package identity

import (
	"strings"

	"github.com/google/uuid"

	"github.com/propertyhub/backend/internal/domain/shared"
)

// Role is the platform role an actor holds when invoking payout operations
type Role string

const (
	RoleOwner Role = "owner" // Property owner; requests payouts and confirms receipt
	RoleAdmin Role = "admin" // Administrator; approves, rejects and pays out
)

// IsValid reports whether the role is one this service understands
func (r Role) IsValid() bool {
	return r == RoleOwner || r == RoleAdmin
}

func (r Role) String() string {
	return string(r)
}

// ParseRole parses a role name case-insensitively
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if !r.IsValid() {
		return "", shared.ValidationError("role must be one of: owner, admin")
	}
	return r, nil
}

// Actor identifies who is invoking an operation. It is passed explicitly into
// every call; the service keeps no session state.
type Actor struct {
	ID   uuid.UUID
	Role Role
}

// NewActor validates and builds an actor
func NewActor(id uuid.UUID, role Role) (Actor, error) {
	if id == uuid.Nil {
		return Actor{}, shared.ValidationError("actor id is required")
	}
	if !role.IsValid() {
		return Actor{}, shared.ValidationError("role must be one of: owner, admin")
	}
	return Actor{ID: id, Role: role}, nil
}

// IsAdmin returns true for administrators
func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}

// IsOwner returns true for property owners
func (a Actor) IsOwner() bool {
	return a.Role == RoleOwner
}

// Owns reports whether the actor is the owner with the given id
func (a Actor) Owns(ownerID uuid.UUID) bool {
	return a.IsOwner() && a.ID == ownerID
}

// CanView reports whether the actor may read data belonging to ownerID.
// Admins see every owner; owners see only themselves.
func (a Actor) CanView(ownerID uuid.UUID) bool {
	return a.IsAdmin() || a.Owns(ownerID)
}
