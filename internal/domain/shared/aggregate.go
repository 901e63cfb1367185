package shared

import "time"

// BaseAggregateRoot adds optimistic versioning and recorded events to an entity.
// A new aggregate is at version 1 and every applied change bumps it once, so a
// repository saving a changed aggregate expects Version-1 in storage.
type BaseAggregateRoot struct {
	BaseEntity
	Version int
	events  []DomainEvent
}

// NewBaseAggregateRoot starts a version 1 aggregate created at the given instant
func NewBaseAggregateRoot(at time.Time) BaseAggregateRoot {
	return BaseAggregateRoot{BaseEntity: NewBaseEntity(at), Version: 1}
}

// GetVersion returns the version the aggregate will have once saved
func (a *BaseAggregateRoot) GetVersion() int {
	return a.Version
}

// IncrementVersion marks one more applied change
func (a *BaseAggregateRoot) IncrementVersion() {
	a.Version++
}

// AddDomainEvent records an event for publication after the aggregate is saved
func (a *BaseAggregateRoot) AddDomainEvent(event DomainEvent) {
	a.events = append(a.events, event)
}

// GetDomainEvents returns the events recorded since the last ClearDomainEvents
func (a *BaseAggregateRoot) GetDomainEvents() []DomainEvent {
	return a.events
}

// ClearDomainEvents drops recorded events once they have been handed off
func (a *BaseAggregateRoot) ClearDomainEvents() {
	a.events = nil
}
