package payout

import (
	"github.com/google/uuid"

	"github.com/propertyhub/backend/internal/domain/identity"
	"github.com/propertyhub/backend/internal/domain/shared"
)

// Action names a payout workflow transition
type Action string

const (
	ActionRequest         Action = "request"
	ActionApprove         Action = "approve"
	ActionReject          Action = "reject"
	ActionMarkPaid        Action = "mark_paid"
	ActionConfirmReceived Action = "confirm_received"
)

// String returns the string representation of Action
func (a Action) String() string {
	return string(a)
}

// Transition is one row of the workflow table: who may move a request from
// which status to which.
type Transition struct {
	Action Action
	Role   identity.Role
	From   PayoutStatus // empty for request, which creates the record
	To     PayoutStatus
	// OwnOnly restricts the transition to the owner of the request
	OwnOnly bool
}

// transitions is the complete workflow. Anything not listed here is refused.
var transitions = []Transition{
	{Action: ActionRequest, Role: identity.RoleOwner, To: StatusPending, OwnOnly: true},
	{Action: ActionApprove, Role: identity.RoleAdmin, From: StatusPending, To: StatusApproved},
	{Action: ActionReject, Role: identity.RoleAdmin, From: StatusPending, To: StatusRejected},
	{Action: ActionMarkPaid, Role: identity.RoleAdmin, From: StatusApproved, To: StatusPaid},
	{Action: ActionConfirmReceived, Role: identity.RoleOwner, From: StatusPaid, To: StatusCompleted, OwnOnly: true},
}

// Transitions returns a copy of the workflow table
func Transitions() []Transition {
	out := make([]Transition, len(transitions))
	copy(out, transitions)
	return out
}

// TransitionFor looks up the table row for an action
func TransitionFor(action Action) (Transition, bool) {
	for _, t := range transitions {
		if t.Action == action {
			return t, true
		}
	}
	return Transition{}, false
}

// Authorize checks the actor against the row: role first, then ownership.
func (t Transition) Authorize(actor identity.Actor, ownerID uuid.UUID) error {
	if actor.Role != t.Role {
		return shared.PermissionDenied("Only " + t.Role.String() + " users can " + humanize(t.Action) + " payout requests")
	}
	if t.OwnOnly && !actor.Owns(ownerID) {
		return shared.PermissionDenied("Owners can only " + humanize(t.Action) + " their own payout requests")
	}
	return nil
}

// CheckState returns INVALID_STATE_TRANSITION unless current matches the row's source
func (t Transition) CheckState(current PayoutStatus) error {
	if current != t.From {
		return shared.InvalidStateTransition(current.String(), t.Action.String())
	}
	return nil
}

// Guard applies the full guard order for a transition on an existing request
func Guard(action Action, actor identity.Actor, req *PayoutRequest) (Transition, error) {
	t, ok := TransitionFor(action)
	if !ok {
		return Transition{}, shared.ValidationError("Unknown payout action: " + action.String())
	}
	if err := t.Authorize(actor, req.OwnerID); err != nil {
		return Transition{}, err
	}
	if err := t.CheckState(req.Status); err != nil {
		return Transition{}, err
	}
	return t, nil
}

// NextStatuses returns every status reachable from s in one step
func NextStatuses(s PayoutStatus) []PayoutStatus {
	var out []PayoutStatus
	for _, t := range transitions {
		if t.From == s && t.From != "" {
			out = append(out, t.To)
		}
	}
	return out
}

// AllowedActions lists the transitions actor may invoke on req right now
func AllowedActions(req *PayoutRequest, actor identity.Actor) []Action {
	actions := make([]Action, 0, 2)
	for _, t := range transitions {
		if t.From == "" {
			continue
		}
		if t.Authorize(actor, req.OwnerID) != nil || t.CheckState(req.Status) != nil {
			continue
		}
		actions = append(actions, t.Action)
	}
	return actions
}

func humanize(a Action) string {
	switch a {
	case ActionMarkPaid:
		return "mark paid"
	case ActionConfirmReceived:
		return "confirm receipt of"
	}
	return a.String()
}
