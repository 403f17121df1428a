package model

import (
	"encoding/json"
	"fmt"
	"strings"
)

// OrderStatus is the lifecycle state of a B2B order.
type OrderStatus string

const (
	StatusPending   OrderStatus = "PENDING"
	StatusConfirmed OrderStatus = "CONFIRMED"
	StatusInTransit OrderStatus = "IN_TRANSIT"
	StatusDelivered OrderStatus = "DELIVERED"
	StatusCancelled OrderStatus = "CANCELLED"

	// StatusRemoved is the pseudo state reached by deleting a cancelled
	// order. It never appears on the wire.
	StatusRemoved OrderStatus = "REMOVED"
)

// OrderStatuses lists the wire statuses in workflow order.
var OrderStatuses = []OrderStatus{
	StatusPending,
	StatusConfirmed,
	StatusInTransit,
	StatusDelivered,
	StatusCancelled,
}

func (s OrderStatus) Valid() bool {
	for _, v := range OrderStatuses {
		if s == v {
			return true
		}
	}
	return false
}

func (s OrderStatus) String() string { return string(s) }

// ParseOrderStatus accepts any casing and surrounding whitespace.
func ParseOrderStatus(raw string) (OrderStatus, error) {
	s := OrderStatus(strings.ToUpper(strings.TrimSpace(raw)))
	if !s.Valid() {
		return "", fmt.Errorf("unknown order status %q", raw)
	}
	return s, nil
}

func (s *OrderStatus) UnmarshalJSON(b []byte) error {
	var raw string
	if err := json.Unmarshal(b, &raw); err != nil {
		return fmt.Errorf("order status: %w", err)
	}
	parsed, err := ParseOrderStatus(raw)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// OrderAction is a transition request on an order.
type OrderAction string

const (
	ActionApprove OrderAction = "approve"
	ActionCancel  OrderAction = "cancel"
	ActionShip    OrderAction = "ship"
	ActionDeliver OrderAction = "deliver"
	ActionDelete  OrderAction = "delete"
)

var transitions = map[OrderStatus]map[OrderAction]OrderStatus{
	StatusPending: {
		ActionApprove: StatusConfirmed,
		ActionCancel:  StatusCancelled,
	},
	StatusConfirmed: {
		ActionShip:   StatusInTransit,
		ActionCancel: StatusCancelled,
	},
	StatusInTransit: {
		ActionDeliver: StatusDelivered,
	},
	StatusCancelled: {
		ActionDelete: StatusRemoved,
	},
}

// Next returns the state reached by applying action to from. DELIVERED and
// REMOVED have no outgoing transitions.
func Next(from OrderStatus, action OrderAction) (OrderStatus, bool) {
	to, ok := transitions[from][action]
	return to, ok
}

// Actor distinguishes manufacturer staff from dealer users.
type Actor string

const (
	ActorStaff  Actor = "STAFF"
	ActorDealer Actor = "DEALER"
)

func ParseActor(raw string) (Actor, error) {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "STAFF", "EVM", "EVM_STAFF", "ADMIN":
		return ActorStaff, nil
	case "DEALER", "DEALER_MANAGER", "DEALER_STAFF":
		return ActorDealer, nil
	}
	return "", fmt.Errorf("unknown actor %q", raw)
}

// dashboardActions is the subset of transitions each actor is offered per row.
var dashboardActions = map[Actor]map[OrderStatus][]OrderAction{
	ActorStaff: {
		StatusPending:   {ActionApprove, ActionCancel},
		StatusConfirmed: {ActionShip},
		StatusCancelled: {ActionDelete},
	},
	ActorDealer: {
		StatusPending:   {ActionCancel},
		StatusInTransit: {ActionDeliver},
	},
}

// AllowedActions returns the actions offered to actor for an order in status.
func AllowedActions(status OrderStatus, actor Actor) []OrderAction {
	actions := dashboardActions[actor][status]
	out := make([]OrderAction, len(actions))
	copy(out, actions)
	return out
}

// Allows reports whether actor may trigger action on an order in status.
func Allows(status OrderStatus, actor Actor, action OrderAction) bool {
	for _, a := range dashboardActions[actor][status] {
		if a == action {
			return true
		}
	}
	return false
}
