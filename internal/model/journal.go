package model

import "time"

type ActionOutcome string

const (
	OutcomeSucceeded ActionOutcome = "succeeded"
	OutcomeFailed    ActionOutcome = "failed"
)

// ActionRecord is one entry of the local journal of order actions.
type ActionRecord struct {
	ID        string        `db:"id"`
	Actor     Actor         `db:"actor"`
	Action    OrderAction   `db:"action"`
	OrderID   string        `db:"order_id"`
	Outcome   ActionOutcome `db:"outcome"`
	Message   string        `db:"message"`
	CreatedAt time.Time     `db:"-"`
}
