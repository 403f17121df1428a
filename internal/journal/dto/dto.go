package dto

import "github.com/phu-boop/ev-dealer-platform/internal/model"

type Filters struct {
	OrderID  string
	Action   model.OrderAction
	Outcome  model.ActionOutcome
	Page     int // 1-based
	PageSize int
}
