package journal

import (
	"context"

	"github.com/phu-boop/ev-dealer-platform/internal/journal/dto"
	"github.com/phu-boop/ev-dealer-platform/internal/model"
)

// Repository records every order action taken from this console, successful
// or not, for later review with `evmctl history`.
type Repository interface {
	Log(ctx context.Context, rec *model.ActionRecord) error
	List(ctx context.Context, filters *dto.Filters) ([]model.ActionRecord, int, error)
}
