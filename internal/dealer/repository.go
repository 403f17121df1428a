package dealer

import (
	"context"

	"github.com/phu-boop/ev-dealer-platform/internal/model"
)

type Repository interface {
	ListAll(ctx context.Context) ([]model.Dealer, error)
}
