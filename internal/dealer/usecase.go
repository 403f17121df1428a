package dealer

import (
	"context"

	"github.com/phu-boop/ev-dealer-platform/internal/model"
)

type UseCase interface {
	List(ctx context.Context) ([]model.Dealer, error)
	// Lookup returns every dealer keyed by id.
	Lookup(ctx context.Context) (map[string]model.Dealer, error)
	// Name returns the dealer's display name, or the id itself when the
	// dealer cannot be resolved.
	Name(ctx context.Context, dealerID string) string
}
