package catalog

import (
	"context"

	"github.com/phu-boop/ev-dealer-platform/internal/model"
)

type UseCase interface {
	// ResolveVariants returns display metadata keyed by variant id. Unknown
	// ids are absent from the map.
	ResolveVariants(ctx context.Context, variantIDs []string) (map[string]model.VariantDetail, error)
}
