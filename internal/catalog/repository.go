package catalog

import (
	"context"

	"github.com/phu-boop/ev-dealer-platform/internal/model"
)

type Repository interface {
	BatchGetVariants(ctx context.Context, variantIDs []string) ([]model.VariantDetail, error)
}
