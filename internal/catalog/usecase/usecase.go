package usecase

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/phu-boop/ev-dealer-platform/internal/cache"
	"github.com/phu-boop/ev-dealer-platform/internal/catalog"
	"github.com/phu-boop/ev-dealer-platform/internal/logger"
	"github.com/phu-boop/ev-dealer-platform/internal/model"
)

const variantTTL = 10 * time.Minute

type catalogUseCase struct {
	repo   catalog.Repository
	cache  cache.Cache
	logger logger.ZapLogger
}

func NewCatalogUseCase(repo catalog.Repository, c cache.Cache, log logger.ZapLogger) catalog.UseCase {
	return &catalogUseCase{
		repo:   repo,
		cache:  c,
		logger: log,
	}
}

func (uc *catalogUseCase) ResolveVariants(ctx context.Context, variantIDs []string) (map[string]model.VariantDetail, error) {
	out := make(map[string]model.VariantDetail, len(variantIDs))
	var misses []string
	seen := make(map[string]bool, len(variantIDs))

	for _, id := range variantIDs {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true

		var v model.VariantDetail
		ok, err := uc.cache.Get(ctx, variantKey(id), &v)
		if err != nil {
			uc.logger.Warn("variant cache read failed", zap.String("variant_id", id), zap.Error(err))
		}
		if ok {
			out[id] = v
			continue
		}
		misses = append(misses, id)
	}

	if len(misses) == 0 {
		return out, nil
	}

	fetched, err := uc.repo.BatchGetVariants(ctx, misses)
	if err != nil {
		return nil, err
	}
	for _, v := range fetched {
		out[v.VariantID] = v
		if err := uc.cache.Set(ctx, variantKey(v.VariantID), v, variantTTL); err != nil {
			uc.logger.Warn("variant cache write failed", zap.String("variant_id", v.VariantID), zap.Error(err))
		}
	}
	return out, nil
}

func variantKey(id string) string {
	return "catalog:variant:" + id
}
