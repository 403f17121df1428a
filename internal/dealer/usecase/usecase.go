package usecase

import (
	"context"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/phu-boop/ev-dealer-platform/internal/cache"
	"github.com/phu-boop/ev-dealer-platform/internal/dealer"
	"github.com/phu-boop/ev-dealer-platform/internal/logger"
	"github.com/phu-boop/ev-dealer-platform/internal/model"
)

const (
	dealersKey = "dealers:all"
	dealersTTL = 10 * time.Minute
)

type dealerUseCase struct {
	repo   dealer.Repository
	cache  cache.Cache
	logger logger.ZapLogger
}

func NewDealerUseCase(repo dealer.Repository, c cache.Cache, log logger.ZapLogger) dealer.UseCase {
	return &dealerUseCase{
		repo:   repo,
		cache:  c,
		logger: log,
	}
}

func (uc *dealerUseCase) List(ctx context.Context) ([]model.Dealer, error) {
	var dealers []model.Dealer
	ok, err := uc.cache.Get(ctx, dealersKey, &dealers)
	if err != nil {
		uc.logger.Warn("dealer cache read failed", zap.Error(err))
	}
	if ok {
		return dealers, nil
	}

	dealers, err = uc.repo.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	sort.Slice(dealers, func(i, j int) bool { return dealers[i].DealerName < dealers[j].DealerName })

	if err := uc.cache.Set(ctx, dealersKey, dealers, dealersTTL); err != nil {
		uc.logger.Warn("dealer cache write failed", zap.Error(err))
	}
	return dealers, nil
}

func (uc *dealerUseCase) Lookup(ctx context.Context) (map[string]model.Dealer, error) {
	dealers, err := uc.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[string]model.Dealer, len(dealers))
	for _, d := range dealers {
		out[d.DealerID] = d
	}
	return out, nil
}

func (uc *dealerUseCase) Name(ctx context.Context, dealerID string) string {
	lookup, err := uc.Lookup(ctx)
	if err != nil {
		uc.logger.Warn("dealer lookup failed", zap.String("dealer_id", dealerID), zap.Error(err))
		return dealerID
	}
	if d, ok := lookup[dealerID]; ok && d.DealerName != "" {
		return d.DealerName
	}
	return dealerID
}
