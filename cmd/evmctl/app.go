package main

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/phu-boop/ev-dealer-platform/config"
	"github.com/phu-boop/ev-dealer-platform/internal/allocation"
	"github.com/phu-boop/ev-dealer-platform/internal/auth"
	"github.com/phu-boop/ev-dealer-platform/internal/auth/store"
	"github.com/phu-boop/ev-dealer-platform/internal/cache"
	"github.com/phu-boop/ev-dealer-platform/internal/catalog"
	"github.com/phu-boop/ev-dealer-platform/internal/dealer"
	"github.com/phu-boop/ev-dealer-platform/internal/i18n"
	"github.com/phu-boop/ev-dealer-platform/internal/inventory"
	"github.com/phu-boop/ev-dealer-platform/internal/journal"
	"github.com/phu-boop/ev-dealer-platform/internal/logger"
	"github.com/phu-boop/ev-dealer-platform/internal/metrics"
	"github.com/phu-boop/ev-dealer-platform/internal/order"
	"github.com/phu-boop/ev-dealer-platform/internal/payment"
	"github.com/phu-boop/ev-dealer-platform/internal/restclient"
	"github.com/phu-boop/ev-dealer-platform/internal/storage/sqlite"

	catRepoPkg "github.com/phu-boop/ev-dealer-platform/internal/catalog/repository"
	catUCPkg "github.com/phu-boop/ev-dealer-platform/internal/catalog/usecase"
	dealerRepoPkg "github.com/phu-boop/ev-dealer-platform/internal/dealer/repository"
	dealerUCPkg "github.com/phu-boop/ev-dealer-platform/internal/dealer/usecase"
	invRepoPkg "github.com/phu-boop/ev-dealer-platform/internal/inventory/repository"
	invUCPkg "github.com/phu-boop/ev-dealer-platform/internal/inventory/usecase"
	journalRepoPkg "github.com/phu-boop/ev-dealer-platform/internal/journal/repository"
	orderRepoPkg "github.com/phu-boop/ev-dealer-platform/internal/order/repository"
	orderUCPkg "github.com/phu-boop/ev-dealer-platform/internal/order/usecase"
	paymentRepoPkg "github.com/phu-boop/ev-dealer-platform/internal/payment/repository"
)

type app struct {
	cfg    *config.Config
	logger logger.ZapLogger
	out    io.Writer
	in     io.Reader
	tr     *i18n.Translator

	db       *sqlx.DB
	auth     *auth.Context
	authAPI  *auth.HTTPClient
	metrics  *metrics.Registry
	catalog  catalog.UseCase
	dealers  dealer.UseCase
	inv      inventory.UseCase
	orders   order.UseCase
	journal  journal.Repository
	payments *payment.Review

	closers []func() error
}

func newApp(ctx context.Context, cfg *config.Config, log logger.ZapLogger, out io.Writer, in io.Reader) (*app, error) {
	a := &app{cfg: cfg, logger: log, out: out, in: in}

	tr, err := i18n.New(cfg.App.Locale)
	if err != nil {
		return nil, err
	}
	a.tr = tr

	// Local database: session and action journal
	db, err := sqlite.Open(ctx, cfg.Session.DBPath)
	if err != nil {
		return nil, err
	}
	a.db = db
	a.closers = append(a.closers, db.Close)

	// Metrics
	if cfg.Metrics.Addr != "" {
		a.metrics = metrics.NewRegistry()
		a.serveMetrics(cfg.Metrics.Addr)
	}

	httpClient := &http.Client{Timeout: cfg.HTTP.Timeout}
	a.authAPI = auth.NewHTTPClient(restclient.New(restclient.Config{
		Service:    "identity",
		BaseURL:    cfg.Services.URL(cfg.Services.AuthURL),
		HTTPClient: httpClient,
		Logger:     log,
		Metrics:    a.metrics,
	}))
	a.auth = auth.NewContext(store.NewSQLiteStore(db), a.authAPI, log)

	// Lookup cache
	lookupCache := a.newCache(ctx)

	rest := func(service, baseURL string) *restclient.Client {
		return restclient.New(restclient.Config{
			Service:    service,
			BaseURL:    baseURL,
			HTTPClient: httpClient,
			Auth:       a.auth,
			Logger:     log,
			Metrics:    a.metrics,
		})
	}
	svc := cfg.Services

	a.catalog = catUCPkg.NewCatalogUseCase(catRepoPkg.NewHTTPRepository(rest("catalog", svc.URL(svc.CatalogURL))), lookupCache, log)
	a.dealers = dealerUCPkg.NewDealerUseCase(dealerRepoPkg.NewHTTPRepository(rest("dealer", svc.URL(svc.DealerURL))), lookupCache, log)
	a.inv = invUCPkg.NewInventoryUseCase(invRepoPkg.NewHTTPRepository(rest("inventory", svc.URL(svc.InventoryURL))), a.catalog, log)
	a.journal = journalRepoPkg.NewSQLiteRepository(db)
	a.orders = orderUCPkg.NewOrderUseCase(orderRepoPkg.NewHTTPRepository(rest("sales", svc.URL(svc.SalesURL))), a.journal, log)
	a.payments = payment.NewReview(paymentRepoPkg.NewHTTPRepository(rest("payment", svc.URL(svc.PaymentURL))), log)

	return a, nil
}

func (a *app) newCache(ctx context.Context) cache.Cache {
	if a.cfg.Redis.Addr == "" {
		return cache.NewMemoryCache()
	}
	rc, err := cache.NewRedisCache(ctx, &cache.Config{
		Addr:     a.cfg.Redis.Addr,
		Password: a.cfg.Redis.Password,
		DB:       a.cfg.Redis.DB,
	}, "evmctl:")
	if err != nil {
		a.logger.Warn("Could not connect to Redis, caching in memory", zap.Error(err))
		return cache.NewMemoryCache()
	}
	a.closers = append(a.closers, rc.Close)
	a.logger.Debug("Connected to Redis", zap.String("addr", a.cfg.Redis.Addr))
	return rc
}

func (a *app) serveMetrics(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", a.metrics.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("metrics server failed", zap.Error(err))
		}
	}()
	a.closers = append(a.closers, func() error {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return srv.Shutdown(ctx)
	})
	a.logger.Info("Serving metrics", zap.String("addr", addr))
}

// dashboard builds the allocation queue for the signed-in user. Dealers only
// see their own orders.
func (a *app) dashboard(ctx context.Context, pageSize int) *allocation.Dashboard {
	return allocation.New(allocation.Config{
		Orders:    a.orders,
		Dealers:   a.dealers,
		Inventory: a.inv,
		Logger:    a.logger,
		Metrics:   a.metrics,
		Actor:     auth.ActorFrom(ctx),
		DealerID:  auth.GetDealerID(ctx),
		PageSize:  pageSize,
	})
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.logger.Warn("close failed", zap.Error(err))
		}
	}
}
