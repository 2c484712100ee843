package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/ibeloyar/fulfillsync/internal/config"
	"github.com/ibeloyar/fulfillsync/internal/filter"
	"github.com/ibeloyar/fulfillsync/internal/fulfillment"
	"github.com/ibeloyar/fulfillsync/internal/metrics"
	"github.com/ibeloyar/fulfillsync/internal/model"
	"github.com/ibeloyar/fulfillsync/internal/pipeline"
	"github.com/ibeloyar/fulfillsync/internal/repository/pg"
	"github.com/ibeloyar/fulfillsync/internal/service"
	"github.com/ibeloyar/fulfillsync/internal/shopify"
	"github.com/ibeloyar/fulfillsync/internal/transform"
	"github.com/ibeloyar/fulfillsync/pgk/auth"
	"github.com/ibeloyar/fulfillsync/pgk/logger"

	httpController "github.com/ibeloyar/fulfillsync/internal/controller/http"
)

const (
	shutdownTimeout = 5 * time.Second
	recordTimeout   = 10 * time.Second
)

type app struct {
	cfg      config.Config
	lg       *zap.SugaredLogger
	registry *metrics.Registry
	storage  *pg.Repository
	service  *service.Service
	pipeline *pipeline.Pipeline

	// shopifyEndpoint - GraphQL endpoint, по умолчанию строится из SHOPIFY_SHOP_URL
	shopifyEndpoint string
}

func newApp(ctx context.Context, cfg config.Config, lg *zap.SugaredLogger) (*app, error) {
	a := &app{
		cfg:             cfg,
		lg:              lg,
		registry:        metrics.NewRegistry(),
		shopifyEndpoint: cfg.ShopifyGraphQLURL(),
	}

	var ledger service.LedgerRepo
	if cfg.DatabaseURI != "" {
		storage, err := pg.New(ctx, cfg.DatabaseURI, lg)
		if err != nil {
			return nil, fmt.Errorf("run ledger: %w", err)
		}
		a.storage = storage
		ledger = storage
	}

	tags, err := filter.NewTagFilter(cfg.Whitelist(), cfg.Blacklist(), cfg.MatchMode())
	if err != nil {
		a.close()
		return nil, err
	}

	sender := fulfillment.New(fulfillment.Config{
		BaseURL:  cfg.EverstoxAPIURL,
		Token:    cfg.EverstoxAPIToken,
		DryRun:   cfg.DryRun,
		SendRate: cfg.SendRate,
	}, lg, a.registry)

	a.pipeline = pipeline.New(
		a.newFetcher,
		tags,
		transform.New(cfg.EverstoxShopID, lg),
		sender,
		pipeline.Options{LookbackDays: cfg.LookbackDays, OutputPath: cfg.OutputPath},
		a.registry,
		lg,
	)
	a.service = service.New(ledger, service.DefaultHistorySize, lg)

	return a, nil
}

func (a *app) newFetcher() pipeline.Fetcher {
	return shopify.New(shopify.Config{
		Endpoint: a.shopifyEndpoint,
		Token:    a.cfg.ShopifyAPIToken,
	}, a.lg, a.registry)
}

// runOnce executes one sync and records it. The record survives cancellation
// of ctx so an interrupted run still shows up in the history.
func (a *app) runOnce(ctx context.Context) error {
	report, err := a.pipeline.Run(ctx)

	recordCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), recordTimeout)
	defer cancel()

	if recErr := a.service.RecordRun(recordCtx, report); recErr != nil {
		a.lg.Errorf("recording run %s error: %v", report.ID, recErr)
	}

	return err
}

// schedule runs a sync right away, then on every tick or manual trigger until ctx is done.
func (a *app) schedule(ctx context.Context) {
	var tick <-chan time.Time
	if a.cfg.SyncInterval > 0 {
		ticker := time.NewTicker(a.cfg.SyncInterval)
		defer ticker.Stop()
		tick = ticker.C
		a.lg.Infof("scheduled sync every %s", a.cfg.SyncInterval)
	}

	for {
		if err := a.runOnce(ctx); err != nil && ctx.Err() == nil {
			a.lg.Warnf("sync run failed, waiting for next run: %v", err)
		}

		select {
		case <-ctx.Done():
			return
		case <-tick:
		case <-a.service.Triggers():
			a.lg.Info("manual sync run triggered")
		}
	}
}

func (a *app) router() *chi.Mux {
	router := chi.NewRouter()

	router.Use(logger.LoggingMiddleware(a.lg))
	router.Use(middleware.Recoverer)

	var authMiddleware func(http.Handler) http.Handler
	if a.cfg.AdminJWTSecret != "" {
		authMiddleware = auth.AuthBearerMiddlewareInit[model.Operator](a.cfg.AdminJWTSecret)
	}

	handlers := httpController.New(a.service, a.lg)
	return httpController.InitRoutes(router, handlers, a.registry.Handler(), authMiddleware)
}

func (a *app) close() {
	if a.storage == nil {
		return
	}
	if err := a.storage.Shutdown(); err != nil {
		a.lg.Errorf("shutdown (repo) error: %v", err)
	}
}

// Run executes a single sync, or keeps syncing on SYNC_INTERVAL and serves the
// admin API on RUN_ADDRESS until SIGINT or SIGTERM.
func Run(cfg config.Config, lg *zap.SugaredLogger) error {
	signalCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(signalCtx, cfg, lg)
	if err != nil {
		return err
	}
	defer a.close()

	if cfg.RunAddress == "" && cfg.SyncInterval == 0 {
		return a.runOnce(signalCtx)
	}

	var srv *http.Server
	if cfg.RunAddress != "" {
		srv = &http.Server{
			Addr:    cfg.RunAddress,
			Handler: a.router(),
		}

		lg.Infof("starting admin server on %s", cfg.RunAddress)

		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				lg.Errorf("server ListenAndServe error: %v", err)
				stop()
			}
		}()
	}

	a.schedule(signalCtx)
	lg.Info("shutting down...")

	if srv != nil {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("shutdown (server) error: %v", err)
		}
	}

	lg.Info("shutdown success")
	return nil
}
