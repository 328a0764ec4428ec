package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/mamadbah2/farmdash/internal/config"
	"github.com/mamadbah2/farmdash/internal/domain/models"
	"github.com/mamadbah2/farmdash/internal/metrics"
	"github.com/mamadbah2/farmdash/internal/repository/mongodb"
	"github.com/mamadbah2/farmdash/internal/repository/postgres"
	"github.com/mamadbah2/farmdash/internal/repository/sheets"
	"github.com/mamadbah2/farmdash/internal/scheduler"
	"github.com/mamadbah2/farmdash/internal/server/handlers"
	"github.com/mamadbah2/farmdash/internal/server/router"
	"github.com/mamadbah2/farmdash/internal/service/analytics"
	commandsvc "github.com/mamadbah2/farmdash/internal/service/commands"
	reportingsvc "github.com/mamadbah2/farmdash/internal/service/reporting"
	whatsappsvc "github.com/mamadbah2/farmdash/internal/service/whatsapp"
	"github.com/mamadbah2/farmdash/pkg/clients/anthropic"
	whatsappclient "github.com/mamadbah2/farmdash/pkg/clients/whatsapp"
	"github.com/mamadbah2/farmdash/pkg/logger"
)

// store is what every backend provides.
type store interface {
	ReadAll(ctx context.Context, collection, orderBy string) ([]models.Record, error)
	Insert(ctx context.Context, collection string, record models.Record) (string, error)
	Close(ctx context.Context) error
}

func main() {
	cfg, err := config.Load("")
	if err != nil {
		panic(err)
	}

	baseLogger := logger.Must(logger.New(cfg.Server.LogLevel))
	defer func() { _ = baseLogger.Sync() }()

	zap.ReplaceGlobals(baseLogger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := openStore(ctx, cfg, baseLogger)
	if err != nil {
		baseLogger.Fatal("failed to init store", zap.String("backend", cfg.Store.Backend), zap.Error(err))
	}
	defer func() {
		if err := db.Close(context.Background()); err != nil {
			baseLogger.Error("failed to close store", zap.Error(err))
		}
	}()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	recorder, err := metrics.NewRecorder(registry)
	if err != nil {
		baseLogger.Fatal("failed to register metrics", zap.Error(err))
	}

	loc := cfg.Reporting.Location()
	analyticsSvc := analytics.NewService(db, baseLogger.Named("svc.analytics"),
		analytics.WithLocation(loc),
		analytics.WithCooldown(cfg.Analytics.Cooldown),
		analytics.WithMaxAge(cfg.Analytics.MaxAge),
		analytics.WithFetchTimeout(cfg.Analytics.FetchTimeout),
		analytics.WithCachedCollection(cfg.Analytics.CachedCollection, cfg.Analytics.CacheTTL),
		analytics.WithMetrics(recorder),
	)
	defer analyticsSvc.Close()

	if cfg.Analytics.Watch && cfg.Store.Backend != config.BackendSheets {
		if err := analyticsSvc.Watch(ctx); err != nil {
			baseLogger.Warn("live updates unavailable", zap.Error(err))
		}
	}

	// Initialize AI Client
	var narrator reportingsvc.Narrator
	if cfg.AI.AnthropicKey != "" {
		narrator = anthropic.NewClient(cfg.AI.AnthropicKey)
		baseLogger.Info("anthropic ai client enabled")
	} else {
		baseLogger.Info("anthropic api key missing, digest narrative disabled")
	}

	reportingSvc := reportingsvc.NewService(narrator, loc, baseLogger.Named("svc.reporting"))
	commandDispatcher := commandsvc.NewService(analyticsSvc, reportingSvc, db, baseLogger.Named("svc.commands"))

	routes := router.Handlers{
		Analytics: handlers.NewAnalyticsHandler(analyticsSvc, reportingSvc, baseLogger.Named("handlers.analytics")),
		Records:   handlers.NewRecordsHandler(db, analyticsSvc, baseLogger.Named("handlers.records")),
	}

	var notifier scheduler.Notifier
	if cfg.WhatsApp.Enabled() {
		whatsClient := whatsappclient.NewClient(cfg.WhatsApp)
		messagingSvc := whatsappsvc.NewMetaWhatsAppService(cfg.WhatsApp, whatsClient, commandDispatcher, baseLogger.Named("svc.whatsapp"))
		routes.Webhook = handlers.NewWebhookHandler(messagingSvc, baseLogger.Named("handlers.whatsapp"))
		if cfg.WhatsApp.ManagerID != "" {
			notifier = messagingSvc
		}
	} else {
		baseLogger.Info("whatsapp credentials missing, messaging disabled")
	}

	engine := router.New(routes, registry, baseLogger.Named("router"))

	sched := scheduler.NewScheduler(scheduler.Options{
		DigestSchedule:  cfg.Reporting.CronSchedule,
		Location:        loc,
		RefreshInterval: cfg.Analytics.Cooldown,
	}, analyticsSvc, reportingSvc, notifier, baseLogger.Named("scheduler"))
	if err := sched.Start(); err != nil {
		baseLogger.Fatal("failed to start scheduler", zap.Error(err))
	}
	defer sched.Stop()

	go func() {
		if _, err := analyticsSvc.Refresh(ctx); err != nil {
			baseLogger.Warn("initial analytics refresh failed", zap.Error(err))
		}
	}()

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		baseLogger.Info("server starting", zap.String("port", cfg.Server.Port), zap.String("backend", cfg.Store.Backend))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			baseLogger.Fatal("http server crashed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	baseLogger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		baseLogger.Error("graceful shutdown failed", zap.Error(err))
	}
}

func openStore(ctx context.Context, cfg *config.Config, base *zap.Logger) (store, error) {
	connectCtx, cancel := context.WithTimeout(ctx, 45*time.Second)
	defer cancel()

	switch cfg.Store.Backend {
	case config.BackendSheets:
		repo, err := sheets.NewGoogleSheetRepository(connectCtx, cfg.Sheets, base.Named("repo.sheets"))
		if err != nil {
			return nil, err
		}
		return repo, nil
	case config.BackendPostgres:
		pool, err := postgres.NewPool(connectCtx, cfg.Postgres.DatabaseURL)
		if err != nil {
			return nil, err
		}
		pg := postgres.NewStore(pool, base.Named("repo.postgres"))
		if err := pg.EnsureSchema(connectCtx); err != nil {
			pool.Close()
			return nil, err
		}
		return pg, nil
	default:
		mongoStore, err := mongodb.NewStore(connectCtx, cfg.MongoDB.URI, cfg.MongoDB.DBName, base.Named("repo.mongodb"))
		if err != nil {
			return nil, err
		}
		return mongoStore, nil
	}
}
