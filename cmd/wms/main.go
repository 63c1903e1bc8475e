package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"github.com/vsinha/wms/pkg/application/services/operation"
	"github.com/vsinha/wms/pkg/application/services/provenance"
	"github.com/vsinha/wms/pkg/domain/repositories"
	"github.com/vsinha/wms/pkg/infrastructure/behaviours"
	"github.com/vsinha/wms/pkg/infrastructure/config"
	"github.com/vsinha/wms/pkg/infrastructure/events"
	"github.com/vsinha/wms/pkg/infrastructure/logging"
	"github.com/vsinha/wms/pkg/infrastructure/metrics"
	"github.com/vsinha/wms/pkg/infrastructure/repositories/csv"
	"github.com/vsinha/wms/pkg/infrastructure/repositories/memory"
	"github.com/vsinha/wms/pkg/infrastructure/repositories/postgres"
	"github.com/vsinha/wms/pkg/infrastructure/repositories/sqlite"
	"github.com/vsinha/wms/pkg/infrastructure/tracing"
	"github.com/vsinha/wms/pkg/interfaces/cli/commands"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger, err := logging.New(cfg.Logger)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	if cfg.Trace {
		tp := tracing.NewProvider(logger)
		otel.SetTracerProvider(tp)
		defer func() { _ = tp.Shutdown(context.Background()) }()
	}

	registry := prometheus.NewRegistry()
	recorder, err := metrics.NewPrometheusRecorder(registry)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cli := commands.New(func(ctx context.Context) (*commands.App, error) {
		return open(ctx, cfg, logger, recorder)
	})
	defer func() {
		if err := cli.Close(); err != nil {
			logger.Warn("failed to close store", zap.Error(err))
		}
	}()

	if err := cli.Command().ExecuteContext(ctx); err != nil {
		return err
	}
	if cfg.MetricsFile != "" {
		if err := prometheus.WriteToTextfile(cfg.MetricsFile, registry); err != nil {
			return fmt.Errorf("write metrics: %w", err)
		}
	}
	return nil
}

func open(ctx context.Context, cfg *config.Config, logger *zap.Logger, recorder metrics.Recorder) (*commands.App, error) {
	types, err := behaviours.Load(cfg.Behaviours)
	if err != nil {
		return nil, err
	}
	logger.Debug("goods types loaded", zap.String("path", cfg.Behaviours), zap.Int("types", types.Len()))

	store, closeStore, err := openStore(ctx, cfg, types)
	if err != nil {
		return nil, err
	}

	eventStore := events.NewInMemoryEventStore(logger)
	if err := eventStore.Subscribe(events.AllTypes, events.NewLogHandler(logger)); err != nil {
		_ = closeStore()
		return nil, err
	}

	app := &commands.App{
		Operations: operation.NewService(store,
			operation.WithLogger(logger),
			operation.WithMetrics(recorder),
			operation.WithEventStore(eventStore),
		),
		Provenance: provenance.NewService(store),
		Store:      store,
		Events:     eventStore,
		Loader:     csv.NewLoader(),
		Close:      closeStore,
	}
	if cfg.Seed != "" {
		n, err := app.Seed(ctx, cfg.Seed)
		if err != nil {
			_ = closeStore()
			return nil, fmt.Errorf("seed %s: %w", cfg.Seed, err)
		}
		logger.Info("seeded arrivals", zap.String("path", cfg.Seed), zap.Int("arrivals", n))
	}
	return app, nil
}

func openStore(ctx context.Context, cfg *config.Config, types repositories.GoodsTypeRepository) (repositories.Store, func() error, error) {
	switch cfg.Store.Backend {
	case config.StoreMemory:
		return memory.NewStore(types), func() error { return nil }, nil
	case config.StorePostgres:
		ctx, cancel := context.WithTimeout(ctx, cfg.Store.Timeout)
		defer cancel()
		s, err := postgres.NewStore(ctx, cfg.Store.PostgresDSN, types)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	default:
		s, err := sqlite.NewStore(cfg.Store.SQLitePath, types)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	}
}
