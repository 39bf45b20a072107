package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/retailpipe/internal/export"
	"github.com/angelmondragon/retailpipe/internal/loader"
	"github.com/angelmondragon/retailpipe/internal/pipeline"
	"github.com/angelmondragon/retailpipe/internal/records"
	"github.com/angelmondragon/retailpipe/pkg/config"
	"github.com/angelmondragon/retailpipe/pkg/logger"
	"github.com/angelmondragon/retailpipe/pkg/metrics"
)

const serviceName = "load"

func main() {
	logg := logger.New(logger.Options{ServiceName: serviceName})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: serviceName,
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Format:      cfg.App.LogFormat,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithField(ctx, "env", cfg.App.Env)

	sinks, err := openSinks(ctx, cfg, logg)
	if err != nil {
		logg.Error(ctx, "failed to open sinks", err)
		os.Exit(1)
	}
	if len(sinks) == 0 {
		logg.Warn(ctx, "no sinks configured, nothing to load")
		return
	}

	ld, err := loader.New(loader.Params{Logger: logg, Sinks: sinks})
	if err != nil {
		logg.Error(ctx, "failed to create loader", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	runErr := run(ctx, cfg, logg, ld, metrics.NewStageMetrics(registry))
	if err := ld.Close(); err != nil {
		logg.Error(ctx, "error closing sinks", err)
	}
	if err := metrics.WriteTextfile(registry, cfg.Metrics.TextfilePath); err != nil {
		logg.Warn(logg.WithField(ctx, "error", err.Error()), "failed to flush metrics")
	}
	if runErr != nil {
		logg.Error(ctx, "load failed", runErr)
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logg *logger.Logger, ld *loader.Loader, stageMetrics *metrics.StageMetrics) error {
	var (
		products []records.ProductRecord
		txns     []records.TransactionRecord
	)
	stages := pipeline.NewRegistry(
		pipeline.NewStage("read_documents", func(context.Context) error {
			var err error
			products, err = export.ReadFile(cfg.Paths.Output(export.ProductsJSONFile), export.ReadProductsJSON)
			if err != nil {
				return err
			}
			txns, err = export.ReadFile(cfg.Paths.Output(export.TransactionsJSONFile), export.ReadTransactionsJSON)
			return err
		}),
		pipeline.NewStage("load_sinks", func(ctx context.Context) error {
			return ld.Load(ctx, products, txns)
		}),
	)
	runner, err := pipeline.NewRunner(pipeline.RunnerParams{
		Logger:   logg,
		Registry: stages,
		Metrics:  stageMetrics,
	})
	if err != nil {
		return err
	}
	return runner.Run(ctx)
}
