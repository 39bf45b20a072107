package main

import (
	"context"
	"math/rand/v2"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/retailpipe/internal/pipeline"
	"github.com/angelmondragon/retailpipe/pkg/config"
	"github.com/angelmondragon/retailpipe/pkg/logger"
	"github.com/angelmondragon/retailpipe/pkg/metrics"
)

const serviceName = "transform"

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

	job, err := newTransformJob(cfg, logg, newRand(cfg.Catalog.Seed), time.Now)
	if err != nil {
		logg.Error(context.Background(), "failed to prepare transform", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	runner, err := pipeline.NewRunner(pipeline.RunnerParams{
		Logger:   logg,
		Registry: pipeline.NewRegistry(job.stages()...),
		Metrics:  metrics.NewStageMetrics(registry),
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create pipeline runner", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithField(ctx, "env", cfg.App.Env)

	runErr := runner.Run(ctx)
	if err := metrics.WriteTextfile(registry, cfg.Metrics.TextfilePath); err != nil {
		logg.Warn(logg.WithField(ctx, "error", err.Error()), "failed to flush metrics")
	}
	if runErr != nil {
		logg.Error(ctx, "transform failed", runErr)
		stop()
		os.Exit(1)
	}
}

// newRand returns a seeded source. A zero seed draws from the clock.
func newRand(seed int64) *rand.Rand {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewPCG(uint64(seed), uint64(seed)>>1|1))
}
