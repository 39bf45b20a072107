package main

import (
	"context"
	"math/rand/v2"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/retailpipe/internal/imagegen"
	"github.com/angelmondragon/retailpipe/internal/pipeline"
	"github.com/angelmondragon/retailpipe/pkg/bedrock"
	"github.com/angelmondragon/retailpipe/pkg/config"
	"github.com/angelmondragon/retailpipe/pkg/logger"
	"github.com/angelmondragon/retailpipe/pkg/metrics"
	"github.com/angelmondragon/retailpipe/pkg/storage/s3"
)

const serviceName = "imagegen"

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

	client, err := bedrock.NewClient(ctx, cfg.ImageGen)
	if err != nil {
		logg.Error(ctx, "failed to create bedrock client", err)
		os.Exit(1)
	}

	var mirror imagegen.Mirror
	if cfg.S3.Enabled() {
		s3Client, err := s3.NewClient(ctx, cfg.S3, cfg.ImageGen.Region)
		if err != nil {
			logg.Error(ctx, "failed to create s3 client", err)
			os.Exit(1)
		}
		if err := s3Client.Ping(ctx); err != nil {
			logg.Error(ctx, "s3 bucket unreachable", err)
			os.Exit(1)
		}
		mirror = s3Client
	}

	registry := prometheus.NewRegistry()
	seed := uint64(time.Now().UnixNano())
	job, err := newImagegenJob(jobParams{
		Config:    cfg,
		Logger:    logg,
		Generator: bedrockGenerator{client: client},
		Mirror:    mirror,
		Metrics:   metrics.NewGenerationMetrics(registry),
		Rand:      rand.New(rand.NewPCG(seed, seed>>1|1)),
	})
	if err != nil {
		logg.Error(ctx, "failed to prepare image generation", err)
		os.Exit(1)
	}

	runner, err := pipeline.NewRunner(pipeline.RunnerParams{
		Logger:   logg,
		Registry: pipeline.NewRegistry(job.stages()...),
		Metrics:  metrics.NewStageMetrics(registry),
	})
	if err != nil {
		logg.Error(ctx, "failed to create pipeline runner", err)
		os.Exit(1)
	}

	runErr := runner.Run(ctx)
	if err := metrics.WriteTextfile(registry, cfg.Metrics.TextfilePath); err != nil {
		logg.Warn(logg.WithField(ctx, "error", err.Error()), "failed to flush metrics")
	}
	if runErr != nil {
		logg.Error(ctx, "image generation failed", runErr)
		stop()
		os.Exit(1)
	}
}
