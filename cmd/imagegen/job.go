package main

import (
	"context"
	"io"
	"math/rand/v2"

	"github.com/angelmondragon/retailpipe/internal/export"
	"github.com/angelmondragon/retailpipe/internal/imagegen"
	"github.com/angelmondragon/retailpipe/internal/pipeline"
	"github.com/angelmondragon/retailpipe/internal/records"
	"github.com/angelmondragon/retailpipe/pkg/bedrock"
	"github.com/angelmondragon/retailpipe/pkg/config"
	"github.com/angelmondragon/retailpipe/pkg/logger"
	"github.com/angelmondragon/retailpipe/pkg/metrics"
)

// bedrockGenerator adapts the Bedrock client to the orchestrator.
type bedrockGenerator struct {
	client *bedrock.Client
}

func (g bedrockGenerator) Generate(ctx context.Context, req imagegen.Request) ([]byte, error) {
	return g.client.GenerateImage(ctx, bedrock.ImageRequest(req))
}

type jobParams struct {
	Config    *config.Config
	Logger    *logger.Logger
	Generator imagegen.Generator
	Mirror    imagegen.Mirror
	Metrics   *metrics.GenerationMetrics
	Rand      *rand.Rand
	Sleep     imagegen.Sleeper
}

// imagegenJob carries state between the image generation stages.
type imagegenJob struct {
	cfg          *config.Config
	logg         *logger.Logger
	orchestrator *imagegen.Orchestrator
	products     []records.ProductRecord
	result       imagegen.Result
}

func newImagegenJob(params jobParams) (*imagegenJob, error) {
	cfg := params.Config
	store, err := imagegen.NewArtifactStore(cfg.Paths.ImageDir(), cfg.Paths.ImageDirName)
	if err != nil {
		return nil, err
	}
	orchestrator, err := imagegen.NewOrchestrator(imagegen.Params{
		Logger:    params.Logger,
		Generator: params.Generator,
		Store:     store,
		Mirror:    params.Mirror,
		Metrics:   params.Metrics,
		Rand:      params.Rand,
		Sleep:     params.Sleep,
		Settings: imagegen.Settings{
			Width:          cfg.ImageGen.Width,
			Height:         cfg.ImageGen.Height,
			GuidanceScale:  cfg.ImageGen.GuidanceScale,
			Seed:           cfg.ImageGen.Seed,
			MaxAttempts:    cfg.ImageGen.MaxAttempts,
			InitialBackoff: cfg.ImageGen.InitialBackoff,
			RequestDelay:   cfg.ImageGen.RequestDelay,
			RequestJitter:  cfg.ImageGen.RequestJitter,
			Resume:         cfg.ImageGen.Resume,
		},
	})
	if err != nil {
		return nil, err
	}
	return &imagegenJob{cfg: cfg, logg: params.Logger, orchestrator: orchestrator}, nil
}

func (j *imagegenJob) stages() []pipeline.Stage {
	return []pipeline.Stage{
		pipeline.NewStage("read_catalog", j.readCatalog),
		pipeline.NewStage("generate_images", j.generate),
		pipeline.NewStage("export", j.export),
	}
}

func (j *imagegenJob) readCatalog(ctx context.Context) error {
	path := j.cfg.Paths.Output(export.ProductsJSONFile)
	products, err := export.ReadFile(path, export.ReadProductsJSON)
	if err != nil {
		return err
	}
	if err := records.ValidateCatalog(products); err != nil {
		return err
	}
	j.products = products
	j.logg.Info(j.logg.WithFields(ctx, map[string]any{"path": path, "products": len(products)}), "catalog read")
	return nil
}

func (j *imagegenJob) generate(ctx context.Context) error {
	result, err := j.orchestrator.Run(ctx, j.products)
	j.result = result
	summary := result.Summary
	j.logg.Info(j.logg.WithFields(ctx, map[string]any{
		"total":           summary.Total,
		"succeeded":       summary.Succeeded,
		"skipped":         summary.Skipped,
		"failed":          summary.Failed,
		"mirror_failures": summary.MirrorFailures,
		"elapsed_ms":      summary.Elapsed.Milliseconds(),
	}), "image generation summary")
	return err
}

func (j *imagegenJob) export(ctx context.Context) error {
	products := j.result.Products
	outputs := []struct {
		name   string
		render func(io.Writer) error
	}{
		{export.CatalogWithImagesCSVFile, func(w io.Writer) error { return export.WriteCatalogCSV(w, products) }},
		{export.ProductsJSONFile, func(w io.Writer) error { return export.WriteJSON(w, products) }},
	}
	for _, out := range outputs {
		if err := export.WriteFile(j.cfg.Paths.Output(out.name), out.render); err != nil {
			return err
		}
	}
	if err := export.WriteFailedKeys(j.cfg.Paths.Output(export.FailedKeysFile), j.result.Failed); err != nil {
		return err
	}
	if len(j.result.Failed) > 0 {
		j.logg.Warn(j.logg.WithFields(ctx, map[string]any{
			"failed": len(j.result.Failed),
			"path":   j.cfg.Paths.Output(export.FailedKeysFile),
		}), "some products have no image")
	}
	return nil
}
