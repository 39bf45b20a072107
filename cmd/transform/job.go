package main

import (
	"context"
	"io"
	"math/rand/v2"
	"time"

	"github.com/angelmondragon/retailpipe/internal/catalog"
	"github.com/angelmondragon/retailpipe/internal/export"
	"github.com/angelmondragon/retailpipe/internal/normalize"
	"github.com/angelmondragon/retailpipe/internal/pipeline"
	"github.com/angelmondragon/retailpipe/internal/records"
	"github.com/angelmondragon/retailpipe/internal/source"
	"github.com/angelmondragon/retailpipe/internal/transactions"
	"github.com/angelmondragon/retailpipe/pkg/config"
	pkgerrors "github.com/angelmondragon/retailpipe/pkg/errors"
	"github.com/angelmondragon/retailpipe/pkg/logger"
)

// transformJob carries state between the transform stages.
type transformJob struct {
	cfg      *config.Config
	logg     *logger.Logger
	builder  *catalog.Builder
	grouper  *transactions.Grouper
	rows     []records.RawRow
	products []records.ProductRecord
	txns     []records.TransactionRecord
}

func newTransformJob(cfg *config.Config, logg *logger.Logger, rng *rand.Rand, now func() time.Time) (*transformJob, error) {
	categories := normalize.DefaultCategoryTable()
	if cfg.Paths.CategoryTablePath != "" {
		table, err := normalize.LoadCategoryTable(cfg.Paths.CategoryTablePath)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeEnvironment, err, "load category table")
		}
		categories = table
	}
	builder, err := catalog.NewBuilder(catalog.BuilderParams{
		Categories: categories,
		TopN:       cfg.Catalog.TopN,
		Rand:       rng,
		Now:        now,
	})
	if err != nil {
		return nil, err
	}
	grouper, err := transactions.NewGrouper(transactions.GrouperParams{
		TaxRate: cfg.Catalog.Tax(),
		Rand:    rng,
		Now:     now,
	})
	if err != nil {
		return nil, err
	}
	return &transformJob{cfg: cfg, logg: logg, builder: builder, grouper: grouper}, nil
}

func (j *transformJob) stages() []pipeline.Stage {
	return []pipeline.Stage{
		pipeline.NewStage("read_source", j.readSource),
		pipeline.NewStage("build_catalog", j.buildCatalog),
		pipeline.NewStage("group_transactions", j.groupTransactions),
		pipeline.NewStage("validate", j.validate),
		pipeline.NewStage("export", j.export),
	}
}

func (j *transformJob) readSource(ctx context.Context) error {
	rows, stats, err := source.Load(ctx, j.cfg.Paths.InputPath)
	if err != nil {
		return err
	}
	j.rows = rows
	j.logg.Info(j.logg.WithFields(ctx, map[string]any{
		"path":    j.cfg.Paths.InputPath,
		"rows":    stats.Rows,
		"skipped": stats.Skipped,
	}), "source dataset read")
	return nil
}

func (j *transformJob) buildCatalog(ctx context.Context) error {
	j.products = j.builder.Build(j.rows)
	summary := catalog.Summarize(j.products)
	j.logg.Info(j.logg.WithFields(ctx, map[string]any{
		"products":   summary.Products,
		"categories": summary.Categories,
		"low_stock":  summary.LowStock,
		"healthy":    summary.Healthy,
	}), "catalog built")
	return nil
}

func (j *transformJob) groupTransactions(ctx context.Context) error {
	grouped, stats := j.grouper.Group(j.rows, j.products)
	repaired, dropped := j.grouper.Repair(grouped)
	selected, sel := transactions.Select(repaired)
	j.txns = selected
	j.logg.Info(j.logg.WithFields(ctx, map[string]any{
		"ineligible":     stats.Ineligible,
		"orders":         stats.Orders,
		"returns":        stats.Returns,
		"bad_timestamps": stats.BadTimestamps,
		"folded":         stats.Folded,
		"repair_dropped": dropped,
		"small":          sel.Small,
		"medium":         sel.Medium,
		"large":          sel.Large,
	}), "transactions grouped")
	return nil
}

func (j *transformJob) validate(context.Context) error {
	if err := records.ValidateCatalog(j.products); err != nil {
		return err
	}
	return records.ValidateTransactions(j.txns)
}

func (j *transformJob) export(ctx context.Context) error {
	outputs := []struct {
		name   string
		render func(io.Writer) error
	}{
		{export.CatalogCSVFile, func(w io.Writer) error { return export.WriteCatalogCSV(w, j.products) }},
		{export.ProductsJSONFile, func(w io.Writer) error { return export.WriteJSON(w, j.products) }},
		{export.TransactionsCSVFile, func(w io.Writer) error { return export.WriteTransactionsCSV(w, j.txns) }},
		{export.TransactionsJSONFile, func(w io.Writer) error { return export.WriteJSON(w, j.txns) }},
	}
	for _, out := range outputs {
		path := j.cfg.Paths.Output(out.name)
		if err := export.WriteFile(path, out.render); err != nil {
			return err
		}
		j.logg.Debug(j.logg.WithField(ctx, "path", path), "export written")
	}
	j.logg.Info(j.logg.WithFields(ctx, map[string]any{
		"output_dir":   j.cfg.Paths.OutputDir,
		"products":     len(j.products),
		"transactions": len(j.txns),
	}), "exports written")
	return nil
}
