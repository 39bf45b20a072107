package main

import (
	"context"
	"fmt"

	"go.uber.org/multierr"

	"github.com/angelmondragon/retailpipe/internal/loader"
	"github.com/angelmondragon/retailpipe/pkg/bigquery"
	"github.com/angelmondragon/retailpipe/pkg/config"
	"github.com/angelmondragon/retailpipe/pkg/db"
	"github.com/angelmondragon/retailpipe/pkg/logger"
	"github.com/angelmondragon/retailpipe/pkg/redis"
)

// openSinks connects every configured sink. On failure the sinks opened so
// far are closed.
func openSinks(ctx context.Context, cfg *config.Config, logg *logger.Logger) (sinks []loader.Sink, err error) {
	defer func() {
		if err == nil {
			return
		}
		for _, sink := range sinks {
			err = multierr.Append(err, sink.Close())
		}
		sinks = nil
	}()

	if cfg.Redis.Enabled() {
		client, err := redis.New(ctx, cfg.Redis, logg)
		if err != nil {
			return sinks, fmt.Errorf("bootstrap redis: %w", err)
		}
		sinks = append(sinks, loader.NewRedisSink(client))
	}

	if cfg.DB.Enabled() {
		client, err := db.New(ctx, cfg.DB, logg)
		if err != nil {
			return sinks, fmt.Errorf("bootstrap database: %w", err)
		}
		sink, err := loader.NewSQLSink(ctx, client)
		if err != nil {
			return sinks, multierr.Append(fmt.Errorf("prepare sql sink: %w", err), client.Close())
		}
		sinks = append(sinks, sink)
	}

	if cfg.BigQuery.Enabled() {
		client, err := bigquery.NewClient(ctx, cfg.BigQuery, logg)
		if err != nil {
			return sinks, fmt.Errorf("bootstrap bigquery: %w", err)
		}
		sink, err := loader.NewWarehouseSink(client, loader.WarehouseConfig{
			ProductsTable:     cfg.BigQuery.ProductsTable,
			TransactionsTable: cfg.BigQuery.TransactionsTable,
		})
		if err != nil {
			return sinks, multierr.Append(fmt.Errorf("prepare warehouse sink: %w", err), client.Close())
		}
		if err := sink.Prepare(ctx); err != nil {
			return sinks, multierr.Append(fmt.Errorf("prepare warehouse tables: %w", err), sink.Close())
		}
		sinks = append(sinks, sink)
	}

	return sinks, nil
}
