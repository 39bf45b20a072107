package loader

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"

	"github.com/angelmondragon/retailpipe/internal/records"
	"github.com/angelmondragon/retailpipe/pkg/logger"
)

// Sink receives the validated document exports.
type Sink interface {
	Name() string
	LoadProducts(ctx context.Context, products []records.ProductRecord) error
	LoadTransactions(ctx context.Context, txns []records.TransactionRecord) error
	Close() error
}

// Params configure the loader.
type Params struct {
	Logger *logger.Logger
	Sinks  []Sink
}

// Loader fans validated documents out to every configured sink.
type Loader struct {
	logg  *logger.Logger
	sinks []Sink
}

// New builds a Loader. Nil sinks are ignored.
func New(params Params) (*Loader, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	sinks := make([]Sink, 0, len(params.Sinks))
	for _, sink := range params.Sinks {
		if sink != nil {
			sinks = append(sinks, sink)
		}
	}
	return &Loader{logg: params.Logger, sinks: sinks}, nil
}

// Sinks reports how many sinks are configured.
func (l *Loader) Sinks() int { return len(l.sinks) }

// Load validates the documents and writes them to each sink. Validation
// failures abort before any sink is touched; a failing sink does not stop
// the others and its error is included in the combined result.
func (l *Loader) Load(ctx context.Context, products []records.ProductRecord, txns []records.TransactionRecord) error {
	if err := records.ValidateCatalog(products); err != nil {
		return err
	}
	if err := records.ValidateTransactions(txns); err != nil {
		return err
	}

	var result error
	for _, sink := range l.sinks {
		if err := ctx.Err(); err != nil {
			return multierr.Append(result, err)
		}
		sinkCtx := l.logg.WithField(ctx, "sink", sink.Name())
		start := time.Now()
		if err := l.loadSink(sinkCtx, sink, products, txns); err != nil {
			l.logg.Error(sinkCtx, "sink load failed", err)
			result = multierr.Append(result, fmt.Errorf("%s: %w", sink.Name(), err))
			continue
		}
		l.logg.Info(l.logg.WithFields(sinkCtx, map[string]any{
			"products":     len(products),
			"transactions": len(txns),
			"duration_ms":  time.Since(start).Milliseconds(),
		}), "sink load complete")
	}
	return result
}

func (l *Loader) loadSink(ctx context.Context, sink Sink, products []records.ProductRecord, txns []records.TransactionRecord) error {
	if err := sink.LoadProducts(ctx, products); err != nil {
		return fmt.Errorf("load products: %w", err)
	}
	if err := sink.LoadTransactions(ctx, txns); err != nil {
		return fmt.Errorf("load transactions: %w", err)
	}
	return nil
}

// Close releases every sink and combines their errors.
func (l *Loader) Close() error {
	var err error
	for _, sink := range l.sinks {
		err = multierr.Append(err, sink.Close())
	}
	return err
}
