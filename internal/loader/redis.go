package loader

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/angelmondragon/retailpipe/internal/records"
)

type documentStore interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	AddToSet(ctx context.Context, key string, members ...string) error
	ProductKey(key string) string
	TransactionKey(id string) string
	ProductIndexKey() string
	TransactionIndexKey() string
	Close() error
}

// RedisSink stores each record as a JSON document and indexes its key.
type RedisSink struct {
	store documentStore
}

// NewRedisSink wraps a connected redis client.
func NewRedisSink(store documentStore) *RedisSink {
	return &RedisSink{store: store}
}

func (s *RedisSink) Name() string { return "redis" }

func (s *RedisSink) LoadProducts(ctx context.Context, products []records.ProductRecord) error {
	keys := make([]string, 0, len(products))
	for _, p := range products {
		if err := s.put(ctx, s.store.ProductKey(p.Key), p); err != nil {
			return err
		}
		keys = append(keys, p.Key)
	}
	return s.store.AddToSet(ctx, s.store.ProductIndexKey(), keys...)
}

func (s *RedisSink) LoadTransactions(ctx context.Context, txns []records.TransactionRecord) error {
	ids := make([]string, 0, len(txns))
	for _, t := range txns {
		if err := s.put(ctx, s.store.TransactionKey(t.TransactionID), t); err != nil {
			return err
		}
		ids = append(ids, t.TransactionID)
	}
	return s.store.AddToSet(ctx, s.store.TransactionIndexKey(), ids...)
}

func (s *RedisSink) put(ctx context.Context, key string, doc any) error {
	payload, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := s.store.Set(ctx, key, payload, 0); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

func (s *RedisSink) Close() error { return s.store.Close() }
