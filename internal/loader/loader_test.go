package loader

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/multierr"

	"github.com/angelmondragon/retailpipe/internal/records"
	pkgerrors "github.com/angelmondragon/retailpipe/pkg/errors"
	"github.com/angelmondragon/retailpipe/pkg/logger"
)

type fakeSink struct {
	name         string
	productErr   error
	closeErr     error
	products     int
	transactions int
	closed       bool
}

func (f *fakeSink) Name() string { return f.name }

func (f *fakeSink) LoadProducts(_ context.Context, products []records.ProductRecord) error {
	if f.productErr != nil {
		return f.productErr
	}
	f.products += len(products)
	return nil
}

func (f *fakeSink) LoadTransactions(_ context.Context, txns []records.TransactionRecord) error {
	f.transactions += len(txns)
	return nil
}

func (f *fakeSink) Close() error {
	f.closed = true
	return f.closeErr
}

func newTestLoader(t *testing.T, sinks ...Sink) (*Loader, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	l, err := New(Params{
		Logger: logger.New(logger.Options{ServiceName: "loader-test", Output: &buf}),
		Sinks:  sinks,
	})
	if err != nil {
		t.Fatalf("construct loader: %v", err)
	}
	return l, &buf
}

func TestLoadWritesEverySink(t *testing.T) {
	first := &fakeSink{name: "first"}
	second := &fakeSink{name: "second"}
	l, buf := newTestLoader(t, first, nil, second)
	if l.Sinks() != 2 {
		t.Fatalf("expected nil sinks dropped, got %d", l.Sinks())
	}

	if err := l.Load(context.Background(), fixtureProducts(), fixtureTransactions()); err != nil {
		t.Fatalf("load: %v", err)
	}
	for _, sink := range []*fakeSink{first, second} {
		if sink.products != 2 || sink.transactions != 1 {
			t.Fatalf("sink %s got %d products %d transactions", sink.name, sink.products, sink.transactions)
		}
	}
	if !strings.Contains(buf.String(), `"sink":"second"`) {
		t.Fatalf("expected sink field in logs: %s", buf.String())
	}
}

func TestLoadRejectsInvalidDocumentsBeforeSinks(t *testing.T) {
	sink := &fakeSink{name: "only"}
	l, _ := newTestLoader(t, sink)

	products := fixtureProducts()
	products[1].Key = products[0].Key
	err := l.Load(context.Background(), products, fixtureTransactions())
	if pkgerrors.CodeOf(err) != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}

	txns := fixtureTransactions()
	txns[0].TotalMinor++
	err = l.Load(context.Background(), fixtureProducts(), txns)
	if pkgerrors.CodeOf(err) != pkgerrors.CodeValidation {
		t.Fatalf("expected totals validation error, got %v", err)
	}
	if sink.products != 0 || sink.transactions != 0 {
		t.Fatal("sink must not be touched when validation fails")
	}
}

func TestLoadContinuesPastFailingSink(t *testing.T) {
	cause := errors.New("connection refused")
	broken := &fakeSink{name: "broken", productErr: cause}
	healthy := &fakeSink{name: "healthy"}
	l, _ := newTestLoader(t, broken, healthy)

	err := l.Load(context.Background(), fixtureProducts(), fixtureTransactions())
	if !errors.Is(err, cause) {
		t.Fatalf("expected sink error, got %v", err)
	}
	if !strings.Contains(err.Error(), "broken: load products") {
		t.Fatalf("expected sink name in error, got %v", err)
	}
	if broken.transactions != 0 {
		t.Fatal("failing sink should stop after its first error")
	}
	if healthy.products != 2 || healthy.transactions != 1 {
		t.Fatal("healthy sink should still be loaded")
	}
}

func TestCloseCombinesErrors(t *testing.T) {
	a := &fakeSink{name: "a", closeErr: errors.New("a close")}
	b := &fakeSink{name: "b"}
	c := &fakeSink{name: "c", closeErr: errors.New("c close")}
	l, _ := newTestLoader(t, a, b, c)

	err := l.Close()
	if got := len(multierr.Errors(err)); got != 2 {
		t.Fatalf("expected 2 combined errors, got %d (%v)", got, err)
	}
	if !a.closed || !b.closed || !c.closed {
		t.Fatal("every sink must be closed")
	}
}

func TestNewRequiresLogger(t *testing.T) {
	if _, err := New(Params{}); err == nil {
		t.Fatal("expected missing logger error")
	}
}
