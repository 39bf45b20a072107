package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// GenerationMetrics tracks image generation calls and terminal states.
type GenerationMetrics struct {
	calls          *prometheus.CounterVec
	terminal       *prometheus.CounterVec
	backoff        prometheus.Histogram
	mirrorFailures prometheus.Counter
}

// NewGenerationMetrics registers the generation metrics on the provided registerer.
func NewGenerationMetrics(reg prometheus.Registerer) *GenerationMetrics {
	if reg == nil {
		return &GenerationMetrics{}
	}
	calls := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "retailpipe_generation_calls_total",
		Help: "Image generation API calls by outcome.",
	}, []string{"outcome"})
	terminal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "retailpipe_generation_products_total",
		Help: "Products reaching a terminal generation state.",
	}, []string{"state"})
	backoff := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "retailpipe_generation_backoff_seconds",
		Help:    "Time spent waiting before retrying a throttled call.",
		Buckets: []float64{0.5, 1, 2, 4, 8, 16, 32, 64},
	})
	mirrorFailures := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "retailpipe_generation_mirror_failures_total",
		Help: "Artifacts that could not be mirrored to object storage.",
	})
	reg.MustRegister(calls, terminal, backoff, mirrorFailures)
	return &GenerationMetrics{
		calls:          calls,
		terminal:       terminal,
		backoff:        backoff,
		mirrorFailures: mirrorFailures,
	}
}

// IncCall counts one API call with the given outcome.
func (g *GenerationMetrics) IncCall(outcome string) {
	if g == nil || g.calls == nil {
		return
	}
	g.calls.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// IncTerminal counts a product reaching the given terminal state.
func (g *GenerationMetrics) IncTerminal(state string) {
	if g == nil || g.terminal == nil {
		return
	}
	g.terminal.WithLabelValues(normalizeLabel(state)).Inc()
}

// ObserveBackoff records a retry wait.
func (g *GenerationMetrics) ObserveBackoff(wait time.Duration) {
	if g == nil || g.backoff == nil {
		return
	}
	g.backoff.Observe(wait.Seconds())
}

// IncMirrorFailure counts a failed artifact mirror upload.
func (g *GenerationMetrics) IncMirrorFailure() {
	if g == nil || g.mirrorFailures == nil {
		return
	}
	g.mirrorFailures.Inc()
}

