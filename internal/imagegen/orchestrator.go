package imagegen

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/angelmondragon/retailpipe/internal/records"
	"github.com/angelmondragon/retailpipe/pkg/enums"
	pkgerrors "github.com/angelmondragon/retailpipe/pkg/errors"
	"github.com/angelmondragon/retailpipe/pkg/logger"
	"github.com/angelmondragon/retailpipe/pkg/metrics"
)

// Request is the client-side view of one text-to-image call.
type Request struct {
	Prompt        string
	Width         int
	Height        int
	Count         int
	GuidanceScale float64
	Seed          int64
}

// Generator issues a single generation call. Throttling must surface as a
// retryable error; anything else is treated as final for the product.
type Generator interface {
	Generate(ctx context.Context, req Request) ([]byte, error)
}

type artifactStore interface {
	Exists(key string) (bool, error)
	Save(key string, data []byte) (string, error)
	Ref(key string) string
}

// Settings tunes requests, retries and pacing.
type Settings struct {
	Width          int
	Height         int
	GuidanceScale  float64
	Seed           int64
	MaxAttempts    int
	InitialBackoff time.Duration
	RequestDelay   time.Duration
	RequestJitter  time.Duration
	Resume         bool
}

// Params wires an Orchestrator.
type Params struct {
	Logger    *logger.Logger
	Generator Generator
	Store     artifactStore
	Mirror    Mirror
	Metrics   *metrics.GenerationMetrics
	Settings  Settings
	Rand      *rand.Rand
	Sleep     Sleeper
	Now       func() time.Time
}

// Orchestrator generates one image per product, strictly one request at a time.
type Orchestrator struct {
	logg      *logger.Logger
	generator Generator
	store     artifactStore
	mirror    Mirror
	metrics   *metrics.GenerationMetrics
	settings  Settings
	rng       *rand.Rand
	sleep     Sleeper
	now       func() time.Time
}

// NewOrchestrator validates params and fills defaults for the sleeper and clock.
func NewOrchestrator(params Params) (*Orchestrator, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Generator == nil {
		return nil, fmt.Errorf("generator required")
	}
	if params.Store == nil {
		return nil, fmt.Errorf("artifact store required")
	}
	if params.Rand == nil {
		return nil, fmt.Errorf("random source required")
	}
	s := params.Settings
	if s.Width <= 0 || s.Height <= 0 {
		return nil, fmt.Errorf("image dimensions must be positive")
	}
	if s.MaxAttempts <= 0 {
		return nil, fmt.Errorf("max attempts must be positive")
	}
	o := &Orchestrator{
		logg:      params.Logger,
		generator: params.Generator,
		store:     params.Store,
		mirror:    params.Mirror,
		metrics:   params.Metrics,
		settings:  s,
		rng:       params.Rand,
		sleep:     params.Sleep,
		now:       params.Now,
	}
	if o.sleep == nil {
		o.sleep = sleep
	}
	if o.now == nil {
		o.now = time.Now
	}
	return o, nil
}

// Summary reports the terminal states of a run.
type Summary struct {
	Total          int
	Succeeded      int
	Skipped        int
	Failed         int
	MirrorFailures int
	Elapsed        time.Duration
}

// Result carries the updated catalog and the keys needing follow-up.
type Result struct {
	Products []records.ProductRecord
	Failed   []string
	Summary  Summary
}

// Run walks the catalog in order. Per-product failures are recorded and the
// run continues; environment errors and cancellation abort it. The summary
// elapsed time is set on every return.
func (o *Orchestrator) Run(ctx context.Context, products []records.ProductRecord) (result Result, err error) {
	start := o.now()
	out := make([]records.ProductRecord, len(products))
	copy(out, products)
	result = Result{Products: out, Summary: Summary{Total: len(out)}}
	defer func() {
		result.Summary.Elapsed = o.now().Sub(start)
	}()

	generated := 0
	for i := range out {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		product := &out[i]
		pctx := o.logg.WithProductKey(ctx, product.Key)
		attempt := newAttempt(product.Key)

		if err := checkKey(product.Key); err != nil {
			attempt.Err = err
			if err := attempt.advance(enums.GenerationStateFailed); err != nil {
				return result, err
			}
			o.recordFailure(pctx, attempt, &result)
			continue
		}

		if o.settings.Resume {
			exists, err := o.store.Exists(product.Key)
			if err != nil {
				return result, err
			}
			if exists {
				if err := attempt.advance(enums.GenerationStateSkipped); err != nil {
					return result, err
				}
				product.ImageRef = o.store.Ref(product.Key)
				result.Summary.Skipped++
				o.metrics.IncTerminal(attempt.State.String())
				o.logg.Info(o.stateCtx(pctx, attempt), "artifact present, skipping")
				continue
			}
		}

		if generated > 0 {
			if err := o.pace(pctx); err != nil {
				return result, err
			}
		}
		generated++

		payload, err := o.generate(pctx, product, attempt)
		if err != nil {
			return result, err
		}
		if attempt.State == enums.GenerationStateGenerating {
			next := enums.GenerationStateSucceeded
			ref, err := o.persist(pctx, product.Key, payload, &result.Summary)
			if err != nil {
				if pkgerrors.CodeOf(err) == pkgerrors.CodeEnvironment {
					return result, err
				}
				attempt.Err = err
				next = enums.GenerationStateFailed
			} else {
				product.ImageRef = ref
			}
			if err := attempt.advance(next); err != nil {
				return result, err
			}
		}

		if attempt.State == enums.GenerationStateFailed {
			o.recordFailure(pctx, attempt, &result)
			continue
		}
		o.metrics.IncTerminal(attempt.State.String())
		result.Summary.Succeeded++
		o.logg.Info(o.stateCtx(pctx, attempt), "image generated")
	}

	return result, nil
}

// generate issues calls until one succeeds, leaving the attempt in GENERATING
// with the payload, or until the attempt reaches FAILED. It returns an error
// only when the run itself must stop.
func (o *Orchestrator) generate(ctx context.Context, product *records.ProductRecord, attempt *Attempt) ([]byte, error) {
	attempt.Prompt = BuildPrompt(*product)
	req := Request{
		Prompt:        attempt.Prompt,
		Width:         o.settings.Width,
		Height:        o.settings.Height,
		Count:         1,
		GuidanceScale: o.settings.GuidanceScale,
		Seed:          o.settings.Seed,
	}

	for {
		if err := attempt.advance(enums.GenerationStateGenerating); err != nil {
			return nil, err
		}
		attempt.Calls++
		payload, err := o.generator.Generate(ctx, req)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		attempt.Outcome = Classify(err)
		attempt.Err = err
		o.metrics.IncCall(attempt.Outcome.String())

		next := NextState(attempt.Outcome, attempt.Calls, o.settings.MaxAttempts)
		if next == enums.GenerationStateSucceeded {
			return payload, nil
		}
		if err := attempt.advance(next); err != nil {
			return nil, err
		}
		if next == enums.GenerationStateFailed {
			return nil, nil
		}

		wait := retryDelay(o.rng, o.settings.InitialBackoff, attempt.Calls-1)
		o.metrics.ObserveBackoff(wait)
		wctx := o.logg.WithFields(o.stateCtx(ctx, attempt), map[string]any{"wait_ms": wait.Milliseconds()})
		o.logg.Warn(wctx, "generation throttled, backing off")
		if err := o.sleep(ctx, wait); err != nil {
			return nil, err
		}
	}
}

// persist normalizes, stores and optionally mirrors an artifact. The product
// reference is only returned once the local file is durable.
func (o *Orchestrator) persist(ctx context.Context, key string, payload []byte, summary *Summary) (string, error) {
	size := max(o.settings.Width, o.settings.Height)
	data, err := NormalizeImage(payload, size)
	if err != nil {
		return "", err
	}
	ref, err := o.store.Save(key, data)
	if err != nil {
		return "", err
	}
	if o.mirror != nil {
		if _, err := o.mirror.Upload(ctx, FileName(key), data, ArtifactContentType); err != nil {
			summary.MirrorFailures++
			o.metrics.IncMirrorFailure()
			o.logg.Warn(o.logg.WithField(ctx, "error", err.Error()), "artifact mirror failed")
		}
	}
	return ref, nil
}

func (o *Orchestrator) recordFailure(ctx context.Context, attempt *Attempt, result *Result) {
	o.metrics.IncTerminal(attempt.State.String())
	result.Summary.Failed++
	result.Failed = append(result.Failed, attempt.ProductKey)
	o.logg.Error(o.stateCtx(ctx, attempt), "image generation failed", attempt.Err)
}

func (o *Orchestrator) pace(ctx context.Context) error {
	delay := o.settings.RequestDelay + jitter(o.rng, o.settings.RequestJitter)
	if delay <= 0 {
		return nil
	}
	o.logg.Debug(o.logg.WithField(ctx, "wait_ms", delay.Milliseconds()), "pacing before next request")
	return o.sleep(ctx, delay)
}

func (o *Orchestrator) stateCtx(ctx context.Context, attempt *Attempt) context.Context {
	return o.logg.WithFields(ctx, map[string]any{
		"attempt": attempt.Calls,
		"state":   attempt.State.String(),
	})
}
