package pipeline

import "context"

// Stage is one step of a batch run.
type Stage interface {
	Name() string
	Run(ctx context.Context) error
}

// StageFunc adapts a function into a Stage.
type StageFunc struct {
	StageName string
	Fn        func(ctx context.Context) error
}

func (s StageFunc) Name() string { return s.StageName }

func (s StageFunc) Run(ctx context.Context) error { return s.Fn(ctx) }

// NewStage builds a StageFunc.
func NewStage(name string, fn func(ctx context.Context) error) Stage {
	return StageFunc{StageName: name, Fn: fn}
}

// Registry tracks stages in execution order.
type Registry struct {
	stages []Stage
}

// NewRegistry builds a registry preloaded with the provided stages.
func NewRegistry(stages ...Stage) *Registry {
	registry := &Registry{}
	for _, stage := range stages {
		registry.Register(stage)
	}
	return registry
}

// Register appends a stage. Nil stages are ignored.
func (r *Registry) Register(stage Stage) {
	if stage == nil {
		return
	}
	r.stages = append(r.stages, stage)
}

// Stages returns the registered stages in the order they were added.
func (r *Registry) Stages() []Stage {
	stages := make([]Stage, len(r.stages))
	copy(stages, r.stages)
	return stages
}
