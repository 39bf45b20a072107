package enums

// GenerationState is the per-product state of an image synthesis run.
type GenerationState string

const (
	GenerationStatePending    GenerationState = "pending"
	GenerationStateSkipped    GenerationState = "skipped"
	GenerationStateGenerating GenerationState = "generating"
	GenerationStateRetrying   GenerationState = "retrying"
	GenerationStateSucceeded  GenerationState = "succeeded"
	GenerationStateFailed     GenerationState = "failed"
)

// String implements fmt.Stringer.
func (s GenerationState) String() string {
	return string(s)
}

// IsTerminal reports whether no further transition can leave the state.
func (s GenerationState) IsTerminal() bool {
	switch s {
	case GenerationStateSkipped, GenerationStateSucceeded, GenerationStateFailed:
		return true
	default:
		return false
	}
}

// GenerationOutcome classifies the result of a single generation call.
type GenerationOutcome string

const (
	GenerationOutcomeSuccess   GenerationOutcome = "success"
	GenerationOutcomeThrottled GenerationOutcome = "throttled"
	GenerationOutcomeFailed    GenerationOutcome = "failed"
)

// String implements fmt.Stringer.
func (o GenerationOutcome) String() string {
	return string(o)
}
