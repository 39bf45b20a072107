package imagegen

import (
	"fmt"

	"github.com/angelmondragon/retailpipe/pkg/enums"
	pkgerrors "github.com/angelmondragon/retailpipe/pkg/errors"
)

var transitions = map[enums.GenerationState][]enums.GenerationState{
	enums.GenerationStatePending:    {enums.GenerationStateSkipped, enums.GenerationStateGenerating, enums.GenerationStateFailed},
	enums.GenerationStateGenerating: {enums.GenerationStateSucceeded, enums.GenerationStateRetrying, enums.GenerationStateFailed},
	enums.GenerationStateRetrying:   {enums.GenerationStateGenerating, enums.GenerationStateFailed},
}

// Attempt tracks one product through the generation state machine. It only
// lives for the duration of a run.
type Attempt struct {
	ProductKey string
	Prompt     string
	Calls      int
	State      enums.GenerationState
	Outcome    enums.GenerationOutcome
	Err        error
}

func newAttempt(key string) *Attempt {
	return &Attempt{ProductKey: key, State: enums.GenerationStatePending}
}

// advance moves to the given state, rejecting edges the machine does not have.
func (a *Attempt) advance(to enums.GenerationState) error {
	for _, allowed := range transitions[a.State] {
		if allowed == to {
			a.State = to
			return nil
		}
	}
	return fmt.Errorf("invalid generation transition %s -> %s", a.State, to)
}

// Classify maps a generation call error onto an outcome.
func Classify(err error) enums.GenerationOutcome {
	switch {
	case err == nil:
		return enums.GenerationOutcomeSuccess
	case pkgerrors.IsRetryable(err):
		return enums.GenerationOutcomeThrottled
	default:
		return enums.GenerationOutcomeFailed
	}
}

// NextState is the transition taken from GENERATING after a call with the
// given outcome. calls counts the calls made so far for the product.
func NextState(outcome enums.GenerationOutcome, calls, maxAttempts int) enums.GenerationState {
	switch outcome {
	case enums.GenerationOutcomeSuccess:
		return enums.GenerationStateSucceeded
	case enums.GenerationOutcomeThrottled:
		if calls < maxAttempts {
			return enums.GenerationStateRetrying
		}
		return enums.GenerationStateFailed
	default:
		return enums.GenerationStateFailed
	}
}
