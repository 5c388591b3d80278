package simulator

import (
	"math/rand"
	"time"
)

// Outcome is the class of response the simulator produces for a new
// idempotency key.
type Outcome int

const (
	// OutcomeSuccess completes the submission synchronously.
	OutcomeSuccess Outcome = iota
	// OutcomeTransient rejects the attempt with a retryable failure,
	// leaving the record pending. A retry with the same key is a fresh draw.
	OutcomeTransient
	// OutcomeDelayed accepts the submission and completes it asynchronously
	// after the estimated delay.
	OutcomeDelayed
)

// Decider picks the outcome class for one submission attempt. Pluggable so
// tests can force each branch instead of relying on the distribution.
type Decider func() Outcome

// DelayFunc picks the completion delay for a delayed-success outcome.
type DelayFunc func() time.Duration

// RandomDecider draws uniformly over the three outcome classes; the rounding
// remainder of the last third lands in the delayed bucket.
func RandomDecider(rng *rand.Rand) Decider {
	return func() Outcome {
		r := rng.Float64()
		switch {
		case r < 1.0/3.0:
			return OutcomeSuccess
		case r < 2.0/3.0:
			return OutcomeTransient
		default:
			return OutcomeDelayed
		}
	}
}

// UniformDelay picks delays uniformly in [min, max].
func UniformDelay(rng *rand.Rand, min, max time.Duration) DelayFunc {
	return func() time.Duration {
		if max <= min {
			return min
		}
		return min + time.Duration(rng.Int63n(int64(max-min)+1))
	}
}
