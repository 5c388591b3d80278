package simulator

import "math/rand"

// newTestRNG returns a deterministic source so distribution tests don't flake.
func newTestRNG() *rand.Rand {
	return rand.New(rand.NewSource(42))
}
