package engine

import "math/rand/v2"

// Rand is the source of randomness used for ingredient picks.
// *rand.Rand from math/rand/v2 satisfies it.
type Rand interface {
	IntN(n int) int
}

// NewSeededRand returns a PCG-backed generator; equal seeds give equal plans
// for equal inputs.
func NewSeededRand(seed int64) *rand.Rand {
	s := uint64(seed)
	return rand.New(rand.NewPCG(s, s^0x9e3779b97f4a7c15))
}
