package marketdata

import (
	"math/rand"
	"sync"
)

// Source supplies the randomness behind the synthetic feed and generators.
// It is injected so tests can force deterministic sequences.
type Source interface {
	// Float64 returns a pseudo-random number in [0.0, 1.0)
	Float64() float64
}

// lockedSource wraps math/rand behind a mutex. The feed tick and
// registration-time history generation can run on different goroutines.
type lockedSource struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewSource creates a seeded random source
func NewSource(seed int64) Source {
	return &lockedSource{rng: rand.New(rand.NewSource(seed))}
}

func (s *lockedSource) Float64() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Float64()
}

// uniform returns a pseudo-random number in [min, max)
func uniform(src Source, min, max float64) float64 {
	return min + src.Float64()*(max-min)
}
