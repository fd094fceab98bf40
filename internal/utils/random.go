package utils

import (
	"math/rand/v2"
	"sync"
	"time"
)

// RandomSource yields floats in [0,1).
type RandomSource interface {
	Float64() float64
}

// lockedSource makes a *rand.Rand safe for concurrent sessions.
type lockedSource struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewRandomSource returns a seeded source. A zero seed derives one from the clock.
func NewRandomSource(seed uint64) RandomSource {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return &lockedSource{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

func (s *lockedSource) Float64() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Float64()
}

// Intn maps the next draw onto [0,n). It returns 0 when n <= 0.
func Intn(src RandomSource, n int) int {
	if n <= 0 {
		return 0
	}
	i := int(src.Float64() * float64(n))
	if i >= n {
		i = n - 1
	}
	if i < 0 {
		i = 0
	}
	return i
}

// Chance reports whether the next draw falls below p.
func Chance(src RandomSource, p float64) bool {
	return src.Float64() < p
}

// Pick returns a uniformly chosen element, or the zero value for an empty slice.
func Pick[T any](src RandomSource, items []T) T {
	var zero T
	if len(items) == 0 {
		return zero
	}
	return items[Intn(src, len(items))]
}

// SequenceSource replays fixed values in order and wraps around. Useful for deterministic runs.
type SequenceSource struct {
	mu     sync.Mutex
	values []float64
	next   int
}

// NewSequenceSource returns a source replaying values.
func NewSequenceSource(values ...float64) *SequenceSource {
	return &SequenceSource{values: values}
}

func (s *SequenceSource) Float64() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.values) == 0 {
		return 0
	}
	v := s.values[s.next%len(s.values)]
	s.next++
	return v
}
