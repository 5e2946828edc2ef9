package binning

import (
	"math/rand/v2"
	"sync"
	"time"
)

// RandomSource yields values in [0, 1). It feeds the bad-rate jitter.
type RandomSource interface {
	Float64() float64
}

type lockedSource struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewRandomSource seeds a PCG generator. Seed 0 means seed from the clock.
func NewRandomSource(seed int64) RandomSource {
	s := uint64(seed)
	if seed == 0 {
		s = uint64(time.Now().UnixNano())
	}
	return &lockedSource{rng: rand.New(rand.NewPCG(s, s^0x9e3779b97f4a7c15))}
}

func (l *lockedSource) Float64() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.rng.Float64()
}

// FixedSource always returns the same value. 0.5 means zero jitter.
type FixedSource float64

func (f FixedSource) Float64() float64 {
	return float64(f)
}
