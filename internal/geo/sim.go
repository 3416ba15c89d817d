package geo

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"time"
)

// SimSource is a simulated position source: a random walk from a starting
// coordinate, emitting one reading per interval. It backs the client's demo
// mode and doubles as a deterministic source in tests when seeded.
type SimSource struct {
	mu       sync.Mutex
	watching bool

	lat      float64
	lng      float64
	interval time.Duration
	rng      *rand.Rand

	// failures are injected ahead of the stream: each Watch drains them
	// first, then settles into readings. Tests use this to exercise the
	// sync core's failure suppression.
	failures []Failure
}

// NewSimSource returns a simulator walking from (lat, lng), emitting one
// sample per interval. seed fixes the walk for reproducible tests.
func NewSimSource(lat, lng float64, interval time.Duration, seed int64) *SimSource {
	return &SimSource{
		lat:      lat,
		lng:      lng,
		interval: interval,
		rng:      rand.New(rand.NewSource(seed)),
	}
}

// InjectFailures queues failures to be emitted before any reading on the next
// Watch. Must be called before Watch.
func (s *SimSource) InjectFailures(failures ...Failure) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures = append(s.failures, failures...)
}

// Watch starts the simulated sensor. Only one watch may be active at a time,
// mirroring the single-device-subscription contract of real sources.
func (s *SimSource) Watch(ctx context.Context) (<-chan Update, error) {
	s.mu.Lock()
	if s.watching {
		s.mu.Unlock()
		return nil, errors.New("geo: source already being watched")
	}
	s.watching = true
	pending := s.failures
	s.failures = nil
	s.mu.Unlock()

	out := make(chan Update)
	go func() {
		defer close(out)
		defer func() {
			s.mu.Lock()
			s.watching = false
			s.mu.Unlock()
		}()

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			var u Update
			if len(pending) > 0 {
				f := pending[0]
				pending = pending[1:]
				u = Update{Failure: &f}
			} else {
				u = Update{Reading: s.step()}
			}

			select {
			case out <- u:
			case <-ctx.Done():
				return
			}

			select {
			case <-ticker.C:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

// step advances the random walk by up to ±0.0005 degrees per axis, roughly a
// city block, and picks a plausible walking-to-driving speed.
func (s *SimSource) step() *Reading {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lat += (s.rng.Float64() - 0.5) * 0.0005
	s.lng += (s.rng.Float64() - 0.5) * 0.0005
	return &Reading{
		Lat:       s.lat,
		Lng:       s.lng,
		Speed:     s.rng.Float64() * 15,
		Timestamp: time.Now(),
	}
}
