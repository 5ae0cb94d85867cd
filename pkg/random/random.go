// Package random produces reproducible instants and durations for
// property checks over calendars.
package random

import (
	"math/rand"
	"time"
)

// Generator wraps a seeded source. It is not safe for concurrent use.
type Generator struct {
	rng *rand.Rand
}

// New creates a generator with a fixed seed
func New(seed int64) *Generator {
	return &Generator{rng: rand.New(rand.NewSource(seed))}
}

// Duration returns a duration in [0, max] rounded down to step.
// A non-positive step means nanosecond resolution.
func (g *Generator) Duration(max, step time.Duration) time.Duration {
	if max <= 0 {
		return 0
	}
	if step <= 0 {
		step = 1
	}
	steps := int64(max / step)
	return time.Duration(g.rng.Int63n(steps+1)) * step
}

// Instant returns an instant in [from, from+span] rounded down to step
func (g *Generator) Instant(from time.Time, span, step time.Duration) time.Time {
	return from.Add(g.Duration(span, step))
}

// Ordered returns two instants a <= b within [from, from+span]
func (g *Generator) Ordered(from time.Time, span, step time.Duration) (time.Time, time.Time) {
	a := g.Instant(from, span, step)
	b := g.Instant(from, span, step)
	if b.Before(a) {
		a, b = b, a
	}
	return a, b
}

// Pick returns a random index in [0, n)
func (g *Generator) Pick(n int) int {
	if n <= 0 {
		return 0
	}
	return g.rng.Intn(n)
}

// SelectRandomItems selects n distinct random indices out of totalCount
func (g *Generator) SelectRandomItems(totalCount, n int) []int {
	if n <= 0 || totalCount <= 0 {
		return []int{}
	}

	allIndices := make([]int, totalCount)
	for i := range allIndices {
		allIndices[i] = i
	}

	if n >= totalCount {
		return allIndices
	}

	// Fisher-Yates
	for i := len(allIndices) - 1; i > 0; i-- {
		j := g.rng.Intn(i + 1)
		allIndices[i], allIndices[j] = allIndices[j], allIndices[i]
	}

	return allIndices[:n]
}
