package payments

import (
	"fmt"
	"math/rand"
	"time"
)

// TrackingGenerator produces human-shareable tracking ids of the form
// <unix-millis>-<4 digits>. The random suffix is deliberately short: the id is
// a shipping label a reader may read back over a support channel, not a
// security token, and the timestamp prefix carries most of the uniqueness.
type TrackingGenerator struct {
	nowFunc func() time.Time
	randInt func(n int) int
}

// NewTrackingGenerator returns a generator backed by the wall clock.
func NewTrackingGenerator() *TrackingGenerator {
	return &TrackingGenerator{
		nowFunc: time.Now,
		randInt: rand.Intn,
	}
}

// Generate returns a fresh tracking id. It never fails.
func (g *TrackingGenerator) Generate() string {
	suffix := 1000 + g.randInt(9000)
	return fmt.Sprintf("%d-%d", g.nowFunc().UnixMilli(), suffix)
}
