package payments

import (
	"regexp"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var trackingPattern = regexp.MustCompile(`^\d{13}-\d{4}$`)

func TestGenerateFormat(t *testing.T) {
	gen := NewTrackingGenerator()
	for i := 0; i < 100; i++ {
		id := gen.Generate()
		assert.Regexp(t, trackingPattern, id)

		suffix, err := strconv.Atoi(strings.SplitN(id, "-", 2)[1])
		require.NoError(t, err)
		assert.GreaterOrEqual(t, suffix, 1000)
		assert.LessOrEqual(t, suffix, 9999)
	}
}

func TestGenerateUsesClock(t *testing.T) {
	gen := &TrackingGenerator{
		nowFunc: func() time.Time { return time.UnixMilli(1700000000000) },
		randInt: func(n int) int { return 0 },
	}
	assert.Equal(t, "1700000000000-1000", gen.Generate())
}

func TestGenerateUnique(t *testing.T) {
	ms := int64(1700000000000)
	gen := &TrackingGenerator{
		nowFunc: func() time.Time {
			ms++
			return time.UnixMilli(ms)
		},
		randInt: func(n int) int { return 42 },
	}

	seen := make(map[string]struct{}, 10000)
	for i := 0; i < 10000; i++ {
		id := gen.Generate()
		_, dup := seen[id]
		require.False(t, dup, "duplicate tracking id %q", id)
		seen[id] = struct{}{}
	}
}
