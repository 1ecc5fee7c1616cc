package id

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerator(t *testing.T) {
	t.Run("ids are 26 chars and unique", func(t *testing.T) {
		g := NewGenerator()
		seen := make(map[string]bool)
		for i := 0; i < 100; i++ {
			s := g.Next()
			require.Len(t, s, 26)
			require.False(t, seen[s])
			seen[s] = true
		}
	})

	t.Run("same-millisecond ids stay sorted", func(t *testing.T) {
		g := NewGenerator()
		fixed := time.Unix(1700000000, 0)
		g.now = func() time.Time { return fixed }

		prev := g.Next()
		for i := 0; i < 50; i++ {
			next := g.Next()
			assert.Less(t, prev, next)
			prev = next
		}
	})
}

func TestNew(t *testing.T) {
	assert.Len(t, New(), 26)
}
