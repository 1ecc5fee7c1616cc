// Package id issues trade and fill identifiers. Identifiers are ULIDs, so
// records sorted by id come out in issue order and the journal's SQLite
// primary key index stays append friendly.
package id

import (
	"crypto/rand"
	"io"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// Generator issues ULID strings from a single entropy stream. The zero value
// is not usable; construct with NewGenerator.
type Generator struct {
	mu      sync.Mutex
	now     func() time.Time
	entropy io.Reader
}

// NewGenerator returns a Generator backed by crypto/rand. The monotonic
// wrapper keeps ids issued within the same millisecond strictly increasing.
func NewGenerator() *Generator {
	return &Generator{
		now:     time.Now,
		entropy: ulid.Monotonic(rand.Reader, 0),
	}
}

// Next issues one identifier.
func (g *Generator) Next() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(g.now().UTC()), g.entropy).String()
}

var defaultGen = NewGenerator()

// New issues an identifier from the shared process-wide generator.
func New() string { return defaultGen.Next() }
