// Package id provides prefixed ULID generation for store-owned entities.
//
// IDs are lexicographically sortable by creation time and are never reused:
// the generator draws from monotonic entropy, so two IDs minted within the
// same millisecond still compare in creation order.
package id

import (
	"crypto/rand"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// ============================================================================
// Type-Safe ID Wrappers
// ============================================================================

// CardID identifies a context card
type CardID string

// NotificationID identifies a toast notification
type NotificationID string

// ProgressID identifies a progress indicator
type ProgressID string

// ItemID identifies an item inside a carousel group
type ItemID string

// ============================================================================
// ID Prefixes
// ============================================================================

const (
	CardPrefix         = "card"
	NotificationPrefix = "ntf"
	ProgressPrefix     = "prg"
	ItemPrefix         = "item"
)

// ============================================================================
// ULID Generator
// ============================================================================

// Generator generates ULIDs with optional prefixes
type Generator struct {
	mu      sync.Mutex
	entropy io.Reader
	now     func() time.Time
}

var (
	defaultGenerator *Generator
	once             sync.Once
)

// Default returns the process-wide generator
func Default() *Generator {
	once.Do(func() {
		defaultGenerator = NewGenerator()
	})
	return defaultGenerator
}

// NewGenerator creates a generator backed by crypto/rand with monotonic ordering
func NewGenerator() *Generator {
	return NewGeneratorWithEntropy(rand.Reader)
}

// NewGeneratorWithEntropy creates a generator with a custom entropy source.
// Useful for testing with deterministic entropy.
func NewGeneratorWithEntropy(entropy io.Reader) *Generator {
	return &Generator{
		entropy: ulid.Monotonic(entropy, 0),
		now:     time.Now,
	}
}

// Generate creates a new ULID
func (g *Generator) Generate() ulid.ULID {
	g.mu.Lock()
	defer g.mu.Unlock()

	return ulid.MustNew(ulid.Timestamp(g.now()), g.entropy)
}

// GenerateString creates a new ULID as a string
func (g *Generator) GenerateString() string {
	return g.Generate().String()
}

// GenerateWithPrefix creates a prefixed ULID string
func (g *Generator) GenerateWithPrefix(prefix string) string {
	return fmt.Sprintf("%s_%s", prefix, g.GenerateString())
}

// ============================================================================
// Typed ID Generators
// ============================================================================

// NewCardID generates a card ID
func (g *Generator) NewCardID() CardID {
	return CardID(g.GenerateWithPrefix(CardPrefix))
}

// NewNotificationID generates a notification ID
func (g *Generator) NewNotificationID() NotificationID {
	return NotificationID(g.GenerateWithPrefix(NotificationPrefix))
}

// NewProgressID generates a progress indicator ID
func (g *Generator) NewProgressID() ProgressID {
	return ProgressID(g.GenerateWithPrefix(ProgressPrefix))
}

// NewItemID generates a carousel item ID
func (g *Generator) NewItemID() ItemID {
	return ItemID(g.GenerateWithPrefix(ItemPrefix))
}

func (id CardID) String() string         { return string(id) }
func (id NotificationID) String() string { return string(id) }
func (id ProgressID) String() string     { return string(id) }
func (id ItemID) String() string         { return string(id) }

// ============================================================================
// Parsing
// ============================================================================

// IsValid checks if an ID string is a valid ULID, with or without a prefix
func IsValid(id string) bool {
	_, err := Parse(id)
	return err == nil
}

// Parse parses a ULID string, stripping a "prefix_" if present
func Parse(id string) (ulid.ULID, error) {
	if i := strings.LastIndexByte(id, '_'); i >= 0 {
		id = id[i+1:]
	}
	return ulid.Parse(id)
}

// Timestamp extracts the creation time from an ID
func Timestamp(id string) (time.Time, error) {
	parsed, err := Parse(id)
	if err != nil {
		return time.Time{}, err
	}
	return ulid.Time(parsed.Time()), nil
}
