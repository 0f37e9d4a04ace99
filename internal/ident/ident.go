// Package ident mints identifiers that are unique across users,
// conversations and messages.
package ident

import (
	"crypto/rand"
	"io"
	"os"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

// InUseFunc reports whether an identifier is already taken by any entity.
type InUseFunc func(id uuid.UUID) bool

// Generator produces UUIDv7 candidates whose random tail is mixed with a
// per-server seed. It is safe for concurrent use.
type Generator struct {
	mu   sync.Mutex
	seed uuid.UUID
	rand io.Reader
}

// NewGenerator returns a generator drawing randomness from crypto/rand.
func NewGenerator(seed uuid.UUID) *Generator {
	return NewGeneratorFromReader(seed, rand.Reader)
}

// NewGeneratorFromReader returns a generator drawing randomness from r.
func NewGeneratorFromReader(seed uuid.UUID, r io.Reader) *Generator {
	return &Generator{seed: seed, rand: r}
}

// Seed returns the server seed the generator mixes into every identifier.
func (g *Generator) Seed() uuid.UUID {
	return g.seed
}

// Make returns a single candidate. It does not check for collisions.
func (g *Generator) Make() uuid.UUID {
	g.mu.Lock()
	defer g.mu.Unlock()

	id, err := uuid.NewV7FromReader(g.rand)
	if err != nil {
		log.Warn("Identifier source failed, falling back to crypto/rand", "err", err)
		id = uuid.Must(uuid.NewV7())
	}
	// Bytes 9..15 are random in a v7 layout; byte 8 carries the variant.
	for i := 9; i < len(id); i++ {
		id[i] ^= g.seed[i]
	}
	return id
}

// Generate draws candidates until one is neither uuid.Nil nor in use.
func (g *Generator) Generate(inUse InUseFunc) uuid.UUID {
	for {
		id := g.Make()
		if id == uuid.Nil {
			continue
		}
		if inUse != nil && inUse(id) {
			log.Warn("Identifier collision, redrawing", "id", id)
			continue
		}
		return id
	}
}

// SeedFromString turns a configured server id into a seed. A valid UUID is
// used as-is; any other value is hashed. An empty value uses the hostname.
func SeedFromString(s string) uuid.UUID {
	if s == "" {
		host, err := os.Hostname()
		if err != nil {
			host = "localhost"
		}
		s = host
	}
	if id, err := uuid.Parse(s); err == nil {
		return id
	}
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(s))
}
