// Package ticketid issues the public identifiers shown to citizens.
//
// An identifier is the prefix "RHT", the last six digits of the current Unix
// millisecond clock and four random uppercase alphanumerics, e.g. RHT482913K7QZ.
// Uniqueness is probabilistic; storage enforces it and callers retry on collision.
package ticketid

import (
	"crypto/rand"
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"
)

const (
	Prefix       = "RHT"
	clockDigits  = 6
	randomLength = 4
	alphabet     = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	// Bytes at or above this bound are discarded so every symbol is equally likely.
	unbiasedBound = 256 - 256%len(alphabet)
)

var pattern = regexp.MustCompile(`^RHT\d{6}[A-Z0-9]{4}$`)

// Generator produces ticket identifiers.
type Generator interface {
	Generate() (string, error)
}

// RandomGenerator is the default Generator.
type RandomGenerator struct {
	now     func() time.Time
	entropy io.Reader
}

// Option customizes a RandomGenerator.
type Option func(*RandomGenerator)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(g *RandomGenerator) { g.now = now }
}

// WithEntropy overrides the random source.
func WithEntropy(r io.Reader) Option {
	return func(g *RandomGenerator) { g.entropy = r }
}

// New builds a generator backed by the wall clock and crypto/rand.
func New(opts ...Option) *RandomGenerator {
	g := &RandomGenerator{now: time.Now, entropy: rand.Reader}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate returns a fresh identifier.
func (g *RandomGenerator) Generate() (string, error) {
	millis := g.now().UnixMilli() % 1_000_000
	if millis < 0 {
		millis = -millis
	}

	buf := make([]byte, 0, randomLength)
	chunk := make([]byte, randomLength)
	for len(buf) < randomLength {
		if _, err := io.ReadFull(g.entropy, chunk); err != nil {
			return "", fmt.Errorf("read entropy: %w", err)
		}
		for _, b := range chunk {
			if int(b) >= unbiasedBound || len(buf) == randomLength {
				continue
			}
			buf = append(buf, alphabet[int(b)%len(alphabet)])
		}
	}

	return fmt.Sprintf("%s%0*d%s", Prefix, clockDigits, millis, buf), nil
}

// Normalize trims and uppercases caller input before lookup.
func Normalize(raw string) string {
	return strings.ToUpper(strings.TrimSpace(raw))
}

// Valid reports whether id has the issued shape.
func Valid(id string) bool {
	return pattern.MatchString(id)
}
