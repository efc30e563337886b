// Package ident generates short, human-typeable record identifiers.
//
// An identifier is a fixed prefix, a dash and a lowercase base-36 suffix,
// e.g. "cr-otht" or "hf-ab12". Suffixes start at four characters and grow
// by one whenever too many random draws collide with existing identifiers.
package ident

import (
	"math/rand/v2"
	"strings"
)

const (
	// InitialLength is the suffix length of a freshly generated identifier.
	InitialLength = 4

	// MaxRetriesPerLength is the number of colliding draws tolerated at one
	// suffix length before the length is increased.
	MaxRetriesPerLength = 64

	digits = "0123456789abcdefghijklmnopqrstuvwxyz"
)

// Source yields uniformly distributed integers in [0, n).
//
// *rand.Rand from math/rand/v2 satisfies it.
type Source interface {
	IntN(n int) int
}

// globalSource draws from the math/rand/v2 top-level generator.
type globalSource struct{}

func (globalSource) IntN(n int) int { return rand.IntN(n) }

// Generator produces identifiers that do not collide with a supplied set.
type Generator struct {
	src Source
}

// NewGenerator creates a generator backed by src.
// A nil src uses the process-wide math/rand/v2 generator.
func NewGenerator(src Source) *Generator {
	if src == nil {
		src = globalSource{}
	}
	return &Generator{src: src}
}

// Next returns prefix + "-" + suffix, where the result is not present
// (case-insensitively) in existing.
//
// The loop always terminates: after MaxRetriesPerLength collisions at one
// length the suffix grows, and the namespace grows with it.
func (g *Generator) Next(existing []string, prefix string) string {
	used := make(map[string]struct{}, len(existing))
	for _, id := range existing {
		used[strings.ToLower(id)] = struct{}{}
	}

	head := strings.ToLower(prefix) + "-"
	for length := InitialLength; ; length++ {
		for range MaxRetriesPerLength {
			candidate := head + g.suffix(length)
			if _, taken := used[candidate]; !taken {
				return candidate
			}
		}
	}
}

func (g *Generator) suffix(length int) string {
	var b strings.Builder
	b.Grow(length)
	for range length {
		b.WriteByte(digits[g.src.IntN(len(digits))])
	}
	return b.String()
}
