// Package shortcode generates short identifiers and validates custom aliases.
package shortcode

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
)

const (
	// Length of generated codes. 8 symbols from a 64-symbol alphabet give 48 bits.
	Length = 8

	// Alphabet is URL-safe and exactly 64 symbols, so masking a random byte is unbiased.
	Alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789_-"

	MinAliasLength = 3
	MaxAliasLength = 50
)

// Alias validation errors.
var (
	ErrAliasTooShort = errors.New("alias is too short")
	ErrAliasTooLong  = errors.New("alias exceeds maximum length")
	ErrAliasCharset  = errors.New("alias may only contain letters, numbers, hyphens and underscores")
	ErrAliasReserved = errors.New("alias is reserved")
)

var aliasPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// Reserved holds identifiers that collide with service routes or are
// commonly abused. Matching is case-insensitive.
var Reserved = map[string]bool{
	"api":       true,
	"admin":     true,
	"health":    true,
	"healthz":   true,
	"readyz":    true,
	"metrics":   true,
	"analytics": true,
	"shorten":   true,
	"static":    true,
	"assets":    true,

	"login":    true,
	"logout":   true,
	"auth":     true,
	"oauth":    true,
	"callback": true,
	"password": true,

	"robots":     true,
	"sitemap":    true,
	"favicon":    true,
	"well-known": true,
}

// ValidateAlias checks a user supplied alias against length, charset and
// the reserved list.
func ValidateAlias(alias string) error {
	if len(alias) < MinAliasLength {
		return ErrAliasTooShort
	}
	if len(alias) > MaxAliasLength {
		return ErrAliasTooLong
	}
	if !aliasPattern.MatchString(alias) {
		return ErrAliasCharset
	}
	if Reserved[strings.ToLower(alias)] {
		return ErrAliasReserved
	}
	return nil
}

// Generator produces random short codes.
type Generator struct {
	rand   io.Reader
	length int
}

// NewGenerator returns a Generator backed by crypto/rand.
func NewGenerator() *Generator {
	return &Generator{rand: rand.Reader, length: Length}
}

// NewGeneratorFrom returns a Generator reading entropy from r.
func NewGeneratorFrom(r io.Reader, length int) *Generator {
	if length <= 0 {
		length = Length
	}
	return &Generator{rand: r, length: length}
}

// Generate returns a new random code.
func (g *Generator) Generate() (string, error) {
	buf := make([]byte, g.length)
	if _, err := io.ReadFull(g.rand, buf); err != nil {
		return "", fmt.Errorf("read entropy: %w", err)
	}
	for i, b := range buf {
		buf[i] = Alphabet[b&63]
	}
	return string(buf), nil
}
