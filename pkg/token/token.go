package token

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

const defaultBytes = 32

// Source produces opaque share tokens. Tokens are bearer credentials:
// anyone holding one can open the review it addresses.
type Source interface {
	Generate() (string, error)
}

// RandomSource generates URL-safe tokens from crypto/rand.
type RandomSource struct {
	size int
}

// NewRandomSource builds a token source emitting size random bytes per token.
func NewRandomSource(size int) *RandomSource {
	if size <= 0 {
		size = defaultBytes
	}
	return &RandomSource{size: size}
}

// Generate returns a new collision-resistant opaque token.
func (s *RandomSource) Generate() (string, error) {
	buf := make([]byte, s.size)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate share token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
