// Package ticketcode generates raffle ticket codes of the form PREFIX-YYYY-XXXXXX.
package ticketcode

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
)

// DefaultPrefix is used when no prefix is configured.
const DefaultPrefix = "SKY"

// Alphabet is the character set of the random part.
const Alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// RandomLength is the length of the random part.
const RandomLength = 6

// Generate returns a fresh code for the given prefix and year.
func Generate(prefix string, year int) (string, error) {
	if prefix == "" {
		prefix = DefaultPrefix
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s-%04d-", strings.ToUpper(prefix), year)

	limit := big.NewInt(int64(len(Alphabet)))
	for range RandomLength {
		n, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", fmt.Errorf("generating ticket code: %w", err)
		}
		b.WriteByte(Alphabet[n.Int64()])
	}
	return b.String(), nil
}
