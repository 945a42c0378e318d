package booking

import (
	"crypto/rand"
	"fmt"
)

const (
	referenceLength = 8
	// Crockford base32 without I, L, O, U.
	referenceAlphabet = "0123456789ABCDEFGHJKMNPQRSTVWXYZ"
)

// NewReference returns PREFIX-XXXXXXXX drawn from crypto/rand.
func NewReference(prefix string) (string, error) {
	buf := make([]byte, referenceLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate reference: %w", err)
	}
	for i, b := range buf {
		// 256 is a multiple of 32, no modulo bias
		buf[i] = referenceAlphabet[int(b)%len(referenceAlphabet)]
	}
	return prefix + "-" + string(buf), nil
}
