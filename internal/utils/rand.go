package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

const digitTable = "0123456789"

// RandDigits returns a cryptographically random numeric string of the given length.
func RandDigits(length int) (string, error) {
	if length <= 0 {
		return "", fmt.Errorf("invalid length: %d", length)
	}

	tableLen := big.NewInt(int64(len(digitTable)))
	out := make([]byte, length)
	for i := range out {
		n, err := rand.Int(rand.Reader, tableLen)
		if err != nil {
			return "", fmt.Errorf("failed to read random bytes: %w", err)
		}
		out[i] = digitTable[n.Int64()]
	}

	return string(out), nil
}
