// internal/utils/numbers.go
package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"
)

// Unambiguous alphabet: no 0/O, 1/I/L.
const numberCharset = "23456789ABCDEFGHJKMNPQRSTUVWXYZ"

// GenerateRequestNumber produces a human-facing request number in the
// AET-<year>-<suffix> form. Uniqueness is enforced by the store's unique
// index; collisions are retried by the caller with a fresh number.
func GenerateRequestNumber() (string, error) {
	suffix, err := GenerateRandomString(6)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("AET-%d-%s", time.Now().Year(), suffix), nil
}

func GenerateRandomString(length int) (string, error) {
	b := make([]byte, length)
	for i := range b {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(numberCharset))))
		if err != nil {
			return "", err
		}
		b[i] = numberCharset[n.Int64()]
	}
	return string(b), nil
}
