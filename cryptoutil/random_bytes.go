package cryptoutil

import (
	"crypto/rand"
	"fmt"
	"io"
)

// RandomBytes returns n bytes from crypto/rand. It panics if the system
// source fails, which is not recoverable.
func RandomBytes(n int) []byte {
	b := make([]byte, n)
	if _, err := io.ReadFull(rand.Reader, b); err != nil {
		panic(fmt.Errorf("get %d random bytes: %w", n, err))
	}
	return b
}
