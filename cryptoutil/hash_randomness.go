package cryptoutil

import (
	"crypto/sha256"
	"encoding/binary"
)

// HashRandomness folds an arbitrary-length randomness value into a uint64:
// the first 8 bytes of its SHA-256 digest, big-endian.
func HashRandomness(randomness []byte) uint64 {
	sum := sha256.Sum256(randomness)
	return binary.BigEndian.Uint64(sum[:8])
}
