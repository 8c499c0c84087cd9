// Package uid derives short opaque client identifiers from peer addresses.
//
// An identifier is 8 bytes sampled with replacement from the SHA-256 digest of the
// peer address, hex encoded. Sampling is random, so the same address yields different
// identifiers and collisions are possible; nothing here checks uniqueness.
package uid

import (
	"crypto/sha256"
	"encoding/hex"
	"math/rand"
)

const (
	// Samples - num of digest bytes taken into identifier.
	Samples = 8
	// Len - length of identifier string.
	Len = Samples * 2
)

// Generator - derives identifier for given peer address.
type Generator func(addr string) string

// Generate - default Generator backed by math/rand.
func Generate(addr string) string {
	return generate(addr, rand.Intn)
}

func generate(addr string, intn func(n int) int) string {
	digest := sha256.Sum256([]byte(addr))
	id := make([]byte, 0, Samples)
	for i := 0; i < Samples; i++ {
		id = append(id, digest[intn(len(digest))])
	}
	return hex.EncodeToString(id)
}

// Valid - reports whether s looks like an identifier produced by Generate.
func Valid(s string) bool {
	if len(s) != Len {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !(c >= '0' && c <= '9' || c >= 'a' && c <= 'f') {
			return false
		}
	}
	return true
}
