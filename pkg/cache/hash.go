package cache

import (
	"crypto/sha256"
	"encoding/hex"
)

// keyVersion is bumped whenever the cached payload layout changes.
const keyVersion = "v1"

// Hash computes a SHA-256 hash of the input data.
// Returns the full 64-character hex string.
func Hash(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}

// ExtractionKey returns the cache key for extracting content with strategy.
// The key format is: extract:<version>:sha256(strategy NUL content)
func ExtractionKey(strategy string, content []byte) string {
	h := sha256.New()
	h.Write([]byte(strategy))
	h.Write([]byte{0})
	h.Write(content)
	return "extract:" + keyVersion + ":" + hex.EncodeToString(h.Sum(nil))
}
