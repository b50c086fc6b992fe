package checksum

import (
	"crypto/sha256"
	"encoding/hex"
)

// Width is the number of hex characters kept in a fingerprint.
const Width = 7

// Sum returns the hex-encoded SHA-256 digest of data.
func Sum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

// Fingerprint returns the short change-detection digest of data: the first
// Width hex characters of its SHA-256.
func Fingerprint(data []byte) string {
	return Sum(data)[:Width]
}
