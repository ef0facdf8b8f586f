package lockfile

import (
	"crypto/sha1" //nolint:gosec // not a security use; just a deterministic 40-hex placeholder
	"encoding/hex"
)

// sha1Hex40 produces a deterministic 40-character hex string from key, the
// same length as a real git commit SHA, so the synthesized "revision:" line
// has a plausible shape.
func sha1Hex40(key string) string {
	sum := sha1.Sum([]byte(key))
	return hex.EncodeToString(sum[:])
}
