// Package integrity fingerprints rendered dictámenes so that any later change
// to the text can be detected.
package integrity

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"strings"
)

// Size is the length of a digest string in hex characters.
const Size = sha256.Size * 2

// Digest returns the lowercase hex SHA-256 of the UTF-8 bytes of report.
func Digest(report string) string {
	sum := sha256.Sum256([]byte(report))
	return hex.EncodeToString(sum[:])
}

// Verify reports whether digest is the fingerprint of report. Hex case is ignored.
func Verify(report, digest string) bool {
	want := strings.ToLower(strings.TrimSpace(digest))
	if len(want) != Size {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(Digest(report)), []byte(want)) == 1
}
