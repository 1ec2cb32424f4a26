package crypto

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Fingerprint returns a short, grouped hex digest of k for users to compare
// out of band. It hashes with SHA-256 and truncates to 10 bytes.
func Fingerprint(k Key) string {
	h := sha256.New()
	h.Write([]byte("wisper key fingerprint"))
	h.Write(k[:])
	s := hex.EncodeToString(h.Sum(nil)[:10])

	groups := make([]string, 0, len(s)/4)
	for i := 0; i < len(s); i += 4 {
		groups = append(groups, s[i:i+4])
	}
	return strings.Join(groups, "-")
}
