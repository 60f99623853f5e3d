package manifest

import (
	"encoding/hex"

	"golang.org/x/crypto/blake2b"
)

// Fingerprint identifies a manifest by content, so identical manifests at
// different paths share cached metadata. Empty manifests share one value.
func (m *Manifest) Fingerprint() string {
	sum := blake2b.Sum256(m.Raw())
	return hex.EncodeToString(sum[:])
}
