package utils

import (
	"encoding/hex"

	"golang.org/x/crypto/blake2b"
)

// CredentialFingerprint returns a short, stable, non-reversible tag for a
// bearer credential, safe to put in logs and session records.
func CredentialFingerprint(credential string) string {
	if credential == "" {
		return ""
	}
	sum := blake2b.Sum256([]byte(credential))
	return hex.EncodeToString(sum[:8])
}
