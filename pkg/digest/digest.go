// Package digest computes content fingerprints for tracked artifacts.
//
// A fingerprint is the lowercase hex SHA-256 of the exact byte content,
// with no normalization of line endings or encoding. The same value is
// recorded in the version ledger and compared against the live artifact
// to detect drift, so the format must stay stable.
package digest

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
)

// Bytes returns the fingerprint of the given byte sequence.
func Bytes(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// File returns the fingerprint of the file's current content.
func File(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return Bytes(data), nil
}
