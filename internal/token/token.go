// Package token generates the opaque single-use values embedded in
// magic links.
package token

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
)

// rawBytes gives 256 bits of entropy; hex-encoded the raw token is 64
// characters long.
const rawBytes = 32

// Generate returns a fresh raw token and the SHA-256 hex digest to
// persist in its place. Only the hash ever touches the store.
func Generate() (raw, hash string, err error) {
	buf := make([]byte, rawBytes)
	if _, err := io.ReadFull(rand.Reader, buf); err != nil {
		return "", "", fmt.Errorf("read random: %w", err)
	}
	raw = hex.EncodeToString(buf)
	return raw, Hash(raw), nil
}

// Hash maps a raw token to its stored form.
func Hash(raw string) string {
	return fmt.Sprintf("%x", sha256.Sum256([]byte(raw)))
}
