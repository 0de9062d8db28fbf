// Package util contains small helpers shared across packages.
package util

import (
	"crypto/sha1"
	"crypto/sha256"
	"encoding/hex"
)

// EncodeSha1Hex returns the hex encoded sha1 hash of the given bytes.
func EncodeSha1Hex(data []byte) string {
	hash := sha1.Sum(data)
	return hex.EncodeToString(hash[:])
}

// EncodeSha256Hex returns the hex encoded sha256 hash of the given bytes.
func EncodeSha256Hex(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}
