package service

import (
	"crypto/rand"
	"encoding/hex"
)

// newSecret returns a 32-character hex token used for QR secrets, quote
// review links, and invoice payment links.
func newSecret() string {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		panic(err)
	}
	return hex.EncodeToString(buf)
}
