package cryptox

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"strings"
)

const (
	FarmerIDPrefix   = "ZM"
	OperatorIDPrefix = "OP"
)

// randReader is the entropy source for identifiers; tests swap it to force collisions.
var randReader = rand.Read

// NewFarmerID returns "ZM" followed by 8 uppercase hex characters (32 bits of
// entropy). Uniqueness is not guaranteed here: callers rely on the store's
// uniqueness constraint and retry with a fresh draw on collision.
func NewFarmerID() (string, error) {
	return newPrefixedID(FarmerIDPrefix, 4)
}

// NewOperatorID returns "OP" followed by 6 uppercase hex characters.
func NewOperatorID() (string, error) {
	return newPrefixedID(OperatorIDPrefix, 3)
}

// NewSecureToken returns a URL-safe random token built from n random bytes.
func NewSecureToken(n int) (string, error) {
	b := make([]byte, n)
	if _, err := randReader(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func newPrefixedID(prefix string, size int) (string, error) {
	b := make([]byte, size)
	if _, err := randReader(b); err != nil {
		return "", err
	}
	return prefix + strings.ToUpper(hex.EncodeToString(b)), nil
}
