// Package cryptox implements field-level protection for farmer records:
// purpose-scoped key derivation, authenticated encryption of sensitive
// values, keyed hashing for indexable lookups, identifier issuance and
// display masking.
package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/farmsync/internal/common"
	"golang.org/x/crypto/pbkdf2"
)

const (
	// KeyDerivationIterations is the PBKDF2-HMAC-SHA256 work factor.
	KeyDerivationIterations = 100_000
	// KeySize is the size of every derived key (AES-256).
	KeySize = 32
	// MinSecretLength is the shortest master secret accepted at startup.
	MinSecretLength = 16

	nonceSize = 12
	tagSize   = 16

	// PurposeEncryption scopes the AEAD key.
	PurposeEncryption = "encryption"
	// PurposeIndex scopes the HMAC key used by HashForIndex.
	PurposeIndex = "index"
)

// FieldCipher protects individual record fields with keys derived from a
// single master secret. It is safe for concurrent use.
type FieldCipher struct {
	secret []byte
	keys   sync.Map // purpose -> []byte
}

// NewFieldCipher validates the master secret and eagerly derives the keys
// used on the hot path so that a bad secret fails at startup.
//
// It returns an error wrapping common.ErrKeyDerivation when the secret is
// empty or shorter than MinSecretLength bytes.
func NewFieldCipher(masterSecret string) (*FieldCipher, error) {
	if masterSecret == "" {
		return nil, fmt.Errorf("%w: master secret is not set", common.ErrKeyDerivation)
	}
	if len(masterSecret) < MinSecretLength {
		return nil, fmt.Errorf("%w: master secret must be at least %d bytes", common.ErrKeyDerivation, MinSecretLength)
	}

	c := &FieldCipher{secret: []byte(masterSecret)}
	c.DeriveKey(PurposeEncryption)
	c.DeriveKey(PurposeIndex)
	return c, nil
}

// DeriveKey returns the 32-byte key for purpose, computed as
// PBKDF2-HMAC-SHA256(masterSecret, salt=purpose). The same purpose always
// yields the same key; different purposes yield independent keys.
//
// Derived keys are memoized in process memory only and never persisted.
func (c *FieldCipher) DeriveKey(purpose string) []byte {
	if k, ok := c.keys.Load(purpose); ok {
		return k.([]byte)
	}
	k := pbkdf2.Key(c.secret, []byte(purpose), KeyDerivationIterations, KeySize, sha256.New)
	actual, _ := c.keys.LoadOrStore(purpose, k)
	return actual.([]byte)
}

// Encrypt seals plaintext with AES-256-GCM under a fresh random 96-bit nonce
// and returns base64url(nonce ‖ tag ‖ ciphertext).
//
// Encrypting the same plaintext twice yields different tokens.
//
// Example:
//
//	token, err := c.Encrypt("123456/12/1")
//	if err != nil {
//	    return err
//	}
//	plain, err := c.Decrypt(token) // "123456/12/1"
func (c *FieldCipher) Encrypt(plaintext string) (string, error) {
	aesgcm, err := c.aead()
	if err != nil {
		return "", err
	}

	nonce, err := common.GenerateRandByteArray(nonceSize)
	if err != nil {
		return "", err
	}

	pt := []byte(plaintext)
	defer common.WipeByteArray(pt)

	// Seal appends the tag after the ciphertext
	sealed := aesgcm.Seal(nil, nonce, pt, nil)
	ct, tag := sealed[:len(sealed)-tagSize], sealed[len(sealed)-tagSize:]

	out := make([]byte, 0, nonceSize+tagSize+len(ct))
	out = append(out, nonce...)
	out = append(out, tag...)
	out = append(out, ct...)

	return base64.URLEncoding.EncodeToString(out), nil
}

// Decrypt reverses Encrypt. Any malformed token, tampered byte or token
// sealed under a different key yields an error wrapping common.ErrIntegrity;
// Decrypt never returns unauthenticated data.
func (c *FieldCipher) Decrypt(token string) (string, error) {
	raw, err := base64.URLEncoding.DecodeString(token)
	if err != nil {
		return "", fmt.Errorf("%w: malformed token", common.ErrIntegrity)
	}
	if len(raw) < nonceSize+tagSize {
		return "", fmt.Errorf("%w: token too short", common.ErrIntegrity)
	}

	aesgcm, err := c.aead()
	if err != nil {
		return "", err
	}

	nonce := raw[:nonceSize]
	tag := raw[nonceSize : nonceSize+tagSize]
	ct := raw[nonceSize+tagSize:]

	sealed := make([]byte, 0, len(ct)+tagSize)
	sealed = append(sealed, ct...)
	sealed = append(sealed, tag...)

	plaintext, err := aesgcm.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", fmt.Errorf("%w: authentication failed", common.ErrIntegrity)
	}

	return string(plaintext), nil
}

// HashForIndex computes hex(HMAC-SHA256(indexKey, label + ":" + value)).
//
// The digest is deterministic and therefore usable as an equality-lookup
// key, but it is one-way: never use it where the plaintext must be
// recovered. Distinct labels give unrelated digests for the same value.
func (c *FieldCipher) HashForIndex(value, label string) string {
	mac := hmac.New(sha256.New, c.DeriveKey(PurposeIndex))
	mac.Write([]byte(label + ":" + value))
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifyIndexHash recomputes the digest of value and compares it with
// expected in constant time.
func (c *FieldCipher) VerifyIndexHash(value, expected, label string) bool {
	computed := c.HashForIndex(value, label)
	return subtle.ConstantTimeCompare([]byte(computed), []byte(expected)) == 1
}

func (c *FieldCipher) aead() (cipher.AEAD, error) {
	block, err := aes.NewCipher(c.DeriveKey(PurposeEncryption))
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

// Checksum returns the hex SHA-256 digest of data.
func Checksum(data string) string {
	sum := sha256.Sum256([]byte(data))
	return hex.EncodeToString(sum[:])
}

// VerifyChecksum compares data against an expected checksum in constant time.
func VerifyChecksum(data, expected string) bool {
	return subtle.ConstantTimeCompare([]byte(Checksum(data)), []byte(expected)) == 1
}
