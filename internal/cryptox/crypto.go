// Package cryptox implements the credential hasher used for account
// passwords, document access passwords and the professor signup passphrase.
//
// Digests are salted argon2id keys encoded as "<salt hex>$<key hex>". Every
// secret class gets its own Hasher so equal secrets in different classes
// never share a digest.
package cryptox

import (
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"strings"

	"github.com/dmitrijs2005/profdocs/internal/common"
	"golang.org/x/crypto/argon2"
)

// ErrMalformedDigest is returned when a stored digest cannot be decoded.
var ErrMalformedDigest = errors.New("malformed digest")

// Params are the argon2id cost parameters of one secret class.
type Params struct {
	Time    uint32
	Memory  uint32 // KiB
	Threads uint8
	SaltLen uint32
	KeyLen  uint32
}

var (
	// AccountParams protect professor and admin passwords.
	AccountParams = Params{Time: 1, Memory: 64 * 1024, Threads: 4, SaltLen: 16, KeyLen: 32}
	// DocumentParams protect per-document access passwords, which are
	// checked on every anonymous download.
	DocumentParams = Params{Time: 1, Memory: 32 * 1024, Threads: 2, SaltLen: 16, KeyLen: 32}
	// PassphraseParams protect the signup passphrase.
	PassphraseParams = Params{Time: 2, Memory: 64 * 1024, Threads: 4, SaltLen: 16, KeyLen: 32}
)

// Class names used for domain separation.
const (
	ClassAccount    = "account"
	ClassDocument   = "document"
	ClassPassphrase = "passphrase"
)

// Hasher derives and verifies digests for one secret class.
type Hasher struct {
	class  string
	params Params
}

func NewHasher(class string, p Params) *Hasher {
	return &Hasher{class: class, params: p}
}

// Hashers groups the three secret classes used by the services.
type Hashers struct {
	Account    *Hasher
	Document   *Hasher
	Passphrase *Hasher
}

// DefaultHashers returns hashers with production cost parameters.
func DefaultHashers() Hashers {
	return Hashers{
		Account:    NewHasher(ClassAccount, AccountParams),
		Document:   NewHasher(ClassDocument, DocumentParams),
		Passphrase: NewHasher(ClassPassphrase, PassphraseParams),
	}
}

// NewHashers returns the three class hashers sharing the cost parameters p.
func NewHashers(p Params) Hashers {
	return Hashers{
		Account:    NewHasher(ClassAccount, p),
		Document:   NewHasher(ClassDocument, p),
		Passphrase: NewHasher(ClassPassphrase, p),
	}
}

// Digest returns a fresh salted digest of secret.
func (h *Hasher) Digest(secret string) (string, error) {
	salt := common.GenerateRandByteArray(int(h.params.SaltLen))
	key := h.derive(secret, salt)
	return hex.EncodeToString(salt) + "$" + hex.EncodeToString(key), nil
}

// Verify reports whether secret matches digest. The key comparison runs in
// constant time.
func (h *Hasher) Verify(secret, digest string) (bool, error) {
	saltHex, keyHex, ok := strings.Cut(digest, "$")
	if !ok {
		return false, ErrMalformedDigest
	}
	salt, err := hex.DecodeString(saltHex)
	if err != nil {
		return false, ErrMalformedDigest
	}
	want, err := hex.DecodeString(keyHex)
	if err != nil || len(want) != int(h.params.KeyLen) {
		return false, ErrMalformedDigest
	}

	got := h.derive(secret, salt)
	defer common.WipeByteArray(got)

	return subtle.ConstantTimeCompare(got, want) == 1, nil
}

func (h *Hasher) derive(secret string, salt []byte) []byte {
	input := []byte(h.class + "\x00" + secret)
	defer common.WipeByteArray(input)
	return argon2.IDKey(input, salt, h.params.Time, h.params.Memory, h.params.Threads, h.params.KeyLen)
}
