package session

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"io"

	"golang.org/x/crypto/nacl/secretbox"

	appErrors "github.com/noah-isme/office-admin/pkg/errors"
)

const nonceSize = 24

// Codec seals the credential into a cookie value.
type Codec struct {
	key [32]byte
}

// NewCodec derives the sealing key from secret. An empty secret gets a random
// key, so cookies do not survive a restart.
func NewCodec(secret string) (*Codec, error) {
	c := &Codec{}
	if secret == "" {
		if _, err := io.ReadFull(rand.Reader, c.key[:]); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "generate session key")
		}
		return c, nil
	}
	c.key = sha256.Sum256([]byte(secret))
	return c, nil
}

// Seal encrypts and authenticates token.
func (c *Codec) Seal(token string) (string, error) {
	var nonce [nonceSize]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "generate nonce")
	}
	box := secretbox.Seal(nonce[:], []byte(token), &nonce, &c.key)
	return base64.RawURLEncoding.EncodeToString(box), nil
}

// Open returns the token sealed in value.
func (c *Codec) Open(value string) (string, error) {
	raw, err := base64.RawURLEncoding.DecodeString(value)
	if err != nil || len(raw) < nonceSize+secretbox.Overhead {
		return "", appErrors.Clone(appErrors.ErrNotAuthenticated, "malformed session cookie")
	}
	var nonce [nonceSize]byte
	copy(nonce[:], raw[:nonceSize])
	token, ok := secretbox.Open(nil, raw[nonceSize:], &nonce, &c.key)
	if !ok {
		return "", appErrors.Clone(appErrors.ErrNotAuthenticated, "invalid session cookie")
	}
	return string(token), nil
}
