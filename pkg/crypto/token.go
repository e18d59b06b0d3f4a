// Package crypto signs short values, such as email addresses in unsubscribe
// links, with HMAC-SHA256 so they can be trusted when they come back.
package crypto

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"strings"
)

var (
	ErrEmptyKey     = errors.New("signing key is empty")
	ErrInvalidToken = errors.New("invalid token")
)

type Signer struct {
	key []byte
}

func NewSigner(key string) (*Signer, error) {
	if key == "" {
		return nil, ErrEmptyKey
	}
	return &Signer{key: []byte(key)}, nil
}

// Sign returns a URL-safe token for value. Values are compared without
// regard to case or surrounding space.
func (s *Signer) Sign(value string) string {
	return base64.RawURLEncoding.EncodeToString(s.mac(value))
}

// Verify checks token against value in constant time.
func (s *Signer) Verify(value, token string) error {
	got, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return ErrInvalidToken
	}
	if !hmac.Equal(got, s.mac(value)) {
		return ErrInvalidToken
	}
	return nil
}

func (s *Signer) mac(value string) []byte {
	h := hmac.New(sha256.New, s.key)
	h.Write([]byte(strings.ToLower(strings.TrimSpace(value))))
	return h.Sum(nil)
}
