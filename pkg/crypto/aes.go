// Package crypto seals individual column values with AES-256-GCM. Meeting
// host links grant control of the meeting and are stored sealed.
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

// sealed values look like "v1.<base64url(nonce|ciphertext)>"
const prefix = "v1."

var (
	ErrInvalidKey = errors.New("crypto: key must be 32 bytes of hex")
	ErrMalformed  = errors.New("crypto: malformed sealed value")
)

type Sealer struct {
	aead cipher.AEAD
}

// NewSealer builds a Sealer from a 64 character hex key.
func NewSealer(hexKey string) (*Sealer, error) {
	key, err := hex.DecodeString(strings.TrimSpace(hexKey))
	if err != nil || len(key) != 32 {
		return nil, ErrInvalidKey
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	return &Sealer{aead: aead}, nil
}

// Seal encrypts plain under a fresh nonce. label is authenticated but not
// stored; Open must be given the same label.
func (s *Sealer) Seal(plain, label string) (string, error) {
	nonce := make([]byte, s.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("crypto: nonce: %w", err)
	}
	out := s.aead.Seal(nonce, nonce, []byte(plain), []byte(label))
	return prefix + base64.RawURLEncoding.EncodeToString(out), nil
}

func (s *Sealer) Open(sealed, label string) (string, error) {
	body, ok := strings.CutPrefix(sealed, prefix)
	if !ok {
		return "", ErrMalformed
	}
	raw, err := base64.RawURLEncoding.DecodeString(body)
	if err != nil || len(raw) < s.aead.NonceSize()+s.aead.Overhead() {
		return "", ErrMalformed
	}
	n := s.aead.NonceSize()
	plain, err := s.aead.Open(nil, raw[:n], raw[n:], []byte(label))
	if err != nil {
		return "", fmt.Errorf("crypto: open: %w", err)
	}
	return string(plain), nil
}
