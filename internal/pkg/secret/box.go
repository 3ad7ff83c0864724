// Package secret seals small values at rest with NaCl secretbox.
package secret

import (
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"io"
	"strings"

	"golang.org/x/crypto/hkdf"
	"golang.org/x/crypto/nacl/secretbox"
)

const nonceSize = 24

var (
	ErrEmptyKey = errors.New("secret: empty key")
	ErrOpen     = errors.New("secret: cannot open sealed value")
)

type Box struct {
	key [32]byte
}

// NewBox derives the sealing key from passphrase. The same passphrase always yields the same key.
func NewBox(passphrase string) (*Box, error) {
	if strings.TrimSpace(passphrase) == "" {
		return nil, ErrEmptyKey
	}
	b := &Box{}
	kdf := hkdf.New(sha256.New, []byte(passphrase), nil, []byte("wesee scraper credentials v1"))
	if _, err := io.ReadFull(kdf, b.key[:]); err != nil {
		return nil, err
	}
	return b, nil
}

// Seal returns nonce || box.
func (b *Box) Seal(plaintext []byte) ([]byte, error) {
	var nonce [nonceSize]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return nil, err
	}
	return secretbox.Seal(nonce[:], plaintext, &nonce, &b.key), nil
}

func (b *Box) Open(sealed []byte) ([]byte, error) {
	if len(sealed) < nonceSize+secretbox.Overhead {
		return nil, ErrOpen
	}
	var nonce [nonceSize]byte
	copy(nonce[:], sealed[:nonceSize])
	out, ok := secretbox.Open(nil, sealed[nonceSize:], &nonce, &b.key)
	if !ok {
		return nil, ErrOpen
	}
	return out, nil
}
