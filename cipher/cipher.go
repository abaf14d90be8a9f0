// Package cipher seals trait payloads so only holders of the root key can
// read them, and derives the per-item keys used for seeding.
//
// Every key is derived from a single root secret with HKDF over
// SHA-512/256. Payloads are sealed with XChaCha20-Poly1305; the additional
// data is the JSON encoding of a caller-chosen binding value (an item id),
// so a box moved to another item fails to open.
package cipher

import (
	"crypto/hkdf"
	"crypto/rand"
	"crypto/sha512"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/chacha20poly1305"
)

// Key ids understood by Decrypt.
const (
	// TestKeyID selects a fixed, publicly known key.
	TestKeyID = 0
	// ItemKeyID selects the key derived from the root under ItemKeyLabel.
	ItemKeyID = 1

	// LatestKeyID is used by Encrypt.
	LatestKeyID = ItemKeyID
)

// ItemKeyLabel is the derivation label of the item sealing key.
const ItemKeyLabel = "nftrout/encryption/nfts"

// MinRootKeySize is the shortest accepted root secret.
const MinRootKeySize = 32

var (
	// ErrUnknownKey is returned when a box names a key id that is not
	// supported.
	ErrUnknownKey = errors.New("cipher: unknown key id")

	// ErrOpen is returned when a box fails authentication, usually because
	// the binding or the key does not match.
	ErrOpen = errors.New("cipher: message authentication failed")

	// ErrShortKey is returned by New for root keys under MinRootKeySize.
	ErrShortKey = errors.New("cipher: root key too short")
)

var encoding = base64.RawURLEncoding

// Box is a sealed payload. Nonce and Data are unpadded base64url.
type Box struct {
	KeyID int    `json:"keyId"`
	Nonce string `json:"nonce"`
	Data  string `json:"data"`
}

// Cipher derives keys from a root secret and seals boxes.
// It is safe for concurrent use.
type Cipher struct {
	root   []byte
	rand   io.Reader
	latest int
}

// Option configures a Cipher.
type Option func(*Cipher)

// WithRand sets the nonce source. The default is crypto/rand.
func WithRand(r io.Reader) Option {
	return func(c *Cipher) { c.rand = r }
}

// New returns a Cipher keyed by root.
func New(root []byte, opts ...Option) (*Cipher, error) {
	if len(root) < MinRootKeySize {
		return nil, fmt.Errorf("%w: %d bytes", ErrShortKey, len(root))
	}
	c := &Cipher{root: append([]byte(nil), root...), rand: rand.Reader, latest: LatestKeyID}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// NewRandom returns a Cipher with a fresh random root key.
func NewRandom() (*Cipher, error) {
	root := make([]byte, MinRootKeySize)
	if _, err := io.ReadFull(rand.Reader, root); err != nil {
		return nil, fmt.Errorf("cipher: read random root: %w", err)
	}
	return New(root)
}

// NewTesting returns a Cipher for local networks. Its root and its sealing
// key are publicly known: boxes are sealed under TestKeyID.
func NewTesting(opts ...Option) *Cipher {
	root := make([]byte, MinRootKeySize)
	for i := range root {
		root[i] = 42
	}
	c, _ := New(root, opts...)
	c.latest = TestKeyID
	return c
}

// DeriveKey derives n bytes from the root under label.
func (c *Cipher) DeriveKey(label string, n int) ([]byte, error) {
	key, err := hkdf.Key(sha512.New512_256, c.root, nil, label, n)
	if err != nil {
		return nil, fmt.Errorf("cipher: derive %q: %w", label, err)
	}
	return key, nil
}

func (c *Cipher) key(id int) ([]byte, error) {
	switch id {
	case TestKeyID:
		key := make([]byte, chacha20poly1305.KeySize)
		for i := range key {
			key[i] = 42
		}
		return key, nil
	case ItemKeyID:
		return c.DeriveKey(ItemKeyLabel, chacha20poly1305.KeySize)
	}
	return nil, fmt.Errorf("%w: %d", ErrUnknownKey, id)
}

// bind encodes the additional data for binding. A nil binding binds to
// nothing.
func bind(binding any) ([]byte, error) {
	if binding == nil {
		return nil, nil
	}
	b, err := json.Marshal(binding)
	if err != nil {
		return nil, fmt.Errorf("cipher: encode binding: %w", err)
	}
	return b, nil
}

// Encrypt seals plaintext under the latest key, bound to binding.
func (c *Cipher) Encrypt(plaintext []byte, binding any) (Box, error) {
	return c.EncryptWithKey(c.latest, plaintext, binding)
}

// EncryptWithKey seals plaintext under the given key id.
func (c *Cipher) EncryptWithKey(keyID int, plaintext []byte, binding any) (Box, error) {
	key, err := c.key(keyID)
	if err != nil {
		return Box{}, err
	}
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return Box{}, fmt.Errorf("cipher: %w", err)
	}
	ad, err := bind(binding)
	if err != nil {
		return Box{}, err
	}
	nonce := make([]byte, aead.NonceSize())
	if _, err := io.ReadFull(c.rand, nonce); err != nil {
		return Box{}, fmt.Errorf("cipher: read nonce: %w", err)
	}
	return Box{
		KeyID: keyID,
		Nonce: encoding.EncodeToString(nonce),
		Data:  encoding.EncodeToString(aead.Seal(nil, nonce, plaintext, ad)),
	}, nil
}

// Decrypt opens b, which must have been sealed with the same binding.
func (c *Cipher) Decrypt(b Box, binding any) ([]byte, error) {
	key, err := c.key(b.KeyID)
	if err != nil {
		return nil, err
	}
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("cipher: %w", err)
	}
	nonce, err := encoding.DecodeString(b.Nonce)
	if err != nil {
		return nil, fmt.Errorf("cipher: decode nonce: %w", err)
	}
	if len(nonce) != aead.NonceSize() {
		return nil, fmt.Errorf("cipher: nonce is %d bytes, want %d", len(nonce), aead.NonceSize())
	}
	data, err := encoding.DecodeString(b.Data)
	if err != nil {
		return nil, fmt.Errorf("cipher: decode data: %w", err)
	}
	ad, err := bind(binding)
	if err != nil {
		return nil, err
	}
	out, err := aead.Open(nil, nonce, data, ad)
	if err != nil {
		return nil, ErrOpen
	}
	return out, nil
}
