package auth

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/pbkdf2"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

const (
	keySize        = 32
	hashIterations = 100_000
)

// ErrBadCiphertext is returned by Decrypt for input it did not produce.
var ErrBadCiphertext = errors.New("auth: malformed or tampered ciphertext")

// Crypto holds the installation key. It seals remembered passwords with
// AES-256-GCM and derives the password hashes stored with user records.
type Crypto struct {
	aead cipher.AEAD
	key  []byte
}

// NewCrypto uses a 32-byte key.
func NewCrypto(key []byte) (*Crypto, error) {
	if len(key) != keySize {
		return nil, fmt.Errorf("auth: key is %d bytes, want %d", len(key), keySize)
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("auth: cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("auth: gcm: %w", err)
	}
	return &Crypto{aead: aead, key: append([]byte(nil), key...)}, nil
}

// OpenCrypto loads the key from path, generating and saving a new one
// (mode 0600) on first use.
func OpenCrypto(path string) (*Crypto, error) {
	key, err := os.ReadFile(path)
	switch {
	case err == nil:
		return NewCrypto(key)
	case !os.IsNotExist(err):
		return nil, fmt.Errorf("auth: reading key: %w", err)
	}

	key = make([]byte, keySize)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("auth: generating key: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("auth: key dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return nil, fmt.Errorf("auth: creating key: %w", err)
	}
	if _, err := f.Write(key); err != nil {
		f.Close()
		return nil, fmt.Errorf("auth: writing key: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("auth: writing key: %w", err)
	}
	return NewCrypto(key)
}

// Encrypt returns base64(nonce || ciphertext).
func (c *Crypto) Encrypt(plain string) (string, error) {
	nonce := make([]byte, c.aead.NonceSize(), c.aead.NonceSize()+len(plain)+c.aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("auth: nonce: %w", err)
	}
	sealed := c.aead.Seal(nonce, nonce, []byte(plain), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt reverses Encrypt.
func (c *Crypto) Decrypt(text string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(text)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrBadCiphertext, err)
	}
	n := c.aead.NonceSize()
	if len(raw) < n+c.aead.Overhead() {
		return "", ErrBadCiphertext
	}
	plain, err := c.aead.Open(nil, raw[:n], raw[n:], nil)
	if err != nil {
		return "", ErrBadCiphertext
	}
	return string(plain), nil
}

// Hash derives the stored form of a password. It is deterministic for a
// given installation key so records can be looked up by hash.
func (c *Crypto) Hash(password string) (string, error) {
	sum, err := pbkdf2.Key(sha256.New, password, c.key, hashIterations, keySize)
	if err != nil {
		return "", fmt.Errorf("auth: hashing: %w", err)
	}
	return base64.RawStdEncoding.EncodeToString(sum), nil
}
