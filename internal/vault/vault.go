// Package vault owns the master key material and every cryptographic
// operation performed on card data: AES-256-GCM authenticated encryption and
// deterministic token derivation. The key is read once at construction and is
// never mutated afterwards, so a single Vault value is safe to share across
// concurrent callers.
package vault

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
)

const keySize = 32

var (
	// ErrKeyConfiguration indicates a missing or malformed master key. Fatal
	// at startup, never retried.
	ErrKeyConfiguration = errors.New("vault key configuration error")

	// ErrAuthenticationFailed indicates the GCM tag did not verify, or the
	// encrypted fields were missing or malformed. No plaintext is ever
	// returned alongside it.
	ErrAuthenticationFailed = errors.New("vault authentication failed")
)

// EncryptedCard carries the three authenticated-encryption outputs. Each
// field is hex encoded; the ciphertext is useless without the nonce, the tag
// and the vault's key.
type EncryptedCard struct {
	Nonce      string
	Ciphertext string
	AuthTag    string
}

// Vault performs authenticated encryption and tokenization with a single
// active 32-byte key.
type Vault struct {
	aead   cipher.AEAD
	secret []byte
}

// New builds a Vault from a hex-encoded master key. The decoded key must be
// exactly 32 bytes; shorter keys are rejected rather than zero-padded.
func New(hexKey string) (*Vault, error) {
	if hexKey == "" {
		return nil, fmt.Errorf("%w: master key not set", ErrKeyConfiguration)
	}

	key, err := hex.DecodeString(hexKey)
	if err != nil {
		return nil, fmt.Errorf("%w: master key is not valid hex", ErrKeyConfiguration)
	}
	if len(key) != keySize {
		return nil, fmt.Errorf("%w: master key must be %d bytes, got %d", ErrKeyConfiguration, keySize, len(key))
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrKeyConfiguration, err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrKeyConfiguration, err)
	}

	return &Vault{aead: aead, secret: key}, nil
}

// Encrypt seals the plaintext under a fresh random nonce and returns the
// nonce, ciphertext and authentication tag as separate hex fields.
func (v *Vault) Encrypt(plaintext []byte) (EncryptedCard, error) {
	nonce := make([]byte, v.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return EncryptedCard{}, fmt.Errorf("generate nonce: %w", err)
	}

	sealed := v.aead.Seal(nil, nonce, plaintext, nil)
	tagStart := len(sealed) - v.aead.Overhead()

	return EncryptedCard{
		Nonce:      hex.EncodeToString(nonce),
		Ciphertext: hex.EncodeToString(sealed[:tagStart]),
		AuthTag:    hex.EncodeToString(sealed[tagStart:]),
	}, nil
}

// Decrypt verifies the tag and returns the plaintext. Any missing, malformed
// or altered field yields ErrAuthenticationFailed and no plaintext.
func (v *Vault) Decrypt(enc EncryptedCard) ([]byte, error) {
	if enc.Nonce == "" || enc.Ciphertext == "" || enc.AuthTag == "" {
		return nil, ErrAuthenticationFailed
	}

	nonce, err := hex.DecodeString(enc.Nonce)
	if err != nil || len(nonce) != v.aead.NonceSize() {
		return nil, ErrAuthenticationFailed
	}
	ciphertext, err := hex.DecodeString(enc.Ciphertext)
	if err != nil {
		return nil, ErrAuthenticationFailed
	}
	tag, err := hex.DecodeString(enc.AuthTag)
	if err != nil {
		return nil, ErrAuthenticationFailed
	}

	plaintext, err := v.aead.Open(nil, nonce, append(ciphertext, tag...), nil)
	if err != nil {
		return nil, ErrAuthenticationFailed
	}
	return plaintext, nil
}

// Tokenize derives the stable pseudonymous token for a card number and
// independently encrypts it. The token is a one-way hash over the number and
// the vault secret only, so re-tokenizing the same number always yields the
// same token while each Encrypt call produces fresh ciphertext.
func (v *Vault) Tokenize(cardNumber string) (string, EncryptedCard, error) {
	h := sha256.New()
	h.Write([]byte(cardNumber))
	h.Write(v.secret)
	token := hex.EncodeToString(h.Sum(nil))

	enc, err := v.Encrypt([]byte(cardNumber))
	if err != nil {
		return "", EncryptedCard{}, err
	}
	return token, enc, nil
}

// Detokenize recovers the card number from its encrypted form.
func (v *Vault) Detokenize(enc EncryptedCard) (string, error) {
	plaintext, err := v.Decrypt(enc)
	if err != nil {
		return "", err
	}
	return string(plaintext), nil
}
