package vault

import (
	"encoding/hex"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKeyHex = "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f"

func newTestVault(t *testing.T) *Vault {
	t.Helper()
	v, err := New(testKeyHex)
	require.NoError(t, err)
	return v
}

func TestNew(t *testing.T) {
	tests := []struct {
		name   string
		hexKey string
	}{
		{"empty key", ""},
		{"not hex", "zz0102"},
		{"too short", "0001020304"},
		{"too long", testKeyHex + "ff"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.hexKey)
			assert.ErrorIs(t, err, ErrKeyConfiguration)
		})
	}

	v, err := New(testKeyHex)
	require.NoError(t, err)
	assert.NotNil(t, v)
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	v := newTestVault(t)

	for _, plaintext := range []string{"4111111111111111", "378282246310005", "x"} {
		enc, err := v.Encrypt([]byte(plaintext))
		require.NoError(t, err)

		got, err := v.Decrypt(enc)
		require.NoError(t, err)
		assert.Equal(t, plaintext, string(got))
	}
}

func TestDecryptTamperDetection(t *testing.T) {
	v := newTestVault(t)

	enc, err := v.Encrypt([]byte("4111111111111111"))
	require.NoError(t, err)

	flip := func(hexStr string) string {
		raw, err := hex.DecodeString(hexStr)
		require.NoError(t, err)
		raw[0] ^= 0x01
		return hex.EncodeToString(raw)
	}

	tests := []struct {
		name string
		enc  EncryptedCard
	}{
		{"tampered ciphertext", EncryptedCard{Nonce: enc.Nonce, Ciphertext: flip(enc.Ciphertext), AuthTag: enc.AuthTag}},
		{"tampered nonce", EncryptedCard{Nonce: flip(enc.Nonce), Ciphertext: enc.Ciphertext, AuthTag: enc.AuthTag}},
		{"tampered tag", EncryptedCard{Nonce: enc.Nonce, Ciphertext: enc.Ciphertext, AuthTag: flip(enc.AuthTag)}},
		{"missing nonce", EncryptedCard{Ciphertext: enc.Ciphertext, AuthTag: enc.AuthTag}},
		{"missing ciphertext", EncryptedCard{Nonce: enc.Nonce, AuthTag: enc.AuthTag}},
		{"missing tag", EncryptedCard{Nonce: enc.Nonce, Ciphertext: enc.Ciphertext}},
		{"malformed hex", EncryptedCard{Nonce: "zz", Ciphertext: enc.Ciphertext, AuthTag: enc.AuthTag}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plaintext, err := v.Decrypt(tt.enc)
			assert.ErrorIs(t, err, ErrAuthenticationFailed)
			assert.Nil(t, plaintext)
		})
	}
}

func TestTokenizeDeterminism(t *testing.T) {
	v := newTestVault(t)

	token1, enc1, err := v.Tokenize("4111111111111111")
	require.NoError(t, err)
	token2, enc2, err := v.Tokenize("4111111111111111")
	require.NoError(t, err)

	assert.Equal(t, token1, token2, "same number must yield the same token")
	assert.Len(t, token1, 64)
	assert.NotEqual(t, enc1.Nonce, enc2.Nonce, "nonce must be fresh per call")
	assert.NotEqual(t, enc1.Ciphertext, enc2.Ciphertext)

	other, _, err := v.Tokenize("5500005555555559")
	require.NoError(t, err)
	assert.NotEqual(t, token1, other)
}

func TestTokenNeverContainsNumber(t *testing.T) {
	v := newTestVault(t)

	token, _, err := v.Tokenize("4111111111111111")
	require.NoError(t, err)
	assert.False(t, strings.Contains(token, "4111111111111111"))
}

func TestDetokenize(t *testing.T) {
	v := newTestVault(t)

	_, enc, err := v.Tokenize("6011111111111117")
	require.NoError(t, err)

	number, err := v.Detokenize(enc)
	require.NoError(t, err)
	assert.Equal(t, "6011111111111117", number)
}

func TestDecryptWithDifferentKeyFails(t *testing.T) {
	v1 := newTestVault(t)
	v2, err := New("ffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffff")
	require.NoError(t, err)

	enc, err := v1.Encrypt([]byte("4111111111111111"))
	require.NoError(t, err)

	_, err = v2.Decrypt(enc)
	assert.ErrorIs(t, err, ErrAuthenticationFailed)
}
