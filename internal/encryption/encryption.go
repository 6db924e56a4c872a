// Package encryption implements the AES-256-GCM payload scheme used for all
// stored free-text fields.
//
// Every plaintext is sealed into a (ciphertext, IV, auth tag) triple, each
// component base64-encoded, so the database only ever sees opaque strings.
package encryption

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"fmt"

	"github.com/Anastasiia-on/intention/internal/models"
)

const (
	// KeySize is the required key length in bytes (AES-256).
	KeySize = 32
	ivSize  = 12
	tagSize = 16
)

// Cipher seals and opens encrypted payload triples with a fixed key.
type Cipher struct {
	aead cipher.AEAD
}

// NewCipher builds a Cipher from a base64-encoded 32-byte key.
func NewCipher(keyB64 string) (*Cipher, error) {
	key, err := base64.StdEncoding.DecodeString(keyB64)
	if err != nil {
		return nil, fmt.Errorf("encryption key is not valid base64: %w", err)
	}
	if len(key) != KeySize {
		return nil, fmt.Errorf("encryption key must be %d bytes, got %d", KeySize, len(key))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize AES: %w", err)
	}
	aead, err := cipher.NewGCMWithTagSize(block, tagSize)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize GCM: %w", err)
	}
	return &Cipher{aead: aead}, nil
}

// Encrypt seals plaintext into a payload triple with a fresh random IV.
func (c *Cipher) Encrypt(plaintext string) (models.EncryptedPayload, error) {
	iv := make([]byte, ivSize)
	if _, err := rand.Read(iv); err != nil {
		return models.EncryptedPayload{}, fmt.Errorf("failed to generate IV: %w", err)
	}
	sealed := c.aead.Seal(nil, iv, []byte(plaintext), nil)
	// Seal appends the tag to the ciphertext; the stored triple keeps them apart.
	ciphertext := sealed[:len(sealed)-tagSize]
	tag := sealed[len(sealed)-tagSize:]
	return models.EncryptedPayload{
		CiphertextB64: base64.StdEncoding.EncodeToString(ciphertext),
		IVB64:         base64.StdEncoding.EncodeToString(iv),
		AuthTagB64:    base64.StdEncoding.EncodeToString(tag),
	}, nil
}

// Decrypt opens a payload triple. It returns an error on malformed fields or
// authentication failure; callers substitute their own placeholder text.
func (c *Cipher) Decrypt(payload models.EncryptedPayload) (string, error) {
	ciphertext, err := base64.StdEncoding.DecodeString(payload.CiphertextB64)
	if err != nil {
		return "", fmt.Errorf("ciphertext is not valid base64: %w", err)
	}
	iv, err := base64.StdEncoding.DecodeString(payload.IVB64)
	if err != nil {
		return "", fmt.Errorf("IV is not valid base64: %w", err)
	}
	tag, err := base64.StdEncoding.DecodeString(payload.AuthTagB64)
	if err != nil {
		return "", fmt.Errorf("auth tag is not valid base64: %w", err)
	}
	if len(iv) != ivSize {
		return "", fmt.Errorf("IV must be %d bytes, got %d", ivSize, len(iv))
	}
	plaintext, err := c.aead.Open(nil, iv, append(ciphertext, tag...), nil)
	if err != nil {
		return "", fmt.Errorf("decryption failed: %w", err)
	}
	return string(plaintext), nil
}
