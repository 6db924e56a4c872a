package encryption

import (
	"encoding/base64"
	"strings"
	"testing"

	"github.com/Anastasiia-on/intention/internal/models"
)

const testKeyB64 = "MDEyMzQ1Njc4OWFiY2RlZjAxMjM0NTY3ODlhYmNkZWY=" // "0123456789abcdef0123456789abcdef"

func newTestCipher(t *testing.T) *Cipher {
	t.Helper()
	c, err := NewCipher(testKeyB64)
	if err != nil {
		t.Fatalf("NewCipher failed: %v", err)
	}
	return c
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	c := newTestCipher(t)
	for _, plaintext := range []string{"", "learn spanish", "намір із юнікодом ✨"} {
		payload, err := c.Encrypt(plaintext)
		if err != nil {
			t.Fatalf("Encrypt(%q) failed: %v", plaintext, err)
		}
		got, err := c.Decrypt(payload)
		if err != nil {
			t.Fatalf("Decrypt failed for %q: %v", plaintext, err)
		}
		if got != plaintext {
			t.Errorf("round trip mismatch: got %q, want %q", got, plaintext)
		}
	}
}

func TestEncryptUsesFreshIV(t *testing.T) {
	c := newTestCipher(t)
	first, err := c.Encrypt("same text")
	if err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}
	second, err := c.Encrypt("same text")
	if err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}
	if first.IVB64 == second.IVB64 {
		t.Error("expected distinct IVs for repeated encryptions")
	}
	if first.CiphertextB64 == second.CiphertextB64 {
		t.Error("expected distinct ciphertexts for repeated encryptions")
	}
}

func TestDecryptRejectsTamperedCiphertext(t *testing.T) {
	c := newTestCipher(t)
	payload, err := c.Encrypt("original")
	if err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}
	raw, _ := base64.StdEncoding.DecodeString(payload.CiphertextB64)
	raw[0] ^= 0xff
	payload.CiphertextB64 = base64.StdEncoding.EncodeToString(raw)
	if _, err := c.Decrypt(payload); err == nil {
		t.Error("expected authentication failure for tampered ciphertext")
	}
}

func TestDecryptRejectsMalformedFields(t *testing.T) {
	c := newTestCipher(t)
	if _, err := c.Decrypt(models.EncryptedPayload{CiphertextB64: "!!!", IVB64: "!!!", AuthTagB64: "!!!"}); err == nil {
		t.Error("expected error for non-base64 payload")
	}
}

func TestNewCipherRejectsBadKeys(t *testing.T) {
	if _, err := NewCipher("not base64 at all!"); err == nil {
		t.Error("expected error for non-base64 key")
	}
	short := base64.StdEncoding.EncodeToString([]byte(strings.Repeat("x", 16)))
	if _, err := NewCipher(short); err == nil {
		t.Error("expected error for 16-byte key")
	}
}
