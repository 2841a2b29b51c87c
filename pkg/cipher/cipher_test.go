package cipher

import (
	"errors"
	"testing"
)

func TestEncryptDecryptRoundTrip(t *testing.T) {
	c := New("build-time-shared-secret")

	cases := []string{
		"hello",
		"",
		"unicode: héllo wörld 你好",
		`{"nested":"json payload"}`,
	}

	for _, plaintext := range cases {
		ciphertext, err := c.Encrypt(plaintext)
		if err != nil {
			t.Fatalf("Encrypt(%q) error: %v", plaintext, err)
		}
		if ciphertext == plaintext && plaintext != "" {
			t.Errorf("ciphertext equals plaintext for %q", plaintext)
		}

		got, err := c.Decrypt(ciphertext)
		if err != nil {
			t.Fatalf("Decrypt error: %v", err)
		}
		if got != plaintext {
			t.Errorf("round trip = %q, want %q", got, plaintext)
		}
	}
}

func TestEncryptIsRandomized(t *testing.T) {
	c := New("secret")

	a, err := c.Encrypt("same message")
	if err != nil {
		t.Fatal(err)
	}
	b, err := c.Encrypt("same message")
	if err != nil {
		t.Fatal(err)
	}
	if a == b {
		t.Error("two encryptions of the same plaintext produced identical ciphertexts")
	}
}

func TestDecryptWithWrongKeyFails(t *testing.T) {
	ciphertext, err := New("key-one").Encrypt("secret message")
	if err != nil {
		t.Fatal(err)
	}

	if _, err := New("key-two").Decrypt(ciphertext); !errors.Is(err, ErrDecryptionFailed) {
		t.Errorf("Decrypt with wrong key = %v, want ErrDecryptionFailed", err)
	}
}

func TestDecryptRejectsGarbage(t *testing.T) {
	c := New("secret")

	if _, err := c.Decrypt("not base64 !!!"); err == nil {
		t.Error("Decrypt of invalid base64 should fail")
	}
	if _, err := c.Decrypt("dG9vc2hvcnQ="); !errors.Is(err, ErrCiphertextTooShort) {
		t.Errorf("Decrypt of short input = %v, want ErrCiphertextTooShort", err)
	}
}

func TestKeyDerivationIsDeterministic(t *testing.T) {
	// Two ciphers built from the same passphrase must interoperate: every
	// client bundle derives the same key.
	ciphertext, err := New("shared").Encrypt("hello")
	if err != nil {
		t.Fatal(err)
	}
	got, err := New("shared").Decrypt(ciphertext)
	if err != nil {
		t.Fatal(err)
	}
	if got != "hello" {
		t.Errorf("cross-instance decrypt = %q, want %q", got, "hello")
	}
}
