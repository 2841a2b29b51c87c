package cipher

// Cipher encrypts and decrypts chat message content with the shared
// client-side secret. The hub relays ciphertext opaquely; this package
// exists for the Go client and for tooling that needs to read payloads.
type Cipher interface {
	// Encrypt encrypts a plaintext string and returns a base64-encoded ciphertext.
	Encrypt(plaintext string) (string, error)
	// Decrypt decrypts a base64-encoded ciphertext string and returns the plaintext.
	Decrypt(ciphertext string) (string, error)
}

type implCipher struct {
	key []byte
}

// New creates a Cipher from the shared passphrase. The passphrase is
// stretched to a 256-bit AES key with PBKDF2, so any non-empty string
// is accepted.
func New(passphrase string) Cipher {
	return &implCipher{
		key: deriveKey(passphrase),
	}
}
