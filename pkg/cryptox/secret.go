package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"
	"os"
	"sync"

	"golang.org/x/crypto/argon2"
)

// Argon2id parameters for deriving the AES key from the master passphrase.
// These follow the RFC 9106 low-memory profile.
const (
	kdfIterations  = 3
	kdfMemory      = 64 * 1024
	kdfParallelism = 4
	kdfKeyLength   = 32
)

// kdfSalt is a fixed application salt for key derivation. The passphrase is
// the secret here; the salt only separates this application's derived key
// from other uses of the same passphrase.
var kdfSalt = []byte("shopedit/tenant-secrets/v1")

var (
	masterKeyOnce sync.Once
	masterKey     []byte
	masterKeyErr  error
	masterKeyPath string
)

// SetMasterKeyPath configures where to load the master passphrase from.
// Must be called before any encryption/decryption operations.
// If not set, the passphrase is read from SHOPEDIT_MASTER_KEY.
func SetMasterKeyPath(path string) {
	masterKeyPath = path
}

// loadMasterKey derives a 32-byte AES-256 key from either:
// 1. File specified by masterKeyPath (if set)
// 2. SHOPEDIT_MASTER_KEY environment variable
// 3. A generated ephemeral passphrase for development (NOT for production)
func loadMasterKey() ([]byte, error) {
	var passphrase []byte

	if masterKeyPath != "" {
		data, err := os.ReadFile(masterKeyPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read master key file: %w", err)
		}
		passphrase = data
	} else if envKey := os.Getenv("SHOPEDIT_MASTER_KEY"); envKey != "" {
		passphrase = []byte(envKey)
	} else {
		// Development fallback. Secrets encrypted under an ephemeral key
		// cannot be decrypted after restart.
		passphrase = make([]byte, 32)
		if _, err := rand.Read(passphrase); err != nil {
			return nil, fmt.Errorf("failed to generate ephemeral master key: %w", err)
		}
	}

	key := argon2.IDKey(passphrase, kdfSalt, kdfIterations, kdfMemory, kdfParallelism, kdfKeyLength)
	return key, nil
}

func getMasterKey() ([]byte, error) {
	masterKeyOnce.Do(func() {
		masterKey, masterKeyErr = loadMasterKey()
	})
	if masterKeyErr != nil {
		return nil, masterKeyErr
	}
	return masterKey, nil
}

func newGCM() (cipher.AEAD, error) {
	key, err := getMasterKey()
	if err != nil {
		return nil, fmt.Errorf("failed to get master key: %w", err)
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}

	return gcm, nil
}

// EncryptSecret encrypts a tenant client secret for storage using AES-256-GCM.
// The output is base64 of [12-byte nonce][ciphertext][16-byte auth tag].
func EncryptSecret(plaintext string) (string, error) {
	gcm, err := newGCM()
	if err != nil {
		return "", err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	ciphertext := gcm.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.RawStdEncoding.EncodeToString(ciphertext), nil
}

// DecryptSecret reverses EncryptSecret.
func DecryptSecret(encoded string) (string, error) {
	gcm, err := newGCM()
	if err != nil {
		return "", err
	}

	data, err := base64.RawStdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("malformed secret ciphertext: %w", err)
	}

	nonceSize := gcm.NonceSize()
	if len(data) < nonceSize {
		return "", fmt.Errorf("secret ciphertext too short")
	}

	nonce, ciphertext := data[:nonceSize], data[nonceSize:]
	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", fmt.Errorf("secret decryption failed: %w", err)
	}

	return string(plaintext), nil
}
