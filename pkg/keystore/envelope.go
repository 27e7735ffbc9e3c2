package keystore

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"

	"golang.org/x/crypto/pbkdf2"

	"github.com/sage-x-project/fides/internal/ferrors"
)

const (
	pbkdf2Iterations = 600_000
	saltSize         = 32
	aesKeySize       = 32 // AES-256
)

// Envelope is the ciphertext container for a secret key encrypted with a
// passphrase: AES-256-GCM keyed by PBKDF2-SHA256(passphrase, salt,
// 600000 iterations).
type Envelope struct {
	Salt       []byte
	IV         []byte
	AuthTag    []byte
	Ciphertext []byte
}

func deriveKey(passphrase string, salt []byte) []byte {
	return pbkdf2.Key([]byte(passphrase), salt, pbkdf2Iterations, aesKeySize, sha256.New)
}

// Seal encrypts plaintext (a private key seed) under passphrase, producing
// a fresh random salt and nonce for every call.
func Seal(passphrase string, plaintext []byte) (*Envelope, error) {
	salt := make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, ferrors.KeyError("generate salt", err)
	}
	key := deriveKey(passphrase, salt)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, ferrors.KeyError("init AES cipher", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, ferrors.KeyError("init GCM", err)
	}

	iv := make([]byte, gcm.NonceSize())
	if _, err := rand.Read(iv); err != nil {
		return nil, ferrors.KeyError("generate iv", err)
	}

	// Seal appends the GCM tag to the ciphertext; split it back out so the
	// on-disk record stores authTag and ciphertext separately as spec'd.
	sealed := gcm.Seal(nil, iv, plaintext, nil)
	tagSize := gcm.Overhead()
	ciphertext := sealed[:len(sealed)-tagSize]
	authTag := sealed[len(sealed)-tagSize:]

	return &Envelope{
		Salt:       salt,
		IV:         iv,
		AuthTag:    authTag,
		Ciphertext: ciphertext,
	}, nil
}

// Open decrypts an Envelope with passphrase. A wrong passphrase, tampered
// ciphertext, or GCM tag mismatch all surface as the same key-error, never
// distinguishable to an attacker.
func Open(passphrase string, env *Envelope) ([]byte, error) {
	key := deriveKey(passphrase, env.Salt)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, ferrors.KeyError("init AES cipher", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, ferrors.KeyError("init GCM", err)
	}

	sealed := append(append([]byte(nil), env.Ciphertext...), env.AuthTag...)
	plaintext, err := gcm.Open(nil, env.IV, sealed, nil)
	if err != nil {
		return nil, ferrors.KeyError("decrypt keystore envelope", err)
	}
	return plaintext, nil
}
