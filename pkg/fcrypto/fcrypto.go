// Package fcrypto provides the cryptographic primitives the rest of fides
// is built on: Ed25519 keypair generation and signing, SHA-256/SHA-512
// hashing, and the base58/base64/hex codecs used by identifiers and wire
// formats. Every equality check on secret material goes through
// ConstantTimeEqual.
package fcrypto

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/sha256"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"fmt"

	"github.com/mr-tron/base58"

	"github.com/sage-x-project/fides/internal/ferrors"
)

const (
	// PublicKeySize is the length in bytes of an Ed25519 public key.
	PublicKeySize = ed25519.PublicKeySize
	// PrivateSeedSize is the length in bytes of an Ed25519 private seed.
	PrivateSeedSize = ed25519.SeedSize
	// SignatureSize is the length in bytes of an Ed25519 signature.
	SignatureSize = ed25519.SignatureSize
)

// KeyPair holds an exclusively-owned Ed25519 private seed and its
// corresponding public key. The zero value is not valid; use
// GenerateKeyPair or FromSeed.
type KeyPair struct {
	PublicKey []byte
	Seed      []byte
}

// GenerateKeyPair mints a fresh Ed25519 keypair.
func GenerateKeyPair() (*KeyPair, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, ferrors.KeyError("generate keypair", err)
	}
	return &KeyPair{
		PublicKey: []byte(pub),
		Seed:      []byte(priv.Seed()),
	}, nil
}

// FromSeed reconstructs a KeyPair from a 32-byte private seed.
func FromSeed(seed []byte) (*KeyPair, error) {
	if len(seed) != PrivateSeedSize {
		return nil, ferrors.KeyError(fmt.Sprintf("seed must be %d bytes, got %d", PrivateSeedSize, len(seed)), nil)
	}
	priv := ed25519.NewKeyFromSeed(seed)
	pub := priv.Public().(ed25519.PublicKey)
	return &KeyPair{
		PublicKey: []byte(pub),
		Seed:      append([]byte(nil), seed...),
	}, nil
}

// Sign signs msg with the keypair's private key.
func (k *KeyPair) Sign(msg []byte) []byte {
	priv := ed25519.NewKeyFromSeed(k.Seed)
	return ed25519.Sign(priv, msg)
}

// Sign signs msg under sk, a 32-byte Ed25519 private seed.
func Sign(msg, sk []byte) ([]byte, error) {
	if len(sk) != PrivateSeedSize {
		return nil, ferrors.KeyError(fmt.Sprintf("private key must be %d bytes, got %d", PrivateSeedSize, len(sk)), nil)
	}
	priv := ed25519.NewKeyFromSeed(sk)
	return ed25519.Sign(priv, msg), nil
}

// Verify reports whether sig is a valid Ed25519 signature over msg under
// pk. Malformed input (wrong-length key or signature) returns false with
// an error describing the mismatch rather than panicking.
func Verify(msg, sig, pk []byte) (bool, error) {
	if len(pk) != PublicKeySize {
		return false, ferrors.KeyError(fmt.Sprintf("public key must be %d bytes, got %d", PublicKeySize, len(pk)), nil)
	}
	if len(sig) != SignatureSize {
		return false, ferrors.KeyError(fmt.Sprintf("signature must be %d bytes, got %d", SignatureSize, len(sig)), nil)
	}
	return ed25519.Verify(ed25519.PublicKey(pk), msg, sig), nil
}

// SHA256 returns the SHA-256 digest of data.
func SHA256(data []byte) []byte {
	sum := sha256.Sum256(data)
	return sum[:]
}

// SHA512 returns the SHA-512 digest of data.
func SHA512(data []byte) []byte {
	sum := sha512.Sum512(data)
	return sum[:]
}

// Base58Encode encodes data using the Bitcoin base58 alphabet.
func Base58Encode(data []byte) string {
	return base58.Encode(data)
}

// Base58Decode decodes a Bitcoin-alphabet base58 string.
func Base58Decode(s string) ([]byte, error) {
	b, err := base58.Decode(s)
	if err != nil {
		return nil, ferrors.KeyError("base58 decode", err)
	}
	return b, nil
}

// Base64Encode encodes data using standard base64.
func Base64Encode(data []byte) string {
	return base64.StdEncoding.EncodeToString(data)
}

// Base64Decode decodes a standard base64 string.
func Base64Decode(s string) ([]byte, error) {
	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, ferrors.KeyError("base64 decode", err)
	}
	return b, nil
}

// HexEncode encodes data as lowercase hex.
func HexEncode(data []byte) string {
	return hex.EncodeToString(data)
}

// HexDecode decodes a hex string.
func HexDecode(s string) ([]byte, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, ferrors.KeyError("hex decode", err)
	}
	return b, nil
}

// ConstantTimeEqual compares two byte slices in constant time.
func ConstantTimeEqual(a, b []byte) bool {
	return subtle.ConstantTimeCompare(a, b) == 1
}

// ConstantTimeEqualString compares two strings in constant time.
func ConstantTimeEqualString(a, b string) bool {
	return ConstantTimeEqual([]byte(a), []byte(b))
}
