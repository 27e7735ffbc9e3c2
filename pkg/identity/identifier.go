// Package identity derives and parses fides self-certifying identifiers
// and holds the IdentityRecord type persisted by the registry service.
//
// An identifier has the form "did:fides:<base58(pubkey)>" where pubkey is
// a 32-byte Ed25519 public key. Parsing an identifier recovers the exact
// public-key bytes that produced it — the identifier is its own proof of
// the key it names.
package identity

import (
	"strings"
	"time"

	"github.com/sage-x-project/fides/internal/ferrors"
	"github.com/sage-x-project/fides/pkg/fcrypto"
)

// Prefix is the literal DID method prefix for fides identifiers.
const Prefix = "did:fides:"

// Derive builds the self-certifying identifier for the given 32-byte
// Ed25519 public key.
func Derive(pubKey []byte) (string, error) {
	if len(pubKey) != fcrypto.PublicKeySize {
		return "", ferrors.KeyError("public key must be 32 bytes", nil)
	}
	return Prefix + fcrypto.Base58Encode(pubKey), nil
}

// Parse recovers the 32-byte Ed25519 public key encoded in id. It fails
// when the prefix is absent, the suffix isn't valid base58, or the decoded
// length isn't 32 bytes.
func Parse(id string) ([]byte, error) {
	if !strings.HasPrefix(id, Prefix) {
		return nil, ferrors.KeyError("identifier missing did:fides: prefix", nil)
	}
	suffix := strings.TrimPrefix(id, Prefix)
	pub, err := fcrypto.Base58Decode(suffix)
	if err != nil {
		return nil, ferrors.KeyError("identifier suffix is not valid base58", err)
	}
	if len(pub) != fcrypto.PublicKeySize {
		return nil, ferrors.KeyError("decoded public key must be 32 bytes", nil)
	}
	return pub, nil
}

// IsValid reports whether id parses successfully, without returning an
// error a caller must check.
func IsValid(id string) bool {
	_, err := Parse(id)
	return err == nil
}

// Record is the persisted IdentityRecord: an identifier's public key plus
// discovery metadata and first/last-seen bookkeeping.
type Record struct {
	DID        string
	PublicKey  []byte
	Metadata   map[string]any
	Domain     string
	FirstSeen  time.Time
	LastSeen   time.Time
}

// Touch updates LastSeen to now; used whenever a trust operation
// references this identifier.
func (r *Record) Touch(now time.Time) {
	r.LastSeen = now
}
