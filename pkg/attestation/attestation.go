// Package attestation implements signed trust-level claims one identity
// issues about another (spec.md §4.6). An Attestation carries both the
// exact signed payload bytes and the parsed envelope fields; Verify
// requires them to agree field-for-field before trusting either.
package attestation

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/sage-x-project/fides/internal/ferrors"
	"github.com/sage-x-project/fides/pkg/fcrypto"
	"github.com/sage-x-project/fides/pkg/identity"
)

const (
	minTrustLevel = 0
	maxTrustLevel = 100
)

// payload is the exact structure signed. Field order is fixed by the
// struct declaration, making json.Marshal output deterministic.
type payload struct {
	ID         string `json:"id"`
	IssuerDID  string `json:"issuerDid"`
	SubjectDID string `json:"subjectDid"`
	TrustLevel int    `json:"trustLevel"`
	IssuedAt   string `json:"issuedAt"`
}

// Attestation is a signed claim that IssuerDID asserts TrustLevel about
// SubjectDID. Payload holds the exact bytes that were signed; the other
// fields are parsed from it for convenience and must match it exactly.
type Attestation struct {
	ID         string `json:"id"`
	IssuerDID  string `json:"issuerDid"`
	SubjectDID string `json:"subjectDid"`
	TrustLevel int    `json:"trustLevel"`
	IssuedAt   string `json:"issuedAt"`
	Payload    string `json:"payload"`
	Signature  string `json:"signature"`
}

// Create signs a new attestation with sk (an Ed25519 seed), asserting
// that issuerDID vouches for subjectDID at trustLevel (0-100).
func Create(issuerDID, subjectDID string, trustLevel int, sk []byte) (*Attestation, error) {
	if !identity.IsValid(issuerDID) {
		return nil, ferrors.KeyError("invalid issuer identifier", nil)
	}
	if !identity.IsValid(subjectDID) {
		return nil, ferrors.KeyError("invalid subject identifier", nil)
	}
	if trustLevel < minTrustLevel || trustLevel > maxTrustLevel {
		return nil, ferrors.TrustError(fmt.Sprintf("trust level %d out of range [0,100]", trustLevel), nil)
	}

	p := payload{
		ID:         uuid.NewString(),
		IssuerDID:  issuerDID,
		SubjectDID: subjectDID,
		TrustLevel: trustLevel,
		IssuedAt:   time.Now().UTC().Format(time.RFC3339),
	}

	raw, err := json.Marshal(p)
	if err != nil {
		return nil, ferrors.TrustError("marshal attestation payload", err)
	}

	sig, err := fcrypto.Sign(raw, sk)
	if err != nil {
		return nil, ferrors.SignatureError("sign attestation", err)
	}

	return &Attestation{
		ID:         p.ID,
		IssuerDID:  p.IssuerDID,
		SubjectDID: p.SubjectDID,
		TrustLevel: p.TrustLevel,
		IssuedAt:   p.IssuedAt,
		Payload:    string(raw),
		Signature:  fcrypto.HexEncode(sig),
	}, nil
}

// Verify checks att's signature against pk and requires the envelope
// fields to match the signed payload exactly. It never panics; any
// malformed input simply verifies false.
func Verify(att *Attestation, pk []byte) bool {
	if att == nil {
		return false
	}

	sig, err := fcrypto.HexDecode(att.Signature)
	if err != nil {
		return false
	}

	ok, err := fcrypto.Verify([]byte(att.Payload), sig, pk)
	if err != nil || !ok {
		return false
	}

	var p payload
	if err := json.Unmarshal([]byte(att.Payload), &p); err != nil {
		return false
	}

	if !fcrypto.ConstantTimeEqualString(p.ID, att.ID) {
		return false
	}
	if !fcrypto.ConstantTimeEqualString(p.IssuerDID, att.IssuerDID) {
		return false
	}
	if !fcrypto.ConstantTimeEqualString(p.SubjectDID, att.SubjectDID) {
		return false
	}
	if !fcrypto.ConstantTimeEqualString(p.IssuedAt, att.IssuedAt) {
		return false
	}
	if p.TrustLevel != att.TrustLevel {
		return false
	}

	return true
}
