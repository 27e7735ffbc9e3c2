// Package ferrors defines the typed error kinds shared across the fides
// core: key management, message-signature verification, discovery, and
// trust-graph operations. Handlers in internal/registrysvc and
// internal/trustsvc translate these into HTTP status codes; libraries
// never log or print, they just wrap and return.
package ferrors

import "errors"

// Kind classifies an error for status-code translation at the service
// boundary.
type Kind string

const (
	KindKey        Kind = "key_error"
	KindSignature  Kind = "signature_error"
	KindDiscovery  Kind = "discovery_error"
	KindTrust      Kind = "trust_error"
)

// Error is the common shape for all four error kinds in spec.md §7.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Cause }

func newErr(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// KeyError wraps failures in generation, parsing, encryption/decryption,
// or length validation of cryptographic key material.
func KeyError(message string, cause error) *Error {
	return newErr(KindKey, message, cause)
}

// SignatureError wraps canonicalization, verification, freshness, replay,
// digest-mismatch, and algorithm-downgrade failures.
func SignatureError(message string, cause error) *Error {
	return newErr(KindSignature, message, cause)
}

// DiscoveryError wraps registry transport and non-2xx responses.
func DiscoveryError(message string, cause error) *Error {
	return newErr(KindDiscovery, message, cause)
}

// TrustError wraps validation, signature, identity-not-found,
// circuit-open, and cache/DB failures in the trust graph engine.
func TrustError(message string, cause error) *Error {
	return newErr(KindTrust, message, cause)
}

// Is reports whether err is a *Error of the given kind.
func Is(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}
