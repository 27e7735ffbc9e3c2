// Package authmw provides HTTP middleware that authenticates incoming
// requests by verifying their RFC 9421 signature against the signer's
// registered identity, per spec.md §4.6 (service-side verification).
package authmw

import (
	"context"
	"fmt"
	"net/http"

	"github.com/sage-x-project/fides/pkg/httpsig"
	"github.com/sage-x-project/fides/pkg/identity"
)

type contextKey string

const signerDIDKey contextKey = "fides_signer_did"

// Resolver looks up an identity's current public key, by DID or by
// whatever identifier the caller presents as the signature's key ID.
type Resolver interface {
	Resolve(ctx context.Context, input string) (*identity.Record, error)
}

// ErrorHandler reports a verification failure to the client.
type ErrorHandler func(w http.ResponseWriter, r *http.Request, err error)

// Middleware verifies the Signature/Signature-Input headers of incoming
// requests against the key ID's resolved identity.
type Middleware struct {
	resolver     Resolver
	verifyOpts   *httpsig.VerifyOptions
	errorHandler ErrorHandler
	optional     bool
}

// New builds a Middleware that resolves signer keys through resolver and
// checks nonces/clock drift per opts (nil uses httpsig's defaults).
func New(resolver Resolver, opts *httpsig.VerifyOptions) *Middleware {
	return &Middleware{
		resolver:     resolver,
		verifyOpts:   opts,
		errorHandler: defaultErrorHandler,
	}
}

// Optional allows requests without signature headers to pass through
// unauthenticated instead of being rejected.
func (m *Middleware) Optional(optional bool) *Middleware {
	m.optional = optional
	return m
}

// SetErrorHandler overrides how verification failures are reported.
func (m *Middleware) SetErrorHandler(h ErrorHandler) {
	m.errorHandler = h
}

// Wrap authenticates req before handing it to next.
func (m *Middleware) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions {
			next.ServeHTTP(w, r)
			return
		}

		sigInput := r.Header.Get("Signature-Input")
		sig := r.Header.Get("Signature")
		if sigInput == "" || sig == "" {
			if m.optional {
				next.ServeHTTP(w, r)
				return
			}
			m.errorHandler(w, r, fmt.Errorf("missing signature headers"))
			return
		}

		parsed, err := httpsig.ParseSignatureInput(sigInput)
		if err != nil {
			m.errorHandler(w, r, fmt.Errorf("parse signature input: %w", err))
			return
		}
		if parsed.Params.KeyID == "" {
			m.errorHandler(w, r, fmt.Errorf("signature is missing a key ID"))
			return
		}

		record, err := m.resolver.Resolve(r.Context(), parsed.Params.KeyID)
		if err != nil {
			m.errorHandler(w, r, fmt.Errorf("resolve signer identity: %w", err))
			return
		}

		result := httpsig.Verify(r, record.PublicKey, m.verifyOpts)
		if !result.Valid {
			m.errorHandler(w, r, fmt.Errorf("signature verification failed: %s", result.Error))
			return
		}

		ctx := context.WithValue(r.Context(), signerDIDKey, record.DID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// SignerDID extracts the authenticated signer's identifier from ctx.
func SignerDID(ctx context.Context) (string, bool) {
	did, ok := ctx.Value(signerDIDKey).(string)
	return did, ok
}

func defaultErrorHandler(w http.ResponseWriter, r *http.Request, err error) {
	http.Error(w, fmt.Sprintf("unauthorized: %s", err.Error()), http.StatusUnauthorized)
}
