package httpsig

import (
	"fmt"
	"net/http"
	"regexp"
	"strings"

	"github.com/sage-x-project/fides/pkg/fcrypto"
)

const defaultClockDriftSeconds = 30

// NonceStore is the capability Verify uses for replay protection. Check
// reports whether nonce is fresh (and atomically records it), or false if
// it has been seen before.
type NonceStore interface {
	Check(nonce string) bool
}

// VerifyOptions customizes Verify.
type VerifyOptions struct {
	NonceStore        NonceStore
	ClockDriftSeconds int
}

func (o *VerifyOptions) withDefaults() VerifyOptions {
	out := VerifyOptions{}
	if o != nil {
		out = *o
	}
	if out.ClockDriftSeconds <= 0 {
		out.ClockDriftSeconds = defaultClockDriftSeconds
	}
	return out
}

// Result is the tagged outcome of Verify. Ordinary verification failures
// never panic or return a Go error from Verify itself — they're reported
// here so callers can branch without try/catch overhead.
type Result struct {
	Valid bool
	KeyID string
	Error string
}

var signatureValueRe = regexp.MustCompile(`([a-zA-Z0-9_-]+)=:([A-Za-z0-9+/=]+):`)

func extractSignature(label, header string) ([]byte, error) {
	for _, part := range strings.Split(header, ",") {
		part = strings.TrimSpace(part)
		m := signatureValueRe.FindStringSubmatch(part)
		if m != nil && m[1] == label {
			return fcrypto.Base64Decode(m[2])
		}
	}
	return nil, fmt.Errorf("no signature found for label %q", label)
}

// Verify checks req's Signature and Signature-Input headers against pk,
// per spec.md §4.5 steps 1-9. It never returns a Go error for ordinary
// verification failures; check Result.Valid.
func Verify(req *http.Request, pk []byte, opts *VerifyOptions) Result {
	o := opts.withDefaults()

	if len(pk) != fcrypto.PublicKeySize {
		return Result{Valid: false, Error: "invalid public key length"}
	}

	sigInputHeader := req.Header.Get("Signature-Input")
	sigHeader := req.Header.Get("Signature")
	if sigInputHeader == "" || sigHeader == "" {
		return Result{Valid: false, Error: "missing signature"}
	}

	parsed, err := ParseSignatureInput(sigInputHeader)
	if err != nil {
		return Result{Valid: false, Error: err.Error()}
	}
	params := parsed.Params

	if params.Alg != algorithm {
		return Result{Valid: false, KeyID: params.KeyID, Error: "unsupported or downgraded algorithm"}
	}

	now := nowFunc()
	if params.Expires+int64(o.ClockDriftSeconds) < now {
		return Result{Valid: false, KeyID: params.KeyID, Error: "signature expired"}
	}

	if o.NonceStore != nil && params.Nonce != "" {
		if !o.NonceStore.Check(params.Nonce) {
			return Result{Valid: false, KeyID: params.KeyID, Error: "replay detected"}
		}
	}

	sig, err := extractSignature(parsed.Label, sigHeader)
	if err != nil {
		return Result{Valid: false, KeyID: params.KeyID, Error: err.Error()}
	}

	msg, err := NewMessageFromRequest(req)
	if err != nil {
		return Result{Valid: false, KeyID: params.KeyID, Error: err.Error()}
	}

	base, err := BuildSignatureBase(msg, params)
	if err != nil {
		return Result{Valid: false, KeyID: params.KeyID, Error: err.Error()}
	}

	ok, err := fcrypto.Verify([]byte(base), sig, pk)
	if err != nil || !ok {
		return Result{Valid: false, KeyID: params.KeyID, Error: "signature verification failed"}
	}

	if digestHeader := msg.Header.Get("Content-Digest"); digestHeader != "" && len(msg.Body) > 0 {
		expected := "sha-256=:" + fcrypto.Base64Encode(fcrypto.SHA256(msg.Body)) + ":"
		if !fcrypto.ConstantTimeEqualString(digestHeader, expected) {
			return Result{Valid: false, KeyID: params.KeyID, Error: "Content-Digest mismatch"}
		}
	}

	return Result{Valid: true, KeyID: params.KeyID}
}
