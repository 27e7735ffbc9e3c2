package httpsig

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/sage-x-project/fides/internal/ferrors"
	"github.com/sage-x-project/fides/pkg/fcrypto"
)

const (
	defaultExpirySeconds = 300
	algorithm            = "ed25519"
)

// SignOptions customizes Sign. KeyID is required for anything but an
// anonymous signature; the rest default per spec.md §4.5.
type SignOptions struct {
	KeyID         string
	Components    []string
	ExpirySeconds int
	Label         string
}

func (o *SignOptions) withDefaults() SignOptions {
	out := SignOptions{}
	if o != nil {
		out = *o
	}
	if len(out.Components) == 0 {
		out.Components = append([]string(nil), DefaultComponents...)
	}
	if out.ExpirySeconds <= 0 {
		out.ExpirySeconds = defaultExpirySeconds
	}
	if out.Label == "" {
		out.Label = DefaultLabel
	}
	return out
}

// nowFunc is overridable in tests.
var nowFunc = func() int64 { return timeNowUnix() }

// Sign signs req in place with sk, attaching Content-Digest (if req has a
// body), Signature-Input, and Signature headers.
func Sign(req *http.Request, sk []byte, opts *SignOptions) error {
	o := opts.withDefaults()

	msg, err := NewMessageFromRequest(req)
	if err != nil {
		return ferrors.SignatureError("read request for signing", err)
	}

	components := append([]string(nil), o.Components...)
	if len(msg.Body) > 0 {
		digest := "sha-256=:" + fcrypto.Base64Encode(fcrypto.SHA256(msg.Body)) + ":"
		req.Header.Set("Content-Digest", digest)
		msg.Header.Set("Content-Digest", digest)
		components = append(components, "content-digest")
	}

	created := nowFunc()
	params := SignatureParams{
		Components: components,
		Created:    created,
		Expires:    created + int64(o.ExpirySeconds),
		KeyID:      o.KeyID,
		Alg:        algorithm,
		Nonce:      uuid.NewString(),
	}

	base, err := BuildSignatureBase(msg, params)
	if err != nil {
		return err
	}

	sig, err := fcrypto.Sign([]byte(base), sk)
	if err != nil {
		return ferrors.SignatureError("sign message", err)
	}

	sigInput, err := SerializeSignatureInput(o.Label, params)
	if err != nil {
		return err
	}

	req.Header.Set("Signature-Input", sigInput)
	req.Header.Set("Signature", o.Label+"=:"+fcrypto.Base64Encode(sig)+":")
	return nil
}
