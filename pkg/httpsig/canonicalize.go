package httpsig

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dunglas/httpsfv"

	"github.com/sage-x-project/fides/internal/ferrors"
)

// DefaultComponents is the component set §4.5 mandates when the signer
// isn't given an explicit override.
var DefaultComponents = []string{"@method", "@target-uri", "@authority", "content-type"}

// DefaultLabel is the signature label used when the caller doesn't
// override it.
const DefaultLabel = "sig1"

// SignatureParams holds the parsed or to-be-serialized parameters of a
// Signature-Input entry: the ordered component list plus created,
// expires, keyid, alg, and an optional nonce.
type SignatureParams struct {
	Components []string
	Created    int64
	Expires    int64
	KeyID      string
	Alg        string
	Nonce      string
}

// ParsedSignatureInput is the {label, params} pair spec.md §4.4 defines
// for the Signature-Input parameter parser.
type ParsedSignatureInput struct {
	Label  string
	Params SignatureParams
}

func authority(msg *Message) string {
	if msg.URL != nil && msg.URL.Host != "" {
		return msg.URL.Host
	}
	return msg.Header.Get("Host")
}

func targetURI(msg *Message) string {
	if msg.URL != nil && msg.URL.IsAbs() {
		return msg.URL.String()
	}
	scheme := "https"
	path := ""
	if msg.URL != nil {
		path = msg.URL.Path
		if msg.URL.RawQuery != "" {
			path += "?" + msg.URL.RawQuery
		}
	}
	return scheme + "://" + authority(msg) + path
}

func pathAndQuery(msg *Message) string {
	if msg.URL == nil {
		return ""
	}
	if msg.URL.RawQuery == "" {
		return msg.URL.Path
	}
	return msg.URL.Path + "?" + msg.URL.RawQuery
}

// BuildSignatureBase constructs the RFC 9421 signature base string for
// msg over the given components, terminated by the @signature-params
// line built from params. A header component missing from msg.Header is
// a fatal canonicalization error.
func BuildSignatureBase(msg *Message, params SignatureParams) (string, error) {
	var lines []string

	for _, component := range params.Components {
		var value string
		switch component {
		case "@method":
			value = strings.ToUpper(msg.Method)
		case "@target-uri":
			value = targetURI(msg)
		case "@authority":
			value = authority(msg)
		case "@path":
			value = pathAndQuery(msg)
		default:
			hv := msg.Header.Get(component)
			if hv == "" {
				return "", ferrors.SignatureError(fmt.Sprintf("missing required signed header %q", component), nil)
			}
			value = hv
		}
		lines = append(lines, fmt.Sprintf("%q: %s", strings.ToLower(component), value))
	}

	lines = append(lines, signatureParamsLine(params))
	return strings.Join(lines, "\n"), nil
}

func signatureParamsLine(params SignatureParams) string {
	quoted := make([]string, len(params.Components))
	for i, c := range params.Components {
		quoted[i] = strconv.Quote(strings.ToLower(c))
	}

	var b strings.Builder
	b.WriteString(`"@signature-params": (`)
	b.WriteString(strings.Join(quoted, " "))
	b.WriteString(fmt.Sprintf(");created=%d;expires=%d", params.Created, params.Expires))
	if params.Nonce != "" {
		b.WriteString(fmt.Sprintf(";nonce=%q", params.Nonce))
	}
	b.WriteString(fmt.Sprintf(";keyid=%q;alg=%q", params.KeyID, params.Alg))
	return b.String()
}

// SerializeSignatureInput renders the Signature-Input header value for
// the given label and params, e.g.
// `sig1=("@method" "@target-uri");created=1;expires=301;keyid="did:...";alg="ed25519"`.
func SerializeSignatureInput(label string, params SignatureParams) (string, error) {
	items := make([]httpsfv.Item, len(params.Components))
	for i, c := range params.Components {
		items[i] = httpsfv.NewItem(strings.ToLower(c))
	}
	innerList := httpsfv.InnerList{Items: items, Params: httpsfv.NewParams()}

	innerList.Params.Add("created", params.Created)
	innerList.Params.Add("expires", params.Expires)
	if params.Nonce != "" {
		innerList.Params.Add("nonce", params.Nonce)
	}
	innerList.Params.Add("keyid", params.KeyID)
	innerList.Params.Add("alg", params.Alg)

	dict := httpsfv.NewDictionary()
	dict.Add(label, innerList)

	serialized, err := httpsfv.Marshal(dict)
	if err != nil {
		return "", ferrors.SignatureError("serialize Signature-Input", err)
	}
	return serialized, nil
}

// ParseSignatureInput parses a Signature-Input header value into its
// label and structured parameters.
func ParseSignatureInput(header string) (*ParsedSignatureInput, error) {
	dict, err := httpsfv.UnmarshalDictionary([]string{header})
	if err != nil {
		return nil, ferrors.SignatureError("parse Signature-Input", err)
	}
	if len(dict.Names()) == 0 {
		return nil, ferrors.SignatureError("Signature-Input has no members", nil)
	}
	label := dict.Names()[0]
	member, _ := dict.Get(label)
	innerList, ok := member.(httpsfv.InnerList)
	if !ok {
		return nil, ferrors.SignatureError("Signature-Input member is not an inner list", nil)
	}

	components := make([]string, len(innerList.Items))
	for i, item := range innerList.Items {
		s, ok := item.Value.(string)
		if !ok {
			return nil, ferrors.SignatureError("Signature-Input component is not a string", nil)
		}
		components[i] = s
	}

	params := SignatureParams{Components: components}

	if v, ok := innerList.Params.Get("created"); ok {
		params.Created, _ = toInt64(v)
	}
	if v, ok := innerList.Params.Get("expires"); ok {
		params.Expires, _ = toInt64(v)
	}
	if v, ok := innerList.Params.Get("keyid"); ok {
		params.KeyID, _ = v.(string)
	}
	if v, ok := innerList.Params.Get("alg"); ok {
		params.Alg, _ = v.(string)
	}
	if v, ok := innerList.Params.Get("nonce"); ok {
		params.Nonce, _ = v.(string)
	}

	return &ParsedSignatureInput{Label: label, Params: params}, nil
}

func toInt64(v interface{}) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case float64:
		return int64(n), true
	default:
		return 0, false
	}
}
