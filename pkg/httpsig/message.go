// Package httpsig implements RFC 9421 HTTP Message Signatures: building
// the canonical signature base string, serializing and parsing the
// Signature-Input parameter dictionary, and the Sign/Verify operations
// built on top of them.
//
// The canonicalizer consumes any value shaped like an HTTP request — a
// capability, not a concrete type — so callers can adapt either
// *http.Request or *http.Response-derived data without this package
// depending on net/http request construction details.
package httpsig

import (
	"bytes"
	"io"
	"net/http"
	"net/url"
)

// Message is the capability the canonicalizer needs: method, target URI,
// headers, and an optional body. NewMessageFromRequest adapts a real
// *http.Request into one, preserving the request body for downstream
// handlers.
type Message struct {
	Method string
	URL    *url.URL
	Header http.Header
	Body   []byte
}

// NewMessageFromRequest builds a Message from req, reading and restoring
// its body so req remains usable afterward.
func NewMessageFromRequest(req *http.Request) (*Message, error) {
	var body []byte
	if req.Body != nil {
		var err error
		body, err = io.ReadAll(req.Body)
		if err != nil {
			return nil, err
		}
		req.Body.Close()
		req.Body = io.NopCloser(bytes.NewReader(body))
	}
	return &Message{
		Method: req.Method,
		URL:    req.URL,
		Header: req.Header,
		Body:   body,
	}, nil
}
