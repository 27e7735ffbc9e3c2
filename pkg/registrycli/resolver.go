// Package registrycli is the client-side counterpart of the identity
// registry service (spec.md §4.8): given an identifier or a bare domain,
// it resolves the associated public key and metadata, preferring a
// self-hosted well-known document over the central registry, and caches
// positive results in-memory.
package registrycli

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/sage-x-project/fides/internal/ferrors"
	"github.com/sage-x-project/fides/pkg/fcrypto"
	"github.com/sage-x-project/fides/pkg/identity"
)

const (
	defaultCacheTTL   = 5 * time.Minute
	defaultCacheSize  = 4096
	defaultHTTPTimeout = 5 * time.Second
	wellKnownPath      = "/.well-known/fides.json"
)

// document is the wire shape returned by both the well-known endpoint and
// the registry's /identities lookups.
type document struct {
	DID       string         `json:"did"`
	PublicKey string         `json:"publicKey"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	Domain    string         `json:"domain,omitempty"`
}

// Resolver resolves identifiers and domains against a registry, with a
// well-known-first client-side fallback strategy.
type Resolver struct {
	httpClient  *http.Client
	registryURL string
	cache       *expirable.LRU[string, identity.Record]
}

// NewResolver builds a Resolver against registryURL. ttl<=0 uses the
// spec default of 5 minutes.
func NewResolver(registryURL string, ttl time.Duration) *Resolver {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &Resolver{
		httpClient:  &http.Client{Timeout: defaultHTTPTimeout},
		registryURL: strings.TrimRight(registryURL, "/"),
		cache:       expirable.NewLRU[string, identity.Record](defaultCacheSize, nil, ttl),
	}
}

// Resolve returns the identity record for input, which may be a DID or a
// bare domain. Positive results are cached under the original input.
func (r *Resolver) Resolve(ctx context.Context, input string) (*identity.Record, error) {
	if rec, ok := r.cache.Get(input); ok {
		return &rec, nil
	}

	var (
		rec *identity.Record
		err error
	)
	if identity.IsValid(input) {
		rec, err = r.byDID(ctx, input)
	} else {
		rec, err = r.byWellKnown(ctx, input)
		if err != nil {
			rec, err = r.byDomain(ctx, input)
		}
	}
	if err != nil {
		return nil, err
	}

	r.cache.Add(input, *rec)
	return rec, nil
}

func (r *Resolver) byDID(ctx context.Context, did string) (*identity.Record, error) {
	return r.fetch(ctx, r.registryURL+"/identities/"+url.PathEscape(did))
}

func (r *Resolver) byDomain(ctx context.Context, domain string) (*identity.Record, error) {
	docs, err := r.fetchList(ctx, r.registryURL+"/identities?domain="+url.QueryEscape(domain))
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, ferrors.DiscoveryError(fmt.Sprintf("no identities registered for domain %q", domain), nil)
	}
	return toRecord(docs[0])
}

func (r *Resolver) byWellKnown(ctx context.Context, domain string) (*identity.Record, error) {
	return r.fetch(ctx, "https://"+domain+wellKnownPath)
}

func (r *Resolver) fetch(ctx context.Context, u string) (*identity.Record, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, ferrors.DiscoveryError("build resolver request", err)
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, ferrors.DiscoveryError("resolver request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, ferrors.DiscoveryError(fmt.Sprintf("resolver request to %s returned %d", u, resp.StatusCode), nil)
	}

	var doc document
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return nil, ferrors.DiscoveryError("decode resolver response", err)
	}
	return toRecord(doc)
}

func (r *Resolver) fetchList(ctx context.Context, u string) ([]document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, ferrors.DiscoveryError("build resolver request", err)
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, ferrors.DiscoveryError("resolver request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, ferrors.DiscoveryError(fmt.Sprintf("resolver request to %s returned %d", u, resp.StatusCode), nil)
	}

	var docs []document
	if err := json.NewDecoder(resp.Body).Decode(&docs); err != nil {
		return nil, ferrors.DiscoveryError("decode resolver response list", err)
	}
	return docs, nil
}

func toRecord(doc document) (*identity.Record, error) {
	pk, err := fcrypto.HexDecode(doc.PublicKey)
	if err != nil {
		return nil, ferrors.KeyError("decode resolved public key", err)
	}
	now := time.Now().UTC()
	return &identity.Record{
		DID:       doc.DID,
		PublicKey: pk,
		Metadata:  doc.Metadata,
		Domain:    doc.Domain,
		FirstSeen: now,
		LastSeen:  now,
	}, nil
}
