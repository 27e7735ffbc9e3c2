// Package registrysvc implements the identity registry service (C8,
// spec.md §4.8): register/resolve identifier -> public key + metadata,
// and this service's own well-known discovery document.
package registrysvc

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/sage-x-project/fides/pkg/fcrypto"
	"github.com/sage-x-project/fides/pkg/identity"
)

// Store is the persistence dependency registrysvc needs; internal/storage.Postgres satisfies it.
type Store interface {
	GetIdentity(ctx context.Context, did string) (*identity.Record, error)
	UpsertIdentity(ctx context.Context, rec *identity.Record) error
	ListIdentitiesByDomain(ctx context.Context, domain string) ([]*identity.Record, error)
	Ping(ctx context.Context) error
}

// SelfDocument is this service's own discovery record, served at
// /.well-known/fides.json.
type SelfDocument struct {
	DID       string
	PublicKey []byte
	Domain    string
}

// Handler wires the registry HTTP endpoints to a Store.
type Handler struct {
	store    Store
	validate *validator.Validate
	logger   *zap.Logger
	self     *SelfDocument
}

// NewHandler builds a Handler. self may be nil if this deployment has no
// self-hosted discovery document to serve.
func NewHandler(store Store, logger *zap.Logger, self *SelfDocument) *Handler {
	return &Handler{store: store, validate: validator.New(), logger: logger, self: self}
}

type registerRequest struct {
	DID       string         `json:"did" validate:"required"`
	PublicKey string         `json:"publicKey" validate:"required,hexadecimal,len=64"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	Domain    string         `json:"domain,omitempty"`
}

type identityDocument struct {
	DID       string         `json:"did"`
	PublicKey string         `json:"publicKey"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	Domain    string         `json:"domain,omitempty"`
}

func toDocument(rec *identity.Record) identityDocument {
	return identityDocument{
		DID:       rec.DID,
		PublicKey: fcrypto.HexEncode(rec.PublicKey),
		Metadata:  rec.Metadata,
		Domain:    rec.Domain,
	}
}

func respondJSON(w http.ResponseWriter, code int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, code int, message string) {
	respondJSON(w, code, map[string]string{"error": message})
}

// HandleRegister implements POST /identities.
func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	pkFromKey, err := fcrypto.HexDecode(req.PublicKey)
	if err != nil {
		respondError(w, http.StatusBadRequest, "publicKey is not valid hex")
		return
	}
	pkFromDID, err := identity.Parse(req.DID)
	if err != nil {
		respondError(w, http.StatusBadRequest, "did is not a valid fides identifier")
		return
	}
	if !fcrypto.ConstantTimeEqual(pkFromDID, pkFromKey) {
		respondError(w, http.StatusForbidden, "did does not match publicKey")
		return
	}

	ctx := r.Context()
	if _, err := h.store.GetIdentity(ctx, req.DID); err == nil {
		respondError(w, http.StatusConflict, "identity already registered")
		return
	}

	now := nowFunc()
	rec := &identity.Record{
		DID:       req.DID,
		PublicKey: pkFromKey,
		Metadata:  req.Metadata,
		Domain:    req.Domain,
		FirstSeen: now,
		LastSeen:  now,
	}
	if err := h.store.UpsertIdentity(ctx, rec); err != nil {
		h.logger.Error("register identity", zap.Error(err), zap.String("did", req.DID))
		respondError(w, http.StatusInternalServerError, "failed to persist identity")
		return
	}

	respondJSON(w, http.StatusCreated, toDocument(rec))
}

// HandleGetByDID implements GET /identities/:did.
func (h *Handler) HandleGetByDID(w http.ResponseWriter, r *http.Request) {
	did := chi.URLParam(r, "did")
	rec, err := h.store.GetIdentity(r.Context(), did)
	if err != nil {
		respondError(w, http.StatusNotFound, "identity not found")
		return
	}
	respondJSON(w, http.StatusOK, toDocument(rec))
}

// HandleListByDomain implements GET /identities?domain=X.
func (h *Handler) HandleListByDomain(w http.ResponseWriter, r *http.Request) {
	domain := r.URL.Query().Get("domain")
	if domain == "" {
		respondError(w, http.StatusBadRequest, "domain query parameter is required")
		return
	}

	records, err := h.store.ListIdentitiesByDomain(r.Context(), domain)
	if err != nil {
		h.logger.Error("list identities by domain", zap.Error(err), zap.String("domain", domain))
		respondError(w, http.StatusInternalServerError, "failed to list identities")
		return
	}

	docs := make([]identityDocument, len(records))
	for i, rec := range records {
		docs[i] = toDocument(rec)
	}
	respondJSON(w, http.StatusOK, docs)
}

// HandleWellKnown implements GET /.well-known/fides.json.
func (h *Handler) HandleWellKnown(w http.ResponseWriter, r *http.Request) {
	if h.self == nil {
		respondError(w, http.StatusNotFound, "no self-hosted discovery document configured")
		return
	}
	respondJSON(w, http.StatusOK, identityDocument{
		DID:       h.self.DID,
		PublicKey: fcrypto.HexEncode(h.self.PublicKey),
		Domain:    h.self.Domain,
	})
}

// HandleHealth implements GET /health.
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Ping(r.Context()); err != nil {
		respondError(w, http.StatusServiceUnavailable, "database unreachable")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
