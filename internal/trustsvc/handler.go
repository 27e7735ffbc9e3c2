// Package trustsvc implements the trust graph service (C9/C10,
// spec.md §4.9.6): create-trust, path discovery, and reputation scoring
// over the pkg/trust engine.
package trustsvc

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/sage-x-project/fides/internal/authmw"
	"github.com/sage-x-project/fides/pkg/identity"
	"github.com/sage-x-project/fides/pkg/trust"
)

// Pinger is implemented by internal/storage.Postgres for /health checks.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler wires the trust graph HTTP endpoints to a trust.Engine.
type Handler struct {
	engine *trust.Engine
	store  trust.Store
	pinger Pinger
	logger *zap.Logger
	auth   *authmw.Middleware
}

// NewHandler builds a Handler. pinger may be nil when running against
// the in-memory store, which is always reachable. Revocation requires a
// valid signature from the edge's issuer, resolved against store.
func NewHandler(engine *trust.Engine, store trust.Store, pinger Pinger, logger *zap.Logger) *Handler {
	return &Handler{engine: engine, store: store, pinger: pinger, logger: logger, auth: authmw.New(storeResolver{store}, nil)}
}

// storeResolver adapts trust.Store's identity lookup to authmw.Resolver.
type storeResolver struct{ store trust.Store }

func (r storeResolver) Resolve(ctx context.Context, did string) (*identity.Record, error) {
	return r.store.GetIdentity(ctx, did)
}

func respondJSON(w http.ResponseWriter, code int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, code int, message string) {
	respondJSON(w, code, map[string]string{"error": message})
}

type createTrustRequest struct {
	IssuerDID  string     `json:"issuerDid"`
	SubjectDID string     `json:"subjectDid"`
	TrustLevel int        `json:"trustLevel"`
	Signature  string     `json:"signature"`
	Payload    string     `json:"payload"`
	ExpiresAt  *time.Time `json:"expiresAt,omitempty"`
}

type edgeResponse struct {
	ID string `json:"id"`
}

// HandleCreateTrust implements POST /v1/trust.
func (h *Handler) HandleCreateTrust(w http.ResponseWriter, r *http.Request) {
	var req createTrustRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "malformed request body")
		return
	}

	edge, err := h.engine.CreateTrust(r.Context(), trust.CreateTrustRequest{
		IssuerDID:  req.IssuerDID,
		SubjectDID: req.SubjectDID,
		TrustLevel: req.TrustLevel,
		Signature:  req.Signature,
		Payload:    req.Payload,
		ExpiresAt:  req.ExpiresAt,
	})
	if err != nil {
		h.logger.Info("create trust rejected", zap.Error(err))
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	respondJSON(w, http.StatusCreated, edgeResponse{ID: edge.ID})
}

// HandleScore implements GET /v1/trust/:did/score.
func (h *Handler) HandleScore(w http.ResponseWriter, r *http.Request) {
	did := chi.URLParam(r, "did")
	score, err := h.engine.Score(r.Context(), did)
	if err != nil {
		h.logger.Error("compute score", zap.Error(err), zap.String("did", did))
		respondError(w, http.StatusInternalServerError, "failed to compute score")
		return
	}
	respondJSON(w, http.StatusOK, score)
}

// HandlePath implements GET /v1/trust/:from/:to.
func (h *Handler) HandlePath(w http.ResponseWriter, r *http.Request) {
	from := chi.URLParam(r, "from")
	to := chi.URLParam(r, "to")

	result, err := h.engine.FindPath(r.Context(), from, to, trust.MaxPathDepth)
	if err != nil {
		h.logger.Error("find path", zap.Error(err), zap.String("from", from), zap.String("to", to))
		respondError(w, http.StatusInternalServerError, "failed to compute path")
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// HandleRevokeTrust implements DELETE /v1/trust/:from/:to. The caller
// must be authenticated (via authmw) as the edge's issuer.
func (h *Handler) HandleRevokeTrust(w http.ResponseWriter, r *http.Request) {
	from := chi.URLParam(r, "from")
	to := chi.URLParam(r, "to")

	signer, ok := authmw.SignerDID(r.Context())
	if !ok || signer != from {
		respondError(w, http.StatusForbidden, "only the issuing identity may revoke this edge")
		return
	}

	if err := h.store.RevokeEdge(r.Context(), from, to, time.Now().UTC()); err != nil {
		h.logger.Info("revoke trust rejected", zap.Error(err), zap.String("source", from), zap.String("target", to))
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.store.InvalidateScore(r.Context(), to); err != nil {
		h.logger.Warn("invalidate score after revoke", zap.Error(err), zap.String("did", to))
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "revoked"})
}

// HandleGetIdentity implements GET /v1/identities/:did.
func (h *Handler) HandleGetIdentity(w http.ResponseWriter, r *http.Request) {
	did := chi.URLParam(r, "did")
	rec, err := h.store.GetIdentity(r.Context(), did)
	if err != nil {
		respondError(w, http.StatusNotFound, "identity not found")
		return
	}
	respondJSON(w, http.StatusOK, identityView(rec))
}

func identityView(rec *identity.Record) map[string]any {
	return map[string]any{
		"did":      rec.DID,
		"domain":   rec.Domain,
		"metadata": rec.Metadata,
	}
}

// HandleHealth implements GET /health.
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	if h.pinger != nil {
		if err := h.pinger.Ping(r.Context()); err != nil {
			respondError(w, http.StatusServiceUnavailable, "database unreachable")
			return
		}
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
