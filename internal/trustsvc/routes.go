package trustsvc

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Routes builds the trust graph service's chi router.
func (h *Handler) Routes(corsOrigin string) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(corsMiddleware(corsOrigin))

	r.Post("/v1/trust", h.HandleCreateTrust)
	r.Get("/v1/trust/{did}/score", h.HandleScore)
	r.Get("/v1/trust/{from}/{to}", h.HandlePath)
	r.With(h.auth.Wrap).Delete("/v1/trust/{from}/{to}", h.HandleRevokeTrust)
	r.Get("/v1/identities/{did}", h.HandleGetIdentity)
	r.Get("/health", h.HandleHealth)

	return r
}

func corsMiddleware(origin string) func(http.Handler) http.Handler {
	if origin == "" {
		origin = "*"
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Signature, Signature-Input, Content-Digest")
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
