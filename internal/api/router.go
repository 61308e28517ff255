package api

import (
	"net/http"

	"github.com/triage-ai/crawlgate/internal/paywall"
	"github.com/triage-ai/crawlgate/internal/store"
	"go.uber.org/zap"
)

// Dependencies holds shared state injected into all HTTP handlers.
type Dependencies struct {
	Paywall *paywall.Paywall
	Store   *store.Store // nil when Postgres is not configured
	Logger  *zap.Logger

	// APIKeyHash is the bcrypt hash the Bearer token is checked against.
	// Empty disables auth (local development).
	APIKeyHash string
}

// NewRouter builds the HTTP mux with all routes wired up.
func NewRouter(deps *Dependencies) http.Handler {
	mux := http.NewServeMux()

	// Detection (auth required when an API key hash is configured)
	mux.HandleFunc("POST /v1/check", deps.authMiddleware(deps.handleCheck))
	mux.HandleFunc("GET /v1/check", deps.authMiddleware(deps.handleCheckSelf))

	// Pattern CRUD
	mux.HandleFunc("GET /api/crawlgate/patterns", deps.authMiddleware(deps.handleListPatterns))
	mux.HandleFunc("GET /api/crawlgate/patterns/{name}", deps.authMiddleware(deps.handleGetPattern))
	mux.HandleFunc("PUT /api/crawlgate/patterns/{name}", deps.authMiddleware(deps.handlePutPattern))
	mux.HandleFunc("DELETE /api/crawlgate/patterns/{name}", deps.authMiddleware(deps.handleDeletePattern))
	mux.HandleFunc("POST /api/crawlgate/patterns/validate", deps.authMiddleware(deps.handleValidatePattern))

	// Health check
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	return corsMiddleware(requestLogging(mux, deps.Logger))
}
