package api

import (
	"net/http"

	"github.com/triage-ai/crawlgate/internal/patterns"
	"go.uber.org/zap"
)

// ValidateResp is the JSON body returned by the validate endpoint.
type ValidateResp struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors"`
}

// handleListPatterns implements GET /api/crawlgate/patterns.
// Patterns are returned in their external definition shape, keyed by name.
func (d *Dependencies) handleListPatterns(w http.ResponseWriter, _ *http.Request) {
	all := d.Paywall.Registry().All()
	out := make(map[string]patterns.Definition, len(all))
	for name, p := range all {
		out[name] = p.Definition()
	}
	writeJSON(w, http.StatusOK, out)
}

// handleGetPattern implements GET /api/crawlgate/patterns/{name}.
func (d *Dependencies) handleGetPattern(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	p, ok := d.Paywall.Registry().Get(name)
	if !ok {
		writeJSON(w, http.StatusNotFound, ErrorResp{Detail: "pattern not found"})
		return
	}
	writeJSON(w, http.StatusOK, p.Definition())
}

// handlePutPattern implements PUT /api/crawlgate/patterns/{name}.
// The definition is validated before it is accepted; a valid definition is
// compiled into the live registry and, when Postgres is configured,
// persisted so it survives restarts.
func (d *Dependencies) handlePutPattern(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")

	var def patterns.Definition
	if err := readJSON(r, &def); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResp{Detail: "Invalid JSON body"})
		return
	}
	def.Name = name

	if issues := patterns.Validate(def); len(issues) > 0 {
		writeJSON(w, http.StatusUnprocessableEntity, ValidateResp{Valid: false, Errors: issues})
		return
	}

	d.Paywall.Registry().Upsert(name, patterns.Compile(name, def))

	if d.Store != nil {
		if err := d.Store.UpsertPattern(r.Context(), name, def); err != nil {
			// The live registry already has the pattern; report the
			// persistence failure without rolling back detection state.
			d.Logger.Error("pattern persist failed", zap.String("name", name), zap.Error(err))
			writeJSON(w, http.StatusInternalServerError, ErrorResp{Detail: "pattern active but not persisted"})
			return
		}
	}

	writeJSON(w, http.StatusOK, def)
}

// handleDeletePattern implements DELETE /api/crawlgate/patterns/{name}.
func (d *Dependencies) handleDeletePattern(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")

	removed := d.Paywall.Registry().Remove(name)
	if d.Store != nil {
		if _, err := d.Store.DeletePattern(r.Context(), name); err != nil {
			d.Logger.Error("pattern delete failed", zap.String("name", name), zap.Error(err))
		}
	}

	if !removed {
		writeJSON(w, http.StatusNotFound, ErrorResp{Detail: "pattern not found"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"removed": name})
}

// handleValidatePattern implements POST /api/crawlgate/patterns/validate:
// a pure reporting endpoint for vetting third-party pattern submissions
// without touching the registry.
func (d *Dependencies) handleValidatePattern(w http.ResponseWriter, r *http.Request) {
	var def patterns.Definition
	if err := readJSON(r, &def); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResp{Detail: "Invalid JSON body"})
		return
	}

	issues := patterns.Validate(def)
	if issues == nil {
		issues = []string{}
	}
	writeJSON(w, http.StatusOK, ValidateResp{Valid: len(issues) == 0, Errors: issues})
}
