package api

import (
	"net/http"

	"github.com/triage-ai/crawlgate/internal/engine"
)

// handleCheck implements POST /v1/check: the caller submits an
// already-normalized request record and receives the classification.
// Every field of the body is optional — an empty record classifies human.
func (d *Dependencies) handleCheck(w http.ResponseWriter, r *http.Request) {
	var req engine.NormalizedRequest
	if err := readJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResp{Detail: "Invalid JSON body"})
		return
	}

	result := d.Paywall.CheckRequest(&req)
	writeJSON(w, http.StatusOK, result)
}

// handleCheckSelf implements GET /v1/check: classifies the inbound request
// itself, so an operator can point a crawler (or a browser) at the endpoint
// and see its own verdict.
func (d *Dependencies) handleCheckSelf(w http.ResponseWriter, r *http.Request) {
	result := d.Paywall.Check(r)
	writeJSON(w, http.StatusOK, result)
}
