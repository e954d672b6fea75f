package web

import (
	"net/http"

	"github.com/JonMunkholm/MenuEditor/internal/core"
	"github.com/JonMunkholm/MenuEditor/internal/logging"
)

// platformInfo describes one registered platform.
type platformInfo struct {
	Key         core.Platform `json:"key"`
	Label       string        `json:"label"`
	Toppings    bool          `json:"toppings"`
	ResponseKey string        `json:"responseKey"`
}

// handleListPlatforms returns the registered platforms in display order.
func (s *Server) handleListPlatforms(w http.ResponseWriter, r *http.Request) {
	defs := core.All()
	out := make([]platformInfo, len(defs))
	for i, def := range defs {
		out[i] = platformInfo{Key: def.Key, Label: def.Label, Toppings: def.Toppings, ResponseKey: def.ResponseKey}
	}
	writeJSON(w, r, out)
}

// handleHealth reports liveness, session count and scrape slot usage.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := map[string]any{
		"status":   "ok",
		"sessions": s.sessions.Len(),
	}
	if s.limiter != nil {
		resp["scrape"] = s.limiter.Status()
	}
	writeJSON(w, r, resp)
}

type loadRequest struct {
	Identifier string `json:"identifier"`
}

// handleLoad resets the session and loads the identified vendor.
// Failures carry the load report so the client can show status and alert.
func (s *Server) handleLoad(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())

	var req loadRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	report, err := sess.Orchestrator.Load(r.Context(), req.Identifier)
	if err != nil {
		writeErrorResponse(w, r, err, ErrorResponse{Report: report})
		return
	}

	logging.FromContext(r.Context()).Info("load applied",
		"load_seq", report.Seq,
		"status", report.Status.Message,
	)
	writeJSON(w, r, report)
}

// handleReset clears the session and invalidates any load in flight.
func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())
	sess.Orchestrator.Reset()
	writeJSON(w, r, sess.Store.Status())
}

// handleStatus returns the last status message.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, sessionFrom(r.Context()).Store.Status())
}
