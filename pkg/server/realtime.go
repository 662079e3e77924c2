package server

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/luxbridge/luxbridge/pkg/log"
)

// handleRealtime returns a normalized telemetry snapshot. The gate here is
// soft: a dashboard polling this before anyone logged in gets a 200 with
// success=false instead of an HTTP error.
func (s *Server) handleRealtime(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if !s.monitor.SessionValid() || s.monitor.SessionStatus().SerialNum == "" {
		resp := struct {
			Success bool   `json:"success"`
			Error   string `json:"error"`
		}{
			Success: false,
			Error:   "not logged in or no station selected",
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			panic(http.ErrAbortHandler)
		}
		return
	}

	rt, err := s.monitor.GetRealtime(ctx)
	if err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "failed to get realtime data", slog.Any("error", err))
		writeJSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(rt); err != nil {
		panic(http.ErrAbortHandler)
	}
}
