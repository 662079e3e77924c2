package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/luxbridge/luxbridge/pkg/log"
)

// handleWorkingModes returns the reconstructed daily schedule. A failure on
// either register batch aborts the whole computation.
func (s *Server) handleWorkingModes(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	wm, err := s.monitor.GetWorkingModes(ctx)
	if err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "failed to get working modes", slog.Any("error", err))
		writeJSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(wm); err != nil {
		panic(http.ErrAbortHandler)
	}
}

// handleReadSettings returns the vendor's raw runtime and register fields
// for callers that want them unreshaped.
func (s *Server) handleReadSettings(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	settings, err := s.monitor.ReadSettings(ctx)
	if err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "failed to read settings", slog.Any("error", err))
		writeJSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(settings); err != nil {
		panic(http.ErrAbortHandler)
	}
}

func (s *Server) handleSetWorkingMode(w http.ResponseWriter, r *http.Request) {
	s.relaySettings(w, r, "working-mode", s.monitor.SetWorkingMode)
}

func (s *Server) handleSetACCharge(w http.ResponseWriter, r *http.Request) {
	s.relaySettings(w, r, "ac-charge", s.monitor.SetACCharge)
}

func (s *Server) handleSetPeakShaving(w http.ResponseWriter, r *http.Request) {
	s.relaySettings(w, r, "peak-shaving", s.monitor.SetPeakShaving)
}

func (s *Server) handleSetBatterySettings(w http.ResponseWriter, r *http.Request) {
	s.relaySettings(w, r, "battery-settings", s.monitor.SetBatterySettings)
}

// relaySettings decodes whatever JSON object the caller sent, forwards it
// through the given writer and relays the vendor's response bytes
// untouched. An empty body forwards an empty payload: the vendor decides
// what is acceptable, not us.
func (s *Server) relaySettings(w http.ResponseWriter, r *http.Request, op string, call func(context.Context, map[string]interface{}) (json.RawMessage, error)) {
	ctx := r.Context()

	payload := map[string]interface{}{}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil && !errors.Is(err, io.EOF) {
		log.Ctx(ctx).WarnContext(ctx, "failed to decode settings payload", slog.String("op", op), slog.Any("error", err))
		writeJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	raw, err := call(ctx, payload)
	if err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "failed to forward settings write", slog.String("op", op), slog.Any("error", err))
		writeJSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if _, err := w.Write(raw); err != nil {
		panic(http.ErrAbortHandler)
	}
}
