package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/luxbridge/luxbridge/pkg/log"
	"github.com/luxbridge/luxbridge/pkg/monitor"
	"github.com/luxbridge/luxbridge/pkg/types"
)

// handleLogin authenticates against the vendor and returns the freshly
// rebuilt station list. Rejected credentials map to 401, everything else
// that goes wrong upstream to 500 with the underlying message.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req struct {
		Account  string `json:"account"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		// since we failed to read, don't return JSON error
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	if req.Account == "" {
		writeJSONError(w, "missing account", http.StatusBadRequest)
		return
	}
	if req.Password == "" {
		writeJSONError(w, "missing password", http.StatusBadRequest)
		return
	}

	if err := s.monitor.Login(ctx, req.Account, req.Password); err != nil {
		s.collector.IncrementLoginFailures()
		if errors.Is(err, monitor.ErrLoginRejected) {
			log.Ctx(ctx).WarnContext(ctx, "vendor rejected login", slog.Any("error", err))
			writeJSONError(w, err.Error(), http.StatusUnauthorized)
			return
		}
		log.Ctx(ctx).ErrorContext(ctx, "login failed", slog.Any("error", err))
		writeJSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	s.collector.IncrementLogins()
	s.collector.SetSessionValid(true)

	stations, err := s.monitor.ListStations(ctx)
	if err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "failed to list stations", slog.Any("error", err))
		writeJSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if stations == nil {
		stations = []types.Station{}
	}

	resp := struct {
		Success  bool            `json:"success"`
		Stations []types.Station `json:"stations"`
	}{
		Success:  true,
		Stations: stations,
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		panic(http.ErrAbortHandler)
	}
}

// handleSelectStation records which inverter device calls target. The
// serial is caller-trusted and not checked against the station list.
func (s *Server) handleSelectStation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req struct {
		SerialNum string `json:"serialNum"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		// since we failed to read, don't return JSON error
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	if req.SerialNum == "" {
		writeJSONError(w, "missing serialNum", http.StatusBadRequest)
		return
	}

	s.monitor.SelectStation(req.SerialNum)
	log.Ctx(ctx).InfoContext(ctx, "station selected", slog.String("serialNum", req.SerialNum))

	resp := struct {
		Success   bool   `json:"success"`
		SerialNum string `json:"serialNum"`
	}{
		Success:   true,
		SerialNum: req.SerialNum,
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		panic(http.ErrAbortHandler)
	}
}
