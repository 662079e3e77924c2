package server

import (
	"encoding/json"
	"net/http"
)

// handleStatus reports the session without touching the vendor, so callers
// can poll it freely.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	st := s.monitor.SessionStatus()

	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(st); err != nil {
		panic(http.ErrAbortHandler)
	}
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	st := s.monitor.SessionStatus()

	resp := struct {
		Status    string `json:"status"`
		Connected bool   `json:"connected"`
		SerialNum string `json:"serialNum"`
	}{
		Status:    "ok",
		Connected: st.Connected,
		SerialNum: st.SerialNum,
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		panic(http.ErrAbortHandler)
	}
}
