package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/luxbridge/luxbridge/pkg/types"
)

func TestSessionGating(t *testing.T) {
	gated := []struct {
		method string
		path   string
	}{
		{"GET", "/working-modes"},
		{"GET", "/read-settings"},
		{"POST", "/set-working-mode"},
		{"POST", "/set-ac-charge"},
		{"POST", "/set-peak-shaving"},
		{"POST", "/set-battery-settings"},
	}

	t.Run("session paths reject without a login", func(t *testing.T) {
		m := new(mockMonitor)
		m.On("SessionValid").Return(false)
		h := newTestServer(m).setupHandler()

		for _, tc := range gated {
			req := httptest.NewRequest(tc.method, tc.path, nil)
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)

			assert.Equal(t, http.StatusUnauthorized, w.Result().StatusCode, tc.path)
			assert.Contains(t, w.Body.String(), "not logged in or session expired", tc.path)
		}
		m.AssertNotCalled(t, "GetWorkingModes", mock.Anything)
	})

	t.Run("device paths additionally need a selected station", func(t *testing.T) {
		m := new(mockMonitor)
		m.On("SessionValid").Return(true)
		m.On("SessionStatus").Return(types.SessionStatus{Connected: true})
		h := newTestServer(m).setupHandler()

		for _, path := range []string{"/working-modes", "/read-settings"} {
			req := httptest.NewRequest("GET", path, nil)
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)

			assert.Equal(t, http.StatusBadRequest, w.Result().StatusCode, path)
			assert.Contains(t, w.Body.String(), "no station selected", path)
		}
	})

	t.Run("settings writers need only the session", func(t *testing.T) {
		m := new(mockMonitor)
		m.On("SessionValid").Return(true)
		m.On("SetWorkingMode", mock.Anything, mock.Anything).
			Return(json.RawMessage(`{"success":true}`), nil).Once()
		h := newTestServer(m).setupHandler()

		// no station was ever selected, the write still goes out
		req := httptest.NewRequest("POST", "/set-working-mode", nil)
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Result().StatusCode)
		assert.Equal(t, `{"success":true}`, w.Body.String())
		m.AssertExpectations(t)
	})

	t.Run("ungated paths pass through", func(t *testing.T) {
		m := new(mockMonitor)
		m.On("SessionStatus").Return(types.SessionStatus{})
		h := newTestServer(m).setupHandler()

		for _, path := range []string{"/", "/status", "/healthz"} {
			req := httptest.NewRequest("GET", path, nil)
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)

			assert.Equal(t, http.StatusOK, w.Result().StatusCode, path)
		}
		m.AssertNotCalled(t, "SessionValid")
	})
}
