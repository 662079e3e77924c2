package server

import (
	"log/slog"
	"net/http"

	"github.com/luxbridge/luxbridge/pkg/log"
)

// sessionRequired lists the paths that refuse to run without a valid vendor
// session. The settings writers need only the session: the selected serial
// is injected as-is, and an empty one is the vendor's problem to reject.
var sessionRequired = map[string]bool{
	"/working-modes":        true,
	"/read-settings":        true,
	"/set-working-mode":     true,
	"/set-ac-charge":        true,
	"/set-peak-shaving":     true,
	"/set-battery-settings": true,
}

// deviceRequired lists the paths that additionally need a selected station.
var deviceRequired = map[string]bool{
	"/working-modes": true,
	"/read-settings": true,
}

// sessionMiddleware gates requests on the process-wide vendor session.
// There is no refresh here: an expired session stays expired until someone
// hits /login again.
func (s *Server) sessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		ctx = log.With(ctx, log.Ctx(ctx).With(slog.String("reqPath", r.URL.Path)))

		if sessionRequired[r.URL.Path] && !s.monitor.SessionValid() {
			log.Ctx(ctx).WarnContext(ctx, "request without a valid session")
			writeJSONError(w, "not logged in or session expired", http.StatusUnauthorized)
			return
		}
		if deviceRequired[r.URL.Path] && s.monitor.SessionStatus().SerialNum == "" {
			log.Ctx(ctx).WarnContext(ctx, "request without a selected station")
			writeJSONError(w, "no station selected", http.StatusBadRequest)
			return
		}

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
