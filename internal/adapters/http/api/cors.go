package api

import (
	"net/http"

	"github.com/okian/dice/pkg/metrics"
)

// Cross-origin header values sent on every route that has not opted out.
const (
	corsAllowMethods = "GET, POST, PUT, DELETE, OPTIONS"
	corsAllowHeaders = "Origin, X-Requested-With, Content-Type, Accept, Authorization"
)

// CORS filter decisions, used as metric labels.
const (
	corsAllowed  = "allowed"
	corsRejected = "rejected"
	corsAbsent   = "absent"
	corsOptedOut = "opted_out"
)

// corsFilter applies the cross-origin policy before routing. The origin is
// echoed only on an exact allow-list match; the remaining headers are sent
// regardless. Routes declared with cors=false receive no header at all.
// OPTIONS requests end here with an empty 200.
func (s *Server) corsFilter(mux *http.ServeMux) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, pattern := mux.Handler(r)
		metrics.RecordCORSDecision(s.applyCORS(w.Header(), r.Header.Get("Origin"), s.corsEnabled(pattern)))

		if r.Method == http.MethodOptions {
			metrics.RecordPreflight()
			w.WriteHeader(http.StatusOK)
			return
		}
		mux.ServeHTTP(w, r)
	})
}

// applyCORS writes the cross-origin headers for origin into h and returns
// the decision taken.
func (s *Server) applyCORS(h http.Header, origin string, enabled bool) string {
	if !enabled {
		return corsOptedOut
	}

	decision := corsAbsent
	if origin != "" {
		decision = corsRejected
		if _, ok := s.origins[origin]; ok {
			h.Set("Access-Control-Allow-Origin", origin)
			decision = corsAllowed
		}
	}
	h.Set("Access-Control-Allow-Methods", corsAllowMethods)
	h.Set("Access-Control-Allow-Headers", corsAllowHeaders)
	h.Set("Access-Control-Allow-Credentials", "true")
	return decision
}
