package api

import (
	"net/http"
	"strconv"
)

// LegacyHandler serves the plain-text probe kept for older clients.
type LegacyHandler struct {
	notFound http.HandlerFunc
	body     string
}

// newLegacyHandler creates a new legacy handler reporting port.
func newLegacyHandler(notFound http.HandlerFunc, port int) *LegacyHandler {
	// Existing clients match this exact text.
	return &LegacyHandler{notFound: notFound, body: "Node.js and Express running on port=" + strconv.Itoa(port)}
}

// HandleTest handles GET /test.
func (h *LegacyHandler) HandleTest(w http.ResponseWriter, r *http.Request) {
	if !allowRead(r) {
		h.notFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(h.body))
}
