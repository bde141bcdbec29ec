package api

import (
	"context"
	"net/http"
)

// HealthHandler handles the liveness endpoints.
type HealthHandler struct {
	deps       Dependencies
	faults     *faultWriter
	notFound   http.HandlerFunc
	port       int
	serverName string
}

// newHealthHandler creates a new health handler.
func newHealthHandler(deps Dependencies, faults *faultWriter, notFound http.HandlerFunc, port int, serverName string) *HealthHandler {
	return &HealthHandler{
		deps:       deps,
		faults:     faults,
		notFound:   notFound,
		port:       port,
		serverName: serverName,
	}
}

type wakeupResponse struct {
	Status    string `json:"status"`
	Server    string `json:"server"`
	Timestamp string `json:"timestamp"`
	Message   string `json:"message"`
	Port      int    `json:"port"`
}

type healthResponse struct {
	Status    string      `json:"status"`
	Server    string      `json:"server"`
	Timestamp string      `json:"timestamp"`
	Uptime    float64     `json:"uptime"`
	Memory    MemoryUsage `json:"memory"`
}

// HandleWakeup handles GET /api/wakeup, used to keep a sleeping host warm.
func (h *HealthHandler) HandleWakeup(w http.ResponseWriter, r *http.Request) {
	if !allowRead(r) {
		h.notFound(w, r)
		return
	}
	h.faults.guard(w, r, msgInternal, func(context.Context) (any, error) {
		return wakeupResponse{
			Status:    statusSuccess,
			Server:    "awake",
			Timestamp: timestamp(h.deps.Now()),
			Message:   "Node.js server is running and ready",
			Port:      h.port,
		}, nil
	})
}

// HandleHealth handles GET /api/health.
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	if !allowRead(r) {
		h.notFound(w, r)
		return
	}
	h.faults.guard(w, r, msgHealth, func(ctx context.Context) (any, error) {
		mem, err := h.deps.Memory(ctx)
		if err != nil {
			return nil, err
		}
		return healthResponse{
			Status:    statusHealthy,
			Server:    h.serverName,
			Timestamp: timestamp(h.deps.Now()),
			Uptime:    h.deps.Uptime().Seconds(),
			Memory:    mem,
		}, nil
	})
}
