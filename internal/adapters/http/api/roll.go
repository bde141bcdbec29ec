package api

import (
	"context"
	"net/http"

	"github.com/okian/dice/internal/domain/dice"
)

// RollHandler handles the dice endpoints.
type RollHandler struct {
	deps     Dependencies
	faults   *faultWriter
	notFound http.HandlerFunc
}

// newRollHandler creates a new roll handler.
func newRollHandler(deps Dependencies, faults *faultWriter, notFound http.HandlerFunc) *RollHandler {
	return &RollHandler{deps: deps, faults: faults, notFound: notFound}
}

const corsDemoMessage = "This endpoint intentionally causes CORS errors when called from browser"

type singleRollResponse struct {
	Status    string `json:"status"`
	Die       string `json:"die"`
	Result    int    `json:"result"`
	Timestamp string `json:"timestamp"`
}

type multipleRollResponse struct {
	Status    string `json:"status"`
	Dice      string `json:"dice"`
	Count     int    `json:"count"`
	Results   []int  `json:"results"`
	Total     int    `json:"total"`
	Timestamp string `json:"timestamp"`
}

type corsDemoResponse struct {
	Status    string `json:"status"`
	Die       string `json:"die"`
	Result    int    `json:"result"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

// HandleSingle handles GET /api/roll/single.
func (h *RollHandler) HandleSingle(w http.ResponseWriter, r *http.Request) {
	if !allowRead(r) {
		h.notFound(w, r)
		return
	}
	h.faults.guard(w, r, msgRollFailed, func(ctx context.Context) (any, error) {
		result, err := h.deps.Roll(ctx)
		if err != nil {
			return nil, err
		}
		return singleRollResponse{
			Status:    statusSuccess,
			Die:       dice.Die,
			Result:    result,
			Timestamp: timestamp(h.deps.Now()),
		}, nil
	})
}

// HandleMultiple handles GET /api/roll/multiple/{count}.
func (h *RollHandler) HandleMultiple(w http.ResponseWriter, r *http.Request) {
	if !allowRead(r) {
		h.notFound(w, r)
		return
	}
	count, err := dice.ParseCount(r.PathValue("count"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Status: statusError, Message: msgInvalidRoll})
		return
	}
	h.faults.guard(w, r, msgRollFailed, func(ctx context.Context) (any, error) {
		results, total, err := h.deps.RollN(ctx, count)
		if err != nil {
			return nil, err
		}
		return multipleRollResponse{
			Status:    statusSuccess,
			Dice:      dice.Die,
			Count:     count,
			Results:   results,
			Total:     total,
			Timestamp: timestamp(h.deps.Now()),
		}, nil
	})
}

// HandleCORSDemo handles GET /api/roll-dice. Its route is registered with
// cors=false, so browsers calling it cross-origin reject the response.
func (h *RollHandler) HandleCORSDemo(w http.ResponseWriter, r *http.Request) {
	if !allowRead(r) {
		h.notFound(w, r)
		return
	}
	h.faults.guard(w, r, msgRollFailed, func(ctx context.Context) (any, error) {
		result, err := h.deps.Roll(ctx)
		if err != nil {
			return nil, err
		}
		return corsDemoResponse{
			Status:    statusSuccess,
			Die:       dice.Die,
			Result:    result,
			Message:   corsDemoMessage,
			Timestamp: timestamp(h.deps.Now()),
		}, nil
	})
}
