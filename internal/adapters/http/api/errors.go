package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/okian/dice/pkg/logger"
)

// Sentinel kinds for API errors.
var (
	ErrPanic = errors.New("handler panicked")
)

// Fault messages of the handler families.
const (
	msgInternal    = "Internal server error"
	msgHealth      = "Health check failed"
	msgRollFailed  = "Failed to roll dice"
	msgInvalidRoll = "Invalid count parameter. Must be a number between 1 and 100."
)

// faultWriter turns handler faults into the 500 error envelope. In
// production the error detail is replaced by an empty object.
type faultWriter struct {
	production bool
	logger     logger.Logger
}

func (f *faultWriter) detail(err error) any {
	if f.production {
		return struct{}{}
	}
	return err.Error()
}

func (f *faultWriter) write(ctx context.Context, w http.ResponseWriter, message string, err error) {
	f.logger.Error(ctx, message, logger.Error(err))
	writeJSON(w, http.StatusInternalServerError, errorResponse{
		Status:  statusError,
		Message: message,
		Error:   f.detail(err),
	})
}

// guard runs build and writes its payload with 200. Errors and panics
// raised by build are answered with a 500 envelope carrying message.
func (f *faultWriter) guard(w http.ResponseWriter, r *http.Request, message string, build func(ctx context.Context) (any, error)) {
	ctx := r.Context()
	payload, err := func() (payload any, err error) {
		defer func() {
			if rvr := recover(); rvr != nil {
				//nolint:err113,errorlint // this must compare directly
				if rvr == http.ErrAbortHandler {
					panic(rvr)
				}
				err = fmt.Errorf("%w: %v", ErrPanic, rvr)
			}
		}()
		return build(ctx)
	}()
	if err != nil {
		f.write(ctx, w, message, err)
		return
	}
	writeJSON(w, http.StatusOK, payload)
}
