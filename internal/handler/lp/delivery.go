package lp

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/webitel/screens-rating/internal/domain/model"
	lpmarshaller "github.com/webitel/screens-rating/internal/handler/marshaller/lp"
	"github.com/webitel/screens-rating/internal/service"
)

type LPHandler struct {
	screens service.Screener
	wait    time.Duration
	logger  *slog.Logger
}

func NewLPHandler(screens service.Screener, wait time.Duration, logger *slog.Logger) *LPHandler {
	return &LPHandler{
		screens: screens,
		wait:    wait,
		logger:  logger,
	}
}

// DeleteRating dispatches a delete and holds the connection until the listener
// is notified or the wait times out.
func (h *LPHandler) DeleteRating(w http.ResponseWriter, r *http.Request) {
	// 1. Extract Identity and request.
	identity, err := model.ParseIdentity(chi.URLParam(r, "screenletID"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, lpmarshaller.NewErrorResponse(err))
		return
	}
	classPK, err := strconv.ParseInt(r.URL.Query().Get("classPK"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, &lpmarshaller.ErrorResponse{Reason: "invalid_request", Message: "classPK must be an integer"})
		return
	}
	className := r.URL.Query().Get("className")

	// 2. Temporary screen.
	// The interactor lives only for the duration of this HTTP request.
	outcomes := service.NewChanListener(1)
	it, err := h.screens.Open(identity, outcomes)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, lpmarshaller.NewErrorResponse(err))
		return
	}
	defer it.Close()

	// 3. Dispatch. Failures here are synchronous and final.
	if err := it.DeleteRating(r.Context(), className, classPK); err != nil {
		writeJSON(w, lpmarshaller.StatusOfDispatch(err), lpmarshaller.NewErrorResponse(err))
		return
	}

	// 4. Wait for the outcome or timeout.
	select {
	case <-r.Context().Done():
		// Client disconnected; the remote call still completes.
		return

	case <-time.After(h.wait):
		// The portal is slow; the result will be dropped when it arrives.
		h.logger.Warn("DELETE_WAIT_TIMEOUT", "identity", identity, "wait", h.wait)
		w.WriteHeader(http.StatusAccepted)
		return

	case o := <-outcomes:
		if o.Err != nil {
			re := model.AsRemoteError(o.Err)
			writeJSON(w, lpmarshaller.StatusOfFailure(re), &lpmarshaller.DeleteResponse{Identity: identity, Error: re})
			return
		}
		writeJSON(w, http.StatusOK, &lpmarshaller.DeleteResponse{Identity: identity, Deleted: true})
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
