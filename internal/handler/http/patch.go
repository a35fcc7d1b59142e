package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/packwise/go-pack-sync/internal/logger"
	"github.com/packwise/go-pack-sync/internal/service"
	"github.com/packwise/go-pack-sync/internal/utils"
	"github.com/packwise/go-pack-sync/models"
)

// applyOperation is the single mutation endpoint. Every list change arrives
// here as a self-contained operation; the response always carries one of the
// wire statuses from [models.ApplyResponse] so the client adapter can map it
// back into a typed outcome.
func (h *Handler) applyOperation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromRequest(r)

	userID, ok := utils.GetUserIDFromContext(ctx)
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	entityID := chi.URLParam(r, "listID")

	var req models.ApplyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Err(err).Msg("Invalid JSON was passed")
		writeApplyError(w, models.StatusInvalid, "invalid JSON body", http.StatusBadRequest)
		return
	}

	op := models.Operation{
		OpID:     req.OpID,
		EntityID: entityID,
		Kind:     req.Kind,
		Payload:  req.Payload,
	}

	snapshot, err := h.services.Patch.Apply(ctx, userID, op)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrPermissionDenied):
			writeApplyError(w, models.StatusForbidden, "no edit access to this list", http.StatusForbidden)
			return
		case errors.Is(err, service.ErrEntityNotFound):
			writeApplyError(w, models.StatusNotFound, "list does not exist", http.StatusNotFound)
			return
		case errors.Is(err, service.ErrConflict):
			// The conflict body carries the current canonical snapshot so
			// the client can mediate without a second round trip.
			resp := models.ApplyResponse{
				Status:   models.StatusConflict,
				Snapshot: &snapshot,
				Error:    err.Error(),
			}
			utils.WriteJSON(w, resp, http.StatusConflict) //nolint:errcheck // response already committed
			return
		case errors.Is(err, service.ErrInvalidOperation):
			writeApplyError(w, models.StatusInvalid, err.Error(), http.StatusBadRequest)
			return
		default:
			log.Err(err).Str("op_id", req.OpID).Msg("unexpected error occurred applying operation")
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
	}

	resp := models.ApplyResponse{
		Status:   models.StatusApplied,
		Snapshot: &snapshot,
	}
	utils.WriteJSON(w, resp, http.StatusOK) //nolint:errcheck // response already committed
}

func writeApplyError(w http.ResponseWriter, status, message string, httpStatus int) {
	resp := models.ApplyResponse{
		Status: status,
		Error:  message,
	}
	utils.WriteJSON(w, resp, httpStatus) //nolint:errcheck // response already committed
}
