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

func (h *Handler) createList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromRequest(r)

	userID, ok := utils.GetUserIDFromContext(ctx)
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	var req models.CreateListRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Err(err).Msg("Invalid JSON was passed")
		http.Error(w, "Invalid JSON was passed", http.StatusBadRequest)
		return
	}

	snapshot, err := h.services.Patch.CreateList(ctx, userID, req.EntityID, req.Title)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEntityAlreadyExists):
			log.Err(err).Msg("list already exists")
			http.Error(w, "list already exists", http.StatusConflict)
			return
		default:
			log.Err(err).Msg("unexpected error occurred during list creation")
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
	}

	utils.WriteJSON(w, snapshot, http.StatusCreated) //nolint:errcheck // response already committed
}

func (h *Handler) getSnapshot(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromRequest(r)

	userID, ok := utils.GetUserIDFromContext(ctx)
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	entityID := chi.URLParam(r, "listID")

	snapshot, err := h.services.Patch.GetSnapshot(ctx, userID, entityID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrPermissionDenied):
			http.Error(w, service.ErrPermissionDenied.Error(), http.StatusForbidden)
			return
		case errors.Is(err, service.ErrEntityNotFound):
			http.Error(w, service.ErrEntityNotFound.Error(), http.StatusNotFound)
			return
		default:
			log.Err(err).Msg("unexpected error occurred loading snapshot")
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
	}

	utils.WriteJSON(w, snapshot, http.StatusOK) //nolint:errcheck // response already committed
}

type shareListRequest struct {
	Login string `json:"login"`
}

func (h *Handler) shareList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromRequest(r)

	userID, ok := utils.GetUserIDFromContext(ctx)
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	entityID := chi.URLParam(r, "listID")

	var req shareListRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Err(err).Msg("Invalid JSON was passed")
		http.Error(w, "Invalid JSON was passed", http.StatusBadRequest)
		return
	}

	err := h.services.Patch.ShareList(ctx, userID, entityID, req.Login)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrPermissionDenied):
			http.Error(w, service.ErrPermissionDenied.Error(), http.StatusForbidden)
			return
		case errors.Is(err, service.ErrEntityNotFound):
			http.Error(w, service.ErrEntityNotFound.Error(), http.StatusNotFound)
			return
		default:
			log.Err(err).Msg("unexpected error occurred sharing list")
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
	}

	w.WriteHeader(http.StatusOK)
}
