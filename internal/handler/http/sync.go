package http

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/MKhiriev/go-facility-sync/internal/logger"
	"github.com/MKhiriev/go-facility-sync/internal/service"
	"github.com/MKhiriev/go-facility-sync/internal/utils"
	"github.com/MKhiriev/go-facility-sync/models"
	"github.com/go-chi/chi/v5"
)

// deleteResponse is the body of a successful document deletion.
type deleteResponse struct {
	Success  bool                 `json:"success"`
	Deletion models.DeletionEntry `json:"deletion"`
}

func (h *Handler) sync(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	caller, ok := callerFromRequest(w, r, "*Handler.sync")
	if !ok {
		return
	}

	var req models.SyncRequest
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, r, "*Handler.sync", err)
		return
	}

	resp, err := h.services.SyncService.Sync(ctx, caller, req)
	if err != nil {
		writeServiceError(w, r, "*Handler.sync", err)
		return
	}

	utils.WriteJSON(w, resp, http.StatusOK)
}

func (h *Handler) reconcile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	caller, ok := callerFromRequest(w, r, "*Handler.reconcile")
	if !ok {
		return
	}

	var req models.ReconcileRequest
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, r, "*Handler.reconcile", err)
		return
	}

	result, err := h.services.ReconcileService.Reconcile(ctx, caller, req)
	if err != nil {
		writeServiceError(w, r, "*Handler.reconcile", err)
		return
	}

	utils.WriteJSON(w, models.NewReconcileResponse(result), http.StatusOK)
}

func (h *Handler) deleteDocument(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	caller, ok := callerFromRequest(w, r, "*Handler.deleteDocument")
	if !ok {
		return
	}

	collection := chi.URLParam(r, "collection")
	documentID := chi.URLParam(r, "documentID")

	entry, err := h.services.DocumentService.DeleteDocument(ctx, caller, collection, documentID)
	if err != nil {
		writeServiceError(w, r, "*Handler.deleteDocument", err)
		return
	}

	utils.WriteJSON(w, deleteResponse{Success: true, Deletion: entry}, http.StatusOK)
}

// callerFromRequest returns the caller stored by the auth middleware.
func callerFromRequest(w http.ResponseWriter, r *http.Request, funcName string) (models.Caller, bool) {
	caller, found := utils.GetCallerFromContext(r.Context())
	if !found {
		logger.FromRequest(r).Error().Str("func", funcName).Msg("no caller in request context")
		writeServiceError(w, r, funcName, service.ErrUnauthenticated)
		return models.Caller{}, false
	}
	return caller, true
}

func decodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("%w: %w: %w", service.ErrValidation, ErrInvalidJSON, err)
	}
	return nil
}
