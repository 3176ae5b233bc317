package http

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/MKhiriev/go-facility-sync/internal/service"
	"github.com/MKhiriev/go-facility-sync/internal/utils"
	"github.com/MKhiriev/go-facility-sync/models"
)

// syncStatus serves the health summary. Callers bound to a facility only
// ever see their own facility, whatever facilityId they ask for.
func (h *Handler) syncStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	caller, ok := callerFromRequest(w, r, "*Handler.syncStatus")
	if !ok {
		return
	}

	query := r.URL.Query()

	sinceMinutes := 0
	if raw := query.Get("sinceMinutes"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeServiceError(w, r, "*Handler.syncStatus", fmt.Errorf("%w: %w: sinceMinutes=%q", service.ErrValidation, ErrInvalidQuery, raw))
			return
		}
		sinceMinutes = n
	}

	filter := models.StatusFilter{
		DeviceID:   query.Get("deviceId"),
		UserID:     query.Get("userId"),
		FacilityID: query.Get("facilityId"),
	}
	if caller.Role != models.RoleAdministrator {
		filter.FacilityID = caller.FacilityID
	}

	summary, err := h.services.StatusService.Summarize(ctx, sinceMinutes, filter)
	if err != nil {
		writeServiceError(w, r, "*Handler.syncStatus", err)
		return
	}

	utils.WriteJSON(w, summary, http.StatusOK)
}
