package http

import (
	"net/http"

	"github.com/MKhiriev/go-facility-sync/internal/utils"
)

// getServerVersion answers with the build metadata as JSON, or with the bare
// version string for clients that ask for text/plain.
func (h *Handler) getServerVersion(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if r.Header.Get("Accept") == "text/plain" {
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte(h.services.AppInfoService.GetAppVersion(ctx)))
		return
	}

	utils.WriteJSON(w, h.services.AppInfoService.GetBuildInfo(ctx), http.StatusOK)
}
