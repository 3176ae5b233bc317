package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/MKhiriev/go-facility-sync/internal/logger"
	"github.com/MKhiriev/go-facility-sync/internal/service"
	"github.com/MKhiriev/go-facility-sync/internal/utils"
)

var errorStatusMap = map[service.ErrorCode]int{
	service.CodeValidation:     http.StatusBadRequest,
	service.CodeInvalidColl:    http.StatusBadRequest,
	service.CodeNotFound:       http.StatusNotFound,
	service.CodeAccessDenied:   http.StatusForbidden,
	service.CodeUnauthorized:   http.StatusUnauthorized,
	service.CodeRateLimited:    http.StatusTooManyRequests,
	service.CodeCollectionSync: http.StatusInternalServerError,
	service.CodeSystem:         http.StatusInternalServerError,
}

func statusFromError(err error) int {
	if status, ok := errorStatusMap[service.CodeOf(err)]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// writeServiceError renders err as an error body. System errors are logged
// with their cause and sent with a generic message only.
func writeServiceError(w http.ResponseWriter, r *http.Request, funcName string, err error) {
	code := service.CodeOf(err)
	status := statusFromError(err)

	event := logger.FromRequest(r).Warn()
	if status >= http.StatusInternalServerError {
		event = logger.FromRequest(r).Error()
	}
	event.Err(err).Str("func", funcName).Str("code", string(code)).Int("status", status).Msg("request failed")

	body := utils.ErrorBody{
		Error: service.PublicMessage(err),
		Code:  string(code),
	}

	var rateLimitErr *service.RateLimitError
	if errors.As(err, &rateLimitErr) {
		body.RetryAfter = rateLimitErr.RetryAfterSeconds()
		w.Header().Set("Retry-After", strconv.Itoa(body.RetryAfter))
	}

	utils.WriteJSON(w, body, status)
}

func routeNotFound(w http.ResponseWriter, r *http.Request) {
	utils.WriteError(w, "route not found", string(service.CodeNotFound), http.StatusNotFound)
}
