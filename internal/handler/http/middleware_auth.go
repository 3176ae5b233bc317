package http

import (
	"net/http"
	"strings"

	"github.com/MKhiriev/go-facility-sync/internal/logger"
	"github.com/MKhiriev/go-facility-sync/internal/service"
	"github.com/MKhiriev/go-facility-sync/internal/utils"
)

// auth is an HTTP middleware that authenticates the caller from a bearer JWT
// issued by the facility auth service.
//
// On success the [models.Caller] carried by the token (user, role, facility)
// is stored in the request context with [utils.WithCaller]. Requests without
// a header, with a malformed header, or with a token that fails signature,
// issuer, or expiry checks are rejected with 401 and an UNAUTHORIZED body.
func (h *Handler) auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log := logger.FromRequest(r)

		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			log.Err(ErrEmptyAuthorizationHeader).Str("func", "*Handler.auth").Send()
			unauthorized(w, ErrEmptyAuthorizationHeader.Error())
			return
		}

		tokenString, err := getTokenFromAuthHeader(authHeader)
		if err != nil {
			log.Err(err).Str("func", "*Handler.auth").Send()
			unauthorized(w, err.Error())
			return
		}

		caller, err := utils.ParseCallerToken(tokenString, h.tokenSignKey, h.tokenIssuer)
		if err != nil {
			log.Err(err).Str("func", "*Handler.auth").Msg("error occurred during parsing token")
			unauthorized(w, service.ErrUnauthenticated.Error())
			return
		}

		ctx := utils.WithCaller(r.Context(), caller)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func unauthorized(w http.ResponseWriter, message string) {
	utils.WriteError(w, message, string(service.CodeUnauthorized), http.StatusUnauthorized)
}

// getTokenFromAuthHeader extracts the token from "Bearer <token>".
func getTokenFromAuthHeader(authHeader string) (string, error) {
	scheme, token, found := strings.Cut(authHeader, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", ErrInvalidAuthorizationHeader
	}

	token = strings.TrimSpace(token)
	if token == "" {
		return "", ErrEmptyToken
	}

	return token, nil
}
