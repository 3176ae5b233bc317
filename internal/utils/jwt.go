package utils

import (
	"errors"
	"fmt"
	"time"

	"github.com/MKhiriev/go-facility-sync/models"
	"github.com/golang-jwt/jwt/v5"
)

// CallerClaims are the JWT claims issued by the external auth service for a
// facility user. The subject (sub) carries the user identifier.
type CallerClaims struct {
	jwt.RegisteredClaims

	Role       models.Role `json:"role"`
	FacilityID string      `json:"facility_id"`
}

var (
	errInvalidTokenParams = errors.New("invalid params for generating JWT Token")
	errEmptySubject       = errors.New("empty subject error")
	errEmptyRole          = errors.New("empty role claim")
)

// GenerateCallerToken creates a signed HMAC-SHA256 JWT for caller.
//
// The token includes the following claims:
//   - Issuer    (iss): identifies the service that issued the token
//   - Subject   (sub): the caller's user ID
//   - IssuedAt  (iat) / ExpiresAt (exp)
//   - role, facility_id
//
// Tokens are normally minted by the auth collaborator; the server uses this
// for tests and local tooling.
func GenerateCallerToken(issuer string, caller models.Caller, tokenDuration time.Duration, signKey string) (string, error) {
	if issuer == "" || tokenDuration == 0 || signKey == "" || caller.UserID == "" {
		return "", errInvalidTokenParams
	}

	now := time.Now()
	claims := &CallerClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   caller.UserID,
			ExpiresAt: jwt.NewNumericDate(now.Add(tokenDuration)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		Role:       caller.Role,
		FacilityID: caller.FacilityID,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(signKey))
	if err != nil {
		return "", fmt.Errorf("error occurred during singing JWT token: %w", err)
	}

	return signed, nil
}

// ParseCallerToken validates tokenString and extracts the caller from its
// claims.
//
// Validation includes signature verification with tokenSignKey (HS256 only),
// the issuer check against tokenIssuer, expiry, and presence of the subject
// and role claims.
func ParseCallerToken(tokenString, tokenSignKey, tokenIssuer string) (models.Caller, error) {
	claims := &CallerClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		return []byte(tokenSignKey), nil
	}, jwt.WithIssuer(tokenIssuer), jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return models.Caller{}, fmt.Errorf("error occurred validating and parsing token: %w", err)
	}

	if claims.Subject == "" {
		return models.Caller{}, errEmptySubject
	}
	if claims.Role == "" {
		return models.Caller{}, errEmptyRole
	}

	return models.Caller{
		UserID:     claims.Subject,
		Role:       claims.Role,
		FacilityID: claims.FacilityID,
	}, nil
}
