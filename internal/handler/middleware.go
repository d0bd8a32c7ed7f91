package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/boddenberg/runway-bfa/internal/service"

	"go.uber.org/zap"
)

type contextKey string

const userIDKey contextKey = "userID"

var (
	errMissingToken  = errors.New("missing bearer token")
	errMalformedAuth = errors.New("invalid authorization header")
)

// bearerToken pulls the token out of "Authorization: Bearer <token>".
func bearerToken(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", errMissingToken
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return "", errMalformedAuth
	}
	return strings.TrimSpace(token), nil
}

// JWTAuthMiddleware rejects requests without a valid access token and puts
// the token's subject in the request context for UserIDFromContext.
func JWTAuthMiddleware(authSvc *service.AuthService, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := bearerToken(r)
			if err == nil {
				var claims *service.JWTClaims
				if claims, err = authSvc.ValidateAccessToken(token); err == nil {
					ctx := context.WithValue(r.Context(), userIDKey, claims.UserID())
					next.ServeHTTP(w, r.WithContext(ctx))
					return
				}
			}

			logger.Warn("request rejected",
				zap.String("path", r.URL.Path),
				zap.String("remote_addr", r.RemoteAddr),
				zap.Error(err),
			)
			writeError(w, http.StatusUnauthorized, err.Error())
		})
	}
}

// UserIDFromContext returns the authenticated user, or "" outside /v1/me.
func UserIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(userIDKey).(string)
	return id
}
