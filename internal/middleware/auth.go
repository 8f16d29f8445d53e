package middleware

import (
	"context"
	"net/http"
	"strings"

	"surplus-saver-api/internal/model"
	"surplus-saver-api/internal/service"
	"surplus-saver-api/pkg/apierror"
)

// TokenDataKey is the key for storing token data in request context.
const TokenDataKey contextKey = "token_data"

// NewAuthMiddleware creates an authentication middleware with injected
// dependencies. Mounted on protected route groups only; public routes
// (register, login, health, the storefront listing) never pass through it.
func NewAuthMiddleware(tokens *service.TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				writeError(w, apierror.Unauthorized("Authentication required. Use Authorization: Bearer or X-Token header."))
				return
			}

			tokenData, err := tokens.ValidateToken(r.Context(), token)
			if err != nil {
				writeError(w, apierror.Unauthorized("Invalid or expired token"))
				return
			}

			ctx := context.WithValue(r.Context(), TokenDataKey, tokenData)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAction denies the request unless the authenticated role may perform
// the action. Must run after NewAuthMiddleware.
func RequireAction(action service.Action) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			data := GetTokenData(r.Context())
			if data == nil {
				writeError(w, apierror.Unauthorized("Authentication required"))
				return
			}
			if !service.Allow(data.Role, action) {
				writeError(w, apierror.Forbidden("Your role cannot perform this action"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// GetTokenData retrieves the authenticated token data from context.
func GetTokenData(ctx context.Context) *model.TokenData {
	if data, ok := ctx.Value(TokenDataKey).(*model.TokenData); ok {
		return data
	}
	return nil
}

// bearerToken extracts the opaque token from the request headers.
func bearerToken(r *http.Request) string {
	if token := r.Header.Get("X-Token"); token != "" {
		return token
	}
	auth := r.Header.Get("Authorization")
	if strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	return ""
}

// writeError writes an API error response.
func writeError(w http.ResponseWriter, err *apierror.Error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(err.StatusCode)
	w.Write(err.ToJSON())
}
