package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/sdfghub/property-sub001/internal/auth"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

// UserIDKey is the context key for storing the authenticated operator ID.
const UserIDKey contextKey = "user_id"

// GetUserID extracts the operator ID from the context.
// Returns empty string if not found.
func GetUserID(ctx context.Context) string {
	userID, _ := ctx.Value(UserIDKey).(string)
	return userID
}

// RequireAuth returns a middleware that validates the bearer token of every
// request and adds the operator ID to the request context. When role is not
// empty the token must carry that role. With a nil manager the middleware
// passes requests through unchanged.
func RequireAuth(jwtManager *auth.JWTManager, role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if jwtManager == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				writeUnauthorized(w, auth.ErrMissingToken)
				return
			}

			// Parse Bearer token
			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				writeUnauthorized(w, auth.ErrInvalidToken)
				return
			}

			claims, err := jwtManager.Validate(parts[1])
			if err != nil {
				writeUnauthorized(w, err)
				return
			}
			if role != "" && claims.Role != role {
				writeError(w, http.StatusForbidden, auth.ErrForbidden)
				return
			}

			ctx := context.WithValue(r.Context(), UserIDKey, claims.UserID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func writeUnauthorized(w http.ResponseWriter, err error) {
	writeError(w, http.StatusUnauthorized, err)
}

func writeError(w http.ResponseWriter, status int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}
