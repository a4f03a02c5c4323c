package auth

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/verisys/go-auth-starter/internal/api"
)

// Typed context keys for the per-request identity.
type contextKey string

const UserIDKey contextKey = "userID"
const UserRolesKey contextKey = "userRoles"

// Authenticate populates the caller's identity from a bearer access token.
// It never denies a request itself: every failure mode degrades to an
// anonymous request and the authorization middleware downstream produces the
// 401/403. That keeps token-parsing failures out of the 500 path entirely.
func Authenticate(logger *slog.Logger, tokens *TokenService, repo AuthRepo) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			// First-wins: an identity established earlier in the chain stays.
			if _, ok := GetUserIDFromContext(ctx); ok {
				next.ServeHTTP(w, r)
				return
			}

			authHeader := r.Header.Get("Authorization")
			if !strings.HasPrefix(authHeader, "Bearer ") {
				next.ServeHTTP(w, r)
				return
			}

			tokenString := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
			if tokenString == "" {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := tokens.Verify(tokenString, TokenAccess)
			if err != nil {
				logger.DebugContext(ctx, "Access token rejected", slog.String("error", err.Error()))
				next.ServeHTTP(w, r)
				return
			}

			userID, err := uuid.Parse(claims.Subject)
			if err != nil {
				logger.DebugContext(ctx, "Access token subject is not a UUID")
				next.ServeHTTP(w, r)
				return
			}

			// Live check: the signature and expiry passing is not enough. A
			// logout-all bumps the stored version, and soft-deleting the user
			// removes them from this lookup, so stale tokens die here.
			user, err := repo.GetUserByID(ctx, userID)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}
			if user.TokenVersion != claims.Version() {
				logger.DebugContext(ctx, "Access token version mismatch",
					slog.Int("token_ver", claims.Version()),
					slog.Int("current_ver", user.TokenVersion))
				next.ServeHTTP(w, r)
				return
			}

			roles := claims.Roles
			if len(roles) == 0 {
				roles = []string{string(user.Role)}
			}

			ctx = context.WithValue(ctx, UserIDKey, userID)
			ctx = context.WithValue(ctx, UserRolesKey, roles)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAuth rejects requests that reached this point without an identity.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := GetUserIDFromContext(r.Context()); !ok {
			api.ErrorWithCode(w, r, http.StatusUnauthorized, "AUTH_UNAUTHORIZED", "Unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireRole rejects authenticated callers whose token lacks the role.
func RequireRole(role Role) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			roles, ok := GetUserRolesFromContext(r.Context())
			if !ok {
				api.ErrorWithCode(w, r, http.StatusUnauthorized, "AUTH_UNAUTHORIZED", "Unauthorized")
				return
			}
			for _, have := range roles {
				if have == string(role) {
					next.ServeHTTP(w, r)
					return
				}
			}
			api.ErrorWithCode(w, r, http.StatusForbidden, "ACCESS_DENIED", "Access denied")
		})
	}
}

func GetUserIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	userID, ok := ctx.Value(UserIDKey).(uuid.UUID)
	return userID, ok
}

func GetUserRolesFromContext(ctx context.Context) ([]string, bool) {
	roles, ok := ctx.Value(UserRolesKey).([]string)
	return roles, ok
}
