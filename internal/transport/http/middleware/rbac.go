package middleware

import (
	"context"
	"net/http"

	"timeclock/internal/platform/logger"
	"timeclock/internal/transport/http/api"
)

// PermissionStore answers whether a role holds a permission.
type PermissionStore interface {
	HasPermission(ctx context.Context, role, permission string) (bool, error)
}

type denial struct {
	status  int
	code    string
	message string
}

var (
	denyAnonymous = &denial{http.StatusUnauthorized, "unauthorized", "authentication required"}
	denyRole      = &denial{http.StatusForbidden, "forbidden", "insufficient permissions"}
	denyLookup    = &denial{http.StatusInternalServerError, "permission_error", "permission check failed"}
)

// authorize returns nil when the request's user may use permission.
func authorize(r *http.Request, store PermissionStore, permission string) *denial {
	user, ok := GetUser(r.Context())
	if !ok {
		return denyAnonymous
	}
	if store == nil {
		logger.From(r.Context()).Error().Str("permission", permission).Msg("no permission store configured")
		return denyLookup
	}
	allowed, err := store.HasPermission(r.Context(), user.Role, permission)
	if err != nil {
		logger.From(r.Context()).Error().Err(err).Str("role", user.Role).Str("permission", permission).Msg("permission lookup failed")
		return denyLookup
	}
	if !allowed {
		logger.From(r.Context()).Info().
			Str("userId", user.UserID).
			Str("role", user.Role).
			Str("permission", permission).
			Str("path", r.URL.Path).
			Msg("permission denied")
		return denyRole
	}
	return nil
}

// RequirePermission lets a request through only when the authenticated
// user's role holds permission. Anonymous callers get 401 and roles lacking
// the permission get 403 with code "forbidden".
func RequirePermission(permission string, store PermissionStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if d := authorize(r, store, permission); d != nil {
				api.Fail(w, d.status, d.code, d.message, GetRequestID(r.Context()))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
