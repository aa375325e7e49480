package middleware

import (
	"net/http"

	"go.uber.org/zap"
)

// RequireRoles ensures the authenticated user holds at least one of the
// given roles. An empty role list admits any authenticated user. It must be
// composed after Authenticate.
func RequireRoles(logger *zap.Logger, roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := GetUser(r.Context())
			if !ok {
				logger.Warn("User not found in context")
				respondWithError(w, http.StatusForbidden, "insufficient permissions")
				return
			}

			if !user.HasAnyRole(roles...) {
				logger.Warn("User roles not authorized",
					zap.Strings("roles", user.Roles),
					zap.Strings("required_roles", roles),
				)
				respondWithError(w, http.StatusForbidden, "insufficient permissions")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
