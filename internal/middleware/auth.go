package middleware

import (
	"context"
	"net/http"
	"strings"

	"teslo-shop/internal/auth"
	"teslo-shop/internal/domain"
	"teslo-shop/internal/repository"

	"go.uber.org/zap"
)

type contextKey string

const userContextKey contextKey = "auth_user"

// Authenticate resolves the caller's identity from a Bearer token and makes
// the user available to downstream handlers. Requests with a missing,
// malformed or expired token are rejected, as are tokens whose subject no
// longer exists or has been deactivated.
func Authenticate(issuer *auth.TokenIssuer, userRepo repository.UserRepository, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				logger.Debug("Missing authorization header")
				respondWithError(w, http.StatusUnauthorized, "missing authorization header")
				return
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				logger.Debug("Invalid authorization header format")
				respondWithError(w, http.StatusUnauthorized, "invalid authorization header format")
				return
			}

			subjectID, err := issuer.Verify(parts[1])
			if err != nil {
				logger.Debug("Token verification failed", zap.Error(err))
				respondWithError(w, http.StatusUnauthorized, "invalid or expired token")
				return
			}

			user, err := userRepo.FindByID(r.Context(), subjectID)
			if err != nil {
				logger.Debug("Token subject not found", zap.String("subject_id", subjectID.String()))
				respondWithError(w, http.StatusUnauthorized, "invalid or expired token")
				return
			}

			if !user.IsActive {
				logger.Debug("Inactive user rejected", zap.String("user_id", user.ID.String()))
				respondWithError(w, http.StatusUnauthorized, "user is inactive")
				return
			}

			ctx := WithUser(r.Context(), user)

			logger.Debug("User authenticated",
				zap.String("user_id", user.ID.String()),
				zap.Strings("roles", user.Roles),
			)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// WithUser returns a context carrying the authenticated user
func WithUser(ctx context.Context, user *domain.User) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}

// GetUser extracts the authenticated user from the request context
func GetUser(ctx context.Context) (*domain.User, bool) {
	user, ok := ctx.Value(userContextKey).(*domain.User)
	return user, ok
}
