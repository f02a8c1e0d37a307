package auth

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/litex-portal/litex/internal/shared"
)

// IdentityMiddleware resolves the session's user into a typed identity and
// stores it in the request context. Requests without a valid session pass
// through anonymous; enforcement happens at the authorization gate.
func IdentityMiddleware(service *Service, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess := shared.SessionFromContext(r.Context())
			if sess == nil || sess.User() == "" {
				next.ServeHTTP(w, r)
				return
			}
			userID, err := strconv.ParseInt(sess.User(), 10, 64)
			if err != nil {
				if logger != nil {
					logger.Error("parse session user id", slog.String("value", sess.User()))
				}
				next.ServeHTTP(w, r)
				return
			}
			user, err := service.UserByID(r.Context(), userID)
			if err != nil {
				// Deactivated or deleted since login; treat as anonymous.
				next.ServeHTTP(w, r)
				return
			}
			identity := &shared.Identity{
				UserID: user.ID,
				Email:  user.Email,
				Active: user.IsActive,
			}
			if user.CompanyID != nil {
				identity.CompanyID = *user.CompanyID
			}
			next.ServeHTTP(w, r.WithContext(shared.ContextWithIdentity(r.Context(), identity)))
		})
	}
}
