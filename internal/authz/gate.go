package authz

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/litex-portal/litex/internal/platform/httpx"
	"github.com/litex-portal/litex/internal/shared"
)

// PermissionChecker answers any/all permission queries for a user.
type PermissionChecker interface {
	HasAny(ctx context.Context, userID int64, permissions ...string) (bool, error)
	HasAll(ctx context.Context, userID int64, permissions ...string) (bool, error)
}

// Gate is the sole enforcement point: it wraps handlers so they only run for
// an authenticated caller holding the required permissions. It is a pure
// decorator; auditing composes around it separately.
type Gate struct {
	Checker PermissionChecker
	Logger  *slog.Logger
}

// NewGate constructs a Gate.
func NewGate(checker PermissionChecker, logger *slog.Logger) Gate {
	return Gate{Checker: checker, Logger: logger}
}

// Require ensures the caller holds the given permission.
func (g Gate) Require(permission string) func(http.Handler) http.Handler {
	return g.RequireAny(permission)
}

// RequireAny ensures the caller holds at least one of the permissions.
func (g Gate) RequireAny(permissions ...string) func(http.Handler) http.Handler {
	return g.check(permissions, func(ctx context.Context, userID int64, perms []string) (bool, error) {
		return g.Checker.HasAny(ctx, userID, perms...)
	})
}

// RequireAll ensures the caller holds every one of the permissions.
func (g Gate) RequireAll(permissions ...string) func(http.Handler) http.Handler {
	return g.check(permissions, func(ctx context.Context, userID int64, perms []string) (bool, error) {
		return g.Checker.HasAll(ctx, userID, perms...)
	})
}

type checkFunc func(ctx context.Context, userID int64, perms []string) (bool, error)

func (g Gate) check(permissions []string, evaluate checkFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Unauthenticated requests are rejected before the resolver is
			// ever consulted.
			identity := shared.IdentityFromContext(r.Context())
			if identity == nil {
				httpx.RespondError(w, httpx.ErrUnauthorized)
				return
			}
			if len(permissions) == 0 {
				next.ServeHTTP(w, r)
				return
			}
			allowed, err := evaluate(r.Context(), identity.UserID, permissions)
			if err != nil {
				if g.Logger != nil {
					g.Logger.Error("authz gate check", slog.Int64("user_id", identity.UserID), slog.Any("error", err))
				}
				httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
				return
			}
			if !allowed {
				httpx.RespondError(w, httpx.ErrForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireSession only checks that the caller is authenticated.
func (g Gate) RequireSession() func(http.Handler) http.Handler {
	return g.RequireAny()
}
