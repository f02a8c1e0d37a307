package audit

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/litex-portal/litex/internal/shared"
)

// Options tunes the audit middleware per route group.
type Options struct {
	// Action overrides the HTTP-method derived verb when non-empty.
	Action string
	// EntityIDParam names the chi route parameter carrying the entity ID.
	EntityIDParam string
	// Skip opts a request out of auditing, e.g. for read-heavy endpoints.
	Skip func(r *http.Request) bool
	// SkipSuccess opts a request out of auditing only when it succeeded,
	// for handlers that record their own richer entry on the success path.
	// Denied and failed attempts still go through the middleware.
	SkipSuccess func(r *http.Request) bool
}

// Middleware records one audit entry per handled request unless skipped.
// It composes outermost around the authorization gate so denied attempts are
// recorded too. Unauthenticated responses are not recorded; there is no
// actor to attribute them to.
func Middleware(recorder *Recorder, entityType string, opts Options) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if opts.Skip != nil && opts.Skip(r) {
				next.ServeHTTP(w, r)
				return
			}

			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)

			if rec.status == http.StatusUnauthorized {
				return
			}
			if rec.status >= 200 && rec.status < 300 && opts.SkipSuccess != nil && opts.SkipSuccess(r) {
				return
			}

			entry := Entry{
				Action:     opts.Action,
				EntityType: entityType,
				Actor:      actorFromRequest(r),
				Status:     statusFromCode(rec.status),
				Metadata: map[string]any{
					"method": r.Method,
					"path":   r.URL.Path,
					"code":   rec.status,
				},
			}
			if entry.Action == "" {
				entry.Action = actionFromMethod(r.Method)
			}
			if opts.EntityIDParam != "" {
				entry.EntityID = chi.URLParam(r, opts.EntityIDParam)
			}
			recorder.RecordAsync(entry)
		})
	}
}

func actorFromRequest(r *http.Request) Actor {
	actor := Actor{
		IP:        r.RemoteAddr,
		UserAgent: r.UserAgent(),
	}
	if identity := shared.IdentityFromContext(r.Context()); identity != nil {
		id := identity.UserID
		actor.UserID = &id
		actor.Email = identity.Email
	}
	return actor
}

func actionFromMethod(method string) string {
	switch method {
	case http.MethodPost:
		return ActionCreate
	case http.MethodPut, http.MethodPatch:
		return ActionUpdate
	case http.MethodDelete:
		return ActionDelete
	default:
		return method
	}
}

func statusFromCode(code int) string {
	switch {
	case code >= 200 && code < 300:
		return StatusSuccess
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return StatusFailed
	default:
		return StatusError
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
