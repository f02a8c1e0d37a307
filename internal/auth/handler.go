package auth

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/litex-portal/litex/internal/audit"
	"github.com/litex-portal/litex/internal/platform/httpx"
	"github.com/litex-portal/litex/internal/shared"
)

// Handler wires HTTP endpoints for authentication flows.
type Handler struct {
	logger         *slog.Logger
	service        *Service
	sessionManager *shared.SessionManager
	recorder       *audit.Recorder
	validator      *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, sessions *shared.SessionManager, recorder *audit.Recorder) *Handler {
	return &Handler{
		logger:         logger,
		service:        service,
		sessionManager: sessions,
		recorder:       recorder,
		validator:      validator.New(),
	}
}

// MountRoutes registers auth routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/login", h.handleLogin)
	r.Post("/logout", h.handleLogout)
}

type loginPayload struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

type userResponse struct {
	ID        int64  `json:"id"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	CompanyID *int64 `json:"companyId"`
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var payload loginPayload
	if err := httpx.DecodeJSON(r, &payload); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	if err := h.validator.Struct(payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	user, err := h.service.Authenticate(r.Context(), payload.Email, payload.Password)
	if err != nil {
		h.recorder.RecordAsync(audit.Entry{
			Action:     audit.ActionLogin,
			EntityType: "user",
			Actor:      audit.Actor{Email: payload.Email, IP: r.RemoteAddr, UserAgent: r.UserAgent()},
			Status:     audit.StatusFailed,
			Metadata:   map[string]any{"reason": "invalid credentials"},
		})
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "invalid credentials")
		return
	}

	sess := shared.SessionFromContext(r.Context())
	if sess == nil {
		h.logger.Error("session missing during login")
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	sess.SetUser(strconv.FormatInt(user.ID, 10))

	// Fresh sessions get their ID on the first commit; force it now so the
	// login is registered under the same ID the cookie will carry.
	sessionID := sess.EnsureID()
	expiresAt := time.Now().Add(h.sessionManager.TTL())
	if err := h.service.RegisterSession(r.Context(), sessionID, user.ID, expiresAt, r.RemoteAddr, r.UserAgent()); err != nil {
		h.logger.Warn("register session", slog.Any("error", err))
	}

	h.recorder.RecordAsync(audit.Entry{
		Action:     audit.ActionLogin,
		EntityType: "user",
		EntityID:   strconv.FormatInt(user.ID, 10),
		Actor:      audit.Actor{UserID: &user.ID, Email: user.Email, IP: r.RemoteAddr, UserAgent: r.UserAgent()},
		Status:     audit.StatusSuccess,
	})

	httpx.JSON(w, http.StatusOK, map[string]any{"user": userResponse{
		ID:        user.ID,
		Email:     user.Email,
		Name:      user.Name,
		CompanyID: user.CompanyID,
	}})
}

// Me returns the authenticated user's profile. Mounted behind the
// session gate at /me.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	identity := shared.IdentityFromContext(r.Context())
	if identity == nil {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	user, err := h.service.UserByID(r.Context(), identity.UserID)
	if err != nil {
		// Account deactivated mid-session.
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"user": userResponse{
		ID:        user.ID,
		Email:     user.Email,
		Name:      user.Name,
		CompanyID: user.CompanyID,
	}})
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	if sess != nil {
		if err := h.service.RemoveSession(r.Context(), sess.ID); err != nil {
			h.logger.Warn("remove session", slog.Any("error", err))
		}
		h.sessionManager.Destroy(sess)
	}
	if identity := shared.IdentityFromContext(r.Context()); identity != nil {
		id := identity.UserID
		h.recorder.RecordAsync(audit.Entry{
			Action:     audit.ActionLogout,
			EntityType: "user",
			EntityID:   strconv.FormatInt(id, 10),
			Actor:      audit.Actor{UserID: &id, Email: identity.Email, IP: r.RemoteAddr, UserAgent: r.UserAgent()},
			Status:     audit.StatusSuccess,
		})
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"status": "ok"})
}
