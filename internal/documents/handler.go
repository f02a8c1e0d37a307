package documents

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/litex-portal/litex/internal/audit"
	"github.com/litex-portal/litex/internal/authz"
	"github.com/litex-portal/litex/internal/platform/httpx"
	"github.com/litex-portal/litex/internal/shared"
)

// Handler exposes document endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	gate      authz.Gate
	validator *validator.Validate
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, gate authz.Gate) *Handler {
	return &Handler{logger: logger, service: service, gate: gate, validator: validator.New()}
}

// MountRoutes registers document routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.gate.Require(authz.PermFilesView))
		r.Get("/", h.list)
		r.Get("/{id}", h.get)
		r.Get("/{id}/download", h.download)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.gate.Require(authz.PermFilesUpload))
		r.Post("/", h.upload)
		r.Post("/{id}/complete", h.complete)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.gate.Require(authz.PermFilesApprove))
		r.Post("/{id}/approve", h.approve)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.gate.Require(authz.PermFilesReject))
		r.Post("/{id}/reject", h.reject)
	})
}

type documentResponse struct {
	ID           int64      `json:"id"`
	CompanyID    int64      `json:"companyId"`
	UploaderID   int64      `json:"uploaderId"`
	Filename     string     `json:"filename"`
	ContentType  string     `json:"contentType"`
	SizeBytes    int64      `json:"sizeBytes"`
	Status       string     `json:"status"`
	ReviewerID   *int64     `json:"reviewerId"`
	ReviewReason string     `json:"reviewReason,omitempty"`
	ReviewedAt   *time.Time `json:"reviewedAt"`
	CreatedAt    time.Time  `json:"createdAt"`
}

type uploadPayload struct {
	CompanyID   int64  `json:"companyId" validate:"omitempty,gt=0"`
	Filename    string `json:"filename" validate:"required,min=1,max=300"`
	ContentType string `json:"contentType" validate:"required,max=200"`
	SizeBytes   int64  `json:"sizeBytes" validate:"gte=0"`
}

type rejectPayload struct {
	Reason string `json:"reason" validate:"required,min=2,max=1000"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	companyID := callerCompanyID(r)
	docs, err := h.service.List(r.Context(), companyID)
	if err != nil {
		h.logger.Error("list documents", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	out := make([]documentResponse, 0, len(docs))
	for _, doc := range docs {
		out = append(out, toResponse(doc))
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"documents": out})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	doc, err := h.service.Get(r.Context(), id, callerCompanyID(r))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(doc))
}

func (h *Handler) download(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	url, err := h.service.DownloadURL(r.Context(), id, callerCompanyID(r))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"url": url})
}

func (h *Handler) upload(w http.ResponseWriter, r *http.Request) {
	identity := shared.IdentityFromContext(r.Context())
	var payload uploadPayload
	if err := httpx.DecodeJSON(r, &payload); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	if err := h.validator.Struct(payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	// Customers always upload into their own company.
	companyID := payload.CompanyID
	if identity.CompanyID != 0 {
		companyID = identity.CompanyID
	}
	doc, url, err := h.service.Upload(r.Context(), companyID, identity.UserID, payload.Filename, payload.ContentType, payload.SizeBytes)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, map[string]any{
		"document":  toResponse(doc),
		"uploadUrl": url,
	})
}

func (h *Handler) complete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	doc, err := h.service.Complete(r.Context(), id, callerCompanyID(r))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(doc))
}

func (h *Handler) approve(w http.ResponseWriter, r *http.Request) {
	h.review(w, r, true)
}

func (h *Handler) reject(w http.ResponseWriter, r *http.Request) {
	h.review(w, r, false)
}

func (h *Handler) review(w http.ResponseWriter, r *http.Request, approve bool) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	identity := shared.IdentityFromContext(r.Context())

	reason := ""
	if !approve {
		var payload rejectPayload
		if err := httpx.DecodeJSON(r, &payload); err != nil {
			httpx.RespondError(w, httpx.ErrValidation)
			return
		}
		if err := h.validator.Struct(payload); err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
			return
		}
		reason = payload.Reason
	}

	userID := identity.UserID
	actor := audit.Actor{UserID: &userID, Email: identity.Email, IP: r.RemoteAddr, UserAgent: r.UserAgent()}
	doc, err := h.service.Review(r.Context(), id, userID, approve, reason, actor)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(doc))
}

func (h *Handler) pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid id")
		return 0, false
	}
	return id, true
}

func callerCompanyID(r *http.Request) int64 {
	if identity := shared.IdentityFromContext(r.Context()); identity != nil {
		return identity.CompanyID
	}
	return 0
}

func toResponse(doc Document) documentResponse {
	return documentResponse{
		ID:           doc.ID,
		CompanyID:    doc.CompanyID,
		UploaderID:   doc.UploaderID,
		Filename:     doc.Filename,
		ContentType:  doc.ContentType,
		SizeBytes:    doc.SizeBytes,
		Status:       doc.Status,
		ReviewerID:   doc.ReviewerID,
		ReviewReason: doc.ReviewReason,
		ReviewedAt:   doc.ReviewedAt,
		CreatedAt:    doc.CreatedAt,
	}
}
