package companies

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/litex-portal/litex/internal/authz"
	"github.com/litex-portal/litex/internal/platform/httpx"
	"github.com/litex-portal/litex/internal/shared"
)

// RepositoryPort defines data access methods for companies.
type RepositoryPort interface {
	ListCompanies(ctx context.Context) ([]Company, error)
	GetCompany(ctx context.Context, id int64) (Company, error)
	CreateCompany(ctx context.Context, name, bmdNumber, finmaticsID string) (Company, error)
	UpdateCompany(ctx context.Context, id int64, name, bmdNumber, finmaticsID string, active bool) (Company, error)
}

// Handler exposes client company management endpoints.
type Handler struct {
	logger    *slog.Logger
	repo      RepositoryPort
	gate      authz.Gate
	validator *validator.Validate
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, repo RepositoryPort, gate authz.Gate) *Handler {
	return &Handler{logger: logger, repo: repo, gate: gate, validator: validator.New()}
}

// MountRoutes registers company routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.gate.Require(authz.PermClientsView))
		r.Get("/", h.listCompanies)
		r.Get("/{id}", h.getCompany)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.gate.Require(authz.PermClientsEdit))
		r.Post("/", h.createCompany)
		r.Put("/{id}", h.updateCompany)
	})
}

type companyResponse struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	BMDNumber   string    `json:"bmdNumber"`
	FinmaticsID string    `json:"finmaticsId"`
	IsActive    bool      `json:"isActive"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type companyPayload struct {
	Name        string `json:"name" validate:"required,min=2,max=200"`
	BMDNumber   string `json:"bmdNumber" validate:"max=50"`
	FinmaticsID string `json:"finmaticsId" validate:"max=100"`
	IsActive    *bool  `json:"isActive"`
}

func (h *Handler) listCompanies(w http.ResponseWriter, r *http.Request) {
	all, err := h.repo.ListCompanies(r.Context())
	if err != nil {
		h.logger.Error("list companies", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	// Customers only ever see their own company.
	identity := shared.IdentityFromContext(r.Context())
	out := make([]companyResponse, 0, len(all))
	for _, c := range all {
		if identity != nil && identity.CompanyID != 0 && identity.CompanyID != c.ID {
			continue
		}
		out = append(out, toResponse(c))
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"companies": out})
}

func (h *Handler) getCompany(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	// A customer probing a foreign company gets the same signal whether or
	// not it exists.
	if identity := shared.IdentityFromContext(r.Context()); identity != nil && identity.CompanyID != 0 && identity.CompanyID != id {
		httpx.RespondError(w, httpx.ErrNotFound)
		return
	}
	company, err := h.repo.GetCompany(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(company))
}

func (h *Handler) createCompany(w http.ResponseWriter, r *http.Request) {
	payload, ok := h.decode(w, r)
	if !ok {
		return
	}
	company, err := h.repo.CreateCompany(r.Context(), strings.TrimSpace(payload.Name), payload.BMDNumber, payload.FinmaticsID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toResponse(company))
}

func (h *Handler) updateCompany(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	payload, ok := h.decode(w, r)
	if !ok {
		return
	}
	active := true
	if payload.IsActive != nil {
		active = *payload.IsActive
	}
	company, err := h.repo.UpdateCompany(r.Context(), id, strings.TrimSpace(payload.Name), payload.BMDNumber, payload.FinmaticsID, active)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(company))
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request) (companyPayload, bool) {
	var payload companyPayload
	if err := httpx.DecodeJSON(r, &payload); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return payload, false
	}
	if err := h.validator.Struct(payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return payload, false
	}
	return payload, true
}

func (h *Handler) pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid id")
		return 0, false
	}
	return id, true
}

func toResponse(c Company) companyResponse {
	return companyResponse{
		ID:          c.ID,
		Name:        c.Name,
		BMDNumber:   c.BMDNumber,
		FinmaticsID: c.FinmaticsID,
		IsActive:    c.IsActive,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}
