package tasks

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/litex-portal/litex/internal/authz"
	"github.com/litex-portal/litex/internal/platform/httpx"
	"github.com/litex-portal/litex/internal/shared"
)

// Handler exposes bookkeeping task endpoints.
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

// MountRoutes registers task routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.gate.Require(authz.PermTasksView))
		r.Get("/", h.listTasks)
		r.Get("/{id}", h.getTask)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.gate.Require(authz.PermTasksCreate))
		r.Post("/", h.createTask)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.gate.Require(authz.PermTasksEdit))
		r.Put("/{id}", h.updateTask)
		r.Post("/{id}/status", h.transition)
	})
}

type taskResponse struct {
	ID          int64      `json:"id"`
	CompanyID   int64      `json:"companyId"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Status      string     `json:"status"`
	AssigneeID  *int64     `json:"assigneeId"`
	DueDate     *time.Time `json:"dueDate"`
	CreatedBy   *int64     `json:"createdBy"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

type createTaskPayload struct {
	CompanyID   int64      `json:"companyId" validate:"required,gt=0"`
	Title       string     `json:"title" validate:"required,min=2,max=300"`
	Description string     `json:"description" validate:"max=5000"`
	AssigneeID  *int64     `json:"assigneeId" validate:"omitempty,gt=0"`
	DueDate     *time.Time `json:"dueDate"`
}

type updateTaskPayload struct {
	Title       *string    `json:"title" validate:"omitempty,min=2,max=300"`
	Description *string    `json:"description" validate:"omitempty,max=5000"`
	AssigneeID  *int64     `json:"assigneeId" validate:"omitempty,gt=0"`
	DueDate     *time.Time `json:"dueDate"`
}

type transitionPayload struct {
	Status string `json:"status" validate:"required,oneof=open in_progress done rejected"`
}

func (h *Handler) listTasks(w http.ResponseWriter, r *http.Request) {
	companyID := int64(0)
	if identity := shared.IdentityFromContext(r.Context()); identity != nil {
		companyID = identity.CompanyID
	}
	tasks, err := h.service.ListTasks(r.Context(), companyID)
	if err != nil {
		h.logger.Error("list tasks", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	out := make([]taskResponse, 0, len(tasks))
	for _, task := range tasks {
		out = append(out, toResponse(task))
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"tasks": out})
}

func (h *Handler) getTask(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	companyID := int64(0)
	if identity := shared.IdentityFromContext(r.Context()); identity != nil {
		companyID = identity.CompanyID
	}
	task, err := h.service.GetTask(r.Context(), id, companyID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(task))
}

func (h *Handler) createTask(w http.ResponseWriter, r *http.Request) {
	var payload createTaskPayload
	if err := httpx.DecodeJSON(r, &payload); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	if err := h.validator.Struct(payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	task := Task{
		CompanyID:   payload.CompanyID,
		Title:       payload.Title,
		Description: payload.Description,
		AssigneeID:  payload.AssigneeID,
		DueDate:     payload.DueDate,
	}
	if identity := shared.IdentityFromContext(r.Context()); identity != nil {
		id := identity.UserID
		task.CreatedBy = &id
	}
	created, err := h.service.CreateTask(r.Context(), task)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toResponse(created))
}

func (h *Handler) updateTask(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	var payload updateTaskPayload
	if err := httpx.DecodeJSON(r, &payload); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	if err := h.validator.Struct(payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	task, err := h.service.UpdateTask(r.Context(), id, TaskUpdate{
		Title:       payload.Title,
		Description: payload.Description,
		AssigneeID:  payload.AssigneeID,
		DueDate:     payload.DueDate,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(task))
}

func (h *Handler) transition(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	var payload transitionPayload
	if err := httpx.DecodeJSON(r, &payload); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	if err := h.validator.Struct(payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	task, err := h.service.Transition(r.Context(), id, payload.Status)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(task))
}

func (h *Handler) pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid id")
		return 0, false
	}
	return id, true
}

func toResponse(task Task) taskResponse {
	return taskResponse{
		ID:          task.ID,
		CompanyID:   task.CompanyID,
		Title:       task.Title,
		Description: task.Description,
		Status:      task.Status,
		AssigneeID:  task.AssigneeID,
		DueDate:     task.DueDate,
		CreatedBy:   task.CreatedBy,
		CreatedAt:   task.CreatedAt,
		UpdatedAt:   task.UpdatedAt,
	}
}
