package audit

import (
	"encoding/csv"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/litex-portal/litex/internal/authz"
	"github.com/litex-portal/litex/internal/platform/httpx"
)

// Handler exposes the audit trail over HTTP.
type Handler struct {
	logger  *slog.Logger
	service *Service
	gate    authz.Gate
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service, gate authz.Gate) *Handler {
	return &Handler{logger: logger, service: service, gate: gate}
}

// MountRoutes registers audit routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.gate.Require(authz.PermAuditView))
		r.Get("/", h.timeline)
		r.Get("/export", h.export)
	})
}

type entryResponse struct {
	ID           int64          `json:"id"`
	Action       string         `json:"action"`
	EntityType   string         `json:"entityType"`
	EntityID     string         `json:"entityId,omitempty"`
	ActorID      *int64         `json:"actorId"`
	ActorEmail   string         `json:"actorEmail"`
	ActorIP      string         `json:"actorIp"`
	Status       string         `json:"status"`
	ErrorMessage string         `json:"errorMessage,omitempty"`
	Metadata     map[string]any `json:"metadata,omitempty"`
	Changes      map[string]any `json:"changes,omitempty"`
	CreatedAt    time.Time      `json:"createdAt"`
}

func (h *Handler) timeline(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.Timeline(r.Context(), filtersFromQuery(r))
	if err != nil {
		h.logger.Error("audit timeline", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	entries := make([]entryResponse, 0, len(result.Rows))
	for _, row := range result.Rows {
		entries = append(entries, toResponse(row))
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"entries": entries,
		"paging":  result.Paging,
	})
}

func (h *Handler) export(w http.ResponseWriter, r *http.Request) {
	rows, err := h.service.Export(r.Context(), filtersFromQuery(r))
	if err != nil {
		h.logger.Error("audit export", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="audit.csv"`)
	cw := csv.NewWriter(w)
	_ = cw.Write([]string{"created_at", "actor", "action", "entity_type", "entity_id", "status", "error"})
	for _, row := range rows {
		_ = cw.Write([]string{
			row.CreatedAt.Format(time.RFC3339),
			row.Actor.Email,
			row.Action,
			row.EntityType,
			row.EntityID,
			row.Status,
			row.ErrorMessage,
		})
	}
	cw.Flush()
}

func filtersFromQuery(r *http.Request) TimelineFilters {
	q := r.URL.Query()
	filters := TimelineFilters{
		Actor:  q.Get("actor"),
		Entity: q.Get("entity"),
		Action: q.Get("action"),
	}
	if v := q.Get("from"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			filters.From = t
		}
	}
	if v := q.Get("to"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			filters.To = t
		}
	}
	if v := q.Get("page"); v != "" {
		filters.Page, _ = strconv.Atoi(v)
	}
	if v := q.Get("pageSize"); v != "" {
		filters.PageSize, _ = strconv.Atoi(v)
	}
	return filters
}

func toResponse(entry Entry) entryResponse {
	return entryResponse{
		ID:           entry.ID,
		Action:       entry.Action,
		EntityType:   entry.EntityType,
		EntityID:     entry.EntityID,
		ActorID:      entry.Actor.UserID,
		ActorEmail:   entry.Actor.Email,
		ActorIP:      entry.Actor.IP,
		Status:       entry.Status,
		ErrorMessage: entry.ErrorMessage,
		Metadata:     entry.Metadata,
		Changes:      entry.Changes,
		CreatedAt:    entry.CreatedAt,
	}
}
