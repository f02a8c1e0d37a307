package tasks

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/litex-portal/litex/internal/platform/httpx"
)

// RepositoryPort defines data access methods for tasks.
type RepositoryPort interface {
	ListTasks(ctx context.Context, companyID int64) ([]Task, error)
	GetTask(ctx context.Context, id int64) (Task, error)
	CreateTask(ctx context.Context, task Task) (Task, error)
	UpdateTask(ctx context.Context, id int64, title, description string, assigneeID *int64, dueDate *time.Time) (Task, error)
	SetStatus(ctx context.Context, id int64, status string) (Task, error)
}

// Notifier informs users about task events. Delivery is best-effort.
type Notifier interface {
	NotifyTaskAssigned(ctx context.Context, userID, taskID int64, title string)
}

// Service handles task business logic.
type Service struct {
	repo     RepositoryPort
	notifier Notifier
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort, notifier Notifier) *Service {
	return &Service{repo: repo, notifier: notifier}
}

// ListTasks returns tasks visible to the caller. companyID zero means the
// unscoped employee view.
func (s *Service) ListTasks(ctx context.Context, companyID int64) ([]Task, error) {
	return s.repo.ListTasks(ctx, companyID)
}

// GetTask fetches one task scoped to the caller's company. A customer
// probing a foreign task gets not-found regardless of its existence.
func (s *Service) GetTask(ctx context.Context, id, callerCompanyID int64) (Task, error) {
	task, err := s.repo.GetTask(ctx, id)
	if err != nil {
		return Task{}, err
	}
	if callerCompanyID != 0 && task.CompanyID != callerCompanyID {
		return Task{}, httpx.ErrNotFound
	}
	return task, nil
}

// CreateTask validates and inserts a new task.
func (s *Service) CreateTask(ctx context.Context, task Task) (Task, error) {
	task.Title = strings.TrimSpace(task.Title)
	if task.Title == "" {
		return Task{}, fmt.Errorf("%w: title required", httpx.ErrValidation)
	}
	if task.CompanyID == 0 {
		return Task{}, fmt.Errorf("%w: company required", httpx.ErrValidation)
	}
	created, err := s.repo.CreateTask(ctx, task)
	if err != nil {
		return Task{}, err
	}
	if created.AssigneeID != nil && s.notifier != nil {
		s.notifier.NotifyTaskAssigned(ctx, *created.AssigneeID, created.ID, created.Title)
	}
	return created, nil
}

// UpdateTask applies partial changes.
func (s *Service) UpdateTask(ctx context.Context, id int64, update TaskUpdate) (Task, error) {
	current, err := s.repo.GetTask(ctx, id)
	if err != nil {
		return Task{}, err
	}
	title := current.Title
	if update.Title != nil {
		title = strings.TrimSpace(*update.Title)
		if title == "" {
			return Task{}, fmt.Errorf("%w: title required", httpx.ErrValidation)
		}
	}
	description := current.Description
	if update.Description != nil {
		description = *update.Description
	}
	assignee := current.AssigneeID
	if update.AssigneeID != nil {
		assignee = update.AssigneeID
	}
	due := current.DueDate
	if update.DueDate != nil {
		due = update.DueDate
	}
	updated, err := s.repo.UpdateTask(ctx, id, title, description, assignee, due)
	if err != nil {
		return Task{}, err
	}
	newlyAssigned := update.AssigneeID != nil &&
		(current.AssigneeID == nil || *current.AssigneeID != *update.AssigneeID)
	if newlyAssigned && s.notifier != nil {
		s.notifier.NotifyTaskAssigned(ctx, *update.AssigneeID, updated.ID, updated.Title)
	}
	return updated, nil
}

// Transition moves a task to a new status, enforcing the status machine.
func (s *Service) Transition(ctx context.Context, id int64, to string) (Task, error) {
	current, err := s.repo.GetTask(ctx, id)
	if err != nil {
		return Task{}, err
	}
	if !CanTransition(current.Status, to) {
		return Task{}, fmt.Errorf("%w: cannot move task from %s to %s", httpx.ErrValidation, current.Status, to)
	}
	return s.repo.SetStatus(ctx, id, to)
}
