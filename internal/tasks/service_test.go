package tasks

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/litex-portal/litex/internal/platform/httpx"
)

type stubTaskRepo struct {
	tasks  map[int64]Task
	nextID int64
}

func newStubTaskRepo() *stubTaskRepo {
	return &stubTaskRepo{tasks: make(map[int64]Task), nextID: 1}
}

func (r *stubTaskRepo) add(task Task) Task {
	task.ID = r.nextID
	if task.Status == "" {
		task.Status = StatusOpen
	}
	r.tasks[task.ID] = task
	r.nextID++
	return task
}

func (r *stubTaskRepo) ListTasks(ctx context.Context, companyID int64) ([]Task, error) {
	var out []Task
	for _, task := range r.tasks {
		if companyID == 0 || task.CompanyID == companyID {
			out = append(out, task)
		}
	}
	return out, nil
}

func (r *stubTaskRepo) GetTask(ctx context.Context, id int64) (Task, error) {
	task, ok := r.tasks[id]
	if !ok {
		return Task{}, httpx.ErrNotFound
	}
	return task, nil
}

func (r *stubTaskRepo) CreateTask(ctx context.Context, task Task) (Task, error) {
	return r.add(task), nil
}

func (r *stubTaskRepo) UpdateTask(ctx context.Context, id int64, title, description string, assigneeID *int64, dueDate *time.Time) (Task, error) {
	task, ok := r.tasks[id]
	if !ok {
		return Task{}, httpx.ErrNotFound
	}
	task.Title = title
	task.Description = description
	task.AssigneeID = assigneeID
	task.DueDate = dueDate
	r.tasks[id] = task
	return task, nil
}

func (r *stubTaskRepo) SetStatus(ctx context.Context, id int64, status string) (Task, error) {
	task, ok := r.tasks[id]
	if !ok {
		return Task{}, httpx.ErrNotFound
	}
	task.Status = status
	r.tasks[id] = task
	return task, nil
}

type spyNotifier struct {
	assigned []int64
}

func (n *spyNotifier) NotifyTaskAssigned(ctx context.Context, userID, taskID int64, title string) {
	n.assigned = append(n.assigned, userID)
}

func TestTransitionAllowed(t *testing.T) {
	repo := newStubTaskRepo()
	task := repo.add(Task{CompanyID: 1, Title: "UVA Juli"})
	svc := NewService(repo, nil)

	moved, err := svc.Transition(context.Background(), task.ID, StatusInProgress)
	require.NoError(t, err)
	assert.Equal(t, StatusInProgress, moved.Status)

	moved, err = svc.Transition(context.Background(), task.ID, StatusDone)
	require.NoError(t, err)
	assert.Equal(t, StatusDone, moved.Status)
}

func TestTransitionRejected(t *testing.T) {
	repo := newStubTaskRepo()
	task := repo.add(Task{CompanyID: 1, Title: "UVA Juli"})
	svc := NewService(repo, nil)

	// A fresh task cannot jump straight to done.
	_, err := svc.Transition(context.Background(), task.ID, StatusDone)
	require.Error(t, err)
	assert.True(t, errors.Is(err, httpx.ErrValidation))
	assert.Equal(t, StatusOpen, repo.tasks[task.ID].Status)

	// Done is terminal.
	repo.tasks[task.ID] = Task{ID: task.ID, CompanyID: 1, Title: "UVA Juli", Status: StatusDone}
	_, err = svc.Transition(context.Background(), task.ID, StatusOpen)
	require.Error(t, err)
	assert.True(t, errors.Is(err, httpx.ErrValidation))
}

func TestRejectedReopens(t *testing.T) {
	repo := newStubTaskRepo()
	task := repo.add(Task{CompanyID: 1, Title: "Beleg prüfen", Status: StatusRejected})
	svc := NewService(repo, nil)

	moved, err := svc.Transition(context.Background(), task.ID, StatusOpen)
	require.NoError(t, err)
	assert.Equal(t, StatusOpen, moved.Status)
}

func TestCreateTaskValidation(t *testing.T) {
	svc := NewService(newStubTaskRepo(), nil)

	_, err := svc.CreateTask(context.Background(), Task{CompanyID: 1, Title: "   "})
	require.Error(t, err)
	assert.True(t, errors.Is(err, httpx.ErrValidation))

	_, err = svc.CreateTask(context.Background(), Task{Title: "UVA Juli"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, httpx.ErrValidation))
}

func TestCreateTaskNotifiesAssignee(t *testing.T) {
	repo := newStubTaskRepo()
	notifier := &spyNotifier{}
	svc := NewService(repo, notifier)

	assignee := int64(4)
	_, err := svc.CreateTask(context.Background(), Task{CompanyID: 1, Title: "UVA Juli", AssigneeID: &assignee})
	require.NoError(t, err)
	assert.Equal(t, []int64{4}, notifier.assigned)
}

func TestUpdateTaskNotifiesOnlyNewAssignee(t *testing.T) {
	repo := newStubTaskRepo()
	current := int64(4)
	task := repo.add(Task{CompanyID: 1, Title: "UVA Juli", AssigneeID: &current})
	notifier := &spyNotifier{}
	svc := NewService(repo, notifier)

	// Re-assigning to the same person is not announced again.
	same := int64(4)
	_, err := svc.UpdateTask(context.Background(), task.ID, TaskUpdate{AssigneeID: &same})
	require.NoError(t, err)
	assert.Empty(t, notifier.assigned)

	next := int64(9)
	_, err = svc.UpdateTask(context.Background(), task.ID, TaskUpdate{AssigneeID: &next})
	require.NoError(t, err)
	assert.Equal(t, []int64{9}, notifier.assigned)
}

func TestGetTaskCompanyScope(t *testing.T) {
	repo := newStubTaskRepo()
	task := repo.add(Task{CompanyID: 2, Title: "Jahresabschluss"})
	svc := NewService(repo, nil)

	// Employee (company 0) sees everything.
	got, err := svc.GetTask(context.Background(), task.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, task.ID, got.ID)

	// Customer of another company gets the same signal as for a missing task.
	_, err = svc.GetTask(context.Background(), task.ID, 3)
	require.Error(t, err)
	assert.True(t, errors.Is(err, httpx.ErrNotFound))
}
