package tasks

import "time"

// Task statuses. A task starts open and either travels through in_progress
// to done, or is rejected.
const (
	StatusOpen       = "open"
	StatusInProgress = "in_progress"
	StatusDone       = "done"
	StatusRejected   = "rejected"
)

var validTransitions = map[string][]string{
	StatusOpen:       {StatusInProgress, StatusRejected},
	StatusInProgress: {StatusDone, StatusRejected, StatusOpen},
	StatusDone:       {},
	StatusRejected:   {StatusOpen},
}

// CanTransition reports whether a status change is allowed.
func CanTransition(from, to string) bool {
	for _, allowed := range validTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// Task represents one bookkeeping work item for a client company.
type Task struct {
	ID          int64
	CompanyID   int64
	Title       string
	Description string
	Status      string
	AssigneeID  *int64
	DueDate     *time.Time
	CreatedBy   *int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TaskUpdate carries optional task changes; nil fields stay untouched.
type TaskUpdate struct {
	Title       *string
	Description *string
	AssigneeID  *int64
	DueDate     *time.Time
}
