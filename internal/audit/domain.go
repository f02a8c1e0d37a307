package audit

import "time"

// Action verbs recorded in the trail.
const (
	ActionCreate  = "CREATE"
	ActionUpdate  = "UPDATE"
	ActionDelete  = "DELETE"
	ActionApprove = "APPROVE"
	ActionReject  = "REJECT"
	ActionLogin   = "LOGIN"
	ActionLogout  = "LOGOUT"
)

// Entry outcomes.
const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
	StatusError   = "error"
)

// Actor identifies who performed an action. UserID is nil when the request
// carried no resolvable identity (a denied anonymous attempt, say).
type Actor struct {
	UserID    *int64
	Email     string
	IP        string
	UserAgent string
}

// Entry is one append-only audit record. Entries are never updated or
// deleted by the application.
type Entry struct {
	ID           int64
	Action       string
	EntityType   string
	EntityID     string
	Actor        Actor
	Status       string
	ErrorMessage string
	Metadata     map[string]any
	Changes      map[string]any
	CreatedAt    time.Time
}

// TimelineFilters narrows audit queries.
type TimelineFilters struct {
	From     time.Time
	To       time.Time
	Actor    string
	Entity   string
	Action   string
	Page     int
	PageSize int
}

// PagingInfo carries pagination metadata for timeline responses.
type PagingInfo struct {
	Page     int  `json:"page"`
	PageSize int  `json:"pageSize"`
	HasNext  bool `json:"hasNext"`
}

// Result bundles timeline rows with paging information.
type Result struct {
	Rows   []Entry
	Paging PagingInfo
}
