package notifications

import "time"

// Notification kinds.
const (
	KindTaskAssigned     = "task_assigned"
	KindDocumentApproved = "document_approved"
	KindDocumentRejected = "document_rejected"
	KindManual           = "manual"
)

// Notification is one per-user message shown in the portal bell menu.
type Notification struct {
	ID        int64
	UserID    int64
	Kind      string
	Title     string
	Body      string
	ReadAt    *time.Time
	CreatedAt time.Time
}
