package documents

import "time"

// Document statuses. An upload starts pending and is triaged by an employee
// into approved or rejected.
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

// Document is the metadata record for one uploaded file; the bytes live in
// the object store under ObjectKey.
type Document struct {
	ID           int64
	CompanyID    int64
	UploaderID   int64
	Filename     string
	ObjectKey    string
	ContentType  string
	SizeBytes    int64
	Status       string
	ReviewerID   *int64
	ReviewReason string
	ReviewedAt   *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
