package companies

import "time"

// Company represents a client firm serviced by the accounting office.
// BMDNumber and FinmaticsID key the company in the external accounting
// systems the import pipeline reads from.
type Company struct {
	ID          int64
	Name        string
	BMDNumber   string
	FinmaticsID string
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
