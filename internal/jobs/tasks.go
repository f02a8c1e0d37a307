package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypeSendEmail delivers notification emails.
	TaskTypeSendEmail = "mail:send"
	// TaskTypeImportBMD runs the scheduled BMD export import.
	TaskTypeImportBMD = "import:bmd"
	// TaskTypeImportFinmatics runs the scheduled Finmatics export import.
	TaskTypeImportFinmatics = "import:finmatics"
)

// SendEmailPayload carries a notification email for a portal user. The
// worker resolves the recipient address, so a deactivated account between
// enqueue and delivery simply drops the mail.
type SendEmailPayload struct {
	UserID  int64  `json:"user_id"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// NewSendEmailTask constructs an Asynq task for email delivery.
func NewSendEmailTask(payload SendEmailPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeSendEmail, data, asynq.Queue(QueueDefault)), nil
}

// ImportPayload carries scheduling metadata for import tasks.
type ImportPayload struct {
	ScheduledFor time.Time `json:"scheduled_for"`
}

// NewImportBMDTask constructs the cron-enqueued BMD import task.
func NewImportBMDTask() (*asynq.Task, error) {
	return newImportTask(TaskTypeImportBMD)
}

// NewImportFinmaticsTask constructs the cron-enqueued Finmatics import task.
func NewImportFinmaticsTask() (*asynq.Task, error) {
	return newImportTask(TaskTypeImportFinmatics)
}

func newImportTask(taskType string) (*asynq.Task, error) {
	body, err := json.Marshal(ImportPayload{ScheduledFor: time.Now().UTC()})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(taskType, body, asynq.Queue(QueueDefault)), nil
}
