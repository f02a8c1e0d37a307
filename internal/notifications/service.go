package notifications

import (
	"context"
	"fmt"
	"log/slog"
)

// RepositoryPort defines data access methods for notifications.
type RepositoryPort interface {
	Insert(ctx context.Context, n Notification) (Notification, error)
	ListForUser(ctx context.Context, userID int64, limit int) ([]Notification, error)
	UnreadCount(ctx context.Context, userID int64) (int, error)
	MarkRead(ctx context.Context, userID, id int64) error
}

// Mailer enqueues notification emails for background delivery.
type Mailer interface {
	EnqueueEmail(ctx context.Context, userID int64, subject, body string) error
}

// Service handles notification business logic. Notification creation is
// best-effort from the perspective of the triggering operation: a failed
// insert is logged, never propagated.
type Service struct {
	repo   RepositoryPort
	mailer Mailer
	logger *slog.Logger
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort, mailer Mailer, logger *slog.Logger) *Service {
	return &Service{repo: repo, mailer: mailer, logger: logger}
}

// Notify stores a notification and enqueues its email.
func (s *Service) Notify(ctx context.Context, userID int64, kind, title, body string) {
	if _, err := s.repo.Insert(ctx, Notification{UserID: userID, Kind: kind, Title: title, Body: body}); err != nil {
		if s.logger != nil {
			s.logger.Warn("notification insert", slog.Int64("user_id", userID), slog.Any("error", err))
		}
		return
	}
	if s.mailer != nil {
		if err := s.mailer.EnqueueEmail(ctx, userID, title, body); err != nil && s.logger != nil {
			s.logger.Warn("notification email enqueue", slog.Any("error", err))
		}
	}
}

// NotifyTaskAssigned implements the task module's notifier hook.
func (s *Service) NotifyTaskAssigned(ctx context.Context, userID, taskID int64, title string) {
	s.Notify(ctx, userID, KindTaskAssigned, "Task assigned",
		fmt.Sprintf("Task #%d %q was assigned to you.", taskID, title))
}

// NotifyDocumentReviewed implements the document module's notifier hook.
func (s *Service) NotifyDocumentReviewed(ctx context.Context, userID int64, filename string, approved bool, reason string) {
	if approved {
		s.Notify(ctx, userID, KindDocumentApproved, "Document approved",
			fmt.Sprintf("Your document %q was approved.", filename))
		return
	}
	body := fmt.Sprintf("Your document %q was rejected.", filename)
	if reason != "" {
		body += " Reason: " + reason
	}
	s.Notify(ctx, userID, KindDocumentRejected, "Document rejected", body)
}

// ListForUser returns a user's notifications.
func (s *Service) ListForUser(ctx context.Context, userID int64, limit int) ([]Notification, error) {
	return s.repo.ListForUser(ctx, userID, limit)
}

// UnreadCount returns the user's unread notification count.
func (s *Service) UnreadCount(ctx context.Context, userID int64) (int, error) {
	return s.repo.UnreadCount(ctx, userID)
}

// MarkRead marks one notification as read.
func (s *Service) MarkRead(ctx context.Context, userID, id int64) error {
	return s.repo.MarkRead(ctx, userID, id)
}
