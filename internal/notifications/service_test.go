package notifications

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubNotifRepo struct {
	stored    []Notification
	insertErr error
	nextID    int64
}

func (r *stubNotifRepo) Insert(ctx context.Context, n Notification) (Notification, error) {
	if r.insertErr != nil {
		return Notification{}, r.insertErr
	}
	r.nextID++
	n.ID = r.nextID
	r.stored = append(r.stored, n)
	return n, nil
}

func (r *stubNotifRepo) ListForUser(ctx context.Context, userID int64, limit int) ([]Notification, error) {
	var out []Notification
	for _, n := range r.stored {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	return out, nil
}

func (r *stubNotifRepo) UnreadCount(ctx context.Context, userID int64) (int, error) {
	count := 0
	for _, n := range r.stored {
		if n.UserID == userID && n.ReadAt == nil {
			count++
		}
	}
	return count, nil
}

func (r *stubNotifRepo) MarkRead(ctx context.Context, userID, id int64) error {
	return nil
}

type spyMailer struct {
	userIDs  []int64
	subjects []string
	err      error
}

func (m *spyMailer) EnqueueEmail(ctx context.Context, userID int64, subject, body string) error {
	m.userIDs = append(m.userIDs, userID)
	m.subjects = append(m.subjects, subject)
	return m.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNotifyStoresAndMails(t *testing.T) {
	repo := &stubNotifRepo{}
	mailer := &spyMailer{}
	svc := NewService(repo, mailer, discardLogger())

	svc.Notify(context.Background(), 7, KindManual, "Frist", "UVA bis Montag")

	require.Len(t, repo.stored, 1)
	assert.Equal(t, int64(7), repo.stored[0].UserID)
	assert.Equal(t, KindManual, repo.stored[0].Kind)
	assert.Equal(t, []int64{7}, mailer.userIDs)
	assert.Equal(t, []string{"Frist"}, mailer.subjects)
}

func TestNotifyInsertFailureIsSilent(t *testing.T) {
	repo := &stubNotifRepo{insertErr: errors.New("pool closed")}
	mailer := &spyMailer{}
	svc := NewService(repo, mailer, discardLogger())

	// Must not panic or propagate; the email is skipped too.
	svc.Notify(context.Background(), 7, KindManual, "Frist", "UVA bis Montag")
	assert.Empty(t, mailer.userIDs)
}

func TestNotifyMailerFailureIsSilent(t *testing.T) {
	repo := &stubNotifRepo{}
	svc := NewService(repo, &spyMailer{err: errors.New("redis down")}, discardLogger())

	svc.Notify(context.Background(), 7, KindManual, "Frist", "UVA bis Montag")
	require.Len(t, repo.stored, 1)
}

func TestTaskAssignedHook(t *testing.T) {
	repo := &stubNotifRepo{}
	svc := NewService(repo, nil, discardLogger())

	svc.NotifyTaskAssigned(context.Background(), 4, 12, "UVA Juli")

	require.Len(t, repo.stored, 1)
	assert.Equal(t, KindTaskAssigned, repo.stored[0].Kind)
	assert.Contains(t, repo.stored[0].Body, "#12")
	assert.Contains(t, repo.stored[0].Body, "UVA Juli")
}

func TestDocumentReviewedHook(t *testing.T) {
	repo := &stubNotifRepo{}
	svc := NewService(repo, nil, discardLogger())

	svc.NotifyDocumentReviewed(context.Background(), 7, "beleg.pdf", false, "unleserlich")

	require.Len(t, repo.stored, 1)
	assert.Equal(t, KindDocumentRejected, repo.stored[0].Kind)
	assert.Contains(t, repo.stored[0].Body, "unleserlich")

	svc.NotifyDocumentReviewed(context.Background(), 7, "beleg.pdf", true, "")
	require.Len(t, repo.stored, 2)
	assert.Equal(t, KindDocumentApproved, repo.stored[1].Kind)
}
