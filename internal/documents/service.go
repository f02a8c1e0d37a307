package documents

import (
	"context"
	"fmt"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/litex-portal/litex/internal/audit"
	"github.com/litex-portal/litex/internal/platform/httpx"
)

// RepositoryPort defines data access methods for documents.
type RepositoryPort interface {
	Insert(ctx context.Context, doc Document) (Document, error)
	Get(ctx context.Context, id int64) (Document, error)
	List(ctx context.Context, companyID int64) ([]Document, error)
	SetReview(ctx context.Context, id int64, status string, reviewerID int64, reason string) (Document, error)
}

// ObjectStore issues presigned URLs for direct browser transfers.
type ObjectStore interface {
	PresignUpload(ctx context.Context, key, contentType string, ttl time.Duration) (string, error)
	PresignDownload(ctx context.Context, key string, ttl time.Duration) (string, error)
	Exists(ctx context.Context, key string) (bool, error)
}

// Notifier informs the uploader about triage outcomes.
type Notifier interface {
	NotifyDocumentReviewed(ctx context.Context, userID int64, filename string, approved bool, reason string)
}

const presignTTL = 15 * time.Minute

// Service handles the document upload and triage flow. Successful triage
// audit entries are recorded here because the outcome metadata lives in this
// scope; denied and failed attempts are left to the HTTP audit middleware.
type Service struct {
	repo     RepositoryPort
	store    ObjectStore
	notifier Notifier
	recorder *audit.Recorder
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort, store ObjectStore, notifier Notifier, recorder *audit.Recorder) *Service {
	return &Service{repo: repo, store: store, notifier: notifier, recorder: recorder}
}

// Upload registers a pending document and returns it with a presigned PUT
// URL the client uploads the bytes to.
func (s *Service) Upload(ctx context.Context, companyID, uploaderID int64, filename, contentType string, sizeBytes int64) (Document, string, error) {
	filename = strings.TrimSpace(path.Base(filename))
	if filename == "" || filename == "." {
		return Document{}, "", fmt.Errorf("%w: filename required", httpx.ErrValidation)
	}
	if companyID == 0 {
		return Document{}, "", fmt.Errorf("%w: company required", httpx.ErrValidation)
	}
	key := fmt.Sprintf("companies/%d/%s/%s", companyID, uuid.NewString(), filename)
	doc, err := s.repo.Insert(ctx, Document{
		CompanyID:   companyID,
		UploaderID:  uploaderID,
		Filename:    filename,
		ObjectKey:   key,
		ContentType: contentType,
		SizeBytes:   sizeBytes,
	})
	if err != nil {
		return Document{}, "", err
	}
	url, err := s.store.PresignUpload(ctx, key, contentType, presignTTL)
	if err != nil {
		return Document{}, "", err
	}
	return doc, url, nil
}

// Get fetches a document scoped to the caller's company.
func (s *Service) Get(ctx context.Context, id, callerCompanyID int64) (Document, error) {
	doc, err := s.repo.Get(ctx, id)
	if err != nil {
		return Document{}, err
	}
	if callerCompanyID != 0 && doc.CompanyID != callerCompanyID {
		return Document{}, httpx.ErrNotFound
	}
	return doc, nil
}

// List returns documents visible to the caller.
func (s *Service) List(ctx context.Context, callerCompanyID int64) ([]Document, error) {
	return s.repo.List(ctx, callerCompanyID)
}

// DownloadURL returns a presigned GET URL for the document.
func (s *Service) DownloadURL(ctx context.Context, id, callerCompanyID int64) (string, error) {
	doc, err := s.Get(ctx, id, callerCompanyID)
	if err != nil {
		return "", err
	}
	return s.store.PresignDownload(ctx, doc.ObjectKey, presignTTL)
}

// Complete confirms the client finished the presigned PUT. The object must
// be present in storage; a missing object means the browser upload failed.
func (s *Service) Complete(ctx context.Context, id, callerCompanyID int64) (Document, error) {
	doc, err := s.Get(ctx, id, callerCompanyID)
	if err != nil {
		return Document{}, err
	}
	uploaded, err := s.store.Exists(ctx, doc.ObjectKey)
	if err != nil {
		return Document{}, err
	}
	if !uploaded {
		return Document{}, fmt.Errorf("%w: upload incomplete", httpx.ErrValidation)
	}
	return doc, nil
}

// Review triages a pending document. Only pending documents can be reviewed;
// a second triage attempt is a conflict.
func (s *Service) Review(ctx context.Context, id, reviewerID int64, approve bool, reason string, actor audit.Actor) (Document, error) {
	doc, err := s.repo.Get(ctx, id)
	if err != nil {
		return Document{}, err
	}
	if doc.Status != StatusPending {
		return Document{}, fmt.Errorf("%w: document already %s", httpx.ErrConflict, doc.Status)
	}
	uploaded, err := s.store.Exists(ctx, doc.ObjectKey)
	if err == nil && !uploaded {
		return Document{}, fmt.Errorf("%w: upload incomplete", httpx.ErrValidation)
	}

	status := StatusApproved
	action := audit.ActionApprove
	if !approve {
		status = StatusRejected
		action = audit.ActionReject
		if strings.TrimSpace(reason) == "" {
			return Document{}, fmt.Errorf("%w: rejection reason required", httpx.ErrValidation)
		}
	}

	reviewed, err := s.repo.SetReview(ctx, id, status, reviewerID, reason)
	if err != nil {
		// Failed attempts are recorded by the audit middleware.
		return Document{}, err
	}
	entry := audit.Entry{
		Action:     action,
		EntityType: "document",
		EntityID:   strconv.FormatInt(id, 10),
		Actor:      actor,
		Metadata:   map[string]any{"filename": doc.Filename, "company_id": doc.CompanyID},
	}
	if reason != "" {
		entry.Metadata["reason"] = reason
	}
	s.recorder.RecordAsync(entry)

	if s.notifier != nil {
		s.notifier.NotifyDocumentReviewed(ctx, reviewed.UploaderID, reviewed.Filename, approve, reason)
	}
	return reviewed, nil
}
