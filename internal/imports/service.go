package imports

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/litex-portal/litex/internal/companies"
	"github.com/litex-portal/litex/internal/platform/httpx"
)

// CompanyDirectory resolves external client numbers to portal companies.
type CompanyDirectory interface {
	FindByBMDNumber(ctx context.Context, number string) (companies.Company, error)
	FindByFinmaticsID(ctx context.Context, id string) (companies.Company, error)
}

// TaskUpserter writes imported work items keyed by their external reference.
type TaskUpserter interface {
	UpsertImported(ctx context.Context, companyID int64, ref, title, description string) error
}

// Summary reports the outcome of one import run.
type Summary struct {
	Processed int
	Skipped   int
}

// Service turns BMD and Finmatics exports into portal tasks. Rows whose
// client number is unknown are skipped and counted, never fatal; re-running
// the same export is safe because tasks are upserted by reference.
type Service struct {
	companies CompanyDirectory
	tasks     TaskUpserter
	runs      RunStore
	logger    *slog.Logger
}

// NewService builds a Service instance.
func NewService(companies CompanyDirectory, tasks TaskUpserter, runs RunStore, logger *slog.Logger) *Service {
	return &Service{companies: companies, tasks: tasks, runs: runs, logger: logger}
}

// RunBMD imports a BMD work-item export.
func (s *Service) RunBMD(ctx context.Context, r io.Reader) (Summary, error) {
	return s.run(ctx, "bmd", func(ctx context.Context) (Summary, error) {
		rows, err := ParseBMD(r)
		if err != nil {
			return Summary{}, err
		}
		var sum Summary
		for _, row := range rows {
			if row.ClientNumber == "" || row.Reference == "" {
				sum.Skipped++
				continue
			}
			company, err := s.companies.FindByBMDNumber(ctx, row.ClientNumber)
			if errors.Is(err, httpx.ErrNotFound) {
				s.logger.Warn("bmd import: unknown client", slog.String("client", row.ClientNumber))
				sum.Skipped++
				continue
			}
			if err != nil {
				return sum, err
			}
			title := row.Title
			if title == "" {
				title = "BMD Beleg " + row.Reference
			}
			if err := s.tasks.UpsertImported(ctx, company.ID, "bmd:"+row.Reference, title, row.Description); err != nil {
				return sum, fmt.Errorf("upsert %s: %w", row.Reference, err)
			}
			sum.Processed++
		}
		return sum, nil
	})
}

// RunFinmatics imports a Finmatics document export.
func (s *Service) RunFinmatics(ctx context.Context, r io.Reader) (Summary, error) {
	return s.run(ctx, "finmatics", func(ctx context.Context) (Summary, error) {
		records, err := ParseFinmatics(r)
		if err != nil {
			return Summary{}, err
		}
		var sum Summary
		for _, rec := range records {
			if rec.ClientID == "" || rec.DocumentID == "" {
				sum.Skipped++
				continue
			}
			company, err := s.companies.FindByFinmaticsID(ctx, rec.ClientID)
			if errors.Is(err, httpx.ErrNotFound) {
				s.logger.Warn("finmatics import: unknown client", slog.String("client", rec.ClientID))
				sum.Skipped++
				continue
			}
			if err != nil {
				return sum, err
			}
			title := strings.TrimSpace(rec.Type + " " + rec.Filename)
			if title == "" {
				title = "Finmatics Dokument " + rec.DocumentID
			}
			description := ""
			if rec.Status != "" {
				description = "Finmatics status: " + rec.Status
			}
			if err := s.tasks.UpsertImported(ctx, company.ID, "finmatics:"+rec.DocumentID, title, description); err != nil {
				return sum, fmt.Errorf("upsert %s: %w", rec.DocumentID, err)
			}
			sum.Processed++
		}
		return sum, nil
	})
}

func (s *Service) run(ctx context.Context, source string, fn func(context.Context) (Summary, error)) (Summary, error) {
	runID, err := s.runs.StartRun(ctx, source)
	if err != nil {
		return Summary{}, fmt.Errorf("start %s run: %w", source, err)
	}
	sum, runErr := fn(ctx)
	if err := s.runs.FinishRun(ctx, runID, sum.Processed, sum.Skipped, runErr); err != nil {
		s.logger.Error("finish import run", slog.String("source", source), slog.Any("error", err))
	}
	if runErr != nil {
		return sum, runErr
	}
	s.logger.Info("import run finished",
		slog.String("source", source),
		slog.Int("processed", sum.Processed),
		slog.Int("skipped", sum.Skipped))
	return sum, nil
}
