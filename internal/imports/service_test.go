package imports

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/litex-portal/litex/internal/companies"
	"github.com/litex-portal/litex/internal/platform/httpx"
)

type stubDirectory struct {
	byBMD map[string]int64
	byFin map[string]int64
}

func (d *stubDirectory) FindByBMDNumber(ctx context.Context, number string) (companies.Company, error) {
	id, ok := d.byBMD[number]
	if !ok {
		return companies.Company{}, httpx.ErrNotFound
	}
	return companies.Company{ID: id, BMDNumber: number}, nil
}

func (d *stubDirectory) FindByFinmaticsID(ctx context.Context, finID string) (companies.Company, error) {
	id, ok := d.byFin[finID]
	if !ok {
		return companies.Company{}, httpx.ErrNotFound
	}
	return companies.Company{ID: id, FinmaticsID: finID}, nil
}

type upsertCall struct {
	companyID   int64
	ref         string
	title       string
	description string
}

type stubUpserter struct {
	calls []upsertCall
}

func (u *stubUpserter) UpsertImported(ctx context.Context, companyID int64, ref, title, description string) error {
	u.calls = append(u.calls, upsertCall{companyID, ref, title, description})
	return nil
}

type stubRunStore struct {
	started  []string
	finished bool
	proc     int
	skip     int
	runErr   error
}

func (s *stubRunStore) StartRun(ctx context.Context, source string) (int64, error) {
	s.started = append(s.started, source)
	return 1, nil
}

func (s *stubRunStore) FinishRun(ctx context.Context, id int64, processed, skipped int, runErr error) error {
	s.finished = true
	s.proc = processed
	s.skip = skipped
	s.runErr = runErr
	return nil
}

func newImportHarness() (*Service, *stubUpserter, *stubRunStore) {
	tasks := &stubUpserter{}
	runs := &stubRunStore{}
	dir := &stubDirectory{
		byBMD: map[string]int64{"10001": 1},
		byFin: map[string]int64{"fin-10001": 1},
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewService(dir, tasks, runs, logger), tasks, runs
}

func TestRunBMDSkipsUnknownClients(t *testing.T) {
	svc, tasks, runs := newImportHarness()
	body := strings.Join([]string{
		"Klientennummer;Belegnummer;Betreff;Beschreibung",
		"10001;B-1;UVA Juli;Fristsache",
		"99999;B-2;Unbekannt;",
		";B-3;Ohne Klient;",
	}, "\n")

	sum, err := svc.RunBMD(context.Background(), strings.NewReader(body))
	require.NoError(t, err)
	assert.Equal(t, Summary{Processed: 1, Skipped: 2}, sum)

	require.Len(t, tasks.calls, 1)
	assert.Equal(t, upsertCall{companyID: 1, ref: "bmd:B-1", title: "UVA Juli", description: "Fristsache"}, tasks.calls[0])

	assert.Equal(t, []string{"bmd"}, runs.started)
	assert.True(t, runs.finished)
	assert.Equal(t, 1, runs.proc)
	assert.Equal(t, 2, runs.skip)
}

func TestRunBMDDefaultsTitle(t *testing.T) {
	svc, tasks, _ := newImportHarness()
	body := "Klientennummer;Belegnummer\n10001;B-9\n"

	_, err := svc.RunBMD(context.Background(), strings.NewReader(body))
	require.NoError(t, err)
	require.Len(t, tasks.calls, 1)
	assert.Equal(t, "BMD Beleg B-9", tasks.calls[0].title)
}

func TestRunBMDParseErrorRecordedOnRun(t *testing.T) {
	svc, _, runs := newImportHarness()

	_, err := svc.RunBMD(context.Background(), strings.NewReader("Belegnummer\nB-1\n"))
	require.Error(t, err)
	assert.True(t, runs.finished)
	assert.Error(t, runs.runErr)
}

func TestRunFinmatics(t *testing.T) {
	svc, tasks, runs := newImportHarness()
	body := strings.Join([]string{
		`{"document_id":"fd-1","client_id":"fin-10001","document_type":"Eingangsrechnung","status":"processed","filename":"er-001.pdf"}`,
		`{"document_id":"fd-2","client_id":"fin-unknown","status":"processed"}`,
		`{"document_id":"fd-3","client_id":"fin-10001"}`,
	}, "\n")

	sum, err := svc.RunFinmatics(context.Background(), strings.NewReader(body))
	require.NoError(t, err)
	assert.Equal(t, Summary{Processed: 2, Skipped: 1}, sum)

	require.Len(t, tasks.calls, 2)
	assert.Equal(t, "finmatics:fd-1", tasks.calls[0].ref)
	assert.Equal(t, "Eingangsrechnung er-001.pdf", tasks.calls[0].title)
	assert.Equal(t, "Finmatics status: processed", tasks.calls[0].description)
	// No type and no filename falls back to the document id.
	assert.Equal(t, "Finmatics Dokument fd-3", tasks.calls[1].title)

	assert.Equal(t, []string{"finmatics"}, runs.started)
}
