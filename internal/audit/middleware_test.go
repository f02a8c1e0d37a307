package audit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/litex-portal/litex/internal/shared"
)

func auditedRouter(recorder *Recorder, entityType string, opts Options, status int) chi.Router {
	r := chi.NewRouter()
	r.Use(Middleware(recorder, entityType, opts))
	handle := func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(status)
	}
	r.Post("/", handle)
	r.Put("/{id}", handle)
	r.Delete("/{id}", handle)
	r.Get("/", handle)
	return r
}

func TestMiddlewareDerivesActionFromMethod(t *testing.T) {
	cases := []struct {
		method string
		path   string
		action string
	}{
		{http.MethodPost, "/", ActionCreate},
		{http.MethodPut, "/42", ActionUpdate},
		{http.MethodDelete, "/42", ActionDelete},
	}
	for _, tc := range cases {
		t.Run(tc.method, func(t *testing.T) {
			sink := newCaptureSink(1)
			router := auditedRouter(NewRecorder(sink, nil), "role", Options{EntityIDParam: "id"}, http.StatusOK)

			req := httptest.NewRequest(tc.method, tc.path, nil)
			router.ServeHTTP(httptest.NewRecorder(), req)

			entry := sink.wait(t)
			assert.Equal(t, tc.action, entry.Action)
			assert.Equal(t, "role", entry.EntityType)
			assert.Equal(t, StatusSuccess, entry.Status)
			if tc.path == "/42" {
				assert.Equal(t, "42", entry.EntityID)
			}
		})
	}
}

func TestMiddlewareRecordsDenials(t *testing.T) {
	sink := newCaptureSink(1)
	router := auditedRouter(NewRecorder(sink, nil), "role", Options{}, http.StatusForbidden)

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	router.ServeHTTP(httptest.NewRecorder(), req)

	entry := sink.wait(t)
	assert.Equal(t, StatusFailed, entry.Status)
	assert.Equal(t, http.StatusForbidden, entry.Metadata["code"])
}

func TestMiddlewareCapturesActor(t *testing.T) {
	sink := newCaptureSink(1)
	router := auditedRouter(NewRecorder(sink, nil), "role", Options{}, http.StatusCreated)

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.Header.Set("User-Agent", "litex-test")
	req = req.WithContext(shared.ContextWithIdentity(req.Context(), &shared.Identity{UserID: 11, Email: "mitarbeiter@litex.local"}))
	router.ServeHTTP(httptest.NewRecorder(), req)

	entry := sink.wait(t)
	require.NotNil(t, entry.Actor.UserID)
	assert.Equal(t, int64(11), *entry.Actor.UserID)
	assert.Equal(t, "mitarbeiter@litex.local", entry.Actor.Email)
	assert.Equal(t, "litex-test", entry.Actor.UserAgent)
}

func TestMiddlewareIgnoresUnauthenticated(t *testing.T) {
	sink := newCaptureSink(1)
	router := auditedRouter(NewRecorder(sink, nil), "role", Options{}, http.StatusUnauthorized)

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/", nil))

	select {
	case <-sink.done:
		t.Fatal("unauthenticated request must not be recorded")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestMiddlewareSkipSuccessStillRecordsDenials(t *testing.T) {
	opts := Options{
		EntityIDParam: "id",
		SkipSuccess:   func(r *http.Request) bool { return true },
	}

	sink := newCaptureSink(1)
	router := auditedRouter(NewRecorder(sink, nil), "document", opts, http.StatusOK)
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/", nil))
	select {
	case <-sink.done:
		t.Fatal("successful request must be left to the handler's own entry")
	case <-time.After(100 * time.Millisecond):
	}

	sink = newCaptureSink(1)
	router = auditedRouter(NewRecorder(sink, nil), "document", opts, http.StatusForbidden)
	req := httptest.NewRequest(http.MethodPut, "/42", nil)
	req = req.WithContext(shared.ContextWithIdentity(req.Context(), &shared.Identity{UserID: 11, Email: "kunde@muster-handel.at"}))
	router.ServeHTTP(httptest.NewRecorder(), req)

	entry := sink.wait(t)
	assert.Equal(t, StatusFailed, entry.Status)
	assert.Equal(t, "42", entry.EntityID)
	require.NotNil(t, entry.Actor.UserID)
	assert.Equal(t, int64(11), *entry.Actor.UserID)
}

func TestMiddlewareSkip(t *testing.T) {
	sink := newCaptureSink(1)
	opts := Options{Skip: func(r *http.Request) bool { return r.Method == http.MethodGet }}
	router := auditedRouter(NewRecorder(sink, nil), "role", opts, http.StatusOK)

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	select {
	case <-sink.done:
		t.Fatal("skipped request must not be recorded")
	case <-time.After(100 * time.Millisecond):
	}
}
