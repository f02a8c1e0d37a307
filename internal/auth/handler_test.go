package auth_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/litex-portal/litex/internal/audit"
	"github.com/litex-portal/litex/internal/auth"
	"github.com/litex-portal/litex/internal/shared"
)

type stubRepo struct {
	user     *auth.User
	sessions map[string]int64
	mu       sync.Mutex
}

func (s *stubRepo) FindByEmail(ctx context.Context, email string) (*auth.User, error) {
	if s.user == nil || s.user.Email != email {
		return nil, shared.ErrInvalidCredentials
	}
	return s.user, nil
}

func (s *stubRepo) FindByID(ctx context.Context, id int64) (*auth.User, error) {
	if s.user == nil || s.user.ID != id {
		return nil, shared.ErrNotFound
	}
	return s.user, nil
}

func (s *stubRepo) CreateSession(ctx context.Context, id string, userID int64, expiresAt time.Time, ip, ua string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sessions == nil {
		s.sessions = make(map[string]int64)
	}
	s.sessions[id] = userID
	return nil
}

func (s *stubRepo) DeleteSession(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	return nil
}

type dropSink struct{}

func (dropSink) Insert(ctx context.Context, entry audit.Entry) error { return nil }

func newTestUser(t *testing.T, password string) *auth.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return &auth.User{
		ID:           1,
		Email:        "mitarbeiter@litex.local",
		Name:         "Maria Huber",
		PasswordHash: string(hash),
		IsActive:     true,
	}
}

func newHarness(t *testing.T, repo auth.Repository) (http.Handler, *shared.SessionManager) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	sessions := shared.NewSessionManager(client, "litex_session", "secret", time.Hour, false)
	recorder := audit.NewRecorder(dropSink{}, nil)
	handler := auth.NewHandler(nil, auth.NewService(repo), sessions, recorder)

	router := chi.NewRouter()
	router.Route("/api/auth", handler.MountRoutes)
	return router, sessions
}

func doLogin(t *testing.T, router http.Handler, sessions *shared.SessionManager, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	sess, err := sessions.Load(context.Background(), req)
	require.NoError(t, err)
	req = req.WithContext(shared.ContextWithSession(req.Context(), sess))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestLoginSuccess(t *testing.T) {
	repo := &stubRepo{user: newTestUser(t, "mitarbeiter123")}
	router, sessions := newHarness(t, repo)

	rec := doLogin(t, router, sessions, `{"email":"mitarbeiter@litex.local","password":"mitarbeiter123"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		User struct {
			ID    int64  `json:"id"`
			Email string `json:"email"`
		} `json:"user"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, int64(1), body.User.ID)
	assert.Equal(t, "mitarbeiter@litex.local", body.User.Email)
}

func TestLoginRegistersFreshSession(t *testing.T) {
	repo := &stubRepo{user: newTestUser(t, "mitarbeiter123")}
	router, sessions := newHarness(t, repo)

	// A first login carries no cookie; the session record must still land
	// in the store under a real ID.
	rec := doLogin(t, router, sessions, `{"email":"mitarbeiter@litex.local","password":"mitarbeiter123"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	repo.mu.Lock()
	defer repo.mu.Unlock()
	require.Len(t, repo.sessions, 1)
	for id, userID := range repo.sessions {
		assert.NotEmpty(t, id)
		assert.Equal(t, int64(1), userID)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	repo := &stubRepo{user: newTestUser(t, "mitarbeiter123")}
	router, sessions := newHarness(t, repo)

	rec := doLogin(t, router, sessions, `{"email":"mitarbeiter@litex.local","password":"definitely-wrong"}`)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid credentials")
}

func TestLoginInactiveAccount(t *testing.T) {
	user := newTestUser(t, "mitarbeiter123")
	user.IsActive = false
	router, sessions := newHarness(t, &stubRepo{user: user})

	rec := doLogin(t, router, sessions, `{"email":"mitarbeiter@litex.local","password":"mitarbeiter123"}`)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLoginMalformedPayload(t *testing.T) {
	router, sessions := newHarness(t, &stubRepo{})

	rec := doLogin(t, router, sessions, `{"email":"not-an-email","password":"x"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLogoutClearsSession(t *testing.T) {
	repo := &stubRepo{user: newTestUser(t, "mitarbeiter123")}
	router, sessions := newHarness(t, repo)

	rec := doLogin(t, router, sessions, `{"email":"mitarbeiter@litex.local","password":"mitarbeiter123"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil)
	sess, err := sessions.Load(context.Background(), req)
	require.NoError(t, err)
	sess.SetUser("1")
	req = req.WithContext(shared.ContextWithSession(req.Context(), sess))
	out := httptest.NewRecorder()
	router.ServeHTTP(out, req)

	assert.Equal(t, http.StatusOK, out.Code)
	assert.Contains(t, out.Body.String(), "ok")
}
