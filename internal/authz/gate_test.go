package authz

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/litex-portal/litex/internal/shared"
)

type spyChecker struct {
	allowed bool
	err     error
	calls   int
}

func (c *spyChecker) HasAny(ctx context.Context, userID int64, permissions ...string) (bool, error) {
	c.calls++
	return c.allowed, c.err
}

func (c *spyChecker) HasAll(ctx context.Context, userID int64, permissions ...string) (bool, error) {
	c.calls++
	return c.allowed, c.err
}

func gateRequest(t *testing.T, gate Gate, identity *shared.Identity, middleware func(http.Handler) http.Handler) *httptest.ResponseRecorder {
	t.Helper()
	handler := middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}))
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if identity != nil {
		req = req.WithContext(shared.ContextWithIdentity(req.Context(), identity))
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestGateAnonymousRejectedBeforeResolver(t *testing.T) {
	checker := &spyChecker{allowed: true}
	gate := NewGate(checker, nil)

	rec := gateRequest(t, gate, nil, gate.Require(PermTasksView))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Zero(t, checker.calls, "resolver must not run for anonymous callers")
}

func TestGateInsufficientPermissions(t *testing.T) {
	checker := &spyChecker{allowed: false}
	gate := NewGate(checker, nil)

	rec := gateRequest(t, gate, &shared.Identity{UserID: 5}, gate.Require(PermRolesEdit))

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "insufficient permissions")
	assert.Equal(t, 1, checker.calls)
}

func TestGateAllows(t *testing.T) {
	checker := &spyChecker{allowed: true}
	gate := NewGate(checker, nil)

	rec := gateRequest(t, gate, &shared.Identity{UserID: 5}, gate.Require(PermTasksView))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestGateCheckerFailure(t *testing.T) {
	checker := &spyChecker{err: errors.New("db down")}
	gate := NewGate(checker, nil)

	rec := gateRequest(t, gate, &shared.Identity{UserID: 5}, gate.Require(PermTasksView))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestGateRequireSession(t *testing.T) {
	checker := &spyChecker{}
	gate := NewGate(checker, nil)

	rec := gateRequest(t, gate, &shared.Identity{UserID: 5}, gate.RequireSession())
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Zero(t, checker.calls)

	rec = gateRequest(t, gate, nil, gate.RequireSession())
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

// End to end through resolver and gate: a reviewer role allows approval but
// not role administration, and a revocation is effective immediately.
func TestGateWithResolver(t *testing.T) {
	source := &permSource{names: []string{PermFilesView, PermFilesApprove}}
	gate := NewGate(NewResolver(source), nil)
	reviewer := &shared.Identity{UserID: 9}

	rec := gateRequest(t, gate, reviewer, gate.Require(PermFilesApprove))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = gateRequest(t, gate, reviewer, gate.Require(PermRolesEdit))
	require.Equal(t, http.StatusForbidden, rec.Code)

	source.names = []string{PermFilesView}
	rec = gateRequest(t, gate, reviewer, gate.Require(PermFilesApprove))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
