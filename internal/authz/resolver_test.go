package authz

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type permSource struct {
	names []string
	err   error
	calls int
}

func (s *permSource) UserPermissionNames(ctx context.Context, userID int64) ([]string, error) {
	s.calls++
	return s.names, s.err
}

func TestEffectivePermissionsUnion(t *testing.T) {
	// Overlapping grants from multiple roles collapse into one set, and the
	// order the rows come back in does not change the outcome.
	first := &permSource{names: []string{PermTasksView, PermFilesView, PermTasksView}}
	second := &permSource{names: []string{PermFilesView, PermTasksView}}

	setA, err := NewResolver(first).EffectivePermissions(context.Background(), 1)
	require.NoError(t, err)
	setB, err := NewResolver(second).EffectivePermissions(context.Background(), 1)
	require.NoError(t, err)

	assert.Equal(t, setA, setB)
	assert.Len(t, setA, 2)
}

func TestHasPermissionUnknownName(t *testing.T) {
	resolver := NewResolver(&permSource{names: []string{PermTasksView}})

	ok, err := resolver.HasPermission(context.Background(), 1, "tasks.teleport")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHasPermissionCaseInsensitive(t *testing.T) {
	resolver := NewResolver(&permSource{names: []string{"Tasks.View"}})

	ok, err := resolver.HasPermission(context.Background(), 1, " TASKS.VIEW ")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRevocationTakesEffectNextCheck(t *testing.T) {
	source := &permSource{names: []string{PermFilesApprove}}
	resolver := NewResolver(source)

	ok, err := resolver.HasPermission(context.Background(), 1, PermFilesApprove)
	require.NoError(t, err)
	require.True(t, ok)

	// Revoke: the next check queries fresh and no longer sees the grant.
	source.names = nil
	ok, err = resolver.HasPermission(context.Background(), 1, PermFilesApprove)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 2, source.calls)
}

func TestHasAnyEmptyListAllows(t *testing.T) {
	source := &permSource{}
	resolver := NewResolver(source)

	ok, err := resolver.HasAny(context.Background(), 1)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Zero(t, source.calls)
}

func TestHasAll(t *testing.T) {
	resolver := NewResolver(&permSource{names: []string{PermTasksView, PermTasksEdit}})

	ok, err := resolver.HasAll(context.Background(), 1, PermTasksView, PermTasksEdit)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = resolver.HasAll(context.Background(), 1, PermTasksView, PermTasksAssign)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestResolverPropagatesSourceError(t *testing.T) {
	wantErr := errors.New("connection reset")
	resolver := NewResolver(&permSource{err: wantErr})

	_, err := resolver.HasPermission(context.Background(), 1, PermTasksView)
	require.Error(t, err)
	assert.True(t, errors.Is(err, wantErr))
}
