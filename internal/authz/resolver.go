package authz

import (
	"context"
	"strings"
)

// PermissionSource yields the permission names currently granted to a user.
type PermissionSource interface {
	UserPermissionNames(ctx context.Context, userID int64) ([]string, error)
}

// Resolver computes effective permission sets. Resolution always queries
// current assignments so revocations take effect on the next check.
type Resolver struct {
	source PermissionSource
}

// NewResolver constructs a Resolver.
func NewResolver(source PermissionSource) *Resolver {
	return &Resolver{source: source}
}

// EffectivePermissions returns the union of permissions across all roles
// assigned to the user.
func (r *Resolver) EffectivePermissions(ctx context.Context, userID int64) (map[string]struct{}, error) {
	names, err := r.source.UserPermissionNames(ctx, userID)
	if err != nil {
		return nil, err
	}
	set := make(map[string]struct{}, len(names))
	for _, name := range names {
		set[strings.ToLower(name)] = struct{}{}
	}
	return set, nil
}

// HasPermission reports whether the user holds the permission. Unknown
// permission names evaluate to false, never to an error.
func (r *Resolver) HasPermission(ctx context.Context, userID int64, permission string) (bool, error) {
	set, err := r.EffectivePermissions(ctx, userID)
	if err != nil {
		return false, err
	}
	_, ok := set[normalizePermission(permission)]
	return ok, nil
}

// HasAny reports whether the user holds at least one of the permissions.
func (r *Resolver) HasAny(ctx context.Context, userID int64, permissions ...string) (bool, error) {
	if len(permissions) == 0 {
		return true, nil
	}
	set, err := r.EffectivePermissions(ctx, userID)
	if err != nil {
		return false, err
	}
	for _, perm := range permissions {
		if _, ok := set[normalizePermission(perm)]; ok {
			return true, nil
		}
	}
	return false, nil
}

// HasAll reports whether the user holds every one of the permissions.
func (r *Resolver) HasAll(ctx context.Context, userID int64, permissions ...string) (bool, error) {
	set, err := r.EffectivePermissions(ctx, userID)
	if err != nil {
		return false, err
	}
	for _, perm := range permissions {
		if _, ok := set[normalizePermission(perm)]; !ok {
			return false, nil
		}
	}
	return true, nil
}

func normalizePermission(p string) string {
	return strings.TrimSpace(strings.ToLower(p))
}
