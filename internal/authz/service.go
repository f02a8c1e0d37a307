package authz

import (
	"context"
	"fmt"
	"strings"

	"github.com/litex-portal/litex/internal/platform/httpx"
)

// Service orchestrates role and assignment operations.
type Service struct {
	repo Repository
}

// NewService constructs a Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// CreateRole inserts a new custom role after validating its permissions
// against the catalog.
func (s *Service) CreateRole(ctx context.Context, name, description string, permissions []string) (Role, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Role{}, fmt.Errorf("%w: role name required", httpx.ErrValidation)
	}
	normalized, err := normalizeGrantNames(permissions)
	if err != nil {
		return Role{}, err
	}
	role, err := s.repo.CreateRole(ctx, name, strings.TrimSpace(description), normalized)
	if err != nil {
		return Role{}, err
	}
	return role, nil
}

// GetRole fetches a role by ID.
func (s *Service) GetRole(ctx context.Context, id int64) (Role, error) {
	return s.repo.GetRole(ctx, id)
}

// ListRoles returns all roles with their permission lists.
func (s *Service) ListRoles(ctx context.Context) ([]Role, error) {
	return s.repo.ListRoles(ctx)
}

// UpdateRole applies partial changes. Renaming a system role is rejected;
// a permission update replaces the full grant set.
func (s *Service) UpdateRole(ctx context.Context, id int64, update RoleUpdate) (Role, error) {
	current, err := s.repo.GetRole(ctx, id)
	if err != nil {
		return Role{}, err
	}

	name := current.Name
	if update.Name != nil {
		requested := strings.TrimSpace(*update.Name)
		if requested == "" {
			return Role{}, fmt.Errorf("%w: role name required", httpx.ErrValidation)
		}
		if current.IsSystem && requested != current.Name {
			return Role{}, fmt.Errorf("%w: cannot rename system role", httpx.ErrConflict)
		}
		name = requested
	}

	description := current.Description
	if update.Description != nil {
		description = strings.TrimSpace(*update.Description)
	}

	var permissions *[]string
	if update.Permissions != nil {
		normalized, err := normalizeGrantNames(*update.Permissions)
		if err != nil {
			return Role{}, err
		}
		permissions = &normalized
	}

	return s.repo.UpdateRole(ctx, id, name, description, permissions)
}

// DeleteRole removes a custom role. System roles cannot be deleted.
func (s *Service) DeleteRole(ctx context.Context, id int64) error {
	role, err := s.repo.GetRole(ctx, id)
	if err != nil {
		return err
	}
	if role.IsSystem {
		return fmt.Errorf("%w: cannot delete system role", httpx.ErrConflict)
	}
	return s.repo.DeleteRole(ctx, id)
}

// AssignRole grants a role to a user. The role must exist; a duplicate
// assignment surfaces as a conflict, including the insert race where two
// callers pass the existence check at the same time.
func (s *Service) AssignRole(ctx context.Context, userID, roleID int64, assignedBy *int64) (Assignment, error) {
	if _, err := s.repo.GetRole(ctx, roleID); err != nil {
		return Assignment{}, err
	}
	assignment, err := s.repo.AssignRole(ctx, userID, roleID, assignedBy)
	if err != nil {
		return Assignment{}, err
	}
	return assignment, nil
}

// RevokeRole removes an assignment.
func (s *Service) RevokeRole(ctx context.Context, userID, roleID int64) error {
	return s.repo.RevokeRole(ctx, userID, roleID)
}

// RolesForUser lists the roles currently assigned to a user.
func (s *Service) RolesForUser(ctx context.Context, userID int64) ([]Role, error) {
	return s.repo.RolesForUser(ctx, userID)
}

func normalizeGrantNames(permissions []string) ([]string, error) {
	seen := make(map[string]struct{}, len(permissions))
	normalized := make([]string, 0, len(permissions))
	for _, perm := range permissions {
		perm = strings.TrimSpace(strings.ToLower(perm))
		if perm == "" {
			continue
		}
		if !KnownPermission(perm) {
			return nil, fmt.Errorf("%w: unknown permission %q", httpx.ErrValidation, perm)
		}
		if _, ok := seen[perm]; ok {
			continue
		}
		seen[perm] = struct{}{}
		normalized = append(normalized, perm)
	}
	return normalized, nil
}
