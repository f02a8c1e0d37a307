package authz

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// RoleRef is the role summary exposed to the UI.
type RoleRef struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// PermissionView is the payload behind GET /api/me/permissions. It feeds UI
// visibility only and is never consulted for enforcement; every mutating
// route re-checks through the Gate.
type PermissionView struct {
	Permissions map[string]bool `json:"permissions"`
	Roles       []RoleRef       `json:"roles"`
}

const (
	permCacheGenKey = "litex:perms:gen"
	permCacheTTL    = 5 * time.Minute
)

// ViewCache caches resolved permission views in Redis. Invalidation bumps a
// generation counter, so any role or assignment mutation makes every cached
// view unreachable at once; stale generations simply expire.
type ViewCache struct {
	client   *redis.Client
	resolver *Resolver
	service  *Service
	logger   *slog.Logger
	group    singleflight.Group
}

// NewViewCache constructs a ViewCache.
func NewViewCache(client *redis.Client, resolver *Resolver, service *Service, logger *slog.Logger) *ViewCache {
	return &ViewCache{client: client, resolver: resolver, service: service, logger: logger}
}

// View returns the cached permission view for a user, computing and storing
// it on miss. Cache failures fall back to fresh resolution.
func (c *ViewCache) View(ctx context.Context, userID int64) (PermissionView, error) {
	key, err := c.userKey(ctx, userID)
	if err == nil {
		if data, err := c.client.Get(ctx, key).Bytes(); err == nil {
			var view PermissionView
			if err := json.Unmarshal(data, &view); err == nil {
				return view, nil
			}
		}
	}

	// Collapse concurrent misses for the same user into one build.
	result, err, _ := c.group.Do(fmt.Sprintf("user:%d", userID), func() (any, error) {
		return c.build(ctx, userID)
	})
	if err != nil {
		return PermissionView{}, err
	}
	view := result.(PermissionView)

	if key != "" {
		if data, err := json.Marshal(view); err == nil {
			if err := c.client.Set(ctx, key, data, permCacheTTL).Err(); err != nil && c.logger != nil {
				c.logger.Warn("permission view cache write", slog.Any("error", err))
			}
		}
	}
	return view, nil
}

// Invalidate makes all cached views stale. Called after every role or
// assignment mutation.
func (c *ViewCache) Invalidate(ctx context.Context) {
	if err := c.client.Incr(ctx, permCacheGenKey).Err(); err != nil && c.logger != nil {
		c.logger.Warn("permission view cache invalidate", slog.Any("error", err))
	}
}

func (c *ViewCache) build(ctx context.Context, userID int64) (PermissionView, error) {
	set, err := c.resolver.EffectivePermissions(ctx, userID)
	if err != nil {
		return PermissionView{}, err
	}
	roles, err := c.service.RolesForUser(ctx, userID)
	if err != nil {
		return PermissionView{}, err
	}
	view := PermissionView{
		Permissions: make(map[string]bool, len(set)),
		Roles:       make([]RoleRef, 0, len(roles)),
	}
	for name := range set {
		view.Permissions[name] = true
	}
	for _, role := range roles {
		view.Roles = append(view.Roles, RoleRef{ID: role.ID, Name: role.Name})
	}
	return view, nil
}

func (c *ViewCache) userKey(ctx context.Context, userID int64) (string, error) {
	gen, err := c.client.Get(ctx, permCacheGenKey).Int64()
	if err != nil {
		if err == redis.Nil {
			gen = 0
		} else {
			return "", err
		}
	}
	return fmt.Sprintf("litex:perms:%d:%d", gen, userID), nil
}
