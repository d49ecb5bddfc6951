// permission_cache.go — LRU-кэш разрешений ролей с TTL.
// Обёртка над hashicorp/golang-lru/v2/expirable вокруг rbac.Source.
package service

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/bigkaa/goartstore/folio/internal/domain/rbac"
)

// Prometheus-метрики кэша. kind — role или permission.
var (
	permissionCacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "folio_permission_cache_hits_total",
		Help: "Общее количество попаданий в кэш разрешений.",
	}, []string{"kind"})
	permissionCacheMisses = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "folio_permission_cache_misses_total",
		Help: "Общее количество промахов кэша разрешений.",
	}, []string{"kind"})
)

// PermissionCache — кэширующий rbac.Source.
// Ошибки источника не кэшируются.
type PermissionCache struct {
	source rbac.Source
	roles  *expirable.LRU[int64, []rbac.Permission]
	rules  *expirable.LRU[int64, []string]
}

// NewPermissionCache создаёт кэш с максимальным размером и TTL записи.
func NewPermissionCache(source rbac.Source, maxSize int, ttl time.Duration) *PermissionCache {
	return &PermissionCache{
		source: source,
		roles:  expirable.NewLRU[int64, []rbac.Permission](maxSize, nil, ttl),
		rules:  expirable.NewLRU[int64, []string](maxSize, nil, ttl),
	}
}

// RolePermissions возвращает разрешения роли из кэша или источника.
func (c *PermissionCache) RolePermissions(ctx context.Context, roleID int64) ([]rbac.Permission, error) {
	if perms, ok := c.roles.Get(roleID); ok {
		permissionCacheHits.WithLabelValues("role").Inc()
		return perms, nil
	}
	permissionCacheMisses.WithLabelValues("role").Inc()

	perms, err := c.source.RolePermissions(ctx, roleID)
	if err != nil {
		return nil, err
	}
	c.roles.Add(roleID, perms)
	return perms, nil
}

// PermissionRules возвращает правила разрешения из кэша или источника.
func (c *PermissionCache) PermissionRules(ctx context.Context, permissionID int64) ([]string, error) {
	if rules, ok := c.rules.Get(permissionID); ok {
		permissionCacheHits.WithLabelValues("permission").Inc()
		return rules, nil
	}
	permissionCacheMisses.WithLabelValues("permission").Inc()

	rules, err := c.source.PermissionRules(ctx, permissionID)
	if err != nil {
		return nil, err
	}
	c.rules.Add(permissionID, rules)
	return rules, nil
}

// Purge очищает кэш.
func (c *PermissionCache) Purge() {
	c.roles.Purge()
	c.rules.Purge()
}
