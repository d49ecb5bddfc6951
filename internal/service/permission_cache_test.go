package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bigkaa/goartstore/folio/internal/domain/rbac"
)

// countingSource считает обращения к источнику.
type countingSource struct {
	roleCalls int
	ruleCalls int
	err       error
}

func (s *countingSource) RolePermissions(context.Context, int64) ([]rbac.Permission, error) {
	s.roleCalls++
	if s.err != nil {
		return nil, s.err
	}
	return []rbac.Permission{{ID: 3, Name: rbac.WriteArticles}}, nil
}

func (s *countingSource) PermissionRules(context.Context, int64) ([]string, error) {
	s.ruleCalls++
	if s.err != nil {
		return nil, s.err
	}
	return []string{rbac.RuleIsOwner}, nil
}

func TestPermissionCache_HitMiss(t *testing.T) {
	src := &countingSource{}
	cache := NewPermissionCache(src, 8, time.Minute)
	ctx := context.Background()

	hits := testutil.ToFloat64(permissionCacheHits.WithLabelValues("role"))
	misses := testutil.ToFloat64(permissionCacheMisses.WithLabelValues("role"))

	for range 3 {
		perms, err := cache.RolePermissions(ctx, 1)
		require.NoError(t, err)
		require.Len(t, perms, 1)
	}
	assert.Equal(t, 1, src.roleCalls)
	assert.Equal(t, hits+2, testutil.ToFloat64(permissionCacheHits.WithLabelValues("role")))
	assert.Equal(t, misses+1, testutil.ToFloat64(permissionCacheMisses.WithLabelValues("role")))

	for range 2 {
		_, err := cache.PermissionRules(ctx, 3)
		require.NoError(t, err)
	}
	assert.Equal(t, 1, src.ruleCalls)

	cache.Purge()
	_, err := cache.RolePermissions(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, src.roleCalls)
}

func TestPermissionCache_ErrorsNotCached(t *testing.T) {
	src := &countingSource{err: errors.New("нет соединения")}
	cache := NewPermissionCache(src, 8, time.Minute)
	ctx := context.Background()

	_, err := cache.RolePermissions(ctx, 1)
	require.Error(t, err)

	src.err = nil
	perms, err := cache.RolePermissions(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, perms, 1)
	assert.Equal(t, 2, src.roleCalls)
}

func TestPermissionCache_WithChecker(t *testing.T) {
	src := &countingSource{}
	checker := rbac.NewChecker(NewPermissionCache(src, 8, time.Minute), testLogger())
	subj := rbac.Subject{UserID: 1, RoleID: 1}

	for range 3 {
		ok, err := checker.HasPermission(context.Background(), subj, rbac.WriteArticles, nil)
		require.NoError(t, err)
		assert.False(t, ok, "правило isOwner без цели запрещает доступ")
	}
	assert.Equal(t, 1, src.roleCalls)
	assert.Equal(t, 1, src.ruleCalls)
}
