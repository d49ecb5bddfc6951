package service

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/bigkaa/goartstore/folio/internal/config"
	"github.com/bigkaa/goartstore/folio/internal/database"
	"github.com/bigkaa/goartstore/folio/internal/domain/model"
	"github.com/bigkaa/goartstore/folio/internal/domain/rbac"
)

func init() {
	model.PasswordCost = bcrypt.MinCost
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// testEnv — SQLite с миграциями, проверка разрешений и хранилище галерей.
type testEnv struct {
	provider *database.Provider
	checker  *rbac.Checker
	storage  *GalleryStorage
	root     string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	logger := testLogger()
	dir := t.TempDir()
	cfg := &config.Config{
		DBDriver:   config.DriverSQLite,
		DBPath:     filepath.Join(dir, "folio.db"),
		DBMaxConns: 1,
	}
	require.NoError(t, database.Migrate(cfg, logger))

	p := database.NewProvider(cfg, logger)
	t.Cleanup(p.Close)

	root := filepath.Join(dir, "gallery")
	storage, err := NewGalleryStorage(root, []string{"jpg", ".png"}, 1024, logger)
	require.NoError(t, err)

	return &testEnv{
		provider: p,
		checker:  rbac.NewChecker(rbac.NewDBSource(p), logger),
		storage:  storage,
		root:     root,
	}
}

// register создаёт пользователя и возвращает его как Subject.
func (e *testEnv) register(t *testing.T, username string) rbac.Subject {
	t.Helper()
	u, err := NewUserService(e.provider, testLogger()).Register(context.Background(), map[string]any{
		"username":         username,
		"email":            username + "@example.com",
		"password":         "secret",
		"confirm_password": "secret",
	})
	require.NoError(t, err)
	return rbac.Subject{UserID: u.UserID, RoleID: u.RoleID}
}

// admin — пользователь admin из начальных данных.
var admin = rbac.Subject{UserID: 1, RoleID: model.RoleAdministrator}
