package model

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/bigkaa/goartstore/folio/internal/config"
	"github.com/bigkaa/goartstore/folio/internal/database"
	"github.com/bigkaa/goartstore/folio/internal/record"
)

func init() {
	PasswordCost = bcrypt.MinCost
}

// newTestDB поднимает SQLite с миграциями и начальными данными.
func newTestDB(t *testing.T) *record.DB {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := &config.Config{
		DBDriver:   config.DriverSQLite,
		DBPath:     filepath.Join(t.TempDir(), "folio.db"),
		DBMaxConns: 1,
	}
	require.NoError(t, database.Migrate(cfg, logger))

	p := database.NewProvider(cfg, logger)
	t.Cleanup(p.Close)

	db, err := p.DB(context.Background())
	require.NoError(t, err)
	return db
}

func registerUser(t *testing.T, db *record.DB, username string) *User {
	t.Helper()
	u := &User{}
	r := record.New(db, u)
	r.SetValues(map[string]any{
		"username":         username,
		"email":            username + "@example.com",
		"password":         "secret",
		"confirm_password": "secret",
	})
	require.True(t, r.Validate(context.Background()), "%v", r.Errors())
	require.NoError(t, r.Save(context.Background()))
	return u
}

type fakeDirs struct {
	next    string
	err     error
	removed []string
}

func (d *fakeDirs) Provision(context.Context) (string, error) { return d.next, d.err }

func (d *fakeDirs) Remove(_ context.Context, dir string) error {
	d.removed = append(d.removed, dir)
	return nil
}

func TestUser_Register(t *testing.T) {
	db := newTestDB(t)
	u := registerUser(t, db, "alice")

	assert.NotZero(t, u.UserID)
	assert.Equal(t, RoleUser, u.RoleID)
	assert.False(t, u.Created.IsZero())
	assert.Empty(t, u.Password)
	assert.True(t, u.CheckPassword("secret"))
	assert.False(t, u.CheckPassword("wrong"))

	row, err := record.New(db, &User{}).FindByPK(context.Background(), u.UserID)
	require.NoError(t, err)
	assert.Equal(t, "alice", row.String("username"))
	assert.Equal(t, u.PasswordHash, row.String("password_hash"))
}

func TestUser_RegisterValidation(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	r := record.New(db, &User{})
	r.SetValues(map[string]any{
		"username":         "admin",
		"email":            "not-an-email",
		"password":         "abc",
		"confirm_password": "abd",
	})
	assert.False(t, r.Validate(ctx))

	errs := r.Errors()
	assert.Contains(t, errs, "username")
	assert.Contains(t, errs, "email")
	assert.Contains(t, errs, "password")
	assert.Contains(t, errs, "confirm_password")
	assert.NotContains(t, r.IgnoredFields(), "created")
	assert.Contains(t, r.IgnoredFields(), "updated")
}

func TestLoginForm_Login(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	registerUser(t, db, "bob")

	tests := []struct {
		name     string
		username string
		password string
		wantErr  error
	}{
		{"верный пароль", "bob", "secret", nil},
		{"неверный пароль", "bob", "nope", ErrInvalidCredentials},
		{"нет пользователя", "carol", "secret", ErrInvalidCredentials},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			form := &LoginForm{Username: tt.username, Password: tt.password}
			require.True(t, record.New(db, form).Validate(ctx))

			u, err := form.Login(ctx, db)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "bob", u.Username)
			assert.Equal(t, RoleUser, u.RoleID)
		})
	}
}

func TestLoginForm_Required(t *testing.T) {
	db := newTestDB(t)
	r := record.New(db, &LoginForm{})
	assert.False(t, r.Validate(context.Background()))
	assert.Len(t, r.Errors(), 2)
}

func TestArticle_AfterFindAttachesAuthor(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	u := registerUser(t, db, "writer")

	a := &Article{}
	r := record.New(db, a)
	r.SetValues(map[string]any{"user_id": u.UserID, "caption": "Hello", "content": "World"})
	require.True(t, r.Validate(ctx), "%v", r.Errors())
	require.NoError(t, r.Save(ctx))
	assert.False(t, a.Created.IsZero())

	rows, err := record.New(db, &Article{}).FindAll(ctx, record.Where("user_id", u.UserID), record.Options{})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "writer", rows[0].String("author"))
	assert.Equal(t, "Hello", rows[0].String("caption"))
}

func TestArticle_UpdateKeepsCreated(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	a := &Article{}
	r := record.New(db, a)
	r.SetValues(map[string]any{"user_id": 1, "caption": "Draft", "content": "text"})
	require.True(t, r.Validate(ctx))
	require.NoError(t, r.Save(ctx))

	row, err := record.New(db, &Article{}).FindByPK(ctx, a.ArticleID)
	require.NoError(t, err)

	edited := &Article{}
	er := record.New(db, edited)
	er.SetValues(row)
	er.SetValues(map[string]any{"caption": "Final"})
	require.True(t, er.Validate(ctx), "%v", er.Errors())
	require.NoError(t, er.Save(ctx))

	row, err = record.New(db, &Article{}).FindByPK(ctx, a.ArticleID)
	require.NoError(t, err)
	assert.Equal(t, "Final", row.String("caption"))
	assert.NotNil(t, row["created"])
	assert.NotNil(t, row["updated"])
	assert.Equal(t, "admin", row.String("author"))
}

func TestArticle_Validation(t *testing.T) {
	db := newTestDB(t)
	r := record.New(db, &Article{})
	r.SetValues(map[string]any{"caption": strings.Repeat("a", 201)})
	assert.False(t, r.Validate(context.Background()))

	errs := r.Errors()
	assert.Contains(t, errs, "user_id")
	assert.Contains(t, errs, "content")
	assert.Contains(t, errs, "caption")
}

func TestGallery_ProvisionsDirectory(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	dirs := &fakeDirs{next: "abcd1234"}

	g := NewGallery(dirs)
	r := record.New(db, g)
	r.SetValues(map[string]any{"name": "Trips", "parent_id": "", "public": "1"})
	require.True(t, r.Validate(ctx), "%v", r.Errors())
	require.NoError(t, r.Save(ctx))

	assert.Equal(t, "abcd1234", g.Filepath)
	assert.Nil(t, g.ParentID)

	row, err := record.New(db, &Gallery{}).FindByPK(ctx, g.GalleryID)
	require.NoError(t, err)
	assert.Equal(t, "abcd1234", row.String("filepath"))
	assert.Nil(t, row["parent_id"])
	assert.True(t, row.Bool("public"))
}

func TestGallery_ProvisionFailure(t *testing.T) {
	db := newTestDB(t)
	dirs := &fakeDirs{err: errors.New("диск заполнен")}

	g := NewGallery(dirs)
	g.Name = "Broken"
	err := record.New(db, g).Save(context.Background())
	assert.EqualError(t, err, "диск заполнен")
}

func TestGalleryImage_AfterFind(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	g := NewGallery(&fakeDirs{next: "gal00001"})
	g.Name = "Sea"
	require.NoError(t, record.New(db, g).Save(ctx))

	img := &GalleryImage{Name: "Wave", Filename: "wave.jpg", GalleryID: g.GalleryID, UserID: 1}
	r := record.New(db, img)
	require.True(t, r.Validate(ctx), "%v", r.Errors())
	require.NoError(t, r.Save(ctx))

	rows, err := record.New(db, &GalleryImage{}).FindAll(ctx, record.Where("user_id", 1), record.Options{})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Sea", rows[0].String("galleryName"))
	assert.Equal(t, "gal00001/wave.jpg", rows[0].String("fullPath"))
}

func TestRbacRole_JoinPermissions(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	rows, err := record.New(db, &RbacRole{}).FindAll(ctx, record.Where("role_id", RoleUser), record.Options{
		Join: "permissions",
	})
	require.NoError(t, err)

	names := make([]string, 0, len(rows))
	for _, row := range rows {
		names = append(names, row.String("permission_name"))
	}
	assert.ElementsMatch(t, []string{
		"manageOwnArticles", "writeArticles", "updateOwnArticles", "deleteOwnArticles",
		"manageOwnImages", "addImages", "deleteOwnImages",
	}, names)
}

func TestRbacPermission_JoinRules(t *testing.T) {
	db := newTestDB(t)
	rows, err := record.New(db, &RbacPermission{}).FindAll(context.Background(),
		record.Where("permission_name", "deleteOwnArticles"), record.Options{Join: "rules"})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "isOwner", rows[0].String("rule_name"))
}

func TestRelations_Wired(t *testing.T) {
	rel, ok := (&GalleryImage{}).Schema().Relation("gallery")
	require.True(t, ok)
	assert.Equal(t, "galleries", rel.Target().Table)

	rel, ok = (&RbacRole{}).Schema().Relation("permissions")
	require.True(t, ok)
	assert.Equal(t, "rbac_permissions", rel.Target().Table)
}
