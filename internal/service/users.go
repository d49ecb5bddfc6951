// users.go — регистрация и вход пользователей.
package service

import (
	"context"
	"log/slog"

	"github.com/bigkaa/goartstore/folio/internal/domain/model"
	"github.com/bigkaa/goartstore/folio/internal/record"
)

// UserService — сервис пользователей.
type UserService struct {
	db     DBProvider
	logger *slog.Logger
}

// NewUserService создаёт сервис пользователей.
func NewUserService(db DBProvider, logger *slog.Logger) *UserService {
	return &UserService{
		db:     db,
		logger: logger.With(slog.String("component", "user_service")),
	}
}

// Register создаёт пользователя с ролью User.
// Роль и хэш пароля из values игнорируются.
func (s *UserService) Register(ctx context.Context, values map[string]any) (*model.User, error) {
	db, err := openDB(ctx, s.db)
	if err != nil {
		return nil, err
	}

	user := &model.User{}
	r := record.New(db, user)
	r.SetValues(values)
	user.UserID, user.RoleID, user.PasswordHash = 0, model.RoleUser, ""

	if !r.Validate(ctx) {
		return nil, validationError(r)
	}
	if err := r.Save(ctx); err != nil {
		return nil, mapRecordError(err)
	}

	s.logger.Info("Пользователь зарегистрирован",
		slog.Int64("user_id", user.UserID),
		slog.String("username", user.Username),
	)
	return user, nil
}

// Login проверяет имя пользователя и пароль.
func (s *UserService) Login(ctx context.Context, values map[string]any) (*model.User, error) {
	db, err := openDB(ctx, s.db)
	if err != nil {
		return nil, err
	}

	form := &model.LoginForm{}
	r := record.New(db, form)
	r.SetValues(values)
	if !r.Validate(ctx) {
		return nil, validationError(r)
	}

	user, err := form.Login(ctx, db)
	if err != nil {
		s.logger.Info("Неудачная попытка входа", slog.String("username", form.Username))
		return nil, mapRecordError(err)
	}
	s.logger.Info("Пользователь вошёл",
		slog.Int64("user_id", user.UserID),
		slog.String("username", user.Username),
	)
	return user, nil
}

// Get возвращает пользователя без хэша пароля.
func (s *UserService) Get(ctx context.Context, id int64) (record.Row, error) {
	db, err := openDB(ctx, s.db)
	if err != nil {
		return nil, err
	}
	row, err := record.New(db, &model.User{}).FindByPK(ctx, id)
	if err != nil {
		return nil, mapRecordError(err)
	}
	delete(row, "password_hash")
	return row, nil
}

// List возвращает всех пользователей по имени (выбор автора в управлении
// статьями). Хэши паролей удаляются.
func (s *UserService) List(ctx context.Context) ([]record.Row, error) {
	db, err := openDB(ctx, s.db)
	if err != nil {
		return nil, err
	}
	rows, err := record.New(db, &model.User{}).FindAll(ctx, record.Conditions{}, record.Options{
		OrderBy: record.OrderBy("username", "ASC"),
	})
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		delete(row, "password_hash")
	}
	return rows, nil
}
