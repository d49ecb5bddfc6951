package model

import (
	"context"
	"errors"

	"github.com/bigkaa/goartstore/folio/internal/record"
)

var loginFormSchema = &record.Schema{
	Table:      "users",
	PrimaryKey: "user_id",
	Fields: []record.Field{
		{Name: "username", Virtual: true, Rules: []record.Rule{record.Required{}}},
		{Name: "password", Virtual: true, Rules: []record.Rule{record.Required{}}},
	},
}

// LoginForm — форма входа. В таблицу не сохраняется.
type LoginForm struct {
	Username string
	Password string
}

// Schema возвращает схему формы входа.
func (f *LoginForm) Schema() *record.Schema { return loginFormSchema }

// Get возвращает значение поля.
func (f *LoginForm) Get(field string) (any, bool) {
	switch field {
	case "user_id":
		return nil, true
	case "username":
		return f.Username, true
	case "password":
		return f.Password, true
	}
	return nil, false
}

// Set присваивает значение поля.
func (f *LoginForm) Set(field string, value any) bool {
	switch field {
	case "username":
		f.Username = record.AsString(value)
	case "password":
		f.Password = record.AsString(value)
	default:
		return false
	}
	return true
}

// Login ищет пользователя по имени и проверяет пароль.
// Возвращает ErrInvalidCredentials, если пользователя нет или пароль неверен.
func (f *LoginForm) Login(ctx context.Context, db *record.DB) (*User, error) {
	row, err := record.New(db, &User{}).FindOne(ctx, record.Where("username", f.Username), record.Options{})
	if errors.Is(err, record.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	user := &User{}
	record.New(db, user).SetValues(row)
	if !user.CheckPassword(f.Password) {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}
