// Пакет model — сущности folio, привязанные к таблицам через record.Schema.
// Поля читаются и записываются явными переключателями Get/Set.
package model

import (
	"context"
	"errors"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/bigkaa/goartstore/folio/internal/record"
)

// Роли RBAC из начальных данных.
const (
	RoleUser          int64 = 1
	RoleAdministrator int64 = 2
)

// PasswordCost — стоимость bcrypt. Тесты понижают её до bcrypt.MinCost.
var PasswordCost = bcrypt.DefaultCost

// now возвращает текущее время UTC с точностью до секунды.
var now = func() time.Time { return time.Now().UTC().Truncate(time.Second) }

var userSchema = &record.Schema{
	Table:      "users",
	PrimaryKey: "user_id",
	Fields: []record.Field{
		{Name: "user_id"},
		{Name: "username", Persist: true, Rules: []record.Rule{
			record.Required{},
			record.Length{Max: record.Int(255)},
			record.Unique{},
		}},
		{Name: "email", Persist: true, Rules: []record.Rule{
			record.Required{},
			record.Email{},
			record.Unique{},
		}},
		{Name: "role_id", Label: "Role", Persist: true},
		{Name: "password_hash", Persist: true},
		{Name: "password", Virtual: true, Rules: []record.Rule{
			record.Required{},
			record.Length{Min: record.Int(5)},
			record.On{Action: record.ActionCreate},
		}},
		{Name: "confirm_password", Virtual: true, Rules: []record.Rule{
			record.Required{},
			record.Compare{Field: "password"},
			record.On{Action: record.ActionCreate},
		}},
		{Name: "created", Persist: true, Rules: []record.Rule{record.On{Action: record.ActionCreate}}},
		{Name: "updated", Persist: true, Rules: []record.Rule{record.On{Action: record.ActionUpdate}}},
	},
}

// User — учётная запись. Хранится в таблице users.
type User struct {
	// UserID — первичный ключ
	UserID   int64
	Username string
	Email    string
	// RoleID — роль RBAC, по умолчанию RoleUser
	RoleID int64
	// PasswordHash — bcrypt-хэш пароля
	PasswordHash string
	// Password и ConfirmPassword — поля формы регистрации, не хранятся
	Password        string
	ConfirmPassword string
	Created         time.Time
	Updated         time.Time
}

// Schema возвращает схему таблицы users.
func (u *User) Schema() *record.Schema { return userSchema }

// Get возвращает значение поля.
func (u *User) Get(field string) (any, bool) {
	switch field {
	case "user_id":
		return record.NullID(u.UserID), true
	case "username":
		return u.Username, true
	case "email":
		return u.Email, true
	case "role_id":
		return record.NullID(u.RoleID), true
	case "password_hash":
		return u.PasswordHash, true
	case "password":
		return u.Password, true
	case "confirm_password":
		return u.ConfirmPassword, true
	case "created":
		return record.NullTime(u.Created), true
	case "updated":
		return record.NullTime(u.Updated), true
	}
	return nil, false
}

// Set присваивает значение поля.
func (u *User) Set(field string, value any) bool {
	switch field {
	case "user_id":
		u.UserID, _ = record.AsInt64(value)
	case "username":
		u.Username = record.AsString(value)
	case "email":
		u.Email = record.AsString(value)
	case "role_id":
		u.RoleID, _ = record.AsInt64(value)
	case "password_hash":
		u.PasswordHash = record.AsString(value)
	case "password":
		u.Password = record.AsString(value)
	case "confirm_password":
		u.ConfirmPassword = record.AsString(value)
	case "created":
		u.Created, _ = record.AsTime(value)
	case "updated":
		u.Updated, _ = record.AsTime(value)
	default:
		return false
	}
	return true
}

// BeforeSave хэширует пароль из формы и проставляет роль и время.
func (u *User) BeforeSave(_ context.Context, action record.Action) error {
	if u.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(u.Password), PasswordCost)
		if err != nil {
			return err
		}
		u.PasswordHash = string(hash)
		u.Password, u.ConfirmPassword = "", ""
	}

	switch action {
	case record.ActionCreate:
		if u.RoleID == 0 {
			u.RoleID = RoleUser
		}
		u.Created = now()
	case record.ActionUpdate:
		u.Updated = now()
	}
	return nil
}

// CheckPassword сравнивает пароль с сохранённым хэшем.
func (u *User) CheckPassword(password string) bool {
	if u.PasswordHash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) == nil
}

// ErrInvalidCredentials — неверное имя пользователя или пароль.
var ErrInvalidCredentials = errors.New("неверное имя пользователя или пароль")
