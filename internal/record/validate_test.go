package record

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var userTestSchema = &Schema{
	Table:      "users",
	PrimaryKey: "user_id",
	Fields: []Field{
		{Name: "user_id"},
		{Name: "username", Persist: true, Rules: []Rule{Required{}, Length{Min: Int(3), Max: Int(8)}, Unique{}}},
		{Name: "email", Persist: true, Rules: []Rule{Required{}, Email{}}},
		{Name: "password", Virtual: true, Rules: []Rule{Required{}, Length{Min: Int(5)}, On{Action: ActionCreate}}},
		{Name: "confirm_password", Virtual: true, Rules: []Rule{Compare{Field: "password"}}},
		{Name: "pin", Label: "PIN", Persist: true, Rules: []Rule{Length{Equal: Int(4), Message: "PIN needs four digits."}}},
		{Name: "age", Persist: true, Rules: []Rule{Numeric{Integer: true, Min: Float(18), Max: Float(99)}}},
		{Name: "rating", Persist: true, Rules: []Rule{Numeric{Max: Float(5)}}},
	},
}

func validUser() map[string]any {
	return map[string]any{
		"username":         "alice",
		"email":            "alice@example.com",
		"password":         "secret1",
		"confirm_password": "secret1",
		"pin":              "1234",
		"age":              "30",
		"rating":           "4.5",
	}
}

// newMockDB создаёт DB поверх sqlmock.
func newMockDB(t *testing.T, dialect Dialect) (*DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })
	return NewDB(sqlDB, dialect, WithLogger(testLogger())), mock
}

func expectUniqueMiss(mock sqlmock.Sqlmock) {
	mock.ExpectQuery(escape("SELECT 1 FROM users WHERE username = ? LIMIT 1")).
		WillReturnRows(sqlmock.NewRows([]string{"1"}))
}

func TestValidate_Valid(t *testing.T) {
	db, mock := newMockDB(t, MySQL)
	expectUniqueMiss(mock)

	r := New(db, newMapModel(userTestSchema, validUser()))
	assert.True(t, r.Validate(context.Background()))
	assert.Empty(t, r.Errors())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestValidate_Messages(t *testing.T) {
	tests := []struct {
		name  string
		field string
		value any
		want  []string
	}{
		{"пустое обязательное поле", "email", "", []string{"Email is required.", "Email address must be valid."}},
		{"ноль как пустое значение", "email", "0", []string{"Email is required.", "Email address must be valid."}},
		{"адрес с именем", "email", "Alice <alice@example.com>", []string{"Email address must be valid."}},
		{"слишком короткое", "username", "al", []string{"Username must be at least 3 characters."}},
		{"не совпадает", "confirm_password", "other", []string{"Confirm password and Password do not match."}},
		{"своё сообщение", "pin", "12", []string{"PIN needs four digits."}},
		{"не целое", "age", "3.5", []string{"Age must be an integer.", "Smallest allowed value for Age is 18."}},
		{"больше максимума", "age", "120", []string{"Largest allowed value for Age is 99."}},
		{"не число", "rating", "abc", []string{"Rating must be a number."}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := newMockDB(t, MySQL)
			expectUniqueMiss(mock)

			values := validUser()
			values[tt.field] = tt.value
			r := New(db, newMapModel(userTestSchema, values))

			assert.False(t, r.Validate(context.Background()))
			assert.Equal(t, map[string][]string{tt.field: tt.want}, r.Errors())

			first, ok := r.Error(tt.field)
			assert.True(t, ok)
			assert.Equal(t, tt.want[0], first)
		})
	}
}

func TestValidate_LengthEachBound(t *testing.T) {
	db, mock := newMockDB(t, MySQL)
	expectUniqueMiss(mock)

	values := validUser()
	values["username"] = "alexander"
	r := New(db, newMapModel(userTestSchema, values))

	assert.False(t, r.Validate(context.Background()))
	assert.Equal(t, []string{"Username cannot be longer than 8 characters."}, r.Errors()["username"])
}

func TestValidate_RuneLength(t *testing.T) {
	db, mock := newMockDB(t, MySQL)
	mock.ExpectQuery(escape("SELECT 1 FROM users WHERE username = ? LIMIT 1")).
		WithArgs("Юлиана").
		WillReturnRows(sqlmock.NewRows([]string{"1"}))

	values := validUser()
	values["username"] = "Юлиана"
	r := New(db, newMapModel(userTestSchema, values))

	assert.True(t, r.Validate(context.Background()))
}

func TestValidate_Accumulates(t *testing.T) {
	db, mock := newMockDB(t, MySQL)
	expectUniqueMiss(mock)
	expectUniqueMiss(mock)

	values := validUser()
	values["email"] = "broken"
	r := New(db, newMapModel(userTestSchema, values))

	r.Validate(context.Background())
	r.Validate(context.Background())
	assert.Len(t, r.Errors()["email"], 2)
}

func TestValidate_UniqueTaken(t *testing.T) {
	db, mock := newMockDB(t, Postgres)
	mock.ExpectQuery(escape("SELECT 1 FROM users WHERE username = $1 LIMIT 1")).
		WithArgs("alice").
		WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))

	r := New(db, newMapModel(userTestSchema, validUser()))
	assert.False(t, r.Validate(context.Background()))

	msg, ok := r.Error("username")
	assert.True(t, ok)
	assert.Equal(t, "This username is already in use.", msg)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestValidate_UniqueExcludesOwnRowOnUpdate(t *testing.T) {
	db, mock := newMockDB(t, Postgres)
	mock.ExpectQuery(escape("SELECT 1 FROM users WHERE username = $1 AND user_id <> $2 LIMIT 1")).
		WithArgs("alice", int64(9)).
		WillReturnRows(sqlmock.NewRows([]string{"1"}))

	values := validUser()
	values["user_id"] = int64(9)
	r := New(db, newMapModel(userTestSchema, values))

	assert.True(t, r.Validate(context.Background()))
	assert.Equal(t, []string{"password"}, r.IgnoredFields())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestValidate_UniqueQueryError(t *testing.T) {
	db, mock := newMockDB(t, MySQL)
	mock.ExpectQuery(escape("SELECT 1 FROM users WHERE username = ? LIMIT 1")).
		WillReturnError(errors.New("connection reset"))

	r := New(db, newMapModel(userTestSchema, validUser()))
	assert.False(t, r.Validate(context.Background()))

	msg, _ := r.Error("username")
	assert.Equal(t, "Could not check that this username is unique, try again later.", msg)
}

func TestValidate_OnCreateKeepsFields(t *testing.T) {
	db, mock := newMockDB(t, MySQL)
	expectUniqueMiss(mock)

	r := New(db, newMapModel(userTestSchema, validUser()))
	require.True(t, r.Validate(context.Background()))
	assert.Empty(t, r.IgnoredFields())
}

func TestValidate_CustomMessages(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()
	expectUniqueMiss(mock)

	ru := MessagesFunc(func(_ context.Context, key MessageKey, _ ...any) string {
		return "ru:" + string(key)
	})
	db := NewDB(sqlDB, MySQL, WithMessages(ru), WithLogger(testLogger()))

	values := validUser()
	values["email"] = nil
	r := New(db, newMapModel(userTestSchema, values))

	assert.False(t, r.Validate(context.Background()))
	assert.Equal(t, []string{"ru:validation.required", "ru:validation.email"}, r.Errors()["email"])
}

func TestSetValues_RejectsUnknown(t *testing.T) {
	db, _ := newMockDB(t, MySQL)
	r := New(db, newMapModel(userTestSchema, nil))

	rejected := r.SetValues(map[string]any{"username": "bob", "is_admin": true, "zzz": 1})
	assert.Equal(t, []string{"is_admin", "zzz"}, rejected)

	v, _ := r.Model().Get("username")
	assert.Equal(t, "bob", v)
}

func TestIsCreateIsUpdate(t *testing.T) {
	db, _ := newMockDB(t, MySQL)

	for _, pk := range []any{nil, int64(0), "", 0} {
		r := New(db, newMapModel(userTestSchema, map[string]any{"user_id": pk}))
		assert.True(t, r.IsCreate(), "pk=%v", pk)
		assert.False(t, r.IsUpdate(), "pk=%v", pk)
	}

	r := New(db, newMapModel(userTestSchema, map[string]any{"user_id": int64(4)}))
	assert.True(t, r.IsUpdate())
	assert.False(t, r.IsCreate())
}

func TestLabel(t *testing.T) {
	db, _ := newMockDB(t, MySQL)
	r := New(db, newMapModel(userTestSchema, nil))

	assert.Equal(t, "PIN", r.Label("pin"))
	assert.Equal(t, "Confirm password", r.Label("confirm_password"))
}
