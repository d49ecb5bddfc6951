// Пакет record — обобщённый слой доступа к данным: запись, привязанная к одной
// таблице, валидатор правил и построитель параметризованных SQL-запросов.
//
// Значения полей читаются и записываются только через явные методы Get/Set
// конкретной модели. Имена таблиц и столбцов берутся из статической схемы,
// значения всегда передаются параметрами.
package record

import (
	"context"

	"github.com/go-openapi/inflect"
)

// Action — операция сохранения записи.
type Action int

const (
	ActionCreate Action = iota + 1
	ActionUpdate
)

// String возвращает имя операции.
func (a Action) String() string {
	switch a {
	case ActionCreate:
		return "create"
	case ActionUpdate:
		return "update"
	default:
		return "unknown"
	}
}

// Field — описание поля модели.
type Field struct {
	Name  string
	Label string
	// Persist — поле участвует в INSERT/UPDATE.
	Persist bool
	// Virtual — поле формы, столбца в таблице нет.
	Virtual bool
	Rules   []Rule
}

// Schema — статическое описание таблицы модели.
type Schema struct {
	Table      string
	PrimaryKey string
	Fields     []Field
	Relations  map[string]Relation
}

// Field возвращает описание поля по имени.
func (s *Schema) Field(name string) (Field, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// HasColumn сообщает, является ли имя объявленным столбцом таблицы.
func (s *Schema) HasColumn(name string) bool {
	if name == s.PrimaryKey {
		return true
	}
	f, ok := s.Field(name)
	return ok && !f.Virtual
}

// PersistedFields возвращает поля, участвующие в сохранении, в порядке объявления.
// Первичный ключ не включается: его назначает СУБД.
func (s *Schema) PersistedFields() []string {
	fields := make([]string, 0, len(s.Fields))
	for _, f := range s.Fields {
		if f.Persist && !f.Virtual && f.Name != s.PrimaryKey {
			fields = append(fields, f.Name)
		}
	}
	return fields
}

// Label возвращает подпись поля. Без явной подписи она выводится из имени:
// confirm_password → Confirm password.
func (s *Schema) Label(name string) string {
	if f, ok := s.Field(name); ok && f.Label != "" {
		return f.Label
	}
	return inflect.Humanize(name)
}

// Relation возвращает связь по имени.
func (s *Schema) Relation(name string) (Relation, bool) {
	rel, ok := s.Relations[name]
	return rel, ok
}

// Model — конкретная сущность, привязанная к схеме.
// Set отклоняет неизвестные поля, возвращая false.
type Model interface {
	Schema() *Schema
	Get(field string) (any, bool)
	Set(field string, value any) bool
}

// BeforeSaver вызывается перед INSERT/UPDATE.
type BeforeSaver interface {
	BeforeSave(ctx context.Context, action Action) error
}

// AfterSaver вызывается после успешного INSERT/UPDATE.
type AfterSaver interface {
	AfterSave(ctx context.Context, db *DB, action Action) error
}

// BeforeFinder вызывается один раз перед выборкой.
type BeforeFinder interface {
	BeforeFind(ctx context.Context) error
}

// AfterFinder вызывается для каждой выбранной строки и может дополнять её.
type AfterFinder interface {
	AfterFind(ctx context.Context, db *DB, row Row) error
}
