package record

import "sort"

// Record — одноразовая запись: модель, привязанная к соединению, вместе с
// ошибками валидации и списком полей, исключённых из сохранения.
type Record struct {
	db      *DB
	model   Model
	errors  map[string][]string
	ignored map[string]bool
}

// New создаёт запись для модели m.
func New(db *DB, m Model) *Record {
	return &Record{
		db:      db,
		model:   m,
		errors:  make(map[string][]string),
		ignored: make(map[string]bool),
	}
}

// Model возвращает модель записи.
func (r *Record) Model() Model { return r.model }

// Schema возвращает схему модели.
func (r *Record) Schema() *Schema { return r.model.Schema() }

// SetValues присваивает значения известным полям модели.
// Возвращает отсортированный список отклонённых ключей.
func (r *Record) SetValues(values map[string]any) []string {
	var rejected []string
	for key, value := range values {
		if !r.model.Set(key, value) {
			rejected = append(rejected, key)
		}
	}
	sort.Strings(rejected)
	return rejected
}

// IsCreate сообщает, что первичный ключ не задан и Save выполнит INSERT.
func (r *Record) IsCreate() bool {
	v, _ := r.model.Get(r.model.Schema().PrimaryKey)
	return isEmptyKey(v)
}

// IsUpdate сообщает, что первичный ключ задан и Save выполнит UPDATE.
func (r *Record) IsUpdate() bool { return !r.IsCreate() }

// Action возвращает текущую операцию сохранения.
func (r *Record) Action() Action {
	if r.IsCreate() {
		return ActionCreate
	}
	return ActionUpdate
}

// Label возвращает подпись поля.
func (r *Record) Label(field string) string { return r.model.Schema().Label(field) }

// Error возвращает первое сообщение об ошибке поля.
func (r *Record) Error(field string) (string, bool) {
	msgs := r.errors[field]
	if len(msgs) == 0 {
		return "", false
	}
	return msgs[0], true
}

// Errors возвращает копию всех ошибок валидации.
func (r *Record) Errors() map[string][]string {
	out := make(map[string][]string, len(r.errors))
	for field, msgs := range r.errors {
		out[field] = append([]string(nil), msgs...)
	}
	return out
}

// IgnoredFields возвращает поля, исключённые из сохранения правилами On.
func (r *Record) IgnoredFields() []string {
	out := make([]string, 0, len(r.ignored))
	for field := range r.ignored {
		out = append(out, field)
	}
	sort.Strings(out)
	return out
}

// isEmptyKey сообщает, что значение первичного ключа не задано.
func isEmptyKey(v any) bool {
	switch v := v.(type) {
	case nil:
		return true
	case string:
		return v == ""
	case []byte:
		return len(v) == 0
	case *int64:
		return v == nil || *v == 0
	}
	n, ok := AsInt64(v)
	return ok && n == 0
}
