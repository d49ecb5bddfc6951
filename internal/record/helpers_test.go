package record

import (
	"context"
	"io"
	"log/slog"
	"regexp"
)

// mapModel — модель для тестов: значения в map, поля из схемы.
type mapModel struct {
	schema *Schema
	values map[string]any
}

func newMapModel(s *Schema, values map[string]any) *mapModel {
	m := &mapModel{schema: s, values: map[string]any{}}
	for k, v := range values {
		m.values[k] = v
	}
	return m
}

func (m *mapModel) Schema() *Schema { return m.schema }

func (m *mapModel) known(field string) bool {
	if field == m.schema.PrimaryKey {
		return true
	}
	_, ok := m.schema.Field(field)
	return ok
}

func (m *mapModel) Get(field string) (any, bool) {
	if !m.known(field) {
		return nil, false
	}
	return m.values[field], true
}

func (m *mapModel) Set(field string, value any) bool {
	if !m.known(field) {
		return false
	}
	m.values[field] = value
	return true
}

// hookModel фиксирует вызовы хуков.
type hookModel struct {
	*mapModel
	calls []string
}

func (h *hookModel) BeforeSave(_ context.Context, action Action) error {
	h.calls = append(h.calls, "beforeSave:"+action.String())
	return nil
}

func (h *hookModel) AfterSave(_ context.Context, _ *DB, action Action) error {
	h.calls = append(h.calls, "afterSave:"+action.String())
	return nil
}

func (h *hookModel) BeforeFind(context.Context) error {
	h.calls = append(h.calls, "beforeFind")
	return nil
}

func (h *hookModel) AfterFind(_ context.Context, _ *DB, row Row) error {
	h.calls = append(h.calls, "afterFind")
	row["extra"] = "attached"
	return nil
}

var (
	articleTestSchema = &Schema{
		Table:      "articles",
		PrimaryKey: "article_id",
		Fields: []Field{
			{Name: "article_id"},
			{Name: "user_id", Persist: true},
			{Name: "caption", Persist: true},
			{Name: "content", Persist: true},
			{Name: "created", Persist: true, Rules: []Rule{On{Action: ActionCreate}}},
			{Name: "updated", Persist: true, Rules: []Rule{On{Action: ActionUpdate}}},
			{Name: "preview", Virtual: true},
		},
	}

	roleTestSchema       = &Schema{Table: "rbac_roles", PrimaryKey: "role_id", Fields: []Field{{Name: "role_id"}, {Name: "role_name", Persist: true}}}
	permissionTestSchema = &Schema{Table: "rbac_permissions", PrimaryKey: "permission_id", Fields: []Field{{Name: "permission_id"}, {Name: "name", Persist: true}}}
	junctionTestSchema   = &Schema{Table: "rbac_roles_permissions", PrimaryKey: "rp_id", Fields: []Field{{Name: "rp_id"}, {Name: "role_id", Persist: true}, {Name: "permission_id", Persist: true}}}
)

func init() {
	roleTestSchema.Relations = map[string]Relation{
		"permissions": ManyToMany{To: permissionTestSchema, Junction: junctionTestSchema, OwnerKey: "role_id", TargetKey: "permission_id"},
		"junction":    HasMany{To: junctionTestSchema, ForeignKey: "role_id"},
	}
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// escape превращает SQL в точное регулярное выражение для sqlmock.
func escape(query string) string {
	return "^" + regexp.QuoteMeta(query) + "$"
}
