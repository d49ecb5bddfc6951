package record

import (
	"fmt"
	"regexp"
	"strings"
)

// identifierRe — допустимое имя столбца: идентификатор, возможно с именем таблицы.
var identifierRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// Direction — направление сортировки.
type Direction string

const (
	Asc  Direction = "ASC"
	Desc Direction = "DESC"
)

// ParseDirection разбирает направление без учёта регистра.
// Для недопустимого значения возвращает пустую строку.
func ParseDirection(s string) Direction {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "ASC":
		return Asc
	case "DESC":
		return Desc
	default:
		return ""
	}
}

// Order — сортировка по столбцу.
type Order struct {
	Column    string
	Direction Direction
}

// OrderBy создаёт сортировку из строкового направления (например, из параметров запроса).
func OrderBy(column, direction string) *Order {
	return &Order{Column: column, Direction: ParseDirection(direction)}
}

// Options — параметры выборки. Нулевое значение — без сортировки, лимита и JOIN.
type Options struct {
	OrderBy *Order
	Limit   int
	Offset  int
	// Join — имя связи many-to-many из схемы.
	Join string
}

// Row — строка результата: столбец → значение. []byte приводится к string.
type Row map[string]any

// String возвращает значение столбца строкой.
func (r Row) String(col string) string { return AsString(r[col]) }

// Int64 возвращает значение столбца целым числом (0, если не число).
func (r Row) Int64(col string) int64 {
	n, _ := AsInt64(r[col])
	return n
}

// Bool возвращает значение столбца как bool.
func (r Row) Bool(col string) bool { return AsBool(r[col]) }

// InList — список значений для условия IN.
type InList []any

// In создаёт список значений для условия IN.
func In(values ...any) InList { return InList(values) }

type condition struct {
	column string
	value  any
}

// Conditions — упорядоченные условия равенства, объединённые через AND.
type Conditions struct {
	items []condition
}

// Where создаёт условия с первой парой столбец-значение.
func Where(column string, value any) Conditions {
	return Conditions{}.And(column, value)
}

// And возвращает копию условий с добавленной парой.
func (c Conditions) And(column string, value any) Conditions {
	items := make([]condition, len(c.items), len(c.items)+1)
	copy(items, c.items)
	return Conditions{items: append(items, condition{column: column, value: value})}
}

// Len возвращает количество условий.
func (c Conditions) Len() int { return len(c.items) }

// Query — готовый SQL с аргументами.
type Query struct {
	SQL  string
	Args []any
}

// builder накапливает аргументы и выдаёт плейсхолдеры диалекта.
type builder struct {
	dialect Dialect
	args    []any
}

func newBuilder(d Dialect) *builder {
	return &builder{dialect: d}
}

func (b *builder) bind(v any) (string, error) {
	bound, err := Bind(v)
	if err != nil {
		return "", err
	}
	b.args = append(b.args, bound)
	return b.dialect.Placeholder(len(b.args)), nil
}

func (b *builder) query(sql string) Query {
	return Query{SQL: sql, Args: b.args}
}

// where строит WHERE по условиям. qualify — имя таблицы, которым уточняются
// собственные столбцы схемы (при JOIN).
func (b *builder) where(s *Schema, conds Conditions, qualify string) (string, error) {
	if len(conds.items) == 0 {
		return "", nil
	}

	parts := make([]string, 0, len(conds.items))
	for _, c := range conds.items {
		if !identifierRe.MatchString(c.column) {
			return "", fmt.Errorf("%w: %q", ErrInvalidColumn, c.column)
		}
		column := c.column
		if qualify != "" && !strings.Contains(column, ".") && s.HasColumn(column) {
			column = qualify + "." + column
		}

		values, isList := listValues(c.value)
		if !isList {
			ph, err := b.bind(c.value)
			if err != nil {
				return "", fmt.Errorf("условие %s: %w", c.column, err)
			}
			parts = append(parts, column+" = "+ph)
			continue
		}

		if len(values) == 0 {
			parts = append(parts, "1 = 0")
			continue
		}
		phs := make([]string, 0, len(values))
		for _, v := range values {
			ph, err := b.bind(v)
			if err != nil {
				return "", fmt.Errorf("условие %s: %w", c.column, err)
			}
			phs = append(phs, ph)
		}
		parts = append(parts, column+" IN ("+strings.Join(phs, ", ")+")")
	}

	return " WHERE " + strings.Join(parts, " AND "), nil
}

// listValues раскрывает значения условия IN.
func listValues(v any) ([]any, bool) {
	switch v := v.(type) {
	case InList:
		return v, true
	case []any:
		return v, true
	case []int64:
		out := make([]any, len(v))
		for i, x := range v {
			out[i] = x
		}
		return out, true
	case []int:
		out := make([]any, len(v))
		for i, x := range v {
			out[i] = x
		}
		return out, true
	case []string:
		out := make([]any, len(v))
		for i, x := range v {
			out[i] = x
		}
		return out, true
	default:
		return nil, false
	}
}

// orderClause строит ORDER BY. Необъявленный столбец или направление молча
// пропускаются.
func orderClause(s *Schema, o *Order, qualify string) string {
	if o == nil || !s.HasColumn(o.Column) {
		return ""
	}
	column := o.Column
	if qualify != "" {
		column = qualify + "." + column
	}
	clause := " ORDER BY " + column
	if dir := ParseDirection(string(o.Direction)); dir != "" {
		clause += " " + string(dir)
	}
	return clause
}

// Select строит SELECT по схеме, условиям и параметрам выборки.
func Select(s *Schema, d Dialect, conds Conditions, opts Options) (Query, error) {
	b := newBuilder(d)

	columns := "*"
	from := s.Table
	qualify := ""
	if opts.Join != "" {
		rel, ok := s.Relation(opts.Join)
		if !ok {
			return Query{}, fmt.Errorf("%w: %s.%s", ErrUnknownRelation, s.Table, opts.Join)
		}
		join, err := rel.Join(s)
		if err != nil {
			return Query{}, fmt.Errorf("связь %s.%s: %w", s.Table, opts.Join, err)
		}
		columns = join.Columns
		from += " " + join.Clause
		qualify = s.Table
	}

	where, err := b.where(s, conds, qualify)
	if err != nil {
		return Query{}, err
	}

	var sb strings.Builder
	sb.WriteString("SELECT ")
	sb.WriteString(columns)
	sb.WriteString(" FROM ")
	sb.WriteString(from)
	sb.WriteString(where)
	sb.WriteString(orderClause(s, opts.OrderBy, qualify))

	if opts.Limit > 0 {
		ph, err := b.bind(Typed(opts.Limit, ParamInt))
		if err != nil {
			return Query{}, err
		}
		sb.WriteString(" LIMIT ")
		sb.WriteString(ph)
		if opts.Offset > 0 {
			ph, err := b.bind(Typed(opts.Offset, ParamInt))
			if err != nil {
				return Query{}, err
			}
			sb.WriteString(" OFFSET ")
			sb.WriteString(ph)
		}
	}

	return b.query(sb.String()), nil
}

// CountQuery строит SELECT COUNT(*) с теми же условиями, что и Select.
func CountQuery(s *Schema, d Dialect, conds Conditions) (Query, error) {
	b := newBuilder(d)
	where, err := b.where(s, conds, "")
	if err != nil {
		return Query{}, err
	}
	return b.query("SELECT COUNT(*) FROM " + s.Table + where), nil
}
