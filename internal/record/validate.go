package record

import (
	"context"
	"fmt"
	"log/slog"
	"net/mail"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

// Validate проверяет правила всех полей в порядке объявления.
// Ошибки накапливаются между вызовами. Заодно вычисляет поля, исключённые
// из сохранения правилами On. Возвращает true, если ошибок нет.
func (r *Record) Validate(ctx context.Context) bool {
	s := r.model.Schema()
	action := r.Action()

	for _, f := range s.Fields {
		value, _ := r.model.Get(f.Name)
		for _, rule := range f.Rules {
			switch rule := rule.(type) {
			case Required:
				if isEmptyValue(value) {
					r.addError(ctx, f.Name, rule.Message, MsgRequired, r.Label(f.Name))
				}
			case Email:
				if !isEmail(AsString(value)) {
					r.addError(ctx, f.Name, rule.Message, MsgEmail)
				}
			case Length:
				r.checkLength(ctx, f.Name, AsString(value), rule)
			case Compare:
				other, _ := r.model.Get(rule.Field)
				if AsString(value) != AsString(other) {
					r.addError(ctx, f.Name, rule.Message, MsgCompare, r.Label(f.Name), r.Label(rule.Field))
				}
			case Numeric:
				r.checkNumeric(ctx, f.Name, value, rule)
			case Unique:
				r.checkUnique(ctx, s, f.Name, value, action, rule)
			case On:
				if rule.Action != action {
					r.ignored[f.Name] = true
				}
			}
		}
	}

	return len(r.errors) == 0
}

// AddError добавляет сообщение об ошибке поля.
func (r *Record) AddError(field, message string) {
	r.errors[field] = append(r.errors[field], message)
}

func (r *Record) addError(ctx context.Context, field, override string, key MessageKey, args ...any) {
	if override != "" {
		r.AddError(field, override)
		return
	}
	r.AddError(field, r.db.messages.Message(ctx, key, args...))
}

func (r *Record) checkLength(ctx context.Context, field, value string, rule Length) {
	n := utf8.RuneCountInString(value)
	label := r.Label(field)
	if rule.Min != nil && n < *rule.Min {
		r.addError(ctx, field, rule.Message, MsgMin, label, *rule.Min)
	}
	if rule.Max != nil && n > *rule.Max {
		r.addError(ctx, field, rule.Message, MsgMax, label, *rule.Max)
	}
	if rule.Equal != nil && n != *rule.Equal {
		r.addError(ctx, field, rule.Message, MsgEqual, label, *rule.Equal)
	}
}

func (r *Record) checkNumeric(ctx context.Context, field string, value any, rule Numeric) {
	label := r.Label(field)
	raw := strings.TrimSpace(AsString(value))

	var number float64
	if rule.Integer {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			r.addError(ctx, field, rule.Message, MsgInteger, label)
		}
		number = float64(n)
	} else {
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			r.addError(ctx, field, rule.Message, MsgNumeric, label)
		}
		number = f
	}

	if rule.Min != nil && number < *rule.Min {
		r.addError(ctx, field, rule.Message, MsgNumericMin, label, formatNumber(*rule.Min))
	}
	if rule.Max != nil && number > *rule.Max {
		r.addError(ctx, field, rule.Message, MsgNumericMax, label, formatNumber(*rule.Max))
	}
}

// checkUnique ищет другую строку с тем же значением. Пустые значения не
// проверяются. Ошибка запроса не позволяет считать значение уникальным.
func (r *Record) checkUnique(ctx context.Context, s *Schema, field string, value any, action Action, rule Unique) {
	if isEmptyValue(value) {
		return
	}
	label := strings.ToLower(r.Label(field))

	b := newBuilder(r.db.dialect)
	ph, err := b.bind(value)
	if err != nil {
		r.addError(ctx, field, rule.Message, MsgUniqueCheck, label)
		return
	}
	stmt := fmt.Sprintf("SELECT 1 FROM %s WHERE %s = %s", s.Table, field, ph)
	if action == ActionUpdate {
		pk, _ := r.model.Get(s.PrimaryKey)
		ph, err := b.bind(pk)
		if err != nil {
			r.addError(ctx, field, rule.Message, MsgUniqueCheck, label)
			return
		}
		stmt += fmt.Sprintf(" AND %s <> %s", s.PrimaryKey, ph)
	}
	stmt += " LIMIT 1"

	var found int
	err = r.db.queryRow(ctx, s.Table, "unique", b.query(stmt), &found)
	switch {
	case err == nil:
		r.addError(ctx, field, rule.Message, MsgUnique, label)
	case isNoRows(err):
	default:
		r.db.logger.Error("Ошибка проверки уникальности",
			slog.String("table", s.Table),
			slog.String("field", field),
			slog.String("error", err.Error()),
		)
		r.addError(ctx, field, "", MsgUniqueCheck, label)
	}
}

// isEmptyValue — пустое значение для Required: nil, "", "0", 0, false,
// нулевое время, пустой срез.
func isEmptyValue(v any) bool {
	switch v := v.(type) {
	case nil:
		return true
	case string:
		return v == "" || v == "0"
	case []byte:
		return len(v) == 0 || string(v) == "0"
	case bool:
		return !v
	case time.Time:
		return v.IsZero()
	case *int64:
		return v == nil || *v == 0
	case *string:
		return v == nil || *v == "" || *v == "0"
	case []any:
		return len(v) == 0
	case []string:
		return len(v) == 0
	case []int64:
		return len(v) == 0
	case float64:
		return v == 0
	case float32:
		return v == 0
	}
	if n, ok := AsInt64(v); ok {
		return n == 0
	}
	return false
}

// isEmail принимает только адрес без отображаемого имени.
func isEmail(s string) bool {
	if s == "" || strings.TrimSpace(s) != s {
		return false
	}
	addr, err := mail.ParseAddress(s)
	if err != nil || addr.Name != "" || addr.Address != s {
		return false
	}
	at := strings.LastIndexByte(s, '@')
	return at > 0 && strings.Contains(s[at+1:], ".")
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
