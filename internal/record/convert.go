package record

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Формат времени, в котором записи хранят created/updated в текстовом виде.
const TimeLayout = "2006-01-02 15:04:05"

var timeLayouts = []string{
	TimeLayout,
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// AsString приводит значение к строке. nil превращается в пустую строку.
func AsString(v any) string {
	switch v := v.(type) {
	case nil:
		return ""
	case string:
		return v
	case []byte:
		return string(v)
	case *string:
		if v == nil {
			return ""
		}
		return *v
	case *int64:
		if v == nil {
			return ""
		}
		return strconv.FormatInt(*v, 10)
	case time.Time:
		if v.IsZero() {
			return ""
		}
		return v.UTC().Format(TimeLayout)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}

// AsInt64 приводит значение к int64. Второй результат false, если значение
// пустое или не является целым числом.
func AsInt64(v any) (int64, bool) {
	switch v := v.(type) {
	case int:
		return int64(v), true
	case int8:
		return int64(v), true
	case int16:
		return int64(v), true
	case int32:
		return int64(v), true
	case int64:
		return v, true
	case uint:
		return uintToInt64(uint64(v))
	case uint8:
		return int64(v), true
	case uint16:
		return int64(v), true
	case uint32:
		return int64(v), true
	case uint64:
		return uintToInt64(v)
	case float32:
		return floatToInt64(float64(v))
	case float64:
		return floatToInt64(v)
	case bool:
		if v {
			return 1, true
		}
		return 0, true
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		return n, err == nil
	case []byte:
		return AsInt64(string(v))
	case *int64:
		if v == nil {
			return 0, false
		}
		return *v, true
	default:
		return 0, false
	}
}

// AsFloat приводит значение к float64.
func AsFloat(v any) (float64, bool) {
	switch v := v.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return f, err == nil
	case []byte:
		return AsFloat(string(v))
	default:
		n, ok := AsInt64(v)
		return float64(n), ok
	}
}

// AsBool приводит значение к bool: "1", "true", "on", "yes" и ненулевые числа — true.
func AsBool(v any) bool {
	switch v := v.(type) {
	case nil:
		return false
	case bool:
		return v
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "on", "yes", "t":
			return true
		}
		return false
	case []byte:
		return AsBool(string(v))
	default:
		n, ok := AsInt64(v)
		return ok && n != 0
	}
}

// AsTime приводит значение к time.Time (UTC). Строки разбираются в форматах,
// которые возвращают поддерживаемые драйверы.
func AsTime(v any) (time.Time, bool) {
	switch v := v.(type) {
	case time.Time:
		return v.UTC(), !v.IsZero()
	case *time.Time:
		if v == nil {
			return time.Time{}, false
		}
		return v.UTC(), !v.IsZero()
	case string:
		s := strings.TrimSpace(v)
		for _, layout := range timeLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t.UTC(), true
			}
		}
		return time.Time{}, false
	case []byte:
		return AsTime(string(v))
	default:
		return time.Time{}, false
	}
}

// AsNullInt64 возвращает nil для пустых значений (nil, "", 0) и указатель на
// число в остальных случаях.
func AsNullInt64(v any) *int64 {
	n, ok := AsInt64(v)
	if !ok || n == 0 {
		return nil
	}
	return &n
}

// NullID возвращает nil для незаданного идентификатора (0).
func NullID(id int64) any {
	if id == 0 {
		return nil
	}
	return id
}

// NullTime возвращает nil для нулевого времени.
func NullTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.UTC()
}

// NullInt64 разыменовывает указатель или возвращает nil.
func NullInt64(p *int64) any {
	if p == nil {
		return nil
	}
	return *p
}

func uintToInt64(v uint64) (int64, bool) {
	if v > math.MaxInt64 {
		return 0, false
	}
	return int64(v), true
}

func floatToInt64(v float64) (int64, bool) {
	if v != math.Trunc(v) || v > math.MaxInt64 || v < math.MinInt64 {
		return 0, false
	}
	return int64(v), true
}
