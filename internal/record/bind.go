package record

import (
	"database/sql/driver"
	"fmt"
	"time"
)

// ParamType — явный тип параметра запроса.
type ParamType int

const (
	// ParamAuto — тип выводится из значения.
	ParamAuto ParamType = iota
	ParamNull
	ParamInt
	ParamBool
	ParamString
)

// String возвращает имя типа параметра.
func (t ParamType) String() string {
	switch t {
	case ParamNull:
		return "null"
	case ParamInt:
		return "int"
	case ParamBool:
		return "bool"
	case ParamString:
		return "string"
	default:
		return "auto"
	}
}

// Param — значение с явно заданным типом привязки.
type Param struct {
	Value any
	Type  ParamType
}

// Typed оборачивает значение с явным типом привязки.
func Typed(v any, t ParamType) Param {
	return Param{Value: v, Type: t}
}

// Bind приводит значение к виду, который принимают все поддерживаемые драйверы:
// nil, int64, float64, bool, string, time.Time или driver.Valuer.
// Указатели разыменовываются, []byte превращается в строку.
func Bind(v any) (any, error) {
	switch v := v.(type) {
	case Param:
		return v.bind()
	case nil:
		return nil, nil
	case string, int64, float64, bool:
		return v, nil
	case []byte:
		return string(v), nil
	case int, int8, int16, int32, uint, uint8, uint16, uint32, uint64:
		n, ok := AsInt64(v)
		if !ok {
			return nil, fmt.Errorf("%w: %v не помещается в int64", ErrUnsupportedValue, v)
		}
		return n, nil
	case float32:
		return float64(v), nil
	case time.Time:
		if v.IsZero() {
			return nil, nil
		}
		return v.UTC(), nil
	case *string:
		if v == nil {
			return nil, nil
		}
		return *v, nil
	case *int64:
		if v == nil {
			return nil, nil
		}
		return *v, nil
	case *int:
		if v == nil {
			return nil, nil
		}
		return int64(*v), nil
	case *bool:
		if v == nil {
			return nil, nil
		}
		return *v, nil
	case *time.Time:
		if v == nil {
			return nil, nil
		}
		return Bind(*v)
	case driver.Valuer:
		return v, nil
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedValue, v)
	}
}

func (p Param) bind() (any, error) {
	v, err := Bind(p.Value)
	if err != nil {
		return nil, err
	}
	switch p.Type {
	case ParamNull:
		return nil, nil
	case ParamInt:
		if v == nil {
			return nil, nil
		}
		n, ok := AsInt64(v)
		if !ok {
			return nil, fmt.Errorf("%w: %v не является целым числом", ErrUnsupportedValue, p.Value)
		}
		return n, nil
	case ParamBool:
		if v == nil {
			return nil, nil
		}
		return AsBool(v), nil
	case ParamString:
		if v == nil {
			return nil, nil
		}
		return AsString(v), nil
	default:
		return v, nil
	}
}
