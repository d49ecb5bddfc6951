package record

// Rule — правило валидации поля. Набор правил закрыт: реализации есть только
// в этом пакете.
type Rule interface {
	isRule()
}

// Required — значение не должно быть пустым.
type Required struct{ Message string }

// Email — значение должно быть адресом электронной почты без отображаемого имени.
type Email struct{ Message string }

// Length — ограничения длины строки в символах. Проверяется каждая заданная граница.
type Length struct {
	Min, Max, Equal *int
	Message         string
}

// Compare — значение должно совпадать со значением другого поля.
type Compare struct {
	Field   string
	Message string
}

// Numeric — значение должно быть числом (или целым при Integer) в заданных границах.
type Numeric struct {
	Integer  bool
	Min, Max *float64
	Message  string
}

// Unique — значение не должно встречаться в других строках таблицы.
type Unique struct{ Message string }

// On — поле сохраняется только при указанной операции.
type On struct{ Action Action }

func (Required) isRule() {}
func (Email) isRule()    {}
func (Length) isRule()   {}
func (Compare) isRule()  {}
func (Numeric) isRule()  {}
func (Unique) isRule()   {}
func (On) isRule()       {}

// Int возвращает указатель на n. Для границ Length.
func Int(n int) *int { return &n }

// Float возвращает указатель на f. Для границ Numeric.
func Float(f float64) *float64 { return &f }
