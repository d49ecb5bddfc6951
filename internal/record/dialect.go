package record

import (
	"fmt"
	"strconv"
)

// Dialect — особенности SQL конкретной СУБД: формат плейсхолдеров и способ
// получения первичного ключа после INSERT.
type Dialect struct {
	name      string
	numbered  bool
	returning bool
}

// Поддерживаемые диалекты.
var (
	Postgres = Dialect{name: "postgres", numbered: true, returning: true}
	MySQL    = Dialect{name: "mysql"}
	SQLite   = Dialect{name: "sqlite"}
)

// ParseDialect возвращает диалект по имени драйвера.
func ParseDialect(name string) (Dialect, error) {
	switch name {
	case "postgres", "postgresql", "pgx":
		return Postgres, nil
	case "mysql", "mariadb":
		return MySQL, nil
	case "sqlite", "sqlite3":
		return SQLite, nil
	default:
		return Dialect{}, fmt.Errorf("неизвестный диалект SQL: %q", name)
	}
}

// Name возвращает имя диалекта.
func (d Dialect) Name() string { return d.name }

// Placeholder возвращает плейсхолдер для n-го параметра (нумерация с 1).
func (d Dialect) Placeholder(n int) string {
	if d.numbered {
		return "$" + strconv.Itoa(n)
	}
	return "?"
}

// Returning сообщает, получается ли первичный ключ через RETURNING.
func (d Dialect) Returning() bool { return d.returning }
