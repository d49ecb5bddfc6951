package record

import (
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"modernc.org/sqlite"
)

// Sentinel-ошибки слоя записей.
var (
	ErrNotFound         = errors.New("запись не найдена")
	ErrConflict         = errors.New("конфликт: запись уже существует")
	ErrUnknownRelation  = errors.New("неизвестная связь")
	ErrJoinUnsupported  = errors.New("JOIN поддерживается только для связей many-to-many")
	ErrInvalidColumn    = errors.New("недопустимое имя столбца")
	ErrUnsupportedValue = errors.New("неподдерживаемое значение параметра")
	ErrNoPrimaryKey     = errors.New("первичный ключ записи не задан")
	ErrNoFields         = errors.New("нет полей для сохранения")
	ErrNestedTx         = errors.New("транзакция уже открыта")
)

// Коды нарушения уникальности.
const (
	pgUniqueViolation    = "23505"
	mysqlDuplicateEntry  = 1062
	sqliteConstraint     = 19
	sqliteConstraintUniq = 2067
	sqliteConstraintPK   = 1555
)

// isUniqueViolation проверяет, является ли ошибка драйвера нарушением
// ограничения уникальности.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == mysqlDuplicateEntry
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		code := liteErr.Code()
		if code == sqliteConstraintUniq || code == sqliteConstraintPK {
			return true
		}
		return code&0xff == sqliteConstraint && strings.Contains(liteErr.Error(), "UNIQUE")
	}
	return false
}
