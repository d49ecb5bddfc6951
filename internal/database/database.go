// Пакет database — подключение к БД (PostgreSQL через pgxpool, MySQL, SQLite),
// применение миграций (golang-migrate) и проверка готовности.
package database

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/mysql"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	_ "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"github.com/bigkaa/goartstore/folio/internal/config"
	"github.com/bigkaa/goartstore/folio/internal/record"
)

//go:embed migrations/postgres/*.sql migrations/mysql/*.sql migrations/sqlite/*.sql
var migrationsFS embed.FS

// ErrConnection — БД недоступна. Фатальная категория: запрос не может быть обслужен.
var ErrConnection = errors.New("нет подключения к базе данных")

// Conn — открытое подключение вместе с диалектом.
type Conn struct {
	DB      *sql.DB
	Dialect record.Dialect
	// pool задан только для PostgreSQL
	pool *pgxpool.Pool
}

// Close закрывает подключение.
func (c *Conn) Close() {
	c.DB.Close()
	if c.pool != nil {
		c.pool.Close()
	}
}

// Connect открывает подключение к БД из конфигурации.
// Выполняет ping для проверки доступности.
func Connect(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Conn, error) {
	dialect, err := record.ParseDialect(cfg.DBDriver)
	if err != nil {
		return nil, err
	}

	if dialect == record.Postgres {
		return connectPostgres(ctx, cfg, logger)
	}

	driverName := "mysql"
	if dialect == record.SQLite {
		driverName = "sqlite"
	}

	db, err := sql.Open(driverName, cfg.DatabaseDSN())
	if err != nil {
		return nil, fmt.Errorf("ошибка открытия подключения %s: %w", driverName, err)
	}
	if dialect == record.SQLite {
		// Одна запись за раз: SQLite блокирует файл целиком
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(cfg.DBMaxConns)
		db.SetConnMaxLifetime(time.Hour)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ошибка подключения к %s: %w", driverName, err)
	}

	logger.Info("Подключение к базе данных установлено",
		slog.String("driver", driverName),
		slog.String("host", cfg.DBHost),
		slog.String("database", databaseName(cfg)),
	)

	return &Conn{DB: db, Dialect: dialect}, nil
}

// connectPostgres создаёт пул pgxpool и адаптирует его к database/sql.
func connectPostgres(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Conn, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DatabaseDSN())
	if err != nil {
		return nil, fmt.Errorf("ошибка парсинга DSN: %w", err)
	}
	poolCfg.MaxConns = int32(cfg.DBMaxConns)

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания пула подключений: %w", err)
	}

	// Проверяем подключение
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ошибка подключения к PostgreSQL: %w", err)
	}

	logger.Info("Подключение к PostgreSQL установлено",
		slog.String("host", cfg.DBHost),
		slog.Int("port", cfg.DBPort),
		slog.String("database", cfg.DBName),
	)

	return &Conn{DB: stdlib.OpenDBFromPool(pool), Dialect: record.Postgres, pool: pool}, nil
}

// Migrate применяет SQL-миграции из embedded FS к базе данных.
// Набор миграций выбирается по драйверу.
func Migrate(cfg *config.Config, logger *slog.Logger) error {
	if _, err := record.ParseDialect(cfg.DBDriver); err != nil {
		return err
	}

	// Создаём источник миграций из embedded FS
	source, err := iofs.New(migrationsFS, "migrations/"+cfg.DBDriver)
	if err != nil {
		return fmt.Errorf("ошибка создания источника миграций: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", source, cfg.MigrateURL())
	if err != nil {
		return fmt.Errorf("ошибка инициализации миграций: %w", err)
	}
	defer m.Close()

	// Применяем все миграции
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("ошибка применения миграций: %w", err)
	}

	version, dirty, _ := m.Version()
	logger.Info("Миграции применены",
		slog.String("driver", cfg.DBDriver),
		slog.Uint64("version", uint64(version)),
		slog.Bool("dirty", dirty),
	)

	return nil
}

func databaseName(cfg *config.Config) string {
	if cfg.DBDriver == config.DriverSQLite {
		return cfg.DBPath
	}
	return cfg.DBName
}

// Pinger — проверяемое подключение.
type Pinger interface {
	Ping(ctx context.Context) error
}

// ReadinessChecker — проверка готовности БД для health endpoint.
// Реализует интерфейс handlers.ReadinessChecker.
type ReadinessChecker struct {
	db Pinger
}

// NewReadinessChecker создаёт проверку готовности БД.
func NewReadinessChecker(db Pinger) *ReadinessChecker {
	return &ReadinessChecker{db: db}
}

// CheckReady проверяет подключение к БД через ping.
// Возвращает статус ("ok", "fail") и сообщение.
func (c *ReadinessChecker) CheckReady() (status string, message string) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if err := c.db.Ping(ctx); err != nil {
		return "fail", fmt.Sprintf("база данных недоступна: %v", err)
	}
	return "ok", "подключение активно"
}
