// db.go — обёртка над соединением: диалект, логирование и метрики запросов.
// Метрики: folio_record_queries_total, folio_record_query_duration_seconds.
package record

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// queriesTotal — количество SQL-запросов слоя записей.
	queriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "folio_record_queries_total",
			Help: "Количество SQL-запросов слоя записей",
		},
		[]string{"table", "operation", "status"},
	)

	// queryDuration — гистограмма длительности SQL-запросов.
	queryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "folio_record_query_duration_seconds",
			Help:    "Длительность SQL-запросов слоя записей в секундах",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"table", "operation"},
	)
)

// Querier — общий интерфейс *sql.DB и *sql.Tx.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// txBeginner — соединение, способное открыть транзакцию.
type txBeginner interface {
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}

// DB — соединение вместе с диалектом, через которое работают записи.
type DB struct {
	q        Querier
	dialect  Dialect
	logger   *slog.Logger
	messages Messages
}

// Option — опция DB.
type Option func(*DB)

// WithLogger задаёт логгер.
func WithLogger(logger *slog.Logger) Option {
	return func(db *DB) {
		db.logger = logger.With(slog.String("component", "record"))
	}
}

// WithMessages задаёт форматирование сообщений валидации.
func WithMessages(m Messages) Option {
	return func(db *DB) {
		db.messages = m
	}
}

// NewDB создаёт DB поверх соединения.
func NewDB(q Querier, dialect Dialect, opts ...Option) *DB {
	db := &DB{
		q:        q,
		dialect:  dialect,
		logger:   slog.Default().With(slog.String("component", "record")),
		messages: DefaultMessages,
	}
	for _, opt := range opts {
		opt(db)
	}
	return db
}

// Dialect возвращает диалект соединения.
func (db *DB) Dialect() Dialect { return db.dialect }

// Logger возвращает логгер слоя записей.
func (db *DB) Logger() *slog.Logger { return db.logger }

// RunInTx выполняет fn внутри транзакции. Записи, созданные на tx,
// работают в этой транзакции. При ошибке fn транзакция откатывается.
func (db *DB) RunInTx(ctx context.Context, fn func(tx *DB) error) error {
	beginner, ok := db.q.(txBeginner)
	if !ok {
		return ErrNestedTx
	}

	sqlTx, err := beginner.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer sqlTx.Rollback() //nolint:errcheck // откат после коммита — no-op

	tx := *db
	tx.q = sqlTx
	if err := fn(&tx); err != nil {
		return err
	}

	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("ошибка фиксации транзакции: %w", err)
	}
	return nil
}

func (db *DB) exec(ctx context.Context, table, op string, q Query) (sql.Result, error) {
	start := time.Now()
	res, err := db.q.ExecContext(ctx, q.SQL, q.Args...)
	db.observe(table, op, q, start, err)
	return res, err
}

func (db *DB) query(ctx context.Context, table, op string, q Query) (*sql.Rows, error) {
	start := time.Now()
	rows, err := db.q.QueryContext(ctx, q.SQL, q.Args...)
	db.observe(table, op, q, start, err)
	return rows, err
}

// queryRow сканирует одну строку в dest. sql.ErrNoRows возвращается как есть.
func (db *DB) queryRow(ctx context.Context, table, op string, q Query, dest ...any) error {
	start := time.Now()
	err := db.q.QueryRowContext(ctx, q.SQL, q.Args...).Scan(dest...)
	observed := err
	if isNoRows(err) {
		observed = nil
	}
	db.observe(table, op, q, start, observed)
	return err
}

func (db *DB) observe(table, op string, q Query, start time.Time, err error) {
	queryDuration.WithLabelValues(table, op).Observe(time.Since(start).Seconds())

	status := "ok"
	if err != nil {
		status = "error"
		db.logger.Warn("Ошибка SQL-запроса",
			slog.String("table", table),
			slog.String("operation", op),
			slog.String("sql", q.SQL),
			slog.String("error", err.Error()),
		)
	} else {
		db.logger.Debug("SQL-запрос выполнен",
			slog.String("table", table),
			slog.String("operation", op),
			slog.String("sql", q.SQL),
			slog.Int("args", len(q.Args)),
		)
	}
	queriesTotal.WithLabelValues(table, op, status).Inc()
}
