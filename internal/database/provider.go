package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sync"

	"github.com/bigkaa/goartstore/folio/internal/config"
	"github.com/bigkaa/goartstore/folio/internal/record"
)

// ConnectFunc открывает подключение. Подменяется в тестах.
type ConnectFunc func(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Conn, error)

// Provider — единственное на процесс подключение к БД, открываемое при
// первом обращении. Неудачная попытка не кэшируется.
type Provider struct {
	cfg     *config.Config
	logger  *slog.Logger
	opts    []record.Option
	connect ConnectFunc

	mu   sync.Mutex
	conn *Conn
	db   *record.DB
}

// NewProvider создаёт провайдер подключения. opts передаются в record.NewDB.
func NewProvider(cfg *config.Config, logger *slog.Logger, opts ...record.Option) *Provider {
	return &Provider{
		cfg:     cfg,
		logger:  logger.With(slog.String("component", "database")),
		opts:    append([]record.Option{record.WithLogger(logger)}, opts...),
		connect: Connect,
	}
}

// WithConnectFunc заменяет функцию подключения.
func (p *Provider) WithConnectFunc(fn ConnectFunc) *Provider {
	p.connect = fn
	return p
}

// DB возвращает соединение для записей, открывая его при первом вызове.
// Ошибка оборачивает ErrConnection.
func (p *Provider) DB(ctx context.Context) (*record.DB, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.db != nil {
		return p.db, nil
	}

	conn, err := p.connect(ctx, p.cfg, p.logger)
	if err != nil {
		p.logger.Error("Не удалось подключиться к базе данных",
			slog.String("driver", p.cfg.DBDriver),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("%w: %v", ErrConnection, err)
	}

	p.conn = conn
	p.db = record.NewDB(conn.DB, conn.Dialect, p.opts...)
	return p.db, nil
}

// SQL возвращает *sql.DB открытого подключения или nil.
func (p *Provider) SQL() *sql.DB {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.conn == nil {
		return nil
	}
	return p.conn.DB
}

// Ping открывает подключение при необходимости и проверяет его.
func (p *Provider) Ping(ctx context.Context) error {
	if _, err := p.DB(ctx); err != nil {
		return err
	}
	return p.SQL().PingContext(ctx)
}

// Close закрывает подключение, если оно было открыто.
func (p *Provider) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.conn != nil {
		p.conn.Close()
		p.conn = nil
		p.db = nil
	}
}
