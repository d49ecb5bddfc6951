// Пакет config — загрузка и валидация конфигурации folio
// из переменных окружения.
package config

import (
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
)

// Версия приложения, задаётся при сборке через -ldflags.
var Version = "dev"

// Поддерживаемые драйверы БД.
const (
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
	DriverSQLite   = "sqlite"
)

// Config содержит все параметры конфигурации folio.
type Config struct {
	// --- Сервер ---

	// Порт HTTP-сервера
	Port int
	// Уровень логирования (debug, info, warn, error)
	LogLevel slog.Level
	// Формат логов (json, text)
	LogFormat string

	// --- База данных ---

	// Драйвер: postgres, mysql, sqlite
	DBDriver string
	DBHost   string
	DBPort   int
	DBName   string
	DBUser   string
	// Пароль пользователя БД
	DBPassword string
	// Режим SSL PostgreSQL: disable, require, verify-ca, verify-full
	DBSSLMode string
	// Путь к файлу SQLite
	DBPath string
	// Максимум открытых соединений пула
	DBMaxConns int
	// Применять миграции при старте
	MigrateOnStart bool

	// --- Сессии ---

	// Секрет шифрования cookie сессии (не короче 16 символов)
	SessionSecret string
	// Время жизни сессии
	SessionTTL time.Duration
	// Флаг Secure для cookie (выключают только для локальной разработки)
	SecureCookie bool
	// Язык сообщений по умолчанию (en, ru)
	DefaultLanguage string

	// --- Галереи ---

	// Корневой каталог файлов галерей
	GalleryRoot string
	// Допустимые расширения изображений (через запятую)
	ImageExtensions []string
	// Максимальный размер загружаемого изображения в байтах
	UploadMaxBytes int64
	// Размер страницы списков по умолчанию
	PageSize int

	// --- Кэш прав ---

	// Количество ролей в кэше прав
	PermissionCacheSize int
	// Время жизни записи кэша прав
	PermissionCacheTTL time.Duration

	// --- Топология зависимостей ---

	// Группа сервиса в метриках topologymetrics
	DephealthGroup string
	// Интервал проверки зависимостей topologymetrics
	DephealthCheckInterval time.Duration

	// --- Graceful shutdown ---

	// Таймаут graceful shutdown HTTP-сервера
	ShutdownTimeout time.Duration
}

// Load загружает конфигурацию из переменных окружения, валидирует
// обязательные поля и возвращает Config или ошибку.
func Load() (*Config, error) {
	cfg := &Config{}
	var err error

	// --- Сервер ---

	// CMS_PORT — порт HTTP-сервера (по умолчанию 8080)
	cfg.Port, err = getEnvInt("CMS_PORT", 8080)
	if err != nil {
		return nil, fmt.Errorf("CMS_PORT: %w", err)
	}
	if cfg.Port < 1 || cfg.Port > 65535 {
		return nil, fmt.Errorf("CMS_PORT: значение %d вне допустимого диапазона 1-65535", cfg.Port)
	}

	// CMS_LOG_LEVEL — уровень логирования (по умолчанию info)
	cfg.LogLevel, err = parseLogLevel(getEnvDefault("CMS_LOG_LEVEL", "info"))
	if err != nil {
		return nil, fmt.Errorf("CMS_LOG_LEVEL: %w", err)
	}

	// CMS_LOG_FORMAT — формат логов (по умолчанию json)
	cfg.LogFormat = getEnvDefault("CMS_LOG_FORMAT", "json")
	if cfg.LogFormat != "json" && cfg.LogFormat != "text" {
		return nil, fmt.Errorf("CMS_LOG_FORMAT: недопустимое значение %q, допустимые: json, text", cfg.LogFormat)
	}

	// --- База данных ---

	if err := loadDatabase(cfg); err != nil {
		return nil, err
	}

	// --- Сессии ---

	// CMS_SESSION_SECRET — обязательный
	cfg.SessionSecret, err = getEnvRequired("CMS_SESSION_SECRET")
	if err != nil {
		return nil, err
	}
	if len(cfg.SessionSecret) < 16 {
		return nil, fmt.Errorf("CMS_SESSION_SECRET: секрет короче 16 символов")
	}

	// CMS_SESSION_TTL — время жизни сессии (по умолчанию 24h)
	cfg.SessionTTL, err = getEnvDuration("CMS_SESSION_TTL", 24*time.Hour)
	if err != nil {
		return nil, fmt.Errorf("CMS_SESSION_TTL: %w", err)
	}

	// CMS_SECURE_COOKIE — флаг Secure для cookie (по умолчанию true)
	cfg.SecureCookie, err = getEnvBool("CMS_SECURE_COOKIE", true)
	if err != nil {
		return nil, fmt.Errorf("CMS_SECURE_COOKIE: %w", err)
	}

	// CMS_DEFAULT_LANGUAGE — язык по умолчанию (en)
	cfg.DefaultLanguage = getEnvDefault("CMS_DEFAULT_LANGUAGE", "en")
	if cfg.DefaultLanguage != "en" && cfg.DefaultLanguage != "ru" {
		return nil, fmt.Errorf("CMS_DEFAULT_LANGUAGE: недопустимое значение %q, допустимые: en, ru", cfg.DefaultLanguage)
	}

	// --- Галереи ---

	// CMS_GALLERY_ROOT — каталог файлов галерей (по умолчанию ./www/gallery)
	cfg.GalleryRoot = getEnvDefault("CMS_GALLERY_ROOT", "./www/gallery")

	// CMS_IMAGE_EXTENSIONS — расширения изображений (по умолчанию jpg,jpeg,png,gif)
	cfg.ImageExtensions = parseCSV(strings.ToLower(getEnvDefault("CMS_IMAGE_EXTENSIONS", "jpg,jpeg,png,gif")))
	if len(cfg.ImageExtensions) == 0 {
		return nil, fmt.Errorf("CMS_IMAGE_EXTENSIONS: список расширений пуст")
	}

	// CMS_UPLOAD_MAX_BYTES — максимальный размер изображения (по умолчанию 10 MiB)
	maxBytes, err := getEnvInt("CMS_UPLOAD_MAX_BYTES", 10<<20)
	if err != nil {
		return nil, fmt.Errorf("CMS_UPLOAD_MAX_BYTES: %w", err)
	}
	if maxBytes < 1 {
		return nil, fmt.Errorf("CMS_UPLOAD_MAX_BYTES: значение %d должно быть положительным", maxBytes)
	}
	cfg.UploadMaxBytes = int64(maxBytes)

	// CMS_PAGE_SIZE — размер страницы (по умолчанию 20)
	cfg.PageSize, err = getEnvInt("CMS_PAGE_SIZE", 20)
	if err != nil {
		return nil, fmt.Errorf("CMS_PAGE_SIZE: %w", err)
	}
	if cfg.PageSize < 1 || cfg.PageSize > 100 {
		return nil, fmt.Errorf("CMS_PAGE_SIZE: значение %d вне допустимого диапазона 1-100", cfg.PageSize)
	}

	// --- Кэш прав ---

	// CMS_PERMISSION_CACHE_SIZE — размер кэша прав (по умолчанию 64)
	cfg.PermissionCacheSize, err = getEnvInt("CMS_PERMISSION_CACHE_SIZE", 64)
	if err != nil {
		return nil, fmt.Errorf("CMS_PERMISSION_CACHE_SIZE: %w", err)
	}
	if cfg.PermissionCacheSize < 1 {
		return nil, fmt.Errorf("CMS_PERMISSION_CACHE_SIZE: значение %d должно быть положительным", cfg.PermissionCacheSize)
	}

	// CMS_PERMISSION_CACHE_TTL — время жизни кэша прав (по умолчанию 1m)
	cfg.PermissionCacheTTL, err = getEnvDuration("CMS_PERMISSION_CACHE_TTL", time.Minute)
	if err != nil {
		return nil, fmt.Errorf("CMS_PERMISSION_CACHE_TTL: %w", err)
	}

	// --- Топология зависимостей ---

	// CMS_DEPHEALTH_GROUP — группа сервиса (по умолчанию folio)
	cfg.DephealthGroup = getEnvDefault("CMS_DEPHEALTH_GROUP", "folio")

	// CMS_DEPHEALTH_CHECK_INTERVAL — интервал проверки зависимостей (по умолчанию 15s)
	cfg.DephealthCheckInterval, err = getEnvDuration("CMS_DEPHEALTH_CHECK_INTERVAL", 15*time.Second)
	if err != nil {
		return nil, fmt.Errorf("CMS_DEPHEALTH_CHECK_INTERVAL: %w", err)
	}

	// --- Graceful shutdown ---

	// CMS_SHUTDOWN_TIMEOUT — таймаут graceful shutdown (по умолчанию 5s)
	cfg.ShutdownTimeout, err = getEnvDuration("CMS_SHUTDOWN_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("CMS_SHUTDOWN_TIMEOUT: %w", err)
	}

	return cfg, nil
}

// loadDatabase читает параметры БД. Для SQLite сетевые параметры не нужны.
func loadDatabase(cfg *Config) error {
	var err error

	// CMS_DB_DRIVER — драйвер БД (по умолчанию postgres)
	cfg.DBDriver = strings.ToLower(getEnvDefault("CMS_DB_DRIVER", DriverPostgres))

	// CMS_DB_MAX_CONNS — размер пула (по умолчанию 10)
	cfg.DBMaxConns, err = getEnvInt("CMS_DB_MAX_CONNS", 10)
	if err != nil {
		return fmt.Errorf("CMS_DB_MAX_CONNS: %w", err)
	}
	if cfg.DBMaxConns < 1 {
		return fmt.Errorf("CMS_DB_MAX_CONNS: значение %d должно быть положительным", cfg.DBMaxConns)
	}

	// CMS_MIGRATE_ON_START — применять миграции при старте (по умолчанию true)
	cfg.MigrateOnStart, err = getEnvBool("CMS_MIGRATE_ON_START", true)
	if err != nil {
		return fmt.Errorf("CMS_MIGRATE_ON_START: %w", err)
	}

	var defaultPort int
	switch cfg.DBDriver {
	case DriverSQLite:
		// CMS_DB_PATH — файл базы SQLite (по умолчанию ./folio.db)
		cfg.DBPath = getEnvDefault("CMS_DB_PATH", "./folio.db")
		return nil
	case DriverPostgres:
		defaultPort = 5432
	case DriverMySQL:
		defaultPort = 3306
	default:
		return fmt.Errorf("CMS_DB_DRIVER: недопустимое значение %q, допустимые: postgres, mysql, sqlite", cfg.DBDriver)
	}

	// CMS_DB_HOST — обязательный
	cfg.DBHost, err = getEnvRequired("CMS_DB_HOST")
	if err != nil {
		return err
	}

	// CMS_DB_PORT — порт (по умолчанию 5432 или 3306)
	cfg.DBPort, err = getEnvInt("CMS_DB_PORT", defaultPort)
	if err != nil {
		return fmt.Errorf("CMS_DB_PORT: %w", err)
	}

	// CMS_DB_NAME, CMS_DB_USER, CMS_DB_PASSWORD — обязательные
	if cfg.DBName, err = getEnvRequired("CMS_DB_NAME"); err != nil {
		return err
	}
	if cfg.DBUser, err = getEnvRequired("CMS_DB_USER"); err != nil {
		return err
	}
	if cfg.DBPassword, err = getEnvRequired("CMS_DB_PASSWORD"); err != nil {
		return err
	}

	// CMS_DB_SSL_MODE — режим SSL PostgreSQL (по умолчанию disable)
	cfg.DBSSLMode = getEnvDefault("CMS_DB_SSL_MODE", "disable")
	validSSLModes := map[string]bool{
		"disable": true, "require": true, "verify-ca": true, "verify-full": true,
	}
	if !validSSLModes[cfg.DBSSLMode] {
		return fmt.Errorf("CMS_DB_SSL_MODE: недопустимое значение %q, допустимые: disable, require, verify-ca, verify-full", cfg.DBSSLMode)
	}

	return nil
}

// DatabaseDSN возвращает строку подключения для драйвера БД.
func (c *Config) DatabaseDSN() string {
	switch c.DBDriver {
	case DriverMySQL:
		return c.mysqlConfig(false).FormatDSN()
	case DriverSQLite:
		return c.DBPath + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	default:
		return fmt.Sprintf(
			"host=%s port=%d dbname=%s user=%s password=%s sslmode=%s",
			c.DBHost, c.DBPort, c.DBName, c.DBUser, c.DBPassword, c.DBSSLMode,
		)
	}
}

// MigrateURL возвращает URL базы для golang-migrate.
func (c *Config) MigrateURL() string {
	switch c.DBDriver {
	case DriverMySQL:
		return "mysql://" + c.mysqlConfig(true).FormatDSN()
	case DriverSQLite:
		return "sqlite://" + c.DBPath
	default:
		u := c.postgresURL()
		u.Scheme = "pgx5"
		return u.String()
	}
}

// DatabaseURL возвращает URL PostgreSQL для topologymetrics.
func (c *Config) DatabaseURL() string {
	return c.postgresURL().String()
}

func (c *Config) postgresURL() *url.URL {
	return &url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.DBUser, c.DBPassword),
		Host:     net.JoinHostPort(c.DBHost, strconv.Itoa(c.DBPort)),
		Path:     "/" + c.DBName,
		RawQuery: "sslmode=" + url.QueryEscape(c.DBSSLMode),
	}
}

func (c *Config) mysqlConfig(multiStatements bool) *mysql.Config {
	mc := mysql.NewConfig()
	mc.User = c.DBUser
	mc.Passwd = c.DBPassword
	mc.Net = "tcp"
	mc.Addr = net.JoinHostPort(c.DBHost, strconv.Itoa(c.DBPort))
	mc.DBName = c.DBName
	mc.ParseTime = true
	mc.Loc = time.UTC
	mc.MultiStatements = multiStatements
	return mc
}

// SetupLogger настраивает глобальный slog-логгер на основе конфигурации.
func SetupLogger(cfg *Config) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}

	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// --- Вспомогательные функции ---

// getEnvRequired возвращает значение переменной окружения или ошибку, если она не задана.
func getEnvRequired(key string) (string, error) {
	val := os.Getenv(key)
	if val == "" {
		return "", fmt.Errorf("%s: обязательная переменная окружения не задана", key)
	}
	return val, nil
}

// getEnvDefault возвращает значение переменной окружения или значение по умолчанию.
func getEnvDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

// getEnvInt возвращает целочисленное значение переменной окружения или значение по умолчанию.
func getEnvInt(key string, defaultVal int) (int, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("некорректное целое число: %q", val)
	}
	return n, nil
}

// getEnvBool возвращает логическое значение переменной окружения или значение по умолчанию.
func getEnvBool(key string, defaultVal bool) (bool, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return false, fmt.Errorf("некорректное логическое значение: %q", val)
	}
	return b, nil
}

// getEnvDuration возвращает time.Duration из переменной окружения или значение по умолчанию.
func getEnvDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("некорректная длительность: %q (используйте формат Go: 30s, 1h, 15m)", val)
	}
	return d, nil
}

// parseLogLevel преобразует строку уровня логирования в slog.Level.
func parseLogLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("недопустимый уровень %q, допустимые: debug, info, warn, error", level)
	}
}

// parseCSV разбирает строку, разделённую запятыми, на срез строк.
// Пробелы и ведущие точки вокруг элементов убираются, пустые элементы игнорируются.
func parseCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimLeft(strings.TrimSpace(p), ".")
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}
