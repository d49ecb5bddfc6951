package config

import (
	"log/slog"
	"os"
	"strings"
	"testing"
	"time"
)

// setEnvs устанавливает переменные окружения на время теста.
func setEnvs(t *testing.T, envs map[string]string) {
	t.Helper()
	for k, v := range envs {
		t.Setenv(k, v)
	}
}

// minimalEnvs возвращает минимальный набор обязательных переменных.
func minimalEnvs() map[string]string {
	return map[string]string{
		"CMS_DB_HOST":        "localhost",
		"CMS_DB_NAME":        "folio",
		"CMS_DB_USER":        "folio",
		"CMS_DB_PASSWORD":    "secret",
		"CMS_SESSION_SECRET": "0123456789abcdef0123",
	}
}

// resetEnvs очищает переменные, которые могли остаться от окружения.
func resetEnvs() {
	for k := range minimalEnvs() {
		os.Unsetenv(k)
	}
	os.Unsetenv("CMS_DB_DRIVER")
}

func TestLoad_MinimalConfig(t *testing.T) {
	resetEnvs()
	setEnvs(t, minimalEnvs())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() вернул ошибку: %v", err)
	}

	// Проверяем значения по умолчанию
	if cfg.Port != 8080 {
		t.Errorf("Port = %d, ожидается 8080", cfg.Port)
	}
	if cfg.LogLevel != slog.LevelInfo {
		t.Errorf("LogLevel = %v, ожидается Info", cfg.LogLevel)
	}
	if cfg.LogFormat != "json" {
		t.Errorf("LogFormat = %q, ожидается json", cfg.LogFormat)
	}
	if cfg.DBDriver != DriverPostgres {
		t.Errorf("DBDriver = %q, ожидается postgres", cfg.DBDriver)
	}
	if cfg.DBPort != 5432 {
		t.Errorf("DBPort = %d, ожидается 5432", cfg.DBPort)
	}
	if cfg.DBSSLMode != "disable" {
		t.Errorf("DBSSLMode = %q, ожидается disable", cfg.DBSSLMode)
	}
	if !cfg.MigrateOnStart {
		t.Error("MigrateOnStart = false, ожидается true")
	}
	if cfg.SessionTTL != 24*time.Hour {
		t.Errorf("SessionTTL = %v, ожидается 24h", cfg.SessionTTL)
	}
	if !cfg.SecureCookie {
		t.Error("SecureCookie = false, ожидается true")
	}
	if cfg.DefaultLanguage != "en" {
		t.Errorf("DefaultLanguage = %q, ожидается en", cfg.DefaultLanguage)
	}
	if cfg.GalleryRoot != "./www/gallery" {
		t.Errorf("GalleryRoot = %q, ожидается ./www/gallery", cfg.GalleryRoot)
	}
	if strings.Join(cfg.ImageExtensions, ",") != "jpg,jpeg,png,gif" {
		t.Errorf("ImageExtensions = %v, ожидается [jpg jpeg png gif]", cfg.ImageExtensions)
	}
	if cfg.UploadMaxBytes != 10<<20 {
		t.Errorf("UploadMaxBytes = %d, ожидается 10 MiB", cfg.UploadMaxBytes)
	}
	if cfg.PageSize != 20 {
		t.Errorf("PageSize = %d, ожидается 20", cfg.PageSize)
	}
	if cfg.PermissionCacheSize != 64 {
		t.Errorf("PermissionCacheSize = %d, ожидается 64", cfg.PermissionCacheSize)
	}
	if cfg.PermissionCacheTTL != time.Minute {
		t.Errorf("PermissionCacheTTL = %v, ожидается 1m", cfg.PermissionCacheTTL)
	}
	if cfg.DephealthCheckInterval != 15*time.Second {
		t.Errorf("DephealthCheckInterval = %v, ожидается 15s", cfg.DephealthCheckInterval)
	}
	if cfg.ShutdownTimeout != 5*time.Second {
		t.Errorf("ShutdownTimeout = %v, ожидается 5s", cfg.ShutdownTimeout)
	}
}

func TestLoad_CustomValues(t *testing.T) {
	resetEnvs()
	envs := minimalEnvs()
	envs["CMS_PORT"] = "9000"
	envs["CMS_LOG_LEVEL"] = "debug"
	envs["CMS_LOG_FORMAT"] = "text"
	envs["CMS_DB_DRIVER"] = "mysql"
	envs["CMS_SECURE_COOKIE"] = "false"
	envs["CMS_DEFAULT_LANGUAGE"] = "ru"
	envs["CMS_IMAGE_EXTENSIONS"] = " .PNG, webp "
	envs["CMS_PAGE_SIZE"] = "50"
	envs["CMS_PERMISSION_CACHE_TTL"] = "30s"
	envs["CMS_SHUTDOWN_TIMEOUT"] = "10s"
	setEnvs(t, envs)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() вернул ошибку: %v", err)
	}

	if cfg.Port != 9000 {
		t.Errorf("Port = %d, ожидается 9000", cfg.Port)
	}
	if cfg.LogLevel != slog.LevelDebug {
		t.Errorf("LogLevel = %v, ожидается Debug", cfg.LogLevel)
	}
	if cfg.DBPort != 3306 {
		t.Errorf("DBPort = %d, ожидается 3306 для mysql", cfg.DBPort)
	}
	if cfg.SecureCookie {
		t.Error("SecureCookie = true, ожидается false")
	}
	if cfg.DefaultLanguage != "ru" {
		t.Errorf("DefaultLanguage = %q, ожидается ru", cfg.DefaultLanguage)
	}
	if strings.Join(cfg.ImageExtensions, ",") != "png,webp" {
		t.Errorf("ImageExtensions = %v, ожидается [png webp]", cfg.ImageExtensions)
	}
	if cfg.PageSize != 50 {
		t.Errorf("PageSize = %d, ожидается 50", cfg.PageSize)
	}
	if cfg.PermissionCacheTTL != 30*time.Second {
		t.Errorf("PermissionCacheTTL = %v, ожидается 30s", cfg.PermissionCacheTTL)
	}
	if cfg.ShutdownTimeout != 10*time.Second {
		t.Errorf("ShutdownTimeout = %v, ожидается 10s", cfg.ShutdownTimeout)
	}
}

func TestLoad_SQLiteNeedsNoNetwork(t *testing.T) {
	resetEnvs()
	setEnvs(t, map[string]string{
		"CMS_DB_DRIVER":      "sqlite",
		"CMS_DB_PATH":        "/tmp/folio.db",
		"CMS_SESSION_SECRET": "0123456789abcdef",
	})

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() вернул ошибку: %v", err)
	}
	if cfg.DBPath != "/tmp/folio.db" {
		t.Errorf("DBPath = %q, ожидается /tmp/folio.db", cfg.DBPath)
	}
	if cfg.MigrateURL() != "sqlite:///tmp/folio.db" {
		t.Errorf("MigrateURL() = %q", cfg.MigrateURL())
	}
}

func TestLoad_MissingRequired(t *testing.T) {
	requiredVars := []string{
		"CMS_DB_HOST", "CMS_DB_NAME", "CMS_DB_USER", "CMS_DB_PASSWORD", "CMS_SESSION_SECRET",
	}

	for _, missing := range requiredVars {
		t.Run(missing, func(t *testing.T) {
			resetEnvs()
			envs := minimalEnvs()
			delete(envs, missing)
			setEnvs(t, envs)

			_, err := Load()
			if err == nil {
				t.Errorf("Load() не вернул ошибку при отсутствии %s", missing)
			}
		})
	}
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		key   string
		value string
	}{
		{"CMS_PORT", "0"},
		{"CMS_PORT", "abc"},
		{"CMS_LOG_LEVEL", "verbose"},
		{"CMS_LOG_FORMAT", "xml"},
		{"CMS_DB_DRIVER", "oracle"},
		{"CMS_DB_SSL_MODE", "prefer"},
		{"CMS_SESSION_SECRET", "short"},
		{"CMS_SECURE_COOKIE", "maybe"},
		{"CMS_DEFAULT_LANGUAGE", "de"},
		{"CMS_PAGE_SIZE", "0"},
		{"CMS_PAGE_SIZE", "101"},
		{"CMS_UPLOAD_MAX_BYTES", "-1"},
		{"CMS_IMAGE_EXTENSIONS", " , "},
		{"CMS_PERMISSION_CACHE_SIZE", "0"},
		{"CMS_PERMISSION_CACHE_TTL", "abc"},
		{"CMS_SHUTDOWN_TIMEOUT", "abc"},
	}

	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			resetEnvs()
			envs := minimalEnvs()
			envs[tt.key] = tt.value
			setEnvs(t, envs)

			_, err := Load()
			if err == nil {
				t.Errorf("Load() не вернул ошибку при %s=%q", tt.key, tt.value)
			}
		})
	}
}

func TestDatabaseDSN(t *testing.T) {
	tests := []struct {
		name     string
		cfg      Config
		expected string
	}{
		{
			name: "postgres",
			cfg: Config{
				DBDriver: DriverPostgres, DBHost: "db.example.com", DBPort: 5432,
				DBName: "folio", DBUser: "user", DBPassword: "pass", DBSSLMode: "disable",
			},
			expected: "host=db.example.com port=5432 dbname=folio user=user password=pass sslmode=disable",
		},
		{
			name: "mysql",
			cfg: Config{
				DBDriver: DriverMySQL, DBHost: "db", DBPort: 3306,
				DBName: "folio", DBUser: "user", DBPassword: "pass",
			},
			expected: "user:pass@tcp(db:3306)/folio?parseTime=true",
		},
		{
			name:     "sqlite",
			cfg:      Config{DBDriver: DriverSQLite, DBPath: "folio.db"},
			expected: "folio.db?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if dsn := tt.cfg.DatabaseDSN(); dsn != tt.expected {
				t.Errorf("DatabaseDSN() = %q, ожидается %q", dsn, tt.expected)
			}
		})
	}
}

func TestMigrateURL(t *testing.T) {
	cfg := &Config{
		DBDriver: DriverPostgres, DBHost: "db", DBPort: 5432,
		DBName: "folio", DBUser: "user", DBPassword: "p@ss", DBSSLMode: "require",
	}
	expected := "pgx5://user:p%40ss@db:5432/folio?sslmode=require"
	if u := cfg.MigrateURL(); u != expected {
		t.Errorf("MigrateURL() = %q, ожидается %q", u, expected)
	}
	if u := cfg.DatabaseURL(); !strings.HasPrefix(u, "postgres://") {
		t.Errorf("DatabaseURL() = %q, ожидается схема postgres://", u)
	}

	cfg.DBDriver = DriverMySQL
	cfg.DBPort = 3306
	if u := cfg.MigrateURL(); !strings.HasPrefix(u, "mysql://") || !strings.Contains(u, "multiStatements=true") {
		t.Errorf("MigrateURL() = %q, ожидается mysql:// с multiStatements", u)
	}
}

func TestSetupLogger(t *testing.T) {
	for _, format := range []string{"json", "text"} {
		t.Run(format, func(t *testing.T) {
			logger := SetupLogger(&Config{LogLevel: slog.LevelInfo, LogFormat: format})
			if logger == nil {
				t.Error("SetupLogger() вернул nil")
			}
		})
	}
}

func TestParseCSV(t *testing.T) {
	tests := []struct {
		input    string
		expected []string
	}{
		{"", nil},
		{"jpg", []string{"jpg"}},
		{"jpg, png", []string{"jpg", "png"}},
		{"jpg,,png,", []string{"jpg", "png"}},
		{" .jpg , .png ", []string{"jpg", "png"}},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result := parseCSV(tt.input)
			if len(result) != len(tt.expected) {
				t.Fatalf("parseCSV(%q) = %v (len %d), ожидается %v (len %d)",
					tt.input, result, len(result), tt.expected, len(tt.expected))
			}
			for i, v := range result {
				if v != tt.expected[i] {
					t.Errorf("parseCSV(%q)[%d] = %q, ожидается %q", tt.input, i, v, tt.expected[i])
				}
			}
		})
	}
}
