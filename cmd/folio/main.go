// Точка входа folio — CMS со статьями и галереями изображений.
// Загружает конфигурацию, применяет миграции, открывает подключение к БД,
// создаёт сервисный слой, обработчики и HTTP-сервер с graceful shutdown.
package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/bigkaa/goartstore/folio/internal/api/handlers"
	"github.com/bigkaa/goartstore/folio/internal/api/middleware"
	"github.com/bigkaa/goartstore/folio/internal/config"
	"github.com/bigkaa/goartstore/folio/internal/database"
	"github.com/bigkaa/goartstore/folio/internal/domain/rbac"
	"github.com/bigkaa/goartstore/folio/internal/i18n"
	"github.com/bigkaa/goartstore/folio/internal/record"
	"github.com/bigkaa/goartstore/folio/internal/server"
	"github.com/bigkaa/goartstore/folio/internal/service"
	"github.com/bigkaa/goartstore/folio/internal/session"
)

func main() {
	// 1. Загрузка конфигурации из переменных окружения
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Ошибка загрузки конфигурации", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 2. Настройка логирования
	logger := config.SetupLogger(cfg)
	logger.Info("folio запускается",
		slog.String("version", config.Version),
		slog.Int("port", cfg.Port),
		slog.String("db_driver", cfg.DBDriver),
	)

	// 3. Каталоги переводов (сообщения API и валидации)
	bundle, err := i18n.Load(cfg.DefaultLanguage, logger)
	if err != nil {
		logger.Error("Ошибка загрузки переводов", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 4. Применение миграций БД
	if cfg.MigrateOnStart {
		logger.Info("Применение миграций БД...")
		if err := database.Migrate(cfg, logger); err != nil {
			logger.Error("Ошибка миграций БД", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	// 5. Подключение к БД. Провайдер открывает его лениво,
	// при старте проверяем сразу, чтобы не принимать запросы без базы.
	ctx := context.Background()
	provider := database.NewProvider(cfg, logger, record.WithMessages(bundle.Messages()))
	defer provider.Close()

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	err = provider.Ping(connectCtx)
	cancel()
	if err != nil {
		logger.Error("Ошибка подключения к базе данных", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 6. Хранилище файлов галерей
	storage, err := service.NewGalleryStorage(cfg.GalleryRoot, cfg.ImageExtensions, cfg.UploadMaxBytes, logger)
	if err != nil {
		logger.Error("Ошибка инициализации каталога галерей",
			slog.String("root", cfg.GalleryRoot),
			slog.String("error", err.Error()),
		)
		os.Exit(1)
	}

	// 7. RBAC с кэшем разрешений ролей
	permissions := service.NewPermissionCache(rbac.NewDBSource(provider), cfg.PermissionCacheSize, cfg.PermissionCacheTTL)
	checker := rbac.NewChecker(permissions, logger)

	// 8. Services
	articlesSvc := service.NewArticleService(provider, checker, cfg.PageSize, logger)
	galleriesSvc := service.NewGalleryService(provider, checker, storage, cfg.PageSize, logger)
	usersSvc := service.NewUserService(provider, logger)

	// 9. Сессии
	sessions, err := session.NewManager(cfg.SessionSecret, cfg.SessionTTL, cfg.SecureCookie)
	if err != nil {
		logger.Error("Ошибка создания менеджера сессий", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if !cfg.SecureCookie {
		logger.Warn("CMS_SECURE_COOKIE=false, cookie сессии передаётся без флага Secure")
	}

	// 10. topologymetrics — мониторинг PostgreSQL
	var dephealthSvc *service.DephealthService
	if cfg.DBDriver == config.DriverPostgres {
		dephealthSvc = startDephealth(ctx, cfg, provider, logger)
	}

	// 11. Создание и запуск HTTP-сервера
	srv := server.New(cfg, logger, server.Components{
		Health:    handlers.NewHealthHandler(database.NewReadinessChecker(provider)),
		Articles:  handlers.NewArticleHandler(articlesSvc, bundle, logger),
		Galleries: handlers.NewGalleryHandler(galleriesSvc, cfg.UploadMaxBytes, bundle, logger),
		Users:     handlers.NewUserHandler(usersSvc, cfg.SessionTTL, bundle, logger),
		Sessions:  sessions,
		Auth:      middleware.NewAuth(checker, bundle, logger),
		Bundle:    bundle,
	})
	if err := srv.Run(); err != nil {
		logger.Error("Ошибка сервера", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 12. Остановка фоновых задач
	if dephealthSvc != nil {
		dephealthSvc.Stop()
	}
	logger.Info("folio остановлен")
}

// startDephealth запускает мониторинг зависимостей. Ошибки не фатальны.
func startDephealth(ctx context.Context, cfg *config.Config, provider *database.Provider, logger *slog.Logger) *service.DephealthService {
	if os.Getenv("CMS_DEPHEALTH_GROUP") == "" {
		logger.Warn("CMS_DEPHEALTH_GROUP не задана, используется значение по умолчанию",
			slog.String("default", cfg.DephealthGroup),
		)
	}

	dh, err := service.NewDephealthService(
		"folio",
		cfg.DephealthGroup,
		provider.SQL(),
		cfg.DatabaseURL(),
		cfg.DephealthCheckInterval,
		logger,
	)
	if err != nil {
		logger.Warn("topologymetrics недоступен, запуск без мониторинга зависимостей",
			slog.String("error", err.Error()),
		)
		return nil
	}
	if err := dh.Start(ctx); err != nil {
		logger.Warn("Ошибка запуска topologymetrics", slog.String("error", err.Error()))
		return nil
	}

	logger.Info("topologymetrics запущен",
		slog.String("group", cfg.DephealthGroup),
		slog.String("check_interval", cfg.DephealthCheckInterval.String()),
	)
	return dh
}
