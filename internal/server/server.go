// Пакет server — HTTP-сервер folio с graceful shutdown.
// Без TLS — TLS termination на reverse proxy.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/bigkaa/goartstore/folio/internal/api/handlers"
	"github.com/bigkaa/goartstore/folio/internal/api/middleware"
	"github.com/bigkaa/goartstore/folio/internal/config"
	"github.com/bigkaa/goartstore/folio/internal/domain/rbac"
	"github.com/bigkaa/goartstore/folio/internal/i18n"
)

// Components — обработчики и middleware, из которых собираются маршруты.
type Components struct {
	Health    *handlers.HealthHandler
	Articles  *handlers.ArticleHandler
	Galleries *handlers.GalleryHandler
	Users     *handlers.UserHandler

	Sessions middleware.SessionStore
	Auth     *middleware.Auth
	Bundle   *i18n.Bundle
}

// Server — HTTP-сервер folio.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
	cfg        *config.Config
}

// New создаёт новый HTTP-сервер с настроенными routes и middleware.
func New(cfg *config.Config, logger *slog.Logger, c Components) *Server {
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      NewRouter(logger, c),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return &Server{
		httpServer: srv,
		logger:     logger,
		cfg:        cfg,
	}
}

// NewRouter собирает маршруты folio.
// Health и metrics обслуживаются без сессии и определения языка.
func NewRouter(logger *slog.Logger, c Components) http.Handler {
	router := chi.NewRouter()

	// Глобальные middleware (применяются ко ВСЕМ маршрутам)
	router.Use(middleware.MetricsMiddleware())
	router.Use(middleware.RequestLogger(logger))

	router.Get("/health/live", c.Health.HealthLive)
	router.Get("/health/ready", c.Health.HealthReady)
	router.Get("/metrics", c.Health.GetMetrics)

	router.Group(func(r chi.Router) {
		r.Use(c.Bundle.Middleware())
		r.Use(middleware.Session(c.Sessions, logger))

		login := c.Auth.RequireLogin()
		guest := c.Auth.RequireGuest()
		can := c.Auth.RequirePermission

		// Статьи
		r.Get("/articles", c.Articles.List)
		r.With(can(rbac.ManageOwnArticles, rbac.ManageAllArticles)).Get("/articles/mine", c.Articles.Mine)
		r.With(can(rbac.ManageAllArticles)).Get("/articles/user/{id}", c.Articles.ByUser)
		r.With(can(rbac.WriteArticles)).Post("/articles/write", c.Articles.Write)
		r.Get("/articles/{id}", c.Articles.Get)
		r.With(login).Post("/articles/{id}/edit", c.Articles.Edit)
		r.With(login).Post("/articles/{id}/delete", c.Articles.Delete)

		// Галереи
		r.Get("/galleries", c.Galleries.List)
		r.With(can(rbac.ManageGalleries)).Get("/galleries/tree", c.Galleries.Tree)
		r.With(can(rbac.AddGalleries)).Post("/galleries/add", c.Galleries.Add)
		r.Get("/galleries/{id}", c.Galleries.Get)
		r.Get("/galleries/{id}/images", c.Galleries.Images)
		r.With(can(rbac.ManageGalleries)).Post("/galleries/{id}/edit", c.Galleries.Edit)
		r.With(can(rbac.DeleteGalleries)).Post("/galleries/{id}/delete", c.Galleries.Delete)

		// Изображения
		r.With(can(rbac.ManageAllImages)).Get("/images", c.Galleries.AllImages)
		r.With(can(rbac.ManageOwnImages, rbac.ManageAllImages)).Get("/images/mine", c.Galleries.MyImages)
		r.With(can(rbac.AddImages)).Post("/images/add", c.Galleries.AddImage)
		r.With(login).Post("/images/{id}/delete", c.Galleries.DeleteImage)

		// Пользователи
		r.With(guest).Post("/users/register", c.Users.Register)
		r.With(guest).Post("/users/login", c.Users.Login)
		r.With(login).Post("/users/logout", c.Users.Logout)
		r.With(login).Get("/users/me", c.Users.Me)
		r.With(can(rbac.ManageAllArticles)).Get("/users", c.Users.List)
	})

	return router
}

// Run запускает сервер и ожидает сигнала завершения (SIGINT, SIGTERM).
// При получении сигнала выполняется graceful shutdown.
func (s *Server) Run() error {
	// Канал для ошибок сервера
	errCh := make(chan error, 1)

	go func() {
		s.logger.Info("HTTP-сервер запущен",
			slog.String("addr", s.httpServer.Addr),
		)

		err := s.httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// Ожидание сигнала завершения
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case sig := <-quit:
		s.logger.Info("Получен сигнал завершения", slog.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("ошибка HTTP-сервера: %w", err)
		}
	}

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	s.logger.Info("Выполняется graceful shutdown...")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("ошибка при graceful shutdown: %w", err)
	}

	s.logger.Info("HTTP-сервер остановлен")
	return nil
}
