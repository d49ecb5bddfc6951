// auth.go — проверка входа и разрешений RBAC на уровне маршрутов.
// Пользователь берётся из сессии запроса (Session middleware).
package middleware

import (
	"context"
	"log/slog"
	"net/http"

	apierrors "github.com/bigkaa/goartstore/folio/internal/api/errors"
	"github.com/bigkaa/goartstore/folio/internal/domain/rbac"
	"github.com/bigkaa/goartstore/folio/internal/record"
)

// Authorizer проверяет разрешения (rbac.Checker).
type Authorizer interface {
	HasPermission(ctx context.Context, subj rbac.Subject, permission string, target record.Model) (bool, error)
}

// Translator переводит сообщения на язык запроса (i18n.Bundle).
type Translator interface {
	T(ctx context.Context, key string, args ...any) string
}

// Auth — middleware доступа к маршрутам.
type Auth struct {
	authz  Authorizer
	tr     Translator
	logger *slog.Logger
}

// NewAuth создаёт middleware доступа.
func NewAuth(authz Authorizer, tr Translator, logger *slog.Logger) *Auth {
	return &Auth{
		authz:  authz,
		tr:     tr,
		logger: logger.With(slog.String("component", "auth")),
	}
}

// RequireLogin пропускает только вошедших пользователей, иначе 401.
func (a *Auth) RequireLogin() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if SubjectFromContext(r.Context()).IsGuest() {
				apierrors.Unauthorized(w, a.tr.T(r.Context(), "error.unauthorized"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireGuest пропускает только гостей (регистрация, вход), иначе 403.
func (a *Auth) RequireGuest() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !SubjectFromContext(r.Context()).IsGuest() {
				apierrors.Forbidden(w, a.tr.T(r.Context(), "error.forbidden"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequirePermission пропускает пользователей, у которых есть хотя бы одно
// из разрешений. Разрешения проверяются без цели: правила вроде isOwner
// проверяет сервис, когда цель загружена.
// Гость получает 401, пользователь без разрешения 403.
func (a *Auth) RequirePermission(permissions ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			subj := SubjectFromContext(ctx)
			if subj.IsGuest() {
				apierrors.Unauthorized(w, a.tr.T(ctx, "error.unauthorized"))
				return
			}

			for _, p := range permissions {
				ok, err := a.authz.HasPermission(ctx, subj, p, nil)
				if err != nil {
					LoggerFromContext(ctx, a.logger).Error("Ошибка проверки разрешения",
						slog.String("permission", p),
						slog.Int64("user_id", subj.UserID),
						slog.String("error", err.Error()),
					)
					apierrors.Unavailable(w, a.tr.T(ctx, "error.unavailable"))
					return
				}
				if ok {
					next.ServeHTTP(w, r)
					return
				}
			}

			LoggerFromContext(ctx, a.logger).Info("Доступ запрещён",
				slog.Any("permissions", permissions),
				slog.Int64("user_id", subj.UserID),
				slog.String("path", r.URL.Path),
			)
			apierrors.Forbidden(w, a.tr.T(ctx, "error.forbidden"))
		})
	}
}
