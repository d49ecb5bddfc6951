// session.go — middleware сессии пользователя.
// Загружает зашифрованную сессию из cookie, переносит очередь flash
// в текущий запрос и записывает изменённую сессию перед первым байтом ответа.
package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/bigkaa/goartstore/folio/internal/domain/rbac"
	"github.com/bigkaa/goartstore/folio/internal/session"
)

// contextKey — тип для ключей контекста (избегаем коллизий).
type contextKey string

// ContextKeySession — сессия текущего запроса.
const ContextKeySession contextKey = "session"

// SessionStore читает и записывает сессию (session.Manager).
type SessionStore interface {
	Load(r *http.Request) (*session.Data, error)
	Save(w http.ResponseWriter, data *session.Data) error
}

// Session возвращает middleware сессии.
// Повреждённый cookie не прерывает запрос: сессия становится гостевой.
func Session(store SessionStore, logger *slog.Logger) func(http.Handler) http.Handler {
	logger = logger.With(slog.String("component", "session"))

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			data, err := store.Load(r)
			if err != nil {
				LoggerFromContext(r.Context(), logger).Warn("Некорректный cookie сессии",
					slog.String("remote_addr", r.RemoteAddr),
					slog.String("error", err.Error()),
				)
			}
			data.Rotate()

			sw := &sessionWriter{
				ResponseWriter: w,
				store:          store,
				data:           data,
				logger:         LoggerFromContext(r.Context(), logger),
			}
			ctx := context.WithValue(r.Context(), ContextKeySession, data)
			next.ServeHTTP(sw, r.WithContext(ctx))

			// Обработчик ничего не записал
			sw.save()
		})
	}
}

// sessionWriter записывает cookie сессии до заголовков ответа.
type sessionWriter struct {
	http.ResponseWriter
	store  SessionStore
	data   *session.Data
	logger *slog.Logger
	saved  bool
}

func (sw *sessionWriter) save() {
	if sw.saved {
		return
	}
	sw.saved = true
	if !sw.data.Changed() {
		return
	}
	if err := sw.store.Save(sw.ResponseWriter, sw.data); err != nil {
		sw.logger.Error("Ошибка сохранения сессии", slog.String("error", err.Error()))
	}
}

func (sw *sessionWriter) WriteHeader(code int) {
	sw.save()
	sw.ResponseWriter.WriteHeader(code)
}

func (sw *sessionWriter) Write(b []byte) (int, error) {
	sw.save()
	return sw.ResponseWriter.Write(b)
}

// Unwrap позволяет http.ResponseController получить доступ к оригинальному ResponseWriter.
func (sw *sessionWriter) Unwrap() http.ResponseWriter {
	return sw.ResponseWriter
}

// SessionFromContext возвращает сессию запроса.
// Без Session middleware возвращается пустая гостевая сессия.
func SessionFromContext(ctx context.Context) *session.Data {
	if data, ok := ctx.Value(ContextKeySession).(*session.Data); ok {
		return data
	}
	return &session.Data{}
}

// SubjectFromContext возвращает пользователя запроса для проверки разрешений.
func SubjectFromContext(ctx context.Context) rbac.Subject {
	data := SessionFromContext(ctx)
	return rbac.Subject{UserID: data.UserID, RoleID: data.RoleID}
}
