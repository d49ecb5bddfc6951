// logging.go — журнал HTTP-запросов folio.
// Каждый запрос получает идентификатор (X-Request-ID), он кладётся в контекст
// и попадает во все записи, сделанные через LoggerFromContext.
package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// RequestIDHeader — заголовок с идентификатором запроса.
const RequestIDHeader = "X-Request-ID"

// maxRequestIDLen — предел длины идентификатора от клиента.
const maxRequestIDLen = 64

// ContextKeyRequestID — идентификатор текущего запроса.
const ContextKeyRequestID contextKey = "request_id"

// statusRecorder запоминает статус и размер ответа для журнала и метрик.
type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int64
}

func newStatusRecorder(w http.ResponseWriter) *statusRecorder {
	return &statusRecorder{ResponseWriter: w, status: http.StatusOK}
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.status = code
	sr.ResponseWriter.WriteHeader(code)
}

func (sr *statusRecorder) Write(b []byte) (int, error) {
	n, err := sr.ResponseWriter.Write(b)
	sr.bytes += int64(n)
	return n, err
}

// Unwrap позволяет http.ResponseController получить доступ к оригинальному ResponseWriter.
func (sr *statusRecorder) Unwrap() http.ResponseWriter {
	return sr.ResponseWriter
}

// RequestLogger возвращает middleware журнала запросов.
// Идентификатор клиента сохраняется, если он печатный и не длиннее 64 байт,
// иначе генерируется UUID. В запись попадает шаблон маршрута chi.
func RequestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			id := requestID(r.Header.Get(RequestIDHeader))
			w.Header().Set(RequestIDHeader, id)

			ctx := context.WithValue(r.Context(), ContextKeyRequestID, id)
			rec := newStatusRecorder(w)
			next.ServeHTTP(rec, r.WithContext(ctx))

			attrs := []slog.Attr{
				slog.String("request_id", id),
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", rec.status),
				slog.Duration("duration", time.Since(start)),
				slog.Int64("bytes", rec.bytes),
				slog.String("remote_addr", r.RemoteAddr),
			}
			if route := routePattern(r); route != "" {
				attrs = append(attrs, slog.String("route", route))
			}
			logger.LogAttrs(ctx, statusLevel(rec.status), "HTTP запрос", attrs...)
		})
	}
}

// RequestIDFromContext возвращает идентификатор запроса или "".
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(ContextKeyRequestID).(string)
	return id
}

// LoggerFromContext дополняет logger идентификатором запроса из ctx.
func LoggerFromContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if id := RequestIDFromContext(ctx); id != "" {
		return logger.With(slog.String("request_id", id))
	}
	return logger
}

// requestID проверяет идентификатор клиента или создаёт новый.
func requestID(header string) string {
	if header == "" || len(header) > maxRequestIDLen {
		return uuid.NewString()
	}
	for i := 0; i < len(header); i++ {
		if c := header[i]; c < 0x21 || c > 0x7e {
			return uuid.NewString()
		}
	}
	return header
}

// statusLevel: INFO для 1xx-3xx, WARN для 4xx, ERROR для 5xx.
func statusLevel(status int) slog.Level {
	switch {
	case status >= http.StatusInternalServerError:
		return slog.LevelError
	case status >= http.StatusBadRequest:
		return slog.LevelWarn
	default:
		return slog.LevelInfo
	}
}

// routePattern — шаблон маршрута chi после обработки (/articles/{id}/edit).
// Контекст маршрутизации общий для запроса, поэтому шаблон доступен
// и в middleware, подключённом до маршрутов.
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		return rctx.RoutePattern()
	}
	return ""
}
