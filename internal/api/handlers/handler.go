// handler.go — общие части обработчиков API: JSON-ответы с flash-сообщениями,
// перевод ошибок сервисного слоя в HTTP-статусы, разбор параметров запроса.
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	apierrors "github.com/bigkaa/goartstore/folio/internal/api/errors"
	"github.com/bigkaa/goartstore/folio/internal/api/middleware"
	"github.com/bigkaa/goartstore/folio/internal/database"
	"github.com/bigkaa/goartstore/folio/internal/i18n"
	"github.com/bigkaa/goartstore/folio/internal/service"
)

// maxFormBytes — предел тела запроса без файлов.
const maxFormBytes = 1 << 20

// errBadRequest — запрос не удалось разобрать.
var errBadRequest = errors.New("некорректный запрос")

// responder пишет ответы обработчиков на языке запроса.
type responder struct {
	bundle *i18n.Bundle
	logger *slog.Logger
}

// envelope — тело успешного ответа.
type envelope struct {
	Data  any               `json:"data"`
	Flash map[string]string `json:"flash,omitempty"`
}

// writeJSON записывает JSON-ответ с указанным статусом.
// Сообщения flash текущего запроса добавляются к ответу.
func (h *responder) writeJSON(w http.ResponseWriter, r *http.Request, status int, data any) {
	writeJSON(w, status, envelope{
		Data:  data,
		Flash: middleware.SessionFromContext(r.Context()).Flash,
	})
}

// flash ставит переведённое сообщение в очередь следующего запроса.
func (h *responder) flash(r *http.Request, kind, key string, args ...any) {
	middleware.SessionFromContext(r.Context()).SetFlash(kind, h.bundle.T(r.Context(), key, args...))
}

// flashNow добавляет переведённое сообщение к текущему ответу.
func (h *responder) flashNow(r *http.Request, kind, key string, args ...any) {
	middleware.SessionFromContext(r.Context()).SetFlashNow(kind, h.bundle.T(r.Context(), key, args...))
}

// writeError переводит ошибку сервисного слоя в HTTP-ответ.
// Текст внутренних ошибок в ответ не попадает.
func (h *responder) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, detail := h.classify(r, err)
	apierrors.Write(w, status, detail, middleware.SessionFromContext(r.Context()).Flash)
}

// classify выбирает статус, код и переведённое сообщение для ошибки.
func (h *responder) classify(r *http.Request, err error) (int, apierrors.Detail) {
	ctx := r.Context()
	detail := func(code, key string) apierrors.Detail {
		return apierrors.Detail{Code: code, Message: h.bundle.T(ctx, key)}
	}

	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		d := detail(apierrors.CodeValidationError, "error.validation")
		d.Fields = verr.Fields
		return http.StatusBadRequest, d
	case errors.Is(err, errBadRequest):
		return http.StatusBadRequest, detail(apierrors.CodeBadRequest, "error.bad_request")
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound, detail(apierrors.CodeNotFound, "error.not_found")
	case errors.Is(err, service.ErrConflict):
		return http.StatusConflict, detail(apierrors.CodeConflict, "error.conflict")
	case errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden, detail(apierrors.CodeForbidden, "error.forbidden")
	case errors.Is(err, service.ErrInvalidCredentials):
		return http.StatusUnauthorized, detail(apierrors.CodeInvalidCredentials, "error.invalid_credentials")
	case errors.Is(err, service.ErrUnavailable), errors.Is(err, database.ErrConnection):
		return http.StatusServiceUnavailable, detail(apierrors.CodeUnavailable, "error.unavailable")
	}

	middleware.LoggerFromContext(ctx, h.logger).Error("Внутренняя ошибка обработки запроса",
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.String("error", err.Error()),
	)
	return http.StatusInternalServerError, detail(apierrors.CodeInternalError, "error.internal")
}

// --- Вспомогательные функции ---

// writeJSON записывает JSON-ответ с указанным статусом.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// pathID возвращает числовой параметр пути.
func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("%w: параметр %s", errBadRequest, name)
	}
	return id, nil
}

// listParams читает параметры списка: order, dir, page, limit.
// Некорректные числа игнорируются.
func listParams(r *http.Request) service.ListParams {
	q := r.URL.Query()
	params := service.ListParams{
		Order: q.Get("order"),
		Dir:   q.Get("dir"),
	}
	if page, err := strconv.Atoi(q.Get("page")); err == nil {
		params.Page = page
	}
	if limit, err := strconv.Atoi(q.Get("limit")); err == nil {
		params.Limit = limit
	}
	return params
}

// badRequest помечает ошибку разбора тела запроса.
func badRequest(err error) error {
	return fmt.Errorf("%w: %v", errBadRequest, err) //nolint:errorlint // текст ошибки разбора
}

// queryInt64 читает необязательный числовой параметр строки запроса.
func queryInt64(r *http.Request, name string) int64 {
	n, _ := strconv.ParseInt(r.URL.Query().Get(name), 10, 64)
	return n
}

// decodeValues читает поля формы из JSON-объекта или urlencoded/multipart формы.
// Поле с несколькими значениями передаётся последним значением.
func decodeValues(w http.ResponseWriter, r *http.Request) (map[string]any, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))

	if mediaType == "application/json" {
		values := make(map[string]any)
		dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxFormBytes))
		if err := dec.Decode(&values); err != nil {
			return nil, err
		}
		return values, nil
	}

	if strings.HasPrefix(mediaType, "multipart/") {
		if r.MultipartForm == nil {
			if err := r.ParseMultipartForm(maxFormBytes); err != nil {
				return nil, err
			}
		}
	} else {
		r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
		if err := r.ParseForm(); err != nil {
			return nil, err
		}
	}

	values := make(map[string]any, len(r.PostForm))
	for key, vals := range r.PostForm {
		if len(vals) > 0 {
			values[key] = vals[len(vals)-1]
		}
	}
	return values, nil
}
