// articles.go — обработчики статей: список, просмотр, написание,
// редактирование и удаление.
package handlers

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/bigkaa/goartstore/folio/internal/api/middleware"
	"github.com/bigkaa/goartstore/folio/internal/i18n"
	"github.com/bigkaa/goartstore/folio/internal/service"
	"github.com/bigkaa/goartstore/folio/internal/session"
)

// ArticleHandler — обработчик статей.
type ArticleHandler struct {
	responder
	articles *service.ArticleService
}

// NewArticleHandler создаёт обработчик статей.
func NewArticleHandler(articles *service.ArticleService, bundle *i18n.Bundle, logger *slog.Logger) *ArticleHandler {
	return &ArticleHandler{
		responder: responder{
			bundle: bundle,
			logger: logger.With(slog.String("component", "article_handler")),
		},
		articles: articles,
	}
}

// List — GET /articles. Все статьи, новые первыми.
func (h *ArticleHandler) List(w http.ResponseWriter, r *http.Request) {
	page, err := h.articles.List(r.Context(), listParams(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, page)
}

// Mine — GET /articles/mine. Статьи текущего пользователя.
func (h *ArticleHandler) Mine(w http.ResponseWriter, r *http.Request) {
	subj := middleware.SubjectFromContext(r.Context())
	page, err := h.articles.ListByUser(r.Context(), subj.UserID, listParams(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, page)
}

// ByUser — GET /articles/user/{id}. Статьи выбранного автора для
// управления всеми статьями, новые первыми.
func (h *ArticleHandler) ByUser(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	page, err := h.articles.ListByUser(r.Context(), userID, listParams(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, page)
}

// Get — GET /articles/{id}.
func (h *ArticleHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	row, err := h.articles.Get(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, row)
}

// Write — POST /articles/write. Автором становится текущий пользователь.
func (h *ArticleHandler) Write(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	values, err := decodeValues(w, r)
	if err != nil {
		h.writeError(w, r, badRequest(err))
		return
	}

	article, err := h.articles.Write(ctx, middleware.SubjectFromContext(ctx), values)
	if err != nil {
		h.flashNow(r, session.FlashError, "flash.article_save_failed")
		h.writeError(w, r, err)
		return
	}

	row, err := h.articles.Get(ctx, article.ArticleID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.flash(r, session.FlashSuccess, "flash.article_saved")
	w.Header().Set("Location", fmt.Sprintf("/articles/%d", article.ArticleID))
	h.writeJSON(w, r, http.StatusCreated, row)
}

// Edit — POST /articles/{id}/edit.
func (h *ArticleHandler) Edit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := pathID(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	values, err := decodeValues(w, r)
	if err != nil {
		h.writeError(w, r, badRequest(err))
		return
	}

	if _, err := h.articles.Edit(ctx, middleware.SubjectFromContext(ctx), id, values); err != nil {
		h.flashNow(r, session.FlashError, "flash.article_save_failed")
		h.writeError(w, r, err)
		return
	}

	row, err := h.articles.Get(ctx, id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.flash(r, session.FlashSuccess, "flash.article_updated")
	h.writeJSON(w, r, http.StatusOK, row)
}

// Delete — POST /articles/{id}/delete.
func (h *ArticleHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := pathID(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.articles.Delete(ctx, middleware.SubjectFromContext(ctx), id); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.flash(r, session.FlashSuccess, "flash.article_deleted")
	h.writeJSON(w, r, http.StatusOK, map[string]int64{"article_id": id})
}
