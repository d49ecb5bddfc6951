// galleries.go — обработчики галерей и изображений.
package handlers

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/bigkaa/goartstore/folio/internal/api/middleware"
	"github.com/bigkaa/goartstore/folio/internal/i18n"
	"github.com/bigkaa/goartstore/folio/internal/service"
	"github.com/bigkaa/goartstore/folio/internal/session"
)

// imageField — поле multipart-формы с файлом изображения.
const imageField = "image"

// GalleryHandler — обработчик галерей и изображений.
type GalleryHandler struct {
	responder
	galleries *service.GalleryService
	maxUpload int64
}

// NewGalleryHandler создаёт обработчик галерей.
// maxUpload — предел размера изображения, к нему добавляется запас на поля формы.
func NewGalleryHandler(galleries *service.GalleryService, maxUpload int64, bundle *i18n.Bundle, logger *slog.Logger) *GalleryHandler {
	return &GalleryHandler{
		responder: responder{
			bundle: bundle,
			logger: logger.With(slog.String("component", "gallery_handler")),
		},
		galleries: galleries,
		maxUpload: maxUpload,
	}
}

// List — GET /galleries. Дерево публичных галерей.
func (h *GalleryHandler) List(w http.ResponseWriter, r *http.Request) {
	nodes, err := h.galleries.ListPublic(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, nodes)
}

// Tree — GET /galleries/tree. Дерево всех галерей для управления.
// Параметр omit исключает галерею с поддеревом (выбор нового родителя).
func (h *GalleryHandler) Tree(w http.ResponseWriter, r *http.Request) {
	nodes, err := h.galleries.Tree(r.Context(), queryInt64(r, "omit"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, nodes)
}

// Get — GET /galleries/{id}.
func (h *GalleryHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := pathID(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	row, err := h.galleries.Get(ctx, middleware.SubjectFromContext(ctx), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, row)
}

// Images — GET /galleries/{id}/images. Страница изображений галереи.
func (h *GalleryHandler) Images(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := pathID(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	page, err := h.galleries.Images(ctx, middleware.SubjectFromContext(ctx), id, listParams(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, page)
}

// Add — POST /galleries/add.
func (h *GalleryHandler) Add(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	values, err := decodeValues(w, r)
	if err != nil {
		h.writeError(w, r, badRequest(err))
		return
	}

	gallery, err := h.galleries.AddGallery(ctx, values)
	if err != nil {
		h.flashNow(r, session.FlashError, "flash.gallery_create_failed")
		h.writeError(w, r, err)
		return
	}

	row, err := h.galleries.Get(ctx, middleware.SubjectFromContext(ctx), gallery.GalleryID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.flash(r, session.FlashSuccess, "flash.gallery_created")
	w.Header().Set("Location", fmt.Sprintf("/galleries/%d", gallery.GalleryID))
	h.writeJSON(w, r, http.StatusCreated, row)
}

// Edit — POST /galleries/{id}/edit. Название, родитель и видимость.
func (h *GalleryHandler) Edit(w http.ResponseWriter, r *http.Request) {
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

	if _, err := h.galleries.UpdateGallery(ctx, id, values); err != nil {
		h.writeError(w, r, err)
		return
	}
	row, err := h.galleries.Get(ctx, middleware.SubjectFromContext(ctx), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.flash(r, session.FlashSuccess, "flash.gallery_updated")
	h.writeJSON(w, r, http.StatusOK, row)
}

// Delete — POST /galleries/{id}/delete. Удаляет галерею с подгалереями и изображениями.
func (h *GalleryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.galleries.DeleteGallery(r.Context(), id); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.flash(r, session.FlashSuccess, "flash.gallery_deleted")
	h.writeJSON(w, r, http.StatusOK, map[string]int64{"gallery_id": id})
}

// AllImages — GET /images. Изображения всех галерей или одной (?gallery=).
func (h *GalleryHandler) AllImages(w http.ResponseWriter, r *http.Request) {
	page, err := h.galleries.AllImages(r.Context(), queryInt64(r, "gallery"), listParams(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, page)
}

// MyImages — GET /images/mine. Изображения текущего пользователя.
func (h *GalleryHandler) MyImages(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	page, err := h.galleries.MyImages(ctx, middleware.SubjectFromContext(ctx), listParams(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, page)
}

// AddImage — POST /images/add. multipart/form-data: name, gallery_id и файл image.
func (h *GalleryHandler) AddImage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload+maxFormBytes)
	if err := r.ParseMultipartForm(maxFormBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.flashNow(r, session.FlashError, "flash.image_upload_failed")
			h.writeError(w, r, &service.ValidationError{Fields: map[string][]string{
				"filename": {service.ErrImageTooLarge.Error()},
			}})
			return
		}
		h.writeError(w, r, badRequest(err))
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	values, err := decodeValues(w, r)
	if err != nil {
		h.writeError(w, r, badRequest(err))
		return
	}

	var (
		src          io.Reader = http.NoBody
		originalName string
	)
	file, header, err := r.FormFile(imageField)
	switch {
	case errors.Is(err, http.ErrMissingFile):
		// Пустое имя файла не пройдёт правило Required
	case err != nil:
		h.writeError(w, r, badRequest(err))
		return
	default:
		defer file.Close()
		src, originalName = file, header.Filename
	}

	image, err := h.galleries.AddImage(ctx, middleware.SubjectFromContext(ctx), values, originalName, src)
	if err != nil {
		h.flashNow(r, session.FlashError, "flash.image_upload_failed")
		h.writeError(w, r, err)
		return
	}

	h.flash(r, session.FlashSuccess, "flash.image_uploaded")
	h.writeJSON(w, r, http.StatusCreated, map[string]any{
		"image_id":   image.ImageID,
		"name":       image.Name,
		"filename":   image.Filename,
		"gallery_id": image.GalleryID,
		"user_id":    image.UserID,
	})
}

// DeleteImage — POST /images/{id}/delete.
func (h *GalleryHandler) DeleteImage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := pathID(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.galleries.DeleteImage(ctx, middleware.SubjectFromContext(ctx), id); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.flash(r, session.FlashSuccess, "flash.image_deleted")
	h.writeJSON(w, r, http.StatusOK, map[string]int64{"image_id": id})
}
