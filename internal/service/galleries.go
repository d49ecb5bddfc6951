// galleries.go — сервис галерей и изображений.
// Галереи образуют дерево, удаление галереи удаляет поддерево
// с изображениями в одной транзакции.
package service

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/bigkaa/goartstore/folio/internal/domain/model"
	"github.com/bigkaa/goartstore/folio/internal/domain/rbac"
	"github.com/bigkaa/goartstore/folio/internal/record"
)

// GalleryFiles — файловое хранилище галерей (GalleryStorage).
type GalleryFiles interface {
	model.DirProvisioner
	SaveImage(dir, originalName string, src io.Reader) (string, error)
	RemoveImage(dir, filename string) error
}

// GalleryNode — галерея в порядке обхода дерева. Depth — глубина от корня.
type GalleryNode struct {
	ID       int64  `json:"gallery_id"`
	Name     string `json:"name"`
	Filepath string `json:"filepath"`
	ParentID *int64 `json:"parent_id"`
	Public   bool   `json:"public"`
	Depth    int    `json:"depth"`
}

// GalleryService — сервис галерей.
type GalleryService struct {
	db       DBProvider
	authz    Authorizer
	files    GalleryFiles
	pageSize int
	logger   *slog.Logger
}

// NewGalleryService создаёт сервис галерей.
func NewGalleryService(db DBProvider, authz Authorizer, files GalleryFiles, pageSize int, logger *slog.Logger) *GalleryService {
	return &GalleryService{
		db:       db,
		authz:    authz,
		files:    files,
		pageSize: pageSize,
		logger:   logger.With(slog.String("component", "gallery_service")),
	}
}

// ListPublic возвращает дерево публичных галерей.
func (s *GalleryService) ListPublic(ctx context.Context) ([]GalleryNode, error) {
	return s.tree(ctx, record.Where("public", true), 0)
}

// Tree возвращает дерево всех галерей без галереи omit и её потомков.
func (s *GalleryService) Tree(ctx context.Context, omit int64) ([]GalleryNode, error) {
	return s.tree(ctx, record.Conditions{}, omit)
}

func (s *GalleryService) tree(ctx context.Context, conds record.Conditions, omit int64) ([]GalleryNode, error) {
	db, err := openDB(ctx, s.db)
	if err != nil {
		return nil, err
	}
	rows, err := record.New(db, &model.Gallery{}).FindAll(ctx, conds, record.Options{
		OrderBy: record.OrderBy("name", "ASC"),
	})
	if err != nil {
		return nil, err
	}
	return buildTree(rows, omit), nil
}

// buildTree раскладывает галереи в порядке обхода дерева в глубину.
// Галереи с недоступным родителем считаются корневыми.
func buildTree(rows []record.Row, omit int64) []GalleryNode {
	known := make(map[int64]bool, len(rows))
	for _, row := range rows {
		known[row.Int64("gallery_id")] = true
	}

	children := make(map[int64][]record.Row)
	for _, row := range rows {
		parent := row.Int64("parent_id")
		if !known[parent] {
			parent = 0
		}
		children[parent] = append(children[parent], row)
	}

	nodes := make([]GalleryNode, 0, len(rows))
	var walk func(parent int64, depth int)
	walk = func(parent int64, depth int) {
		for _, row := range children[parent] {
			id := row.Int64("gallery_id")
			if id == omit {
				continue
			}
			nodes = append(nodes, GalleryNode{
				ID:       id,
				Name:     row.String("name"),
				Filepath: row.String("filepath"),
				ParentID: record.AsNullInt64(row["parent_id"]),
				Public:   row.Bool("public"),
				Depth:    depth,
			})
			walk(id, depth+1)
		}
	}
	walk(0, 0)
	return nodes
}

// Get возвращает галерею. Непубличная галерея видна только с manageGalleries.
func (s *GalleryService) Get(ctx context.Context, subj rbac.Subject, id int64) (record.Row, error) {
	db, err := openDB(ctx, s.db)
	if err != nil {
		return nil, err
	}
	row, err := record.New(db, &model.Gallery{}).FindByPK(ctx, id)
	if err != nil {
		return nil, mapRecordError(err)
	}
	if !row.Bool("public") {
		if err := authorizeAny(ctx, s.authz, subj, nil, rbac.ManageGalleries); err != nil {
			if errors.Is(err, ErrForbidden) {
				return nil, ErrNotFound
			}
			return nil, err
		}
	}
	return row, nil
}

// Images возвращает страницу изображений галереи, новые первыми.
func (s *GalleryService) Images(ctx context.Context, subj rbac.Subject, galleryID int64, params ListParams) (*Page, error) {
	if _, err := s.Get(ctx, subj, galleryID); err != nil {
		return nil, err
	}
	return s.images(ctx, record.Where("gallery_id", galleryID), params, "created", "DESC")
}

// AllImages возвращает изображения всех галерей (galleryID == 0) или одной.
func (s *GalleryService) AllImages(ctx context.Context, galleryID int64, params ListParams) (*Page, error) {
	conds := record.Conditions{}
	if galleryID > 0 {
		conds = record.Where("gallery_id", galleryID)
	}
	return s.images(ctx, conds, params, "created", "DESC")
}

// MyImages возвращает изображения пользователя по имени.
func (s *GalleryService) MyImages(ctx context.Context, subj rbac.Subject, params ListParams) (*Page, error) {
	return s.images(ctx, record.Where("user_id", subj.UserID), params, "name", "ASC")
}

func (s *GalleryService) images(ctx context.Context, conds record.Conditions, params ListParams, order, dir string) (*Page, error) {
	db, err := openDB(ctx, s.db)
	if err != nil {
		return nil, err
	}

	opts := params.options(order, dir, s.pageSize, maxPageSize)
	r := record.New(db, &model.GalleryImage{})
	rows, err := r.FindAll(ctx, conds, opts)
	if err != nil {
		return nil, err
	}
	total, err := r.Count(ctx, conds)
	if err != nil {
		return nil, err
	}
	return newPage(rows, total, opts), nil
}

// AddGallery создаёт галерею и её каталог в одной транзакции.
// Если транзакция не зафиксирована, каталог удаляется.
func (s *GalleryService) AddGallery(ctx context.Context, values map[string]any) (*model.Gallery, error) {
	db, err := openDB(ctx, s.db)
	if err != nil {
		return nil, err
	}

	gallery := model.NewGallery(s.files)
	err = db.RunInTx(ctx, func(tx *record.DB) error {
		r := record.New(tx, gallery)
		r.SetValues(values)
		gallery.GalleryID, gallery.Filepath = 0, ""

		if !r.Validate(ctx) {
			return validationError(r)
		}
		if err := s.checkParent(ctx, tx, r, gallery); err != nil {
			return err
		}
		return r.Save(ctx)
	})
	if err != nil {
		if gallery.Filepath != "" {
			_ = s.files.Remove(ctx, gallery.Filepath)
		}
		return nil, mapRecordError(err)
	}

	s.logger.Info("Галерея создана",
		slog.Int64("gallery_id", gallery.GalleryID),
		slog.String("dir", gallery.Filepath),
	)
	return gallery, nil
}

// UpdateGallery изменяет название, родителя и видимость галереи.
// Каталог галереи не меняется.
func (s *GalleryService) UpdateGallery(ctx context.Context, id int64, values map[string]any) (*model.Gallery, error) {
	db, err := openDB(ctx, s.db)
	if err != nil {
		return nil, err
	}

	row, err := record.New(db, &model.Gallery{}).FindByPK(ctx, id)
	if err != nil {
		return nil, mapRecordError(err)
	}
	gallery := &model.Gallery{}
	r := record.New(db, gallery)
	r.SetValues(row)
	dir := gallery.Filepath
	r.SetValues(values)
	gallery.GalleryID, gallery.Filepath = id, dir

	if !r.Validate(ctx) {
		return nil, validationError(r)
	}
	if err := s.checkParent(ctx, db, r, gallery); err != nil {
		return nil, err
	}
	if err := r.Save(ctx); err != nil {
		return nil, mapRecordError(err)
	}
	return gallery, nil
}

// checkParent проверяет, что родитель существует и не лежит в поддереве галереи.
func (s *GalleryService) checkParent(ctx context.Context, db *record.DB, r *record.Record, gallery *model.Gallery) error {
	if gallery.ParentID == nil {
		return nil
	}
	finder := record.New(db, &model.Gallery{})
	parent := *gallery.ParentID
	for parent != 0 {
		if parent == gallery.GalleryID {
			r.AddError("parent_id", "Gallery cannot be placed inside itself.")
			return validationError(r)
		}
		row, err := finder.FindByPK(ctx, parent)
		if errors.Is(err, record.ErrNotFound) {
			r.AddError("parent_id", "Parent gallery does not exist.")
			return validationError(r)
		}
		if err != nil {
			return err
		}
		parent = row.Int64("parent_id")
	}
	return nil
}

// DeleteGallery удаляет галерею, подгалереи и их изображения в одной
// транзакции. Каталоги удаляются с диска после фиксации.
func (s *GalleryService) DeleteGallery(ctx context.Context, id int64) error {
	db, err := openDB(ctx, s.db)
	if err != nil {
		return err
	}

	var dirs []string
	err = db.RunInTx(ctx, func(tx *record.DB) error {
		dirs = dirs[:0]
		return s.deleteTree(ctx, tx, id, &dirs)
	})
	if err != nil {
		return mapRecordError(err)
	}

	for _, dir := range dirs {
		if err := s.files.Remove(ctx, dir); err != nil {
			s.logger.Warn("Не удалось удалить каталог галереи",
				slog.String("dir", dir),
				slog.String("error", err.Error()),
			)
		}
	}
	s.logger.Info("Галерея удалена",
		slog.Int64("gallery_id", id),
		slog.Int("galleries", len(dirs)),
	)
	return nil
}

func (s *GalleryService) deleteTree(ctx context.Context, tx *record.DB, id int64, dirs *[]string) error {
	galleries := record.New(tx, &model.Gallery{})
	row, err := galleries.FindByPK(ctx, id)
	if err != nil {
		return err
	}

	children, err := galleries.FindAll(ctx, record.Where("parent_id", id), record.Options{})
	if err != nil {
		return err
	}
	for _, child := range children {
		if err := s.deleteTree(ctx, tx, child.Int64("gallery_id"), dirs); err != nil {
			return err
		}
	}

	images := record.New(tx, &model.GalleryImage{})
	rows, err := images.FindAll(ctx, record.Where("gallery_id", id), record.Options{})
	if err != nil {
		return err
	}
	for _, img := range rows {
		if err := images.Delete(ctx, img.Int64("image_id")); err != nil {
			return err
		}
	}

	if err := galleries.Delete(ctx, id); err != nil {
		return err
	}
	if dir := row.String("filepath"); dir != "" {
		*dirs = append(*dirs, dir)
	}
	return nil
}

// AddImage загружает изображение в галерею от имени пользователя.
// Файл удаляется, если запись не сохранена.
func (s *GalleryService) AddImage(ctx context.Context, subj rbac.Subject, values map[string]any, originalName string, src io.Reader) (*model.GalleryImage, error) {
	db, err := openDB(ctx, s.db)
	if err != nil {
		return nil, err
	}

	image := &model.GalleryImage{}
	r := record.New(db, image)
	r.SetValues(values)
	image.ImageID, image.UserID, image.Filename = 0, subj.UserID, originalName

	if !r.Validate(ctx) {
		return nil, validationError(r)
	}

	gallery, err := record.New(db, &model.Gallery{}).FindByPK(ctx, image.GalleryID)
	if errors.Is(err, record.ErrNotFound) {
		r.AddError("gallery_id", "Gallery does not exist.")
		return nil, validationError(r)
	}
	if err != nil {
		return nil, err
	}
	dir := gallery.String("filepath")

	filename, err := s.files.SaveImage(dir, originalName, src)
	if err != nil {
		if errors.Is(err, ErrUnsupportedImage) || errors.Is(err, ErrImageTooLarge) {
			r.AddError("filename", err.Error())
			return nil, validationError(r)
		}
		return nil, err
	}
	image.Filename = filename

	if err := r.Save(ctx); err != nil {
		if rmErr := s.files.RemoveImage(dir, filename); rmErr != nil {
			s.logger.Warn("Не удалось удалить файл после ошибки сохранения",
				slog.String("file", filename),
				slog.String("error", rmErr.Error()),
			)
		}
		return nil, mapRecordError(err)
	}

	s.logger.Info("Изображение загружено",
		slog.Int64("image_id", image.ImageID),
		slog.Int64("gallery_id", image.GalleryID),
		slog.Int64("user_id", subj.UserID),
	)
	return image, nil
}

// DeleteImage удаляет изображение. Нужны deleteAllImages или deleteOwnImages
// для собственного изображения.
func (s *GalleryService) DeleteImage(ctx context.Context, subj rbac.Subject, id int64) error {
	db, err := openDB(ctx, s.db)
	if err != nil {
		return err
	}

	images := record.New(db, &model.GalleryImage{})
	row, err := images.FindByPK(ctx, id)
	if err != nil {
		return mapRecordError(err)
	}
	image := &model.GalleryImage{}
	record.New(db, image).SetValues(row)

	if err := authorizeAny(ctx, s.authz, subj, image,
		rbac.DeleteAllImages, rbac.DeleteOwnImages); err != nil {
		return err
	}

	if err := images.Delete(ctx, id); err != nil {
		return mapRecordError(err)
	}

	gallery, err := record.New(db, &model.Gallery{}).FindByPK(ctx, image.GalleryID)
	if err != nil {
		s.logger.Warn("Галерея изображения не найдена, файл не удалён",
			slog.Int64("image_id", id),
			slog.String("error", err.Error()),
		)
		return nil
	}
	if err := s.files.RemoveImage(gallery.String("filepath"), image.Filename); err != nil {
		s.logger.Warn("Не удалось удалить файл изображения",
			slog.Int64("image_id", id),
			slog.String("error", err.Error()),
		)
	}
	return nil
}
