package model

import (
	"context"

	"github.com/bigkaa/goartstore/folio/internal/record"
)

// DirProvisioner создаёт и удаляет каталоги галерей.
type DirProvisioner interface {
	// Provision создаёт новый каталог и возвращает его имя относительно корня галерей.
	Provision(ctx context.Context) (string, error)
	// Remove удаляет каталог вместе с содержимым.
	Remove(ctx context.Context, dir string) error
}

var gallerySchema = &record.Schema{
	Table:      "galleries",
	PrimaryKey: "gallery_id",
	Fields: []record.Field{
		{Name: "gallery_id"},
		{Name: "name", Persist: true, Rules: []record.Rule{
			record.Required{},
			record.Length{Max: record.Int(255)},
		}},
		{Name: "filepath", Label: "Directory", Persist: true},
		{Name: "parent_id", Label: "Parent gallery", Persist: true},
		{Name: "public", Persist: true},
	},
}

// Gallery — галерея изображений. Галереи образуют дерево через parent_id.
type Gallery struct {
	GalleryID int64
	Name      string
	// Filepath — каталог галереи относительно CMS_GALLERY_ROOT
	Filepath string
	// ParentID — родительская галерея, nil для корневой
	ParentID *int64
	Public   bool

	dirs DirProvisioner
}

// NewGallery создаёт галерею, которая при создании получит каталог от dirs.
func NewGallery(dirs DirProvisioner) *Gallery {
	return &Gallery{dirs: dirs}
}

func (g *Gallery) Schema() *record.Schema { return gallerySchema }

func (g *Gallery) Get(field string) (any, bool) {
	switch field {
	case "gallery_id":
		return record.NullID(g.GalleryID), true
	case "name":
		return g.Name, true
	case "filepath":
		return g.Filepath, true
	case "parent_id":
		return record.NullInt64(g.ParentID), true
	case "public":
		return g.Public, true
	}
	return nil, false
}

func (g *Gallery) Set(field string, value any) bool {
	switch field {
	case "gallery_id":
		g.GalleryID, _ = record.AsInt64(value)
	case "name":
		g.Name = record.AsString(value)
	case "filepath":
		g.Filepath = record.AsString(value)
	case "parent_id":
		g.ParentID = record.AsNullInt64(value)
	case "public":
		g.Public = record.AsBool(value)
	default:
		return false
	}
	return true
}

// BeforeSave сохраняет пустого родителя как NULL.
func (g *Gallery) BeforeSave(_ context.Context, _ record.Action) error {
	if g.ParentID != nil && *g.ParentID == 0 {
		g.ParentID = nil
	}
	return nil
}

// AfterSave при создании выделяет галерее каталог и записывает его в filepath.
func (g *Gallery) AfterSave(ctx context.Context, db *record.DB, action record.Action) error {
	if action != record.ActionCreate || g.dirs == nil {
		return nil
	}

	dir, err := g.dirs.Provision(ctx)
	if err != nil {
		return err
	}
	g.Filepath = dir
	if err := record.New(db, g).Update(ctx); err != nil {
		_ = g.dirs.Remove(ctx, dir)
		return err
	}
	return nil
}
