package model

import (
	"context"
	"errors"
	"path"
	"time"

	"github.com/bigkaa/goartstore/folio/internal/record"
)

var galleryImageSchema = &record.Schema{
	Table:      "galleryimages",
	PrimaryKey: "image_id",
	Fields: []record.Field{
		{Name: "image_id"},
		{Name: "name", Persist: true, Rules: []record.Rule{
			record.Required{},
			record.Length{Max: record.Int(255)},
		}},
		{Name: "filename", Label: "File", Persist: true, Rules: []record.Rule{record.Required{}}},
		{Name: "gallery_id", Label: "Gallery", Persist: true, Rules: []record.Rule{record.Required{}}},
		{Name: "user_id", Label: "Owner", Persist: true, Rules: []record.Rule{
			record.Required{},
			record.On{Action: record.ActionCreate},
		}},
		{Name: "created", Persist: true, Rules: []record.Rule{record.On{Action: record.ActionCreate}}},
	},
}

// GalleryImage — изображение в галерее. Файл лежит в каталоге галереи.
type GalleryImage struct {
	ImageID int64
	Name    string
	// Filename — имя файла внутри каталога галереи
	Filename  string
	GalleryID int64
	UserID    int64
	Created   time.Time
}

func (i *GalleryImage) Schema() *record.Schema { return galleryImageSchema }

func (i *GalleryImage) Get(field string) (any, bool) {
	switch field {
	case "image_id":
		return record.NullID(i.ImageID), true
	case "name":
		return i.Name, true
	case "filename":
		return i.Filename, true
	case "gallery_id":
		return record.NullID(i.GalleryID), true
	case "user_id":
		return record.NullID(i.UserID), true
	case "created":
		return record.NullTime(i.Created), true
	}
	return nil, false
}

func (i *GalleryImage) Set(field string, value any) bool {
	switch field {
	case "image_id":
		i.ImageID, _ = record.AsInt64(value)
	case "name":
		i.Name = record.AsString(value)
	case "filename":
		i.Filename = record.AsString(value)
	case "gallery_id":
		i.GalleryID, _ = record.AsInt64(value)
	case "user_id":
		i.UserID, _ = record.AsInt64(value)
	case "created":
		i.Created, _ = record.AsTime(value)
	default:
		return false
	}
	return true
}

func (i *GalleryImage) BeforeSave(_ context.Context, action record.Action) error {
	if action == record.ActionCreate {
		i.Created = now()
	}
	return nil
}

// AfterFind добавляет в строку имя галереи (galleryName) и путь к файлу
// относительно корня галерей (fullPath).
func (i *GalleryImage) AfterFind(ctx context.Context, db *record.DB, row record.Row) error {
	row["galleryName"] = ""
	row["fullPath"] = ""

	gallery, err := record.New(db, &Gallery{}).FindByPK(ctx, row.Int64("gallery_id"))
	if errors.Is(err, record.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	row["galleryName"] = gallery.String("name")
	row["fullPath"] = path.Join(gallery.String("filepath"), row.String("filename"))
	return nil
}
