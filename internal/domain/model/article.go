package model

import (
	"context"
	"errors"
	"time"

	"github.com/bigkaa/goartstore/folio/internal/record"
)

var articleSchema = &record.Schema{
	Table:      "articles",
	PrimaryKey: "article_id",
	Fields: []record.Field{
		{Name: "article_id"},
		{Name: "user_id", Label: "Author", Persist: true, Rules: []record.Rule{
			record.Required{},
			record.On{Action: record.ActionCreate},
		}},
		{Name: "caption", Persist: true, Rules: []record.Rule{
			record.Required{},
			record.Length{Max: record.Int(200)},
		}},
		{Name: "content", Persist: true, Rules: []record.Rule{record.Required{}}},
		{Name: "published", Persist: true},
		{Name: "created", Persist: true, Rules: []record.Rule{record.On{Action: record.ActionCreate}}},
		{Name: "updated", Persist: true, Rules: []record.Rule{record.On{Action: record.ActionUpdate}}},
	},
}

// Article — статья пользователя. Хранится в таблице articles.
type Article struct {
	ArticleID int64
	// UserID — автор, задаётся при создании
	UserID    int64
	Caption   string
	Content   string
	Published bool
	Created   time.Time
	Updated   time.Time
}

func (a *Article) Schema() *record.Schema { return articleSchema }

func (a *Article) Get(field string) (any, bool) {
	switch field {
	case "article_id":
		return record.NullID(a.ArticleID), true
	case "user_id":
		return record.NullID(a.UserID), true
	case "caption":
		return a.Caption, true
	case "content":
		return a.Content, true
	case "published":
		return a.Published, true
	case "created":
		return record.NullTime(a.Created), true
	case "updated":
		return record.NullTime(a.Updated), true
	}
	return nil, false
}

func (a *Article) Set(field string, value any) bool {
	switch field {
	case "article_id":
		a.ArticleID, _ = record.AsInt64(value)
	case "user_id":
		a.UserID, _ = record.AsInt64(value)
	case "caption":
		a.Caption = record.AsString(value)
	case "content":
		a.Content = record.AsString(value)
	case "published":
		a.Published = record.AsBool(value)
	case "created":
		a.Created, _ = record.AsTime(value)
	case "updated":
		a.Updated, _ = record.AsTime(value)
	default:
		return false
	}
	return true
}

// BeforeSave проставляет время создания или изменения.
func (a *Article) BeforeSave(_ context.Context, action record.Action) error {
	if action == record.ActionCreate {
		a.Created = now()
	} else {
		a.Updated = now()
	}
	return nil
}

// AfterFind добавляет в строку имя автора (author).
// Если автор удалён, author — пустая строка.
func (a *Article) AfterFind(ctx context.Context, db *record.DB, row record.Row) error {
	row["author"] = ""
	userID := row.Int64("user_id")
	if userID == 0 {
		return nil
	}

	author, err := record.New(db, &User{}).FindByPK(ctx, userID)
	if errors.Is(err, record.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	row["author"] = author.String("username")
	return nil
}
