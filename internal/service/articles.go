// articles.go — сервис статей: списки, просмотр, написание, правка, удаление.
package service

import (
	"context"
	"log/slog"

	"github.com/bigkaa/goartstore/folio/internal/domain/model"
	"github.com/bigkaa/goartstore/folio/internal/domain/rbac"
	"github.com/bigkaa/goartstore/folio/internal/record"
)

// ArticleService — сервис статей.
type ArticleService struct {
	db       DBProvider
	authz    Authorizer
	pageSize int
	logger   *slog.Logger
}

// NewArticleService создаёт сервис статей.
func NewArticleService(db DBProvider, authz Authorizer, pageSize int, logger *slog.Logger) *ArticleService {
	return &ArticleService{
		db:       db,
		authz:    authz,
		pageSize: pageSize,
		logger:   logger.With(slog.String("component", "article_service")),
	}
}

// List возвращает страницу всех статей, по умолчанию новые первыми.
// У каждой строки есть author.
func (s *ArticleService) List(ctx context.Context, params ListParams) (*Page, error) {
	return s.list(ctx, record.Conditions{}, params)
}

// ListByUser возвращает статьи пользователя.
func (s *ArticleService) ListByUser(ctx context.Context, userID int64, params ListParams) (*Page, error) {
	return s.list(ctx, record.Where("user_id", userID), params)
}

func (s *ArticleService) list(ctx context.Context, conds record.Conditions, params ListParams) (*Page, error) {
	db, err := openDB(ctx, s.db)
	if err != nil {
		return nil, err
	}

	opts := params.options("created", "DESC", s.pageSize, maxPageSize)
	r := record.New(db, &model.Article{})
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

// Get возвращает статью с автором.
func (s *ArticleService) Get(ctx context.Context, id int64) (record.Row, error) {
	db, err := openDB(ctx, s.db)
	if err != nil {
		return nil, err
	}
	row, err := record.New(db, &model.Article{}).FindByPK(ctx, id)
	return row, mapRecordError(err)
}

// Write сохраняет новую статью от имени пользователя.
// Автор берётся из subj, а не из values.
func (s *ArticleService) Write(ctx context.Context, subj rbac.Subject, values map[string]any) (*model.Article, error) {
	db, err := openDB(ctx, s.db)
	if err != nil {
		return nil, err
	}

	article := &model.Article{}
	r := record.New(db, article)
	r.SetValues(values)
	article.ArticleID = 0
	article.UserID = subj.UserID

	if !r.Validate(ctx) {
		return nil, validationError(r)
	}
	if err := r.Save(ctx); err != nil {
		s.logger.Error("Ошибка сохранения статьи",
			slog.Int64("user_id", subj.UserID),
			slog.String("error", err.Error()),
		)
		return nil, mapRecordError(err)
	}

	s.logger.Info("Статья создана",
		slog.Int64("article_id", article.ArticleID),
		slog.Int64("user_id", subj.UserID),
	)
	return article, nil
}

// Edit изменяет статью. Нужны updateAllArticles или updateOwnArticles
// для собственной статьи. Автор не меняется.
func (s *ArticleService) Edit(ctx context.Context, subj rbac.Subject, id int64, values map[string]any) (*model.Article, error) {
	db, err := openDB(ctx, s.db)
	if err != nil {
		return nil, err
	}

	article, err := s.load(ctx, db, id)
	if err != nil {
		return nil, err
	}
	if err := authorizeAny(ctx, s.authz, subj, article,
		rbac.UpdateAllArticles, rbac.UpdateOwnArticles); err != nil {
		return nil, err
	}

	r := record.New(db, article)
	owner := article.UserID
	r.SetValues(values)
	article.ArticleID, article.UserID = id, owner

	if !r.Validate(ctx) {
		return nil, validationError(r)
	}
	if err := r.Save(ctx); err != nil {
		return nil, mapRecordError(err)
	}

	s.logger.Info("Статья изменена",
		slog.Int64("article_id", id),
		slog.Int64("user_id", subj.UserID),
	)
	return article, nil
}

// Delete удаляет статью. Нужны deleteAllArticles или deleteOwnArticles
// для собственной статьи.
func (s *ArticleService) Delete(ctx context.Context, subj rbac.Subject, id int64) error {
	db, err := openDB(ctx, s.db)
	if err != nil {
		return err
	}

	article, err := s.load(ctx, db, id)
	if err != nil {
		return err
	}
	if err := authorizeAny(ctx, s.authz, subj, article,
		rbac.DeleteAllArticles, rbac.DeleteOwnArticles); err != nil {
		return err
	}

	if err := record.New(db, article).Delete(ctx, id); err != nil {
		return mapRecordError(err)
	}

	s.logger.Info("Статья удалена",
		slog.Int64("article_id", id),
		slog.Int64("user_id", subj.UserID),
	)
	return nil
}

// load читает статью в модель.
func (s *ArticleService) load(ctx context.Context, db *record.DB, id int64) (*model.Article, error) {
	row, err := record.New(db, &model.Article{}).FindByPK(ctx, id)
	if err != nil {
		return nil, mapRecordError(err)
	}
	article := &model.Article{}
	record.New(db, article).SetValues(row)
	return article, nil
}
