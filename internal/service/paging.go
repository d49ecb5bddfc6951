package service

import (
	"math"

	"github.com/bigkaa/goartstore/folio/internal/record"
)

// ListParams — параметры списка из запроса: сортировка и страница (с нуля).
type ListParams struct {
	Order string
	Dir   string
	Page  int
	Limit int
}

// maxPageSize — верхняя граница limit из запроса.
const maxPageSize = 100

// Page — страница строк и общее количество.
type Page struct {
	Items []record.Row `json:"items"`
	Total int          `json:"total"`
	Page  int          `json:"page"`
	Limit int          `json:"limit"`
}

// options строит параметры выборки. Пустая сортировка заменяется
// сортировкой по умолчанию, лимит ограничен maxLimit.
// Номер страницы ограничен так, чтобы смещение не переполнялось.
func (p ListParams) options(defaultOrder, defaultDir string, pageSize, maxLimit int) record.Options {
	order, dir := p.Order, p.Dir
	if order == "" {
		order, dir = defaultOrder, defaultDir
	}

	limit := p.Limit
	if limit <= 0 {
		limit = pageSize
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	page := p.Page
	if page < 0 {
		page = 0
	}
	if limit > 0 && page > math.MaxInt/limit {
		page = math.MaxInt / limit
	}

	return record.Options{
		OrderBy: record.OrderBy(order, dir),
		Limit:   limit,
		Offset:  page * limit,
	}
}

// newPage собирает Page по строкам и параметрам выборки.
func newPage(rows []record.Row, total int, opts record.Options) *Page {
	page := 0
	if opts.Limit > 0 {
		page = opts.Offset / opts.Limit
	}
	return &Page{Items: rows, Total: total, Page: page, Limit: opts.Limit}
}
