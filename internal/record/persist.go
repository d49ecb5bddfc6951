package record

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// Save сохраняет запись: INSERT при незаданном первичном ключе, иначе Update.
// После INSERT первичный ключ присваивается модели.
func (r *Record) Save(ctx context.Context) error {
	if r.IsUpdate() {
		return r.Update(ctx)
	}

	s := r.model.Schema()
	if err := r.beforeSave(ctx, ActionCreate); err != nil {
		return err
	}

	fields := r.effectiveFields()
	if len(fields) == 0 {
		return fmt.Errorf("%w: %s", ErrNoFields, s.Table)
	}

	b := newBuilder(r.db.dialect)
	phs := make([]string, 0, len(fields))
	for _, f := range fields {
		v, _ := r.model.Get(f)
		ph, err := b.bind(v)
		if err != nil {
			return fmt.Errorf("поле %s.%s: %w", s.Table, f, err)
		}
		phs = append(phs, ph)
	}

	stmt := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		s.Table, strings.Join(fields, ", "), strings.Join(phs, ", "))

	id, err := r.insert(ctx, s, stmt, b)
	if err != nil {
		return err
	}
	r.model.Set(s.PrimaryKey, id)

	return r.afterSave(ctx, ActionCreate)
}

func (r *Record) insert(ctx context.Context, s *Schema, stmt string, b *builder) (int64, error) {
	if r.db.dialect.Returning() {
		var id int64
		q := b.query(stmt + " RETURNING " + s.PrimaryKey)
		if err := r.db.queryRow(ctx, s.Table, "insert", q, &id); err != nil {
			return 0, mapWriteError("вставки в", s.Table, err)
		}
		return id, nil
	}

	res, err := r.db.exec(ctx, s.Table, "insert", b.query(stmt))
	if err != nil {
		return 0, mapWriteError("вставки в", s.Table, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("ошибка получения идентификатора %s: %w", s.Table, err)
	}
	return id, nil
}

// Update обновляет сохраняемые поля записи по первичному ключу.
func (r *Record) Update(ctx context.Context) error {
	if r.IsCreate() {
		return ErrNoPrimaryKey
	}

	s := r.model.Schema()
	if err := r.beforeSave(ctx, ActionUpdate); err != nil {
		return err
	}

	fields := r.effectiveFields()
	if len(fields) == 0 {
		return fmt.Errorf("%w: %s", ErrNoFields, s.Table)
	}

	b := newBuilder(r.db.dialect)
	sets := make([]string, 0, len(fields))
	for _, f := range fields {
		v, _ := r.model.Get(f)
		ph, err := b.bind(v)
		if err != nil {
			return fmt.Errorf("поле %s.%s: %w", s.Table, f, err)
		}
		sets = append(sets, f+" = "+ph)
	}
	pk, _ := r.model.Get(s.PrimaryKey)
	pkPh, err := b.bind(pk)
	if err != nil {
		return fmt.Errorf("первичный ключ %s: %w", s.Table, err)
	}

	stmt := fmt.Sprintf("UPDATE %s SET %s WHERE %s = %s",
		s.Table, strings.Join(sets, ", "), s.PrimaryKey, pkPh)

	if _, err := r.db.exec(ctx, s.Table, "update", b.query(stmt)); err != nil {
		return mapWriteError("обновления", s.Table, err)
	}

	return r.afterSave(ctx, ActionUpdate)
}

// Delete удаляет строку с первичным ключом id.
// Возвращает ErrNotFound, если строки нет.
func (r *Record) Delete(ctx context.Context, id any) error {
	s := r.model.Schema()
	b := newBuilder(r.db.dialect)
	ph, err := b.bind(id)
	if err != nil {
		return fmt.Errorf("первичный ключ %s: %w", s.Table, err)
	}

	stmt := fmt.Sprintf("DELETE FROM %s WHERE %s = %s", s.Table, s.PrimaryKey, ph)
	res, err := r.db.exec(ctx, s.Table, "delete", b.query(stmt))
	if err != nil {
		return fmt.Errorf("ошибка удаления из %s: %w", s.Table, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("ошибка удаления из %s: %w", s.Table, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Count возвращает количество строк, удовлетворяющих условиям.
func (r *Record) Count(ctx context.Context, conds Conditions) (int, error) {
	s := r.model.Schema()
	q, err := CountQuery(s, r.db.dialect, conds)
	if err != nil {
		return 0, err
	}

	var n int
	if err := r.db.queryRow(ctx, s.Table, "count", q, &n); err != nil {
		return 0, fmt.Errorf("ошибка подсчёта %s: %w", s.Table, err)
	}
	return n, nil
}

// FindOne возвращает первую строку по условиям. Лимит всегда 1.
// Возвращает ErrNotFound, если строк нет.
func (r *Record) FindOne(ctx context.Context, conds Conditions, opts Options) (Row, error) {
	opts.Limit = 1
	rows, err := r.FindAll(ctx, conds, opts)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrNotFound
	}
	return rows[0], nil
}

// FindByPK возвращает строку по первичному ключу.
func (r *Record) FindByPK(ctx context.Context, id any) (Row, error) {
	return r.FindOne(ctx, Where(r.model.Schema().PrimaryKey, id), Options{})
}

// FindAll возвращает все строки по условиям в порядке ORDER BY.
// Пустой результат — пустой срез, не nil.
func (r *Record) FindAll(ctx context.Context, conds Conditions, opts Options) ([]Row, error) {
	s := r.model.Schema()
	if h, ok := r.model.(BeforeFinder); ok {
		if err := h.BeforeFind(ctx); err != nil {
			return nil, err
		}
	}

	q, err := Select(s, r.db.dialect, conds, opts)
	if err != nil {
		return nil, err
	}

	rows, err := r.db.query(ctx, s.Table, "select", q)
	if err != nil {
		return nil, fmt.Errorf("ошибка выборки из %s: %w", s.Table, err)
	}
	defer rows.Close()

	result, err := scanRows(rows)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения строк %s: %w", s.Table, err)
	}

	if h, ok := r.model.(AfterFinder); ok {
		for _, row := range result {
			if err := h.AfterFind(ctx, r.db, row); err != nil {
				return nil, err
			}
		}
	}
	return result, nil
}

// effectiveFields — сохраняемые поля без исключённых правилами On.
func (r *Record) effectiveFields() []string {
	all := r.model.Schema().PersistedFields()
	fields := make([]string, 0, len(all))
	for _, f := range all {
		if !r.ignored[f] {
			fields = append(fields, f)
		}
	}
	return fields
}

func (r *Record) beforeSave(ctx context.Context, action Action) error {
	if h, ok := r.model.(BeforeSaver); ok {
		return h.BeforeSave(ctx, action)
	}
	return nil
}

func (r *Record) afterSave(ctx context.Context, action Action) error {
	if h, ok := r.model.(AfterSaver); ok {
		return h.AfterSave(ctx, r.db, action)
	}
	return nil
}

func scanRows(rows *sql.Rows) ([]Row, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	result := make([]Row, 0)
	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}

		row := make(Row, len(columns))
		for i, col := range columns {
			if b, ok := values[i].([]byte); ok {
				row[col] = string(b)
			} else {
				row[col] = values[i]
			}
		}
		result = append(result, row)
	}
	return result, rows.Err()
}

// mapWriteError превращает нарушение уникальности в ErrConflict.
func mapWriteError(op, table string, err error) error {
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: %s", ErrConflict, table)
	}
	return fmt.Errorf("ошибка %s %s: %w", op, table, err)
}

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
