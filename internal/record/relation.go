package record

import "fmt"

// JoinClause — фрагменты SELECT для выборки со связью.
type JoinClause struct {
	Columns string
	Clause  string
}

// Relation — связь схемы с другой таблицей.
type Relation interface {
	// Target возвращает схему связанной таблицы.
	Target() *Schema
	// Join возвращает фрагменты JOIN для владельца связи.
	Join(owner *Schema) (JoinClause, error)
}

// BelongsTo — запись ссылается на Target через свой столбец ForeignKey.
type BelongsTo struct {
	To         *Schema
	ForeignKey string
}

// HasOne — Target ссылается на запись через столбец ForeignKey.
type HasOne struct {
	To         *Schema
	ForeignKey string
}

// HasMany — несколько строк Target ссылаются на запись через ForeignKey.
type HasMany struct {
	To         *Schema
	ForeignKey string
}

// ManyToMany — связь через промежуточную таблицу Junction.
// OwnerKey — общий столбец владельца и Junction, TargetKey — Junction и To.
type ManyToMany struct {
	To        *Schema
	Junction  *Schema
	OwnerKey  string
	TargetKey string
}

func (r BelongsTo) Target() *Schema  { return r.To }
func (r HasOne) Target() *Schema     { return r.To }
func (r HasMany) Target() *Schema    { return r.To }
func (r ManyToMany) Target() *Schema { return r.To }

// Join для BelongsTo не поддерживается.
func (BelongsTo) Join(*Schema) (JoinClause, error) { return JoinClause{}, ErrJoinUnsupported }

// Join для HasOne не поддерживается.
func (HasOne) Join(*Schema) (JoinClause, error) { return JoinClause{}, ErrJoinUnsupported }

// Join для HasMany не поддерживается.
func (HasMany) Join(*Schema) (JoinClause, error) { return JoinClause{}, ErrJoinUnsupported }

// Join строит два INNER JOIN через промежуточную таблицу.
func (r ManyToMany) Join(owner *Schema) (JoinClause, error) {
	for _, name := range []string{r.OwnerKey, r.TargetKey} {
		if !identifierRe.MatchString(name) {
			return JoinClause{}, fmt.Errorf("%w: %q", ErrInvalidColumn, name)
		}
	}
	j, t := r.Junction.Table, r.To.Table
	return JoinClause{
		Columns: owner.Table + ".*, " + t + ".*",
		Clause: fmt.Sprintf("INNER JOIN %s ON %s.%s = %s.%s INNER JOIN %s ON %s.%s = %s.%s",
			j, j, r.OwnerKey, owner.Table, r.OwnerKey,
			t, t, r.TargetKey, j, r.TargetKey),
	}, nil
}
