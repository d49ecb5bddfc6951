package rbac

import (
	"context"
	"fmt"

	"github.com/bigkaa/goartstore/folio/internal/domain/model"
	"github.com/bigkaa/goartstore/folio/internal/record"
)

// DBProvider выдаёт соединение для записей.
type DBProvider interface {
	DB(ctx context.Context) (*record.DB, error)
}

// DBSource читает разрешения из таблиц rbac_* через связи ManyToMany.
type DBSource struct {
	db DBProvider
}

// NewDBSource создаёт источник разрешений поверх базы данных.
func NewDBSource(db DBProvider) *DBSource {
	return &DBSource{db: db}
}

// RolePermissions возвращает разрешения роли (связь permissions).
func (s *DBSource) RolePermissions(ctx context.Context, roleID int64) ([]Permission, error) {
	db, err := s.db.DB(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := record.New(db, &model.RbacRole{}).FindAll(ctx,
		record.Where("role_id", roleID), record.Options{Join: "permissions"})
	if err != nil {
		return nil, fmt.Errorf("разрешения роли %d: %w", roleID, err)
	}

	perms := make([]Permission, 0, len(rows))
	for _, row := range rows {
		perms = append(perms, Permission{
			ID:   row.Int64("permission_id"),
			Name: row.String("permission_name"),
		})
	}
	return perms, nil
}

// PermissionRules возвращает имена правил разрешения (связь rules).
func (s *DBSource) PermissionRules(ctx context.Context, permissionID int64) ([]string, error) {
	db, err := s.db.DB(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := record.New(db, &model.RbacPermission{}).FindAll(ctx,
		record.Where("permission_id", permissionID), record.Options{Join: "rules"})
	if err != nil {
		return nil, fmt.Errorf("правила разрешения %d: %w", permissionID, err)
	}

	rules := make([]string, 0, len(rows))
	for _, row := range rows {
		rules = append(rules, row.String("rule_name"))
	}
	return rules, nil
}
