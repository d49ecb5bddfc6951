package service

import (
	"context"
	"fmt"

	"github.com/bigkaa/goartstore/folio/internal/domain/rbac"
	"github.com/bigkaa/goartstore/folio/internal/record"
)

// DBProvider выдаёт соединение для записей (database.Provider).
type DBProvider interface {
	DB(ctx context.Context) (*record.DB, error)
}

// Authorizer проверяет разрешения (rbac.Checker).
type Authorizer interface {
	HasPermission(ctx context.Context, subj rbac.Subject, permission string, target record.Model) (bool, error)
}

// openDB получает соединение. Ошибка подключения оборачивает ErrUnavailable.
func openDB(ctx context.Context, p DBProvider) (*record.DB, error) {
	db, err := p.DB(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err) //nolint:errorlint // намеренный двойной wrap
	}
	return db, nil
}

// authorizeAny выдаёт доступ, если выполнено хотя бы одно из разрешений.
func authorizeAny(ctx context.Context, authz Authorizer, subj rbac.Subject, target record.Model, permissions ...string) error {
	for _, p := range permissions {
		ok, err := authz.HasPermission(ctx, subj, p, target)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
	}
	return ErrForbidden
}
