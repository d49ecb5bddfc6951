// Пакет rbac — проверка разрешений пользователя по таблицам rbac_*.
// Роль даёт набор разрешений, разрешение может требовать правил
// (например, isOwner). Разрешение выдаётся, только если выполнены все его правила.
package rbac

import (
	"context"
	"log/slog"

	"github.com/bigkaa/goartstore/folio/internal/record"
)

// Разрешения из начальных данных.
const (
	ManageAllArticles = "manageAllArticles"
	ManageOwnArticles = "manageOwnArticles"
	WriteArticles     = "writeArticles"
	UpdateAllArticles = "updateAllArticles"
	UpdateOwnArticles = "updateOwnArticles"
	DeleteAllArticles = "deleteAllArticles"
	DeleteOwnArticles = "deleteOwnArticles"
	ManageGalleries   = "manageGalleries"
	AddGalleries      = "addGalleries"
	DeleteGalleries   = "deleteGalleries"
	ManageAllImages   = "manageAllImages"
	ManageOwnImages   = "manageOwnImages"
	AddImages         = "addImages"
	DeleteAllImages   = "deleteAllImages"
	DeleteOwnImages   = "deleteOwnImages"
)

// RuleIsOwner — правило «цель принадлежит пользователю».
const RuleIsOwner = "isOwner"

// Subject — пользователь, для которого проверяется разрешение.
// Нулевой UserID — гость.
type Subject struct {
	UserID int64
	RoleID int64
}

// IsGuest сообщает, что пользователь не вошёл.
func (s Subject) IsGuest() bool { return s.UserID == 0 }

// Permission — разрешение роли.
type Permission struct {
	ID   int64
	Name string
}

// Source загружает разрешения ролей и правила разрешений.
type Source interface {
	RolePermissions(ctx context.Context, roleID int64) ([]Permission, error)
	PermissionRules(ctx context.Context, permissionID int64) ([]string, error)
}

// RuleFunc проверяет правило для пользователя и цели. target может быть nil.
type RuleFunc func(subj Subject, target record.Model) bool

// Checker — проверка разрешений.
type Checker struct {
	source Source
	rules  map[string]RuleFunc
	logger *slog.Logger
}

// NewChecker создаёт Checker со встроенным правилом isOwner.
func NewChecker(source Source, logger *slog.Logger) *Checker {
	return &Checker{
		source: source,
		rules:  map[string]RuleFunc{RuleIsOwner: IsOwner},
		logger: logger.With(slog.String("component", "rbac")),
	}
}

// HasPermission проверяет, что роль пользователя содержит разрешение
// и все правила разрешения выполнены для target.
// Гость не имеет разрешений. Неизвестное правило запрещает доступ.
func (c *Checker) HasPermission(ctx context.Context, subj Subject, permission string, target record.Model) (bool, error) {
	if subj.IsGuest() {
		return false, nil
	}

	perms, err := c.source.RolePermissions(ctx, subj.RoleID)
	if err != nil {
		return false, err
	}

	var permissionID int64
	for _, p := range perms {
		if p.Name == permission {
			permissionID = p.ID
			break
		}
	}
	if permissionID == 0 {
		return false, nil
	}

	rules, err := c.source.PermissionRules(ctx, permissionID)
	if err != nil {
		return false, err
	}
	for _, name := range rules {
		rule, ok := c.rules[name]
		if !ok {
			c.logger.Warn("Неизвестное правило RBAC",
				slog.String("rule", name),
				slog.String("permission", permission),
			)
			return false, nil
		}
		if !rule(subj, target) {
			return false, nil
		}
	}
	return true, nil
}

// IsOwner выполняется, если у target есть поле user_id, равное
// идентификатору пользователя.
func IsOwner(subj Subject, target record.Model) bool {
	if target == nil || subj.IsGuest() {
		return false
	}
	v, ok := target.Get("user_id")
	if !ok {
		return false
	}
	owner, ok := record.AsInt64(v)
	return ok && owner == subj.UserID
}
