package model

import "github.com/bigkaa/goartstore/folio/internal/record"

// Таблицы RBAC. Связи permissions, roles и rules задаются в relations.go.
var (
	rbacRoleSchema = &record.Schema{
		Table:      "rbac_roles",
		PrimaryKey: "role_id",
		Fields: []record.Field{
			{Name: "role_id"},
			{Name: "role_name", Persist: true, Rules: []record.Rule{record.Required{}, record.Unique{}}},
		},
	}

	rbacPermissionSchema = &record.Schema{
		Table:      "rbac_permissions",
		PrimaryKey: "permission_id",
		Fields: []record.Field{
			{Name: "permission_id"},
			{Name: "permission_name", Persist: true, Rules: []record.Rule{record.Required{}, record.Unique{}}},
			{Name: "permission_description", Persist: true},
		},
	}

	rbacRuleSchema = &record.Schema{
		Table:      "rbac_rules",
		PrimaryKey: "rule_id",
		Fields: []record.Field{
			{Name: "rule_id"},
			{Name: "rule_name", Persist: true, Rules: []record.Rule{record.Required{}, record.Unique{}}},
		},
	}

	rbacRolePermissionSchema = &record.Schema{
		Table:      "rbac_roles_permissions",
		PrimaryKey: "rp_id",
		Fields: []record.Field{
			{Name: "rp_id"},
			{Name: "role_id", Persist: true, Rules: []record.Rule{record.Required{}}},
			{Name: "permission_id", Persist: true, Rules: []record.Rule{record.Required{}}},
		},
	}

	rbacPermissionRuleSchema = &record.Schema{
		Table:      "rbac_permissions_rules",
		PrimaryKey: "pr_id",
		Fields: []record.Field{
			{Name: "pr_id"},
			{Name: "permission_id", Persist: true, Rules: []record.Rule{record.Required{}}},
			{Name: "rule_id", Persist: true, Rules: []record.Rule{record.Required{}}},
		},
	}
)

// RbacRole — роль пользователя.
type RbacRole struct {
	RoleID int64
	Name   string
}

func (r *RbacRole) Schema() *record.Schema { return rbacRoleSchema }

func (r *RbacRole) Get(field string) (any, bool) {
	switch field {
	case "role_id":
		return record.NullID(r.RoleID), true
	case "role_name":
		return r.Name, true
	}
	return nil, false
}

func (r *RbacRole) Set(field string, value any) bool {
	switch field {
	case "role_id":
		r.RoleID, _ = record.AsInt64(value)
	case "role_name":
		r.Name = record.AsString(value)
	default:
		return false
	}
	return true
}

// RbacPermission — именованное разрешение, например deleteAllArticles.
type RbacPermission struct {
	PermissionID int64
	Name         string
	Description  string
}

func (p *RbacPermission) Schema() *record.Schema { return rbacPermissionSchema }

func (p *RbacPermission) Get(field string) (any, bool) {
	switch field {
	case "permission_id":
		return record.NullID(p.PermissionID), true
	case "permission_name":
		return p.Name, true
	case "permission_description":
		return p.Description, true
	}
	return nil, false
}

func (p *RbacPermission) Set(field string, value any) bool {
	switch field {
	case "permission_id":
		p.PermissionID, _ = record.AsInt64(value)
	case "permission_name":
		p.Name = record.AsString(value)
	case "permission_description":
		p.Description = record.AsString(value)
	default:
		return false
	}
	return true
}

// RbacRule — дополнительное условие разрешения, например isOwner.
type RbacRule struct {
	RuleID int64
	Name   string
}

func (r *RbacRule) Schema() *record.Schema { return rbacRuleSchema }

func (r *RbacRule) Get(field string) (any, bool) {
	switch field {
	case "rule_id":
		return record.NullID(r.RuleID), true
	case "rule_name":
		return r.Name, true
	}
	return nil, false
}

func (r *RbacRule) Set(field string, value any) bool {
	switch field {
	case "rule_id":
		r.RuleID, _ = record.AsInt64(value)
	case "rule_name":
		r.Name = record.AsString(value)
	default:
		return false
	}
	return true
}

// RbacRolePermission — строка связи роли и разрешения.
type RbacRolePermission struct {
	ID           int64
	RoleID       int64
	PermissionID int64
}

func (rp *RbacRolePermission) Schema() *record.Schema { return rbacRolePermissionSchema }

func (rp *RbacRolePermission) Get(field string) (any, bool) {
	switch field {
	case "rp_id":
		return record.NullID(rp.ID), true
	case "role_id":
		return record.NullID(rp.RoleID), true
	case "permission_id":
		return record.NullID(rp.PermissionID), true
	}
	return nil, false
}

func (rp *RbacRolePermission) Set(field string, value any) bool {
	switch field {
	case "rp_id":
		rp.ID, _ = record.AsInt64(value)
	case "role_id":
		rp.RoleID, _ = record.AsInt64(value)
	case "permission_id":
		rp.PermissionID, _ = record.AsInt64(value)
	default:
		return false
	}
	return true
}

// RbacPermissionRule — строка связи разрешения и правила.
type RbacPermissionRule struct {
	ID           int64
	PermissionID int64
	RuleID       int64
}

func (pr *RbacPermissionRule) Schema() *record.Schema { return rbacPermissionRuleSchema }

func (pr *RbacPermissionRule) Get(field string) (any, bool) {
	switch field {
	case "pr_id":
		return record.NullID(pr.ID), true
	case "permission_id":
		return record.NullID(pr.PermissionID), true
	case "rule_id":
		return record.NullID(pr.RuleID), true
	}
	return nil, false
}

func (pr *RbacPermissionRule) Set(field string, value any) bool {
	switch field {
	case "pr_id":
		pr.ID, _ = record.AsInt64(value)
	case "permission_id":
		pr.PermissionID, _ = record.AsInt64(value)
	case "rule_id":
		pr.RuleID, _ = record.AsInt64(value)
	default:
		return false
	}
	return true
}
