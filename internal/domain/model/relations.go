package model

import "github.com/bigkaa/goartstore/folio/internal/record"

// Связи ссылаются на схемы друг друга, поэтому задаются здесь,
// а не в литералах схем.
func init() {
	userSchema.Relations = map[string]record.Relation{
		"role":     record.BelongsTo{To: rbacRoleSchema, ForeignKey: "role_id"},
		"articles": record.HasMany{To: articleSchema, ForeignKey: "user_id"},
		"images":   record.HasMany{To: galleryImageSchema, ForeignKey: "user_id"},
	}
	articleSchema.Relations = map[string]record.Relation{
		"author": record.BelongsTo{To: userSchema, ForeignKey: "user_id"},
	}
	gallerySchema.Relations = map[string]record.Relation{
		"parent":   record.BelongsTo{To: gallerySchema, ForeignKey: "parent_id"},
		"children": record.HasMany{To: gallerySchema, ForeignKey: "parent_id"},
		"images":   record.HasMany{To: galleryImageSchema, ForeignKey: "gallery_id"},
	}
	galleryImageSchema.Relations = map[string]record.Relation{
		"gallery": record.BelongsTo{To: gallerySchema, ForeignKey: "gallery_id"},
		"owner":   record.BelongsTo{To: userSchema, ForeignKey: "user_id"},
	}

	rbacRoleSchema.Relations = map[string]record.Relation{
		"permissions": record.ManyToMany{
			To:        rbacPermissionSchema,
			Junction:  rbacRolePermissionSchema,
			OwnerKey:  "role_id",
			TargetKey: "permission_id",
		},
	}
	rbacPermissionSchema.Relations = map[string]record.Relation{
		"roles": record.ManyToMany{
			To:        rbacRoleSchema,
			Junction:  rbacRolePermissionSchema,
			OwnerKey:  "permission_id",
			TargetKey: "role_id",
		},
		"rules": record.ManyToMany{
			To:        rbacRuleSchema,
			Junction:  rbacPermissionRuleSchema,
			OwnerKey:  "permission_id",
			TargetKey: "rule_id",
		},
	}
	rbacRuleSchema.Relations = map[string]record.Relation{
		"permissions": record.ManyToMany{
			To:        rbacPermissionSchema,
			Junction:  rbacPermissionRuleSchema,
			OwnerKey:  "rule_id",
			TargetKey: "permission_id",
		},
	}
}
