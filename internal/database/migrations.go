package database

import (
	"fmt"

	"gorm.io/gorm"
)

type index struct {
	table   string
	name    string
	columns string
}

// indexes that gorm tags cannot express
var indexes = []index{
	// progress and auto-completion scan tasks per project by status
	{"tasks", "idx_tasks_project_status", "project_id, status"},
	// project listing looks memberships up by user
	{"project_members", "idx_project_members_user_id", "user_id"},
	{"logs", "idx_logs_resource", "resource_type, resource_id"},
}

// AddIndexes creates the composite indexes when they are missing.
func AddIndexes(db *gorm.DB) error {
	m := db.Migrator()
	for _, idx := range indexes {
		if m.HasIndex(idx.table, idx.name) {
			continue
		}

		sql := fmt.Sprintf("CREATE INDEX %s ON %s (%s)", idx.name, idx.table, idx.columns)
		if err := db.Exec(sql).Error; err != nil {
			return fmt.Errorf("failed to create index %s: %w", idx.name, err)
		}
	}

	return nil
}
