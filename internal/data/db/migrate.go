package db

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/adlnet/edlm-portal-backend/internal/domain"
)

func AutoMigrateAll(db *gorm.DB) error {
	if err := db.AutoMigrate(domain.Models()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	// one association row per goal and catalog item
	stmts := []string{
		`CREATE UNIQUE INDEX IF NOT EXISTS uq_goal_ksa ON learning_plan_goal_ksa (plan_goal_id, eccr_ksa)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS uq_goal_course ON learning_plan_goal_course (plan_goal_id, xds_course)`,
	}
	for _, stmt := range stmts {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("create index: %w", err)
		}
	}
	return nil
}
