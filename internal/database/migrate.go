package database

import (
	"fmt"
	"log/slog"

	"github.com/pageza/kitchen-buddy/backend/internal/model"
	"gorm.io/gorm"
)

// Models lists every table owned by the application, parents first
func Models() []interface{} {
	return []interface{}{
		&model.Ingredient{},
		&model.Recipe{},
		&model.RecipeIngredient{},
	}
}

// Migrate brings the schema up to date. On PostgreSQL the pgvector
// extension is installed first so the embedding column can be created.
func Migrate(db *gorm.DB) error {
	if IsPostgres(db) {
		if err := db.Exec("CREATE EXTENSION IF NOT EXISTS vector").Error; err != nil {
			return fmt.Errorf("failed to install pgvector extension: %w", err)
		}
	}

	if err := db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}

	slog.Info("database schema migrated", "dialect", db.Dialector.Name())
	return nil
}
