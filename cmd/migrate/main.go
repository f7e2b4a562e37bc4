package main

import (
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/pageza/kitchen-buddy/backend/config"
	"github.com/pageza/kitchen-buddy/backend/internal/database"
	"github.com/pageza/kitchen-buddy/backend/internal/logging"
	"github.com/pageza/kitchen-buddy/backend/internal/model"
)

func main() {
	reset := flag.Bool("reset", false, "Drop all tables before migrating")
	flag.Parse()

	if err := run(*reset); err != nil {
		slog.Error("migration failed", "error", err)
		os.Exit(1)
	}
}

func run(reset bool) (err error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	logging.NewLogger(cfg.LogLevel, cfg.LogFormat)

	if reset && config.IsProduction() {
		return errors.New("refusing to drop tables in production")
	}

	db, err := database.Open(cfg)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer func() {
		err = errors.Join(err, database.Close(db))
	}()

	if reset {
		// link rows first
		if err := db.Migrator().DropTable(&model.RecipeIngredient{}, &model.Recipe{}, &model.Ingredient{}); err != nil {
			return fmt.Errorf("failed to drop tables: %w", err)
		}
		slog.Info("dropped tables")
	}

	if err := database.Migrate(db); err != nil {
		return err
	}
	slog.Info("migration complete", "driver", cfg.DBDriver)
	return nil
}
