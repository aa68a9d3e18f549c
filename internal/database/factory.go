package database

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/hongsenwang01/knowledge-base/internal/config"
)

// DatabaseFileName is the name of the SQLite file inside the data directory.
const DatabaseFileName = "kb.db"

// NewDatabaseFromConfig opens the database selected by cfg.Type. When migrate
// is true pending migrations are applied; otherwise the schema version must
// already match.
func NewDatabaseFromConfig(cfg config.DatabaseConfig, migrate bool) (*SQLiteDatabase, error) {
	var path string
	switch cfg.Type {
	case "sqlite":
		if cfg.DataDir == "" {
			return nil, fmt.Errorf("data_dir required for sqlite database")
		}
		if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
		path = filepath.Join(cfg.DataDir, DatabaseFileName)
	case "memory":
		// An in-memory database starts empty, so it is always migrated.
		path, migrate = ":memory:", true
	default:
		return nil, fmt.Errorf("unknown database type: %s", cfg.Type)
	}

	db, err := NewSQLiteDatabase(path)
	if err != nil {
		return nil, err
	}

	if migrate {
		err = db.Migrate()
	} else {
		err = db.CheckMigrations()
	}
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("preparing schema: %w", err)
	}
	return db, nil
}
