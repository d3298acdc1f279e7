package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"github.com/mri-Qbox-Brasil/mri-qbot/logger"
)

const dbDriver = "sqlite3"

// DB is the global database connection pool.
var DB *sql.DB

// InitDB opens the SQLite database at path and creates tables if they don't
// exist. The DSN requests immediate transactions so that concurrent
// read-modify-write blocks (send-lock acquisition) serialize on the write
// lock instead of failing mid-transaction, and a busy timeout so the losers
// wait rather than error out.
func InitDB(path string) error {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating database directory: %w", err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_txlock=immediate&_busy_timeout=5000", path)
	var err error
	DB, err = sql.Open(dbDriver, dsn)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}

	if err := createTables(); err != nil {
		return err
	}

	logger.Info().Str("path", path).Msg("database initialized")
	return nil
}
