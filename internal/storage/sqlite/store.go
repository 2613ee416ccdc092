package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/julianstephens/growthtrack/internal/logger"
	"github.com/julianstephens/growthtrack/internal/migration"
	"github.com/julianstephens/growthtrack/internal/storage"
	"github.com/julianstephens/growthtrack/internal/storage/sqlstore"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// Store keeps all tables in a local SQLite file
type Store struct {
	*sqlstore.Records
	path string
	db   *sql.DB
}

var _ storage.Provider = (*Store)(nil)

func NewStore(path string) *Store {
	return &Store{
		path: path,
	}
}

// Init creates the database file and applies migrations. The table list is
// not needed since every table shares the records table.
func (s *Store) Init(ctx context.Context, _ ...storage.Table) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := s.open(); err != nil {
		return err
	}

	if _, err := s.runner().ApplyMigrations(func(msg string) { logger.Info(msg) }); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

func (s *Store) Load(ctx context.Context) error {
	if s.db != nil {
		return nil
	}

	if _, err := os.Stat(s.path); os.IsNotExist(err) {
		return fmt.Errorf("storage not initialized, run 'growth init' first")
	}

	if err := s.open(); err != nil {
		return err
	}
	return s.runner().ValidateVersion()
}

func (s *Store) open() error {
	if s.db != nil {
		return nil
	}

	db, err := sql.Open("sqlite", s.path+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	s.db = db
	s.Records = sqlstore.New(db, sqlstore.SQLite)
	return nil
}

func (s *Store) runner() *migration.Runner {
	sub, err := fs.Sub(migrationFS, "migrations")
	if err != nil {
		// embedded path is fixed at compile time
		panic(err)
	}
	return migration.NewRunner(s.db, sub)
}

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *Store) Describe() string {
	return s.path
}
