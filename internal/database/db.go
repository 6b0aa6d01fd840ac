package database

import (
	"bytes"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/sqlite" // Pure Go sqlite driver
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// ErrCorrupt is returned by NewDB when the file at the database path is not
// a usable SQLite database.
var ErrCorrupt = errors.New("database file is corrupt")

var sqliteHeader = []byte("SQLite format 3\x00")

// DB provides a centralized database connection
type DB struct {
	SQL *sql.DB
}

// NewDB opens the SQLite history database at dbPath and runs migrations.
func NewDB(dbPath string) (*DB, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	if err := checkFile(dbPath); err != nil {
		return nil, err
	}

	// Schema must be current before the app opens its own connection.
	if err := RunMigrations(dbPath); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One connection keeps writes serialized within the process.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return &DB{SQL: db}, nil
}

// checkFile reports ErrCorrupt when dbPath holds something other than an
// intact SQLite database. A missing or empty file is fine.
func checkFile(dbPath string) error {
	f, err := os.Open(dbPath)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to open database file: %w", err)
	}
	header := make([]byte, len(sqliteHeader))
	n, err := io.ReadFull(f, header)
	f.Close()
	if n == 0 && errors.Is(err, io.EOF) {
		return nil
	}
	if err != nil || !bytes.Equal(header, sqliteHeader) {
		return fmt.Errorf("%w: %s has no sqlite header", ErrCorrupt, dbPath)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=busy_timeout(5000)")
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()
	var result string
	if err := db.QueryRow(`PRAGMA quick_check`).Scan(&result); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrCorrupt, dbPath, err)
	}
	if result != "ok" {
		return fmt.Errorf("%w: %s: %s", ErrCorrupt, dbPath, result)
	}
	return nil
}

// MoveAside renames a damaged database, and any journal files next to it,
// to "<path>.corrupt-<unix>" so a fresh database can take its place. It
// returns the new name of the main file.
func MoveAside(dbPath string, now time.Time) (string, error) {
	suffix := fmt.Sprintf(".corrupt-%d", now.Unix())
	for _, extra := range []string{"-wal", "-shm", "-journal"} {
		if err := os.Rename(dbPath+extra, dbPath+extra+suffix); err != nil && !errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("failed to move aside %s: %w", dbPath+extra, err)
		}
	}
	target := dbPath + suffix
	if err := os.Rename(dbPath, target); err != nil {
		return "", fmt.Errorf("failed to move aside %s: %w", dbPath, err)
	}
	return target, nil
}

// Close closes the database connection.
func (d *DB) Close() error {
	return d.SQL.Close()
}

// RunMigrations applies database migrations using golang-migrate.
func RunMigrations(databasePath string) error {
	d, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to create iofs driver: %w", err)
	}

	// For modernc.org/sqlite the URL is "sqlite://<path_to_db>"
	databaseURL := fmt.Sprintf("sqlite://%s", databasePath)

	m, err := migrate.NewWithSourceInstance("iofs", d, databaseURL)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	log.Println("Database migrations applied successfully!")
	return nil
}
