package widget

import (
	"database/sql"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteSnapshot keeps named snapshots in a SQLite database.
type SQLiteSnapshot struct {
	db   *sql.DB
	name string
	mu   sync.Mutex
}

// OpenSQLite opens (or creates) the database and runs migrations.
func OpenSQLite(dbPath, name string) (*SQLiteSnapshot, error) {
	if name == "" {
		name = DefaultName
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	s := &SQLiteSnapshot{db: db, name: name}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Printf("[INFO] sqlite snapshot opened: %s (%s)", dbPath, name)
	return s, nil
}

func (s *SQLiteSnapshot) migrate() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS snapshots (
		name       TEXT PRIMARY KEY,
		data       TEXT NOT NULL,
		updated_at INTEGER NOT NULL
	)`)
	return err
}

// Load returns an empty collection if no snapshot with this name exists.
func (s *SQLiteSnapshot) Load() ([]Descriptor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var data string
	err := s.db.QueryRow(`SELECT data FROM snapshots WHERE name = ?`, s.name).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load snapshot %s: %w", s.name, err)
	}
	return decode([]byte(data))
}

func (s *SQLiteSnapshot) Save(widgets []Descriptor) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := encode(widgets)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(`INSERT INTO snapshots (name, data, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
		s.name, string(data), time.Now().Unix())
	if err != nil {
		return fmt.Errorf("save snapshot %s: %w", s.name, err)
	}
	return nil
}

func (s *SQLiteSnapshot) Close() error {
	return s.db.Close()
}
