// Package store keeps encoded instruction streams in a SQLite database,
// addressed by name and checked against a SHA-256 digest on every read.
package store

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/tliron/commonlog"
	_ "modernc.org/sqlite"

	"github.com/chazu/chips/bytecode"
	"github.com/chazu/chips/vm"
)

var log = commonlog.GetLogger("chips.store")

var (
	// ErrNotFound indicates no program is stored under the requested name.
	ErrNotFound = errors.New("program not found")
	// ErrDigest indicates stored bytes no longer match their recorded hash.
	ErrDigest = errors.New("stored program does not match its digest")
)

// Entry describes one stored program.
type Entry struct {
	ID           uuid.UUID
	Name         string
	Hash         string // hex SHA-256 of the stream
	Size         int
	Instructions int
	Debug        bool
	Stored       time.Time
}

// Store is a program store backed by one SQLite file.
type Store struct {
	db   *sql.DB
	path string
	mu   sync.Mutex
}

const schema = `CREATE TABLE IF NOT EXISTS programs (
	id           TEXT PRIMARY KEY,
	name         TEXT NOT NULL UNIQUE,
	hash         TEXT NOT NULL,
	size         INTEGER NOT NULL,
	instructions INTEGER NOT NULL,
	debug        INTEGER NOT NULL,
	stored       INTEGER NOT NULL,
	data         BLOB NOT NULL
)`

// Open opens or creates the store at path, creating parent directories.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating store directory: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Set busy timeout for concurrent access
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating table: %w", err)
	}
	log.Debugf("opened store %s", path)
	return &Store{db: db, path: path}, nil
}

// Path returns the database file.
func (s *Store) Path() string { return s.path }

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Digest returns the hex SHA-256 of data.
func Digest(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Put stores data under name, replacing any earlier program with that name.
// The stream must load against the default catalog. A replaced program
// keeps its ID.
func (s *Store) Put(ctx context.Context, name string, data []byte) (*Entry, error) {
	if name == "" {
		return nil, errors.New("store: empty program name")
	}
	stream, err := bytecode.Load(data, vm.DefaultCatalog())
	if err != nil {
		return nil, fmt.Errorf("store: %s: %w", name, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	e := Entry{
		ID:           uuid.New(),
		Name:         name,
		Hash:         Digest(data),
		Size:         len(data),
		Instructions: len(stream.Code),
		Debug:        stream.Debug(),
		Stored:       time.Now().UTC(),
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO programs (id, name, hash, size, instructions, debug, stored, data)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			hash = excluded.hash, size = excluded.size, instructions = excluded.instructions,
			debug = excluded.debug, stored = excluded.stored, data = excluded.data`,
		e.ID.String(), e.Name, e.Hash, e.Size, e.Instructions, e.Debug, e.Stored.UnixNano(), data)
	if err != nil {
		return nil, fmt.Errorf("saving program: %w", err)
	}
	log.Infof("stored %s (%d instructions, %s)", name, e.Instructions, e.Hash[:12])
	return s.stat(ctx, name)
}

const entryColumns = "id, name, hash, size, instructions, debug, stored"

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(row scanner, extra ...any) (*Entry, error) {
	var (
		e      Entry
		id     string
		stored int64
	)
	dest := append([]any{&id, &e.Name, &e.Hash, &e.Size, &e.Instructions, &e.Debug, &stored}, extra...)
	if err := row.Scan(dest...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("querying program: %w", err)
	}
	var err error
	if e.ID, err = uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("program %s: bad id: %w", e.Name, err)
	}
	e.Stored = time.Unix(0, stored).UTC()
	return &e, nil
}

// Stat returns the metadata of the named program.
func (s *Store) Stat(ctx context.Context, name string) (*Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stat(ctx, name)
}

func (s *Store) stat(ctx context.Context, name string) (*Entry, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+entryColumns+" FROM programs WHERE name = ?", name)
	return scanEntry(row)
}

// Get returns the stored stream and its metadata.
func (s *Store) Get(ctx context.Context, name string) ([]byte, *Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var data []byte
	row := s.db.QueryRowContext(ctx, "SELECT "+entryColumns+", data FROM programs WHERE name = ?", name)
	e, err := scanEntry(row, &data)
	if err != nil {
		return nil, nil, err
	}
	if Digest(data) != e.Hash {
		log.Errorf("digest mismatch for %s", name)
		return nil, nil, fmt.Errorf("%w: %s", ErrDigest, name)
	}
	return data, e, nil
}

// Load fetches the named program and decodes it against cat.
func (s *Store) Load(ctx context.Context, name string, cat *vm.Catalog) (*vm.Program, error) {
	data, _, err := s.Get(ctx, name)
	if err != nil {
		return nil, err
	}
	stream, err := bytecode.Load(data, cat)
	if err != nil {
		return nil, fmt.Errorf("store: %s: %w", name, err)
	}
	return stream.Program(name), nil
}

// List returns every entry ordered by name.
func (s *Store) List(ctx context.Context) ([]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.QueryContext(ctx, "SELECT "+entryColumns+" FROM programs ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("listing programs: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *e)
	}
	return entries, rows.Err()
}

// Delete removes the named program.
func (s *Store) Delete(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, "DELETE FROM programs WHERE name = ?", name)
	if err != nil {
		return fmt.Errorf("deleting program: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting program: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	log.Infof("deleted %s", name)
	return nil
}
