package tokenstore

import (
	"database/sql"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"

	interrors "github.com/jrsteele09/go-taskmaster/internal/errors"

	_ "modernc.org/sqlite" // pure-Go sqlite driver
)

const schema = `
CREATE TABLE IF NOT EXISTS credentials (
	kind       TEXT PRIMARY KEY,
	value      TEXT NOT NULL,
	updated_at TIMESTAMP NOT NULL
);`

// SQLiteStore is the durable Store implementation backed by a single-table
// SQLite database in the data folder.
type SQLiteStore struct {
	db      *sql.DB
	nowTime func() time.Time
}

var _ Store = (*SQLiteStore)(nil)

// SQLiteStoreOption modifies a SQLiteStore instance.
type SQLiteStoreOption func(*SQLiteStore)

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) SQLiteStoreOption {
	return func(s *SQLiteStore) {
		s.nowTime = nowFunc
	}
}

// OpenSQLite opens (creating if needed) the credential database at
// <dataFolder>/credentials.db.
func OpenSQLite(dataFolder string, options ...SQLiteStoreOption) (*SQLiteStore, error) {
	if err := os.MkdirAll(dataFolder, 0o700); err != nil {
		return nil, errors.Wrap(err, "[OpenSQLite] create data folder")
	}

	db, err := sql.Open("sqlite", filepath.Join(dataFolder, "credentials.db"))
	if err != nil {
		return nil, errors.Wrap(err, "[OpenSQLite] open database")
	}

	// The store is touched from interleaved call sites (login, refresh,
	// logout); a single connection sidesteps sqlite write contention.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "[OpenSQLite] create schema")
	}

	store := &SQLiteStore{db: db, nowTime: time.Now}
	for _, opt := range options {
		opt(store)
	}
	return store, nil
}

// Get returns the stored value for kind, or errors.ErrKeyNotFound.
func (s *SQLiteStore) Get(kind Kind) (string, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM credentials WHERE kind = ?`, string(kind)).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", interrors.ErrKeyNotFound
	}
	if err != nil {
		return "", errors.Wrapf(err, "[SQLiteStore.Get] query %q", kind)
	}
	return value, nil
}

// Set durably stores value for kind, overwriting any previous value.
func (s *SQLiteStore) Set(kind Kind, value string) error {
	query := `
		INSERT INTO credentials (kind, value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(kind) DO UPDATE SET
			value = excluded.value,
			updated_at = excluded.updated_at
	`
	if _, err := s.db.Exec(query, string(kind), value, s.nowTime().UTC()); err != nil {
		return errors.Wrapf(err, "[SQLiteStore.Set] upsert %q", kind)
	}
	return nil
}

// Clear removes every stored credential in one statement, so a concurrent
// reader sees either the full set or nothing.
func (s *SQLiteStore) Clear() error {
	if _, err := s.db.Exec(`DELETE FROM credentials`); err != nil {
		return errors.Wrap(err, "[SQLiteStore.Clear] delete")
	}
	return nil
}

// Close releases the underlying database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
