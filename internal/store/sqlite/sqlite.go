// Package sqlite implements the hostwatch backend contract on SQLite,
// for hosts where a single-file relational store is preferred over the
// default engine. All domains share one kv table.
package sqlite

import (
	"database/sql"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	hwerrors "github.com/hostwatch/hostwatch/internal/errors"
)

// BackendName is the registry name of the SQLite backend.
const BackendName = "sqlite"

const schema = `
CREATE TABLE IF NOT EXISTS kv (
	domain TEXT NOT NULL,
	key    TEXT NOT NULL,
	value  TEXT NOT NULL,
	PRIMARY KEY (domain, key)
)`

// Backend stores domain/key/value records in a SQLite database file.
type Backend struct {
	path     string
	db       *sql.DB
	readOnly bool
}

// New creates a SQLite backend for the database file at path. SetUp opens
// the connection.
func New(path string) *Backend {
	return &Backend{path: path}
}

func (b *Backend) Name() string { return BackendName }

// ReadOnly reports whether the database could only be opened without
// write access.
func (b *Backend) ReadOnly() bool { return b.readOnly }

// SetUp opens the database and ensures the kv table exists. A database on
// read-only media still opens; writes are refused and the backend reports
// itself read-only.
func (b *Backend) SetUp() error {
	if b.db != nil {
		return nil
	}

	db, err := sql.Open("sqlite3", b.path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return hwerrors.NewBackendError(hwerrors.CodeBackendIO,
			"cannot open database "+b.path, err)
	}

	if _, err := db.Exec(schema); err != nil {
		if isReadOnlyErr(err) {
			b.db = db
			b.readOnly = true
			return nil
		}
		db.Close()
		return hwerrors.NewBackendError(hwerrors.CodeBackendIO,
			"cannot create kv table", err)
	}

	b.db = db
	b.readOnly = false
	return nil
}

func (b *Backend) TearDown() error {
	if b.db == nil {
		return nil
	}
	err := b.db.Close()
	b.db = nil
	if err != nil {
		return hwerrors.NewBackendError(hwerrors.CodeBackendIO, "close failed", err)
	}
	return nil
}

func (b *Backend) Get(domain, key string) (string, error) {
	if b.db == nil {
		return "", errNotOpen()
	}
	var value string
	err := b.db.QueryRow(
		"SELECT value FROM kv WHERE domain = ? AND key = ?", domain, key,
	).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", hwerrors.NewBackendError(hwerrors.CodeBackendIO, "get failed", err)
	}
	return value, nil
}

func (b *Backend) Put(domain, key, value string) error {
	if b.db == nil {
		return errNotOpen()
	}
	if b.readOnly {
		return hwerrors.NewBackendError(hwerrors.CodeBackendReadOnly,
			"database is open read-only", nil)
	}
	_, err := b.db.Exec(
		`INSERT INTO kv (domain, key, value) VALUES (?, ?, ?)
		 ON CONFLICT (domain, key) DO UPDATE SET value = excluded.value`,
		domain, key, value,
	)
	if err != nil {
		return hwerrors.NewBackendError(hwerrors.CodeBackendIO, "put failed", err)
	}
	return nil
}

func (b *Backend) Remove(domain, key string) error {
	if b.db == nil {
		return errNotOpen()
	}
	if b.readOnly {
		return hwerrors.NewBackendError(hwerrors.CodeBackendReadOnly,
			"database is open read-only", nil)
	}
	_, err := b.db.Exec("DELETE FROM kv WHERE domain = ? AND key = ?", domain, key)
	if err != nil {
		return hwerrors.NewBackendError(hwerrors.CodeBackendIO, "remove failed", err)
	}
	return nil
}

// Scan returns keys with the given prefix in key order. max caps the
// count; zero scans without bound.
func (b *Backend) Scan(domain, prefix string, max int) ([]string, error) {
	if b.db == nil {
		return nil, errNotOpen()
	}

	query := `SELECT key FROM kv WHERE domain = ? AND key LIKE ? ESCAPE '\' ORDER BY key`
	args := []interface{}{domain, escapeLike(prefix) + "%"}
	if max > 0 {
		query += " LIMIT ?"
		args = append(args, max)
	}

	rows, err := b.db.Query(query, args...)
	if err != nil {
		return nil, hwerrors.NewBackendError(hwerrors.CodeBackendIO, "scan failed", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, hwerrors.NewBackendError(hwerrors.CodeBackendIO, "scan failed", err)
		}
		keys = append(keys, key)
	}
	if err := rows.Err(); err != nil {
		return nil, hwerrors.NewBackendError(hwerrors.CodeBackendIO, "scan failed", err)
	}
	return keys, nil
}

func errNotOpen() error {
	return hwerrors.NewBackendError(hwerrors.CodeBackendUnavailable,
		"database is not open", nil)
}

// escapeLike escapes LIKE metacharacters so a prefix matches literally.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// isReadOnlyErr recognizes SQLite's readonly error without binding to the
// driver's error codes.
func isReadOnlyErr(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "readonly")
}
