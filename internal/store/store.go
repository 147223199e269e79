// Package store persists decoded image probes between runs.
//
// The cache is an optimization for the asset loader: repeated zoom sessions
// on the same remote source skip the fetch and decode. Entries are keyed by
// a BLAKE2b digest of the source string.
package store

import (
	"database/sql"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"golang.org/x/crypto/blake2b"
)

// Schema for the probe cache.
const schema = `
CREATE TABLE IF NOT EXISTS probes (
    digest      TEXT PRIMARY KEY,
    source      TEXT NOT NULL,
    width       INTEGER NOT NULL,
    height      INTEGER NOT NULL,
    payload     BLOB,
    fetched_ns  INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_probes_fetched ON probes(fetched_ns);
`

// Entry is one cached probe.
type Entry struct {
	Digest    string
	Source    string
	Width     int
	Height    int
	Payload   []byte
	FetchedAt time.Time
}

// Cache is the SQLite-backed probe cache.
type Cache struct {
	db *sql.DB
}

// Open opens or creates the cache database at the given path.
func Open(path string) (*Cache, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create cache directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open cache database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply cache schema: %w", err)
	}

	return &Cache{db: db}, nil
}

// Close closes the underlying database.
func (c *Cache) Close() error {
	return c.db.Close()
}

// Digest returns the cache key for a source string.
func Digest(source string) string {
	sum := blake2b.Sum256([]byte(source))
	return hex.EncodeToString(sum[:])
}

// Get returns the cached entry for a source, if present.
func (c *Cache) Get(source string) (*Entry, bool, error) {
	e := &Entry{Digest: Digest(source)}
	var fetchedNS int64
	err := c.db.QueryRow(
		`SELECT source, width, height, payload, fetched_ns FROM probes WHERE digest = ?`,
		e.Digest,
	).Scan(&e.Source, &e.Width, &e.Height, &e.Payload, &fetchedNS)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("query probe: %w", err)
	}
	e.FetchedAt = time.Unix(0, fetchedNS)
	return e, true, nil
}

// Put inserts or replaces the cached entry for a source.
func (c *Cache) Put(e *Entry) error {
	if e.Digest == "" {
		e.Digest = Digest(e.Source)
	}
	if e.FetchedAt.IsZero() {
		e.FetchedAt = time.Now()
	}
	_, err := c.db.Exec(
		`INSERT OR REPLACE INTO probes (digest, source, width, height, payload, fetched_ns)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		e.Digest, e.Source, e.Width, e.Height, e.Payload, e.FetchedAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("store probe: %w", err)
	}
	return nil
}

// Prune deletes entries fetched before the cutoff and returns the count.
func (c *Cache) Prune(cutoff time.Time) (int64, error) {
	res, err := c.db.Exec(`DELETE FROM probes WHERE fetched_ns < ?`, cutoff.UnixNano())
	if err != nil {
		return 0, fmt.Errorf("prune probes: %w", err)
	}
	return res.RowsAffected()
}
