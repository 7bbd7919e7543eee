package extapi

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fxamacker/cbor/v2"
	_ "modernc.org/sqlite"
)

// CacheFileName is the database file created inside the cache directory.
const CacheFileName = "api-cache.db"

// CacheEntry is one dumped description, keyed by engine fingerprint.
type CacheEntry struct {
	Fingerprint string `cbor:"1,keyasint"`
	Version     string `cbor:"2,keyasint"`
	Description []byte `cbor:"3,keyasint"`
}

var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("extapi: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

// MarshalEntry serializes an entry to canonical CBOR.
func MarshalEntry(e *CacheEntry) ([]byte, error) {
	return cborEncMode.Marshal(e)
}

// UnmarshalEntry deserializes an entry from CBOR.
func UnmarshalEntry(data []byte) (*CacheEntry, error) {
	var e CacheEntry
	if err := cbor.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("extapi: unmarshal cache entry: %w", err)
	}
	return &e, nil
}

// Cache stores dumped descriptions so the engine binary runs once per
// distinct build.
type Cache struct {
	db *sql.DB
}

// OpenCache opens or creates the cache database in dir.
func OpenCache(dir string) (*Cache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating cache dir: %w", err)
	}
	db, err := sql.Open("sqlite", filepath.Join(dir, CacheFileName))
	if err != nil {
		return nil, fmt.Errorf("opening cache: %w", err)
	}
	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS api_cache (
		fingerprint TEXT PRIMARY KEY,
		version     TEXT NOT NULL,
		payload     BLOB NOT NULL
	)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing cache: %w", err)
	}
	return &Cache{db: db}, nil
}

// Get returns the entry for fingerprint, or nil if there is none.
func (c *Cache) Get(ctx context.Context, fingerprint string) (*CacheEntry, error) {
	var payload []byte
	err := c.db.QueryRowContext(ctx, `SELECT payload FROM api_cache WHERE fingerprint = ?`, fingerprint).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading cache: %w", err)
	}
	return UnmarshalEntry(payload)
}

// Put stores e, replacing any entry with the same fingerprint.
func (c *Cache) Put(ctx context.Context, e *CacheEntry) error {
	payload, err := MarshalEntry(e)
	if err != nil {
		return err
	}
	_, err = c.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO api_cache (fingerprint, version, payload) VALUES (?, ?, ?)`,
		e.Fingerprint, e.Version, payload)
	if err != nil {
		return fmt.Errorf("writing cache: %w", err)
	}
	return nil
}

// Close releases the database.
func (c *Cache) Close() error {
	return c.db.Close()
}
