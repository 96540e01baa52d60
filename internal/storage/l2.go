package storage

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/configsrv/hoganserver/internal/configmodel"
)

// L2 is the on-disk tier: a single sqlite table, one row per cache key.
// Writes are plain INSERTs — the primary key on "key" rejects duplicate
// writes rather than upserting, trading write simplicity for the
// occasional lost race on a concurrently-produced (env, sha) pair. Reads
// use a prefix LIKE match so abbreviated shas still resolve.
type L2 struct {
	db *sql.DB
}

// OpenL2 opens (and if absent, creates) the sqlite database at path and
// ensures the cache table exists.
func OpenL2(path string) (*L2, error) {
	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("storage: open l2 db: %w", err)
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS cache (
		key TEXT PRIMARY KEY,
		blob BLOB,
		timestamp DATETIME DEFAULT CURRENT_TIMESTAMP
	)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: create l2 table: %w", err)
	}
	return &L2{db: db}, nil
}

func (l *L2) Close() error { return l.db.Close() }

func (l *L2) ID() string { return "l2" }

func (l *L2) ReadEnv(ctx context.Context, env, sha string) (configmodel.Environment, error) {
	key := configmodel.EnvKey(env, sha)
	blob, err := l.readPrefix(ctx, key.String())
	if err != nil {
		return configmodel.Environment{}, err
	}
	return DecodeEnv(blob)
}

func (l *L2) WriteEnv(ctx context.Context, env, sha string, e configmodel.Environment) error {
	blob, err := EncodeEnv(e)
	if err != nil {
		return err
	}
	return l.insert(ctx, configmodel.EnvKey(env, sha).String(), blob)
}

func (l *L2) ReadListing(ctx context.Context, sha string) (configmodel.Listing, error) {
	key := configmodel.ListingKey(sha)
	blob, err := l.readPrefix(ctx, key.String())
	if err != nil {
		return nil, err
	}
	return DecodeListing(blob)
}

func (l *L2) WriteListing(ctx context.Context, sha string, lst configmodel.Listing) error {
	blob, err := EncodeListing(lst)
	if err != nil {
		return err
	}
	return l.insert(ctx, configmodel.ListingKey(sha).String(), blob)
}

// Clean deletes rows older than maxAgeDays.
func (l *L2) Clean(ctx context.Context, maxAgeDays int) error {
	_, err := l.db.ExecContext(ctx,
		`DELETE FROM cache WHERE timestamp < datetime('now', ?)`,
		fmt.Sprintf("-%d days", maxAgeDays),
	)
	if err != nil {
		return fmt.Errorf("storage: l2 clean: %w", err)
	}
	return nil
}

func (l *L2) readPrefix(ctx context.Context, key string) ([]byte, error) {
	row := l.db.QueryRowContext(ctx,
		`SELECT blob FROM cache WHERE key LIKE ? || '%' ORDER BY key LIMIT 1`, key)
	var blob []byte
	if err := row.Scan(&blob); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrMiss
		}
		return nil, fmt.Errorf("storage: l2 read: %w", err)
	}
	return blob, nil
}

func (l *L2) insert(ctx context.Context, key string, blob []byte) error {
	_, err := l.db.ExecContext(ctx,
		`INSERT INTO cache (key, blob) VALUES (?, ?)`, key, blob)
	if err != nil {
		// A UNIQUE constraint violation means a concurrent producer won
		// the race for this key; per the spec's accepted tolerance, the
		// loser's write is simply dropped.
		if isUniqueConstraintErr(err) {
			return nil
		}
		return fmt.Errorf("storage: l2 write: %w", err)
	}
	return nil
}
