// Package sqlite is a disk tier backed by modernc.org/sqlite.
//
// Entries live in a single table (key TEXT PRIMARY KEY, value BLOB,
// expires_at INTEGER unix millis, 0 = no expiry). Expired rows are removed
// lazily on read.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	pr "github.com/unkn0wn-root/tiercache/provider"
)

const defaultTable = "tiercache_entries"

var tableName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

type Config struct {
	// Path of the database file. Ignored when DB is set.
	Path string `yaml:"path"`
	// Table defaults to "tiercache_entries".
	Table string `yaml:"table"`
	// DB is an already-open handle. The provider closes it only if
	// CloseDB is set.
	DB      *sql.DB `yaml:"-"`
	CloseDB bool    `yaml:"-"`
}

type Store struct {
	db      *sql.DB
	closeDB bool
	now     func() time.Time

	qGet, qSet, qDel, qDelExp, qClear string
}

var (
	_ pr.Provider = (*Store)(nil)
	_ pr.Clearer  = (*Store)(nil)
	_ pr.Kinder   = (*Store)(nil)
)

// Open opens (or adopts) the database and creates the entry table.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	table := cfg.Table
	if table == "" {
		table = defaultTable
	}
	if !tableName.MatchString(table) {
		return nil, fmt.Errorf("sqlite provider: invalid table name %q", table)
	}

	db, owned := cfg.DB, cfg.CloseDB
	if db == nil {
		if strings.TrimSpace(cfg.Path) == "" {
			return nil, errors.New("sqlite provider: path is required")
		}
		dsn := filepath.Clean(cfg.Path) + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
		var err error
		db, err = sql.Open("sqlite", dsn)
		if err != nil {
			return nil, fmt.Errorf("open sqlite db: %w", err)
		}
		owned = true
	}
	if err := db.PingContext(ctx); err != nil {
		if owned {
			_ = db.Close()
		}
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}

	ddl := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	key        TEXT PRIMARY KEY,
	value      BLOB NOT NULL,
	expires_at INTEGER NOT NULL DEFAULT 0
)`, table)
	if _, err := db.ExecContext(ctx, ddl); err != nil {
		if owned {
			_ = db.Close()
		}
		return nil, fmt.Errorf("create sqlite table: %w", err)
	}

	return &Store{
		db:      db,
		closeDB: owned,
		now:     time.Now,
		qGet:    fmt.Sprintf(`SELECT value, expires_at FROM %s WHERE key = ?`, table),
		qSet: fmt.Sprintf(`INSERT INTO %s (key, value, expires_at) VALUES (?, ?, ?)
ON CONFLICT(key) DO UPDATE SET value = excluded.value, expires_at = excluded.expires_at`, table),
		qDel:    fmt.Sprintf(`DELETE FROM %s WHERE key = ?`, table),
		qDelExp: fmt.Sprintf(`DELETE FROM %s WHERE key = ? AND expires_at = ?`, table),
		qClear:  fmt.Sprintf(`DELETE FROM %s`, table),
	}, nil
}

func (s *Store) Kind() pr.Kind { return pr.KindSQLite }

func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var (
		value     []byte
		expiresAt int64
	)
	err := s.db.QueryRowContext(ctx, s.qGet, key).Scan(&value, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("sqlite get: %w", err)
	}
	if expiresAt > 0 && s.now().UnixMilli() >= expiresAt {
		if _, err := s.db.ExecContext(ctx, s.qDelExp, key, expiresAt); err != nil {
			return nil, false, fmt.Errorf("sqlite expire: %w", err)
		}
		return nil, false, nil
	}
	if value == nil {
		value = []byte{}
	}
	return value, true, nil
}

// Set ignores cost; ttl<=0 means no expiry.
func (s *Store) Set(ctx context.Context, key string, value []byte, _ int64, ttl time.Duration) (bool, error) {
	if value == nil {
		value = []byte{}
	}
	var expiresAt int64
	if ttl > 0 {
		expiresAt = s.now().Add(ttl).UnixMilli()
	}
	if _, err := s.db.ExecContext(ctx, s.qSet, key, value, expiresAt); err != nil {
		return false, fmt.Errorf("sqlite set: %w", err)
	}
	return true, nil
}

func (s *Store) Del(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, s.qDel, key); err != nil {
		return fmt.Errorf("sqlite del: %w", err)
	}
	return nil
}

func (s *Store) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, s.qClear); err != nil {
		return fmt.Errorf("sqlite clear: %w", err)
	}
	return nil
}

// Close closes the handle when the store opened it (or was told to own it).
func (s *Store) Close(context.Context) error {
	if s == nil || s.db == nil || !s.closeDB {
		return nil
	}
	return s.db.Close()
}
