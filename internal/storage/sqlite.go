package storage

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Veraticus/kakeibo/internal/common"

	"github.com/mattn/go-sqlite3"
)

// DefaultPollInterval is how often a watching SQLiteBackend checks for
// commits from other connections.
const DefaultPollInterval = time.Second

// writeRetry covers contention that outlasts the driver's busy timeout
// when several processes write at once.
var writeRetry = common.RetryOptions{
	MaxAttempts:  3,
	InitialDelay: 50 * time.Millisecond,
	MaxDelay:     500 * time.Millisecond,
}

// SQLiteBackend implements Backend on a SQLite key/value table.
//
// Every statement runs on one dedicated connection. SQLite's
// PRAGMA data_version only changes when a different connection commits, so
// polling it on that same connection detects writes from other processes
// while ignoring our own.
type SQLiteBackend struct {
	db           *sql.DB
	conn         *sql.Conn
	watchers     *watcherSet
	snapshots    map[string][]byte
	done         chan struct{}
	dbPath       string
	wg           sync.WaitGroup
	pollInterval time.Duration
	dataVersion  int64
	mu           sync.Mutex
	pollOnce     sync.Once
	closed       atomic.Bool
}

// SQLiteOption configures a SQLiteBackend.
type SQLiteOption func(*SQLiteBackend)

// WithPollInterval sets the change detection interval.
func WithPollInterval(d time.Duration) SQLiteOption {
	return func(s *SQLiteBackend) {
		if d > 0 {
			s.pollInterval = d
		}
	}
}

// NewSQLiteBackend opens (creating if needed) the database at dbPath.
// Call Migrate before use.
func NewSQLiteBackend(dbPath string, opts ...SQLiteOption) (*SQLiteBackend, error) {
	if err := validateString(dbPath, "dbPath"); err != nil {
		return nil, err
	}

	// Ensure directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	conn, err := db.Conn(context.Background())
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to acquire connection: %w", err)
	}

	if err := conn.PingContext(context.Background()); err != nil {
		_ = conn.Close()
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &SQLiteBackend{
		db:           db,
		conn:         conn,
		dbPath:       dbPath,
		watchers:     newWatcherSet(),
		snapshots:    make(map[string][]byte),
		done:         make(chan struct{}),
		pollInterval: DefaultPollInterval,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Path returns the database path the backend was opened with.
func (s *SQLiteBackend) Path() string {
	return s.dbPath
}

// Close stops the poller and closes the database.
func (s *SQLiteBackend) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	close(s.done)
	s.wg.Wait()
	s.watchers.clear()

	s.mu.Lock()
	defer s.mu.Unlock()
	connErr := s.conn.Close()
	dbErr := s.db.Close()
	return errors.Join(connErr, dbErr)
}

// Get implements Backend.
func (s *SQLiteBackend) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if err := s.check(ctx, key); err != nil {
		return nil, false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getLocked(ctx, key)
}

func (s *SQLiteBackend) getLocked(ctx context.Context, key string) ([]byte, bool, error) {
	var value []byte
	err := s.conn.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read key %q: %w", key, err)
	}
	return value, true, nil
}

// Set implements Backend.
func (s *SQLiteBackend) Set(ctx context.Context, key string, value []byte) error {
	if err := s.check(ctx, key); err != nil {
		return err
	}
	if value == nil {
		value = []byte{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	err := common.WithRetry(ctx, func() error {
		_, err := s.conn.ExecContext(ctx, `
			INSERT INTO kv (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
			ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP`,
			key, value)
		if err != nil && !isBusy(err) {
			return common.Permanent(err)
		}
		return err
	}, writeRetry)
	if err != nil {
		return fmt.Errorf("failed to write key %q: %w", key, err)
	}

	if _, watched := s.snapshots[key]; watched {
		s.snapshots[key] = bytes.Clone(value)
	}
	return nil
}

// Delete implements Backend.
func (s *SQLiteBackend) Delete(ctx context.Context, key string) error {
	if err := s.check(ctx, key); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.conn.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, key); err != nil {
		return fmt.Errorf("failed to delete key %q: %w", key, err)
	}
	if _, watched := s.snapshots[key]; watched {
		s.snapshots[key] = nil
	}
	return nil
}

// Keys lists every stored key.
func (s *SQLiteBackend) Keys(ctx context.Context) ([]string, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.conn.QueryContext(ctx, `SELECT key FROM kv ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("failed to list keys: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			slog.Warn("failed to close rows", "error", closeErr)
		}
	}()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, fmt.Errorf("failed to scan key: %w", err)
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

// Watch implements Backend. The first call starts the poller.
func (s *SQLiteBackend) Watch(key string, fn ChangeFunc) (func(), error) {
	if err := validateKey(key); err != nil {
		return nil, err
	}
	if fn == nil {
		return nil, ErrNilParameter
	}
	if s.closed.Load() {
		return nil, common.ErrClosed
	}

	ctx := context.Background()
	s.mu.Lock()
	if _, watched := s.snapshots[key]; !watched {
		value, _, err := s.getLocked(ctx, key)
		if err != nil {
			s.mu.Unlock()
			return nil, err
		}
		s.snapshots[key] = value
	}
	if s.dataVersion == 0 {
		version, err := s.dataVersionLocked(ctx)
		if err != nil {
			s.mu.Unlock()
			return nil, err
		}
		s.dataVersion = version
	}
	s.mu.Unlock()

	stop := s.watchers.add(key, fn)
	s.pollOnce.Do(func() {
		s.wg.Add(1)
		go s.poll()
	})
	return stop, nil
}

func (s *SQLiteBackend) poll() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			changes, err := s.detectChanges(context.Background())
			if err != nil {
				slog.Warn("failed to poll for storage changes", "path", s.dbPath, "error", err)
				continue
			}
			for _, c := range changes {
				s.watchers.notify(c)
			}
		}
	}
}

// detectChanges compares watched keys against their last known values when
// another connection has committed since the previous check.
func (s *SQLiteBackend) detectChanges(ctx context.Context) ([]Change, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed.Load() {
		return nil, nil
	}

	version, err := s.dataVersionLocked(ctx)
	if err != nil {
		return nil, err
	}
	if version == s.dataVersion {
		return nil, nil
	}
	s.dataVersion = version

	var changes []Change
	for _, key := range s.watchers.keys() {
		value, ok, err := s.getLocked(ctx, key)
		if err != nil {
			return nil, err
		}
		prev := s.snapshots[key]
		switch {
		case !ok && prev != nil:
			changes = append(changes, Change{Key: key, Deleted: true})
			s.snapshots[key] = nil
		case ok && (prev == nil || !bytes.Equal(prev, value)):
			changes = append(changes, Change{Key: key, Value: value})
			s.snapshots[key] = value
		}
	}
	return changes, nil
}

func (s *SQLiteBackend) dataVersionLocked(ctx context.Context) (int64, error) {
	var version int64
	if err := s.conn.QueryRowContext(ctx, `PRAGMA data_version`).Scan(&version); err != nil {
		return 0, fmt.Errorf("failed to read data version: %w", err)
	}
	return version, nil
}

func (s *SQLiteBackend) check(ctx context.Context, key string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateKey(key); err != nil {
		return err
	}
	if s.closed.Load() {
		return common.ErrClosed
	}
	return nil
}

// isBusy reports whether err is SQLite lock contention.
func isBusy(err error) bool {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	return sqliteErr.Code == sqlite3.ErrBusy || sqliteErr.Code == sqlite3.ErrLocked
}
