// Package store is the editor's persistence gateway: settings, the recent
// files list and the open-tabs snapshot, kept in a local sqlite database.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/justyntemme/bokuchi/internal/debug"
	"github.com/justyntemme/bokuchi/internal/recent"
	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

type EventType int

const (
	SaveSetting EventType = iota
	DeleteSetting
	Barrier // no-op; Done fires once earlier requests are written
)

// Request is a fire-and-forget write served by Start.
type Request struct {
	Op    EventType
	Key   string
	Value string
	Done  chan<- error // optional
}

type DB struct {
	conn        *sql.DB
	RequestChan chan Request
}

func NewDB() *DB {
	return &DB{
		RequestChan: make(chan Request, 16),
	}
}

// DefaultPath returns <UserConfigDir>/bokuchi/bokuchi.db.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		home, _ := os.UserHomeDir()
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "bokuchi", "bokuchi.db")
}

// Open initializes the database connection and schema
func (d *DB) Open(dbPath string) error {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return err
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return err
	}
	// One writer at a time; sqlite serializes anyway.
	db.SetMaxOpenConns(1)

	// WAL mode allows simultaneous readers and writers
	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		db.Close()
		return err
	}
	// Synchronous NORMAL is safe against app crashes, faster than FULL
	if _, err := db.Exec("PRAGMA synchronous=NORMAL;"); err != nil {
		db.Close()
		return err
	}

	settingsQuery := `
	CREATE TABLE IF NOT EXISTS settings (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);
	`
	if _, err := db.Exec(settingsQuery); err != nil {
		db.Close()
		return err
	}

	recentQuery := `
	CREATE TABLE IF NOT EXISTS recent_files (
		path TEXT PRIMARY KEY,
		id TEXT NOT NULL,
		file_name TEXT NOT NULL,
		last_opened INTEGER NOT NULL,
		open_count INTEGER NOT NULL DEFAULT 1,
		last_modified INTEGER,
		file_size INTEGER NOT NULL DEFAULT 0,
		preview TEXT NOT NULL DEFAULT ''
	);
	`
	if _, err := db.Exec(recentQuery); err != nil {
		db.Close()
		return err
	}

	d.conn = db
	debug.Log(debug.STORE, "Opened %s", dbPath)
	return nil
}

// Start serves RequestChan until it is closed.
func (d *DB) Start() {
	for req := range d.RequestChan {
		var err error
		switch req.Op {
		case SaveSetting:
			err = d.SetSetting(context.Background(), req.Key, req.Value)
		case DeleteSetting:
			err = d.DeleteSetting(context.Background(), req.Key)
		}
		if err != nil {
			log.Printf("Store Error: %v", err)
		}
		if req.Done != nil {
			req.Done <- err
		}
	}
}

// Sync waits until every request queued before it has been served. Start
// must be running.
func (d *DB) Sync(ctx context.Context) error {
	done := make(chan error, 1)
	select {
	case d.RequestChan <- Request{Op: Barrier, Done: done}:
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// GetSetting returns the value for key; ok is false when it is not set.
func (d *DB) GetSetting(ctx context.Context, key string) (value string, ok bool, err error) {
	if d.conn == nil {
		return "", false, errNotOpen
	}
	err = d.conn.QueryRowContext(ctx, "SELECT value FROM settings WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get setting %q: %w", key, err)
	}
	return value, true, nil
}

// SetSetting upserts key.
func (d *DB) SetSetting(ctx context.Context, key, value string) error {
	if d.conn == nil {
		return errNotOpen
	}
	if _, err := d.conn.ExecContext(ctx, "INSERT OR REPLACE INTO settings (key, value) VALUES (?, ?)", key, value); err != nil {
		return fmt.Errorf("save setting %q: %w", key, err)
	}
	debug.Log(debug.STORE, "SetSetting %s (%d bytes)", key, len(value))
	return nil
}

// DeleteSetting removes key.
func (d *DB) DeleteSetting(ctx context.Context, key string) error {
	if d.conn == nil {
		return errNotOpen
	}
	if _, err := d.conn.ExecContext(ctx, "DELETE FROM settings WHERE key = ?", key); err != nil {
		return fmt.Errorf("delete setting %q: %w", key, err)
	}
	return nil
}

// Settings returns all settings.
func (d *DB) Settings(ctx context.Context) (map[string]string, error) {
	if d.conn == nil {
		return nil, errNotOpen
	}
	rows, err := d.conn.QueryContext(ctx, "SELECT key, value FROM settings")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	settings := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err == nil {
			settings[key] = value
		}
	}
	return settings, rows.Err()
}

// RecentFiles returns the recent list, most recently opened first.
func (d *DB) RecentFiles(ctx context.Context) ([]recent.Entry, error) {
	if d.conn == nil {
		return nil, errNotOpen
	}
	rows, err := d.conn.QueryContext(ctx, `
		SELECT id, path, file_name, last_opened, open_count, last_modified, file_size, preview
		FROM recent_files ORDER BY last_opened DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []recent.Entry
	for rows.Next() {
		var (
			e            recent.Entry
			lastOpened   int64
			lastModified sql.NullInt64
		)
		if err := rows.Scan(&e.ID, &e.FilePath, &e.FileName, &lastOpened, &e.OpenCount, &lastModified, &e.FileSize, &e.Preview); err != nil {
			return nil, err
		}
		e.LastOpened = time.UnixMilli(lastOpened)
		if lastModified.Valid {
			mt := time.UnixMilli(lastModified.Int64)
			e.LastModified = &mt
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// ReplaceRecent stores entries as the whole recent list.
func (d *DB) ReplaceRecent(ctx context.Context, entries []recent.Entry) error {
	if d.conn == nil {
		return errNotOpen
	}
	tx, err := d.conn.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM recent_files"); err != nil {
		return err
	}
	for _, e := range entries {
		var lastModified sql.NullInt64
		if e.LastModified != nil {
			lastModified = sql.NullInt64{Int64: e.LastModified.UnixMilli(), Valid: true}
		}
		_, err := tx.ExecContext(ctx, `
			INSERT OR REPLACE INTO recent_files
				(path, id, file_name, last_opened, open_count, last_modified, file_size, preview)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			e.FilePath, e.ID, e.FileName, e.LastOpened.UnixMilli(), e.OpenCount, lastModified, e.FileSize, e.Preview)
		if err != nil {
			return fmt.Errorf("save recent %s: %w", e.FilePath, err)
		}
	}
	return tx.Commit()
}

// ClearRecent empties the recent list.
func (d *DB) ClearRecent(ctx context.Context) error {
	if d.conn == nil {
		return errNotOpen
	}
	_, err := d.conn.ExecContext(ctx, "DELETE FROM recent_files")
	return err
}

func (d *DB) Close() {
	if d.conn != nil {
		d.conn.Close()
	}
}

var errNotOpen = errors.New("store: database not open")
