package remote

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/mattn/go-sqlite3"

	"github.com/fulldump/bucketdb/database"
)

const schema = `
CREATE TABLE IF NOT EXISTS commands (
	seq       INTEGER PRIMARY KEY AUTOINCREMENT,
	uuid      TEXT    NOT NULL UNIQUE,
	name      TEXT    NOT NULL,
	bucket    TEXT    NOT NULL,
	timestamp INTEGER NOT NULL,
	payload   BLOB    NOT NULL
)`

// SQLite archives the change log into a local SQLite file.
type SQLite struct {
	filename string
	db       *sql.DB
	online   atomic.Bool
}

// OpenSQLite opens (or creates) filename with WAL journaling and a single
// connection.
func OpenSQLite(filename string) (*SQLite, error) {

	dsn := fmt.Sprintf("file:%s?mode=rwc&_journal_mode=WAL&_synchronous=FULL&_busy_timeout=5000", filename)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite '%s': %w", filename, err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect sqlite '%s': %w", filename, err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	s := &SQLite{filename: filename, db: db}
	s.online.Store(true)

	return s, nil
}

func (s *SQLite) ID() string {
	return "sqlite:" + s.filename
}

func (s *SQLite) IsOnline() bool {
	return s.online.Load()
}

// busy tells whether err is a lock the next attempt may not hit.
func busy(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code == sqlite3.ErrBusy || sqliteErr.Code == sqlite3.ErrLocked
	}
	return false
}

// Sync stores commands in one transaction. Commands already stored, by
// uuid, are skipped.
func (s *SQLite) Sync(ctx context.Context, commands []database.Command) (err error) {

	defer func() {
		s.online.Store(err == nil || !busy(err))
	}()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT OR IGNORE INTO commands (uuid, name, bucket, timestamp, payload) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	for _, c := range commands {
		_, err = stmt.ExecContext(ctx, c.Uuid, c.Name, c.Bucket, c.Timestamp, []byte(c.Payload))
		if err != nil {
			return fmt.Errorf("insert command '%s': %w", c.Uuid, err)
		}
	}

	return tx.Commit()
}

// Probe pings the database file.
func (s *SQLite) Probe(ctx context.Context) error {
	err := s.db.PingContext(ctx)
	s.online.Store(err == nil)
	return err
}

// Commands reads the archived log in insertion order.
func (s *SQLite) Commands(ctx context.Context) ([]database.Command, error) {

	rows, err := s.db.QueryContext(ctx, `SELECT uuid, name, bucket, timestamp, payload FROM commands ORDER BY seq`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	commands := []database.Command{}
	for rows.Next() {
		c := database.Command{}
		var payload []byte
		if err := rows.Scan(&c.Uuid, &c.Name, &c.Bucket, &c.Timestamp, &payload); err != nil {
			return nil, err
		}
		c.Payload = payload
		commands = append(commands, c)
	}

	return commands, rows.Err()
}

func (s *SQLite) Close() error {
	return s.db.Close()
}
