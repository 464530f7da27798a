package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(ctx context.Context, path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", sqliteDSN(path))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err = db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err = s.initSchema(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return s, nil
}

// sqliteDSN enables WAL and a busy timeout so the background jobs and request
// handlers can write concurrently.
func sqliteDSN(path string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_busy_timeout=5000&_journal_mode=WAL"
}

func (s *SQLiteStore) Close(_ context.Context) error {
	return s.db.Close()
}

func (s *SQLiteStore) initSchema(ctx context.Context) error {
	schema := `
    CREATE TABLE IF NOT EXISTS messages (
        id TEXT PRIMARY KEY, -- UUID
        text TEXT NOT NULL,
        sender TEXT NOT NULL CHECK (sender IN ('user', 'bot'))
    );

    CREATE TABLE IF NOT EXISTS trends (
        id TEXT PRIMARY KEY, -- UUID
        title TEXT NOT NULL,
        description TEXT NOT NULL,
        captured_at INTEGER NOT NULL -- unix nanoseconds, UTC
    );

    CREATE INDEX IF NOT EXISTS idx_trends_captured_at ON trends(captured_at);
    `
	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// Message methods
func (s *SQLiteStore) InsertMessage(ctx context.Context, msg Message) error {
	if err := msg.Validate(); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, "INSERT INTO messages (id, text, sender) VALUES (?, ?, ?)", uuid.NewString(), msg.Text, string(msg.Sender))
	if err != nil {
		return fmt.Errorf("failed to insert message: %w", err)
	}
	return nil
}

func (s *SQLiteStore) ListMessages(ctx context.Context) ([]Message, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT text, sender FROM messages")
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer rows.Close()

	messages := []Message{}
	for rows.Next() {
		var msg Message
		var sender string
		if err := rows.Scan(&msg.Text, &sender); err != nil {
			return nil, fmt.Errorf("failed to scan message row: %w", err)
		}
		msg.Sender = Sender(sender)
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate messages: %w", err)
	}
	return messages, nil
}

func (s *SQLiteStore) DeleteAllMessages(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM messages"); err != nil {
		return fmt.Errorf("failed to delete messages: %w", err)
	}
	return nil
}

// Trend methods
func (s *SQLiteStore) InsertTrends(ctx context.Context, items []TrendItem) error {
	if len(items) == 0 {
		return errNoTrends
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin trend insert: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, "INSERT INTO trends (id, title, description, captured_at) VALUES (?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("failed to prepare trend insert: %w", err)
	}
	defer stmt.Close()

	for _, item := range items {
		if _, err := stmt.ExecContext(ctx, uuid.NewString(), item.Title, item.Description, item.CapturedAt.UTC().UnixNano()); err != nil {
			return fmt.Errorf("failed to execute trend insert: %w", err)
		}
	}
	return tx.Commit()
}

func (s *SQLiteStore) ListTrends(ctx context.Context) ([]TrendItem, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT title, description, captured_at FROM trends ORDER BY captured_at ASC")
	if err != nil {
		return nil, fmt.Errorf("failed to query trends: %w", err)
	}
	defer rows.Close()

	items := []TrendItem{}
	for rows.Next() {
		var item TrendItem
		var capturedAt int64
		if err := rows.Scan(&item.Title, &item.Description, &capturedAt); err != nil {
			return nil, fmt.Errorf("failed to scan trend row: %w", err)
		}
		item.CapturedAt = time.Unix(0, capturedAt).UTC()
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate trends: %w", err)
	}
	return items, nil
}

func (s *SQLiteStore) DeleteTrendsOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM trends WHERE captured_at < ?", cutoff.UTC().UnixNano())
	if err != nil {
		return 0, fmt.Errorf("failed to delete old trends: %w", err)
	}
	affected, _ := res.RowsAffected()
	return affected, nil
}
