package download

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// History remembers which videos were already fetched.
type History interface {
	Downloaded(ctx context.Context, videoID string) (bool, error)
	Record(ctx context.Context, keyword string, o Outcome) error
	Close() error
}

// DefaultHistoryPath returns ~/.go_douyin/history.db.
func DefaultHistoryPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = os.Getenv("HOME")
	}
	return filepath.Join(home, ".go_douyin", "history.db")
}

// OpenHistory opens the Postgres history when databaseURL is set, otherwise
// the SQLite file at sqlitePath (DefaultHistoryPath if empty).
func OpenHistory(ctx context.Context, databaseURL, sqlitePath string) (History, error) {
	if databaseURL != "" {
		return OpenPostgresHistory(ctx, databaseURL)
	}
	if sqlitePath == "" {
		sqlitePath = DefaultHistoryPath()
	}
	return OpenSQLiteHistory(sqlitePath)
}

// SQLiteHistory stores download outcomes in a local SQLite file.
type SQLiteHistory struct {
	db *sql.DB
}

// OpenSQLiteHistory opens (or creates) the history database at path.
func OpenSQLiteHistory(path string) (*SQLiteHistory, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return nil, fmt.Errorf("history: mkdir %s: %w", filepath.Dir(path), err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("history: open db: %w", err)
	}
	db.SetMaxOpenConns(1) // SQLite: single writer
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS downloads (
		video_id    TEXT PRIMARY KEY,
		keyword     TEXT NOT NULL,
		description TEXT NOT NULL,
		success     INTEGER NOT NULL,
		message     TEXT NOT NULL,
		updated_at  TEXT NOT NULL
	)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("history: init schema: %w", err)
	}
	return &SQLiteHistory{db: db}, nil
}

func (h *SQLiteHistory) Downloaded(ctx context.Context, videoID string) (bool, error) {
	var success int
	err := h.db.QueryRowContext(ctx,
		`SELECT success FROM downloads WHERE video_id = ?`, videoID).Scan(&success)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("history: lookup: %w", err)
	}
	return success != 0, nil
}

// Record upserts the outcome for o.VideoID.
func (h *SQLiteHistory) Record(ctx context.Context, keyword string, o Outcome) error {
	success := 0
	if o.Success {
		success = 1
	}
	_, err := h.db.ExecContext(ctx, `INSERT INTO downloads (video_id, keyword, description, success, message, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(video_id) DO UPDATE SET
			keyword = excluded.keyword,
			description = excluded.description,
			success = excluded.success,
			message = excluded.message,
			updated_at = excluded.updated_at`,
		o.VideoID, keyword, o.Desc, success, o.Message, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("history: record: %w", err)
	}
	return nil
}

func (h *SQLiteHistory) Close() error {
	return h.db.Close()
}

// nopHistory is used when no history store could be opened.
type nopHistory struct{}

func (nopHistory) Downloaded(context.Context, string) (bool, error) { return false, nil }
func (nopHistory) Record(context.Context, string, Outcome) error    { return nil }
func (nopHistory) Close() error                                     { return nil }

// OpenHistoryOrNop is OpenHistory that degrades to an empty history with a warning.
func OpenHistoryOrNop(ctx context.Context, databaseURL, sqlitePath string) History {
	h, err := OpenHistory(ctx, databaseURL, sqlitePath)
	if err != nil {
		slog.Warn("download history unavailable", slog.Any("error", err))
		return nopHistory{}
	}
	return h
}
