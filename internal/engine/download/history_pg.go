package download

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed schema/*.sql
var schemaFS embed.FS

// PostgresHistory stores download outcomes in Postgres.
type PostgresHistory struct {
	pool *pgxpool.Pool
}

// OpenPostgresHistory connects to databaseURL and applies the schema.
func OpenPostgresHistory(ctx context.Context, databaseURL string) (*PostgresHistory, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse DATABASE_URL: %w", err)
	}
	config.MaxConns = 4
	config.MinConns = 1

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("create pgx pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	h := &PostgresHistory{pool: pool}
	if err := h.migrate(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	slog.Info("download history on postgres", slog.String("addr", config.ConnConfig.Host))
	return h, nil
}

func (h *PostgresHistory) migrate(ctx context.Context) error {
	entries, err := schemaFS.ReadDir("schema")
	if err != nil {
		return fmt.Errorf("read schema dir: %w", err)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})
	for _, e := range entries {
		data, err := schemaFS.ReadFile("schema/" + e.Name())
		if err != nil {
			return fmt.Errorf("read %s: %w", e.Name(), err)
		}
		if _, err := h.pool.Exec(ctx, string(data)); err != nil {
			return fmt.Errorf("apply %s: %w", e.Name(), err)
		}
	}
	return nil
}

func (h *PostgresHistory) Downloaded(ctx context.Context, videoID string) (bool, error) {
	var success bool
	err := h.pool.QueryRow(ctx,
		`SELECT success FROM douyin_downloads WHERE video_id = $1`, videoID).Scan(&success)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("history: lookup: %w", err)
	}
	return success, nil
}

func (h *PostgresHistory) Record(ctx context.Context, keyword string, o Outcome) error {
	_, err := h.pool.Exec(ctx, `INSERT INTO douyin_downloads (video_id, keyword, description, success, message, updated_at)
		VALUES ($1, $2, $3, $4, $5, now())
		ON CONFLICT (video_id) DO UPDATE SET
			keyword = EXCLUDED.keyword,
			description = EXCLUDED.description,
			success = EXCLUDED.success,
			message = EXCLUDED.message,
			updated_at = now()`,
		o.VideoID, keyword, o.Desc, o.Success, o.Message)
	if err != nil {
		return fmt.Errorf("history: record: %w", err)
	}
	return nil
}

func (h *PostgresHistory) Close() error {
	h.pool.Close()
	return nil
}
