package journal

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS research_runs (
    run_id TEXT PRIMARY KEY,
    query TEXT NOT NULL,
    outcome TEXT NOT NULL,
    iterations INTEGER NOT NULL,
    tools TEXT[] NOT NULL DEFAULT '{}',
    started_at TIMESTAMPTZ NOT NULL,
    duration_ms BIGINT NOT NULL,
    error TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS research_runs_started_idx ON research_runs (started_at);
`

// PostgresRecorder stores run records in the research_runs table.
type PostgresRecorder struct {
	DB *pgxpool.Pool
}

// NewPostgresRecorder connects to Postgres and makes sure the table exists.
func NewPostgresRecorder(ctx context.Context, connStr string) (*PostgresRecorder, error) {
	db, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Postgres: %w", err)
	}
	if _, err := db.Exec(ctx, postgresSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create journal schema: %w", err)
	}
	return &PostgresRecorder{DB: db}, nil
}

func (pr *PostgresRecorder) Record(ctx context.Context, rec Record) error {
	if pr == nil || pr.DB == nil {
		return nil
	}
	tools := rec.Tools
	if tools == nil {
		tools = []string{}
	}
	_, err := pr.DB.Exec(ctx, `
                INSERT INTO research_runs (run_id, query, outcome, iterations, tools, started_at, duration_ms, error)
                VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
                ON CONFLICT (run_id) DO NOTHING;
        `, rec.RunID, rec.Query, rec.Outcome, rec.Iterations, tools, rec.StartedAt.UTC(), rec.Duration.Milliseconds(), rec.Error)
	if err != nil {
		return fmt.Errorf("postgres journal: %w", err)
	}
	return nil
}

func (pr *PostgresRecorder) Close() error {
	if pr == nil || pr.DB == nil {
		return nil
	}
	pr.DB.Close()
	return nil
}
