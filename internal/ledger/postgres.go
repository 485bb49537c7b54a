package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresLedger backs the ledger with a transactional store so
// several concurrent sessions can share one dedup view.
//
// Schema:
//
//	CREATE TABLE IF NOT EXISTS submissions (
//	    id           UUID PRIMARY KEY,
//	    posting_id   TEXT NOT NULL,
//	    contacted_at TIMESTAMPTZ NOT NULL,
//	    outcome      TEXT NOT NULL
//	);
//	CREATE INDEX IF NOT EXISTS submissions_posting_idx ON submissions (posting_id);
type PostgresLedger struct {
	db *pgxpool.Pool
}

func NewPostgresLedger(ctx context.Context, connString string) (*PostgresLedger, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("unable to parse database url: %w", err)
	}

	config.MaxConns = 10
	config.MinConns = 2
	config.MaxConnLifetime = time.Hour

	// Connection poolers in transaction mode choke on the statement
	// cache; exec mode avoids prepared statements entirely.
	config.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeExec

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("database unreachable: %w", err)
	}

	return &PostgresLedger{db: pool}, nil
}

func (l *PostgresLedger) Exists(ctx context.Context, postingID string) (bool, error) {
	var exists bool
	err := l.db.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM submissions WHERE posting_id = $1 AND outcome = 'sent')`,
		postingID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("ledger exists query: %w", err)
	}
	return exists, nil
}

func (l *PostgresLedger) Append(ctx context.Context, rec Record) error {
	_, err := l.db.Exec(ctx,
		`INSERT INTO submissions (id, posting_id, contacted_at, outcome)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (id) DO NOTHING`,
		rec.ID, rec.PostingID, rec.ContactedAt, string(rec.Outcome),
	)
	if err != nil {
		return fmt.Errorf("ledger append: %w", err)
	}
	return nil
}

func (l *PostgresLedger) Close() error {
	if l.db != nil {
		l.db.Close()
	}
	return nil
}
