package projection

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	es "github.com/userevents/core"
)

// PgxLedger is a PostgreSQL-backed Ledger over the processed_event table.
type PgxLedger struct {
	pool *pgxpool.Pool
}

// NewPgxLedger builds a PgxLedger.
func NewPgxLedger(pool *pgxpool.Pool) *PgxLedger {
	return &PgxLedger{pool: pool}
}

func (l *PgxLedger) AlreadyProcessed(ctx context.Context, task, eventID string) (bool, error) {
	var exists bool
	err := l.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM processed_event WHERE task_name = $1 AND event_id = $2)`,
		task, eventID,
	).Scan(&exists)
	if err != nil {
		return false, &es.StorageError{Op: "ledger_check", Cause: err}
	}
	return exists, nil
}

func (l *PgxLedger) MarkProcessed(ctx context.Context, task, eventID string) error {
	_, err := l.pool.Exec(ctx,
		`INSERT INTO processed_event (task_name, event_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
		task, eventID,
	)
	if err != nil && err != pgx.ErrNoRows {
		return &es.StorageError{Op: "ledger_mark", Cause: err}
	}
	return nil
}

var _ Ledger = (*PgxLedger)(nil)
