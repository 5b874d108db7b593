package journal

import (
	"context"
	"fmt"

	"github.com/mintick/mintick/internal/event"
)

// WriteOp inserts an operation record. Uses ON CONFLICT(flow_token) DO
// NOTHING for idempotency; returns whether a new row was inserted.
func (j *Journal) WriteOp(ctx context.Context, op OpRecord) (bool, error) {
	argsJSON, err := marshalArgs(op.Args)
	if err != nil {
		return false, fmt.Errorf("write op: %w", err)
	}

	result, err := j.db.ExecContext(ctx, `
		INSERT INTO ops (flow_token, name, caller, args, deposit)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(flow_token) DO NOTHING
	`,
		op.Flow,
		op.Name,
		string(op.Caller),
		argsJSON,
		marshalDeposit(op.Deposit),
	)
	if err != nil {
		return false, fmt.Errorf("write op: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("write op: rows affected: %w", err)
	}
	return n > 0, nil
}

// WriteEvent inserts one emitted event under the given flow token. The event
// ID is computed here so the stored identity always matches the payload.
// Duplicate IDs are silently ignored.
//
// The operation referenced by flow must already exist (foreign key).
func (j *Journal) WriteEvent(ctx context.Context, flow string, e event.Event) error {
	id, err := e.ID()
	if err != nil {
		return fmt.Errorf("write event: %w", err)
	}
	paramsJSON, err := marshalParams(e.Params)
	if err != nil {
		return fmt.Errorf("write event: %w", err)
	}

	_, err = j.db.ExecContext(ctx, `
		INSERT INTO events (id, seq, flow_token, type, params)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT DO NOTHING
	`,
		id,
		e.Seq,
		flow,
		e.Type,
		paramsJSON,
	)
	if err != nil {
		return fmt.Errorf("write event: %w", err)
	}
	return nil
}

// WriteOpAtomic writes an operation and its emitted events in one
// transaction, so a crash never records an op without its events or vice
// versa. If the op's flow token already exists the whole write is a no-op and
// inserted is false.
func (j *Journal) WriteOpAtomic(ctx context.Context, op OpRecord, events []event.Event) (inserted bool, err error) {
	argsJSON, err := marshalArgs(op.Args)
	if err != nil {
		return false, fmt.Errorf("atomic write: %w", err)
	}

	tx, err := j.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("atomic write: begin tx: %w", err)
	}
	defer tx.Rollback() // no-op if committed

	result, err := tx.ExecContext(ctx, `
		INSERT INTO ops (flow_token, name, caller, args, deposit)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(flow_token) DO NOTHING
	`,
		op.Flow,
		op.Name,
		string(op.Caller),
		argsJSON,
		marshalDeposit(op.Deposit),
	)
	if err != nil {
		return false, fmt.Errorf("atomic write: insert op: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("atomic write: rows affected: %w", err)
	}
	if n == 0 {
		// Already journaled; the events came with it.
		if err := tx.Commit(); err != nil {
			return false, fmt.Errorf("atomic write: commit (existing): %w", err)
		}
		return false, nil
	}

	for _, e := range events {
		id, err := e.ID()
		if err != nil {
			return false, fmt.Errorf("atomic write: %w", err)
		}
		paramsJSON, err := marshalParams(e.Params)
		if err != nil {
			return false, fmt.Errorf("atomic write: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO events (id, seq, flow_token, type, params)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT DO NOTHING
		`, id, e.Seq, op.Flow, e.Type, paramsJSON); err != nil {
			return false, fmt.Errorf("atomic write: insert event seq %d: %w", e.Seq, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("atomic write: commit: %w", err)
	}
	return true, nil
}
