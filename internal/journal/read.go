package journal

import (
	"context"
	"fmt"

	"github.com/mintick/mintick/internal/ledger"
)

// ReadOps returns every recorded operation in acceptance order.
func (j *Journal) ReadOps(ctx context.Context) ([]OpRecord, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT ordinal, flow_token, name, caller, args, deposit
		FROM ops
		ORDER BY ordinal ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query ops: %w", err)
	}
	defer rows.Close()

	ops := []OpRecord{}
	for rows.Next() {
		var (
			op                OpRecord
			caller, args, dep string
		)
		if err := rows.Scan(&op.Ordinal, &op.Flow, &op.Name, &caller, &args, &dep); err != nil {
			return nil, fmt.Errorf("scan op: %w", err)
		}
		op.Caller = ledger.AccountID(caller)
		if op.Args, err = unmarshalArgs(args); err != nil {
			return nil, fmt.Errorf("op %s: %w", op.Flow, err)
		}
		if op.Deposit, err = unmarshalDeposit(dep); err != nil {
			return nil, fmt.Errorf("op %s: %w", op.Flow, err)
		}
		ops = append(ops, op)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ops: %w", err)
	}
	return ops, nil
}

// ReadEvents returns the full event history. Ordered by seq, with the
// content-addressed ID as a deterministic tiebreak.
func (j *Journal) ReadEvents(ctx context.Context) ([]EventRecord, error) {
	return j.readEvents(ctx, `
		SELECT id, seq, flow_token, type, params
		FROM events
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`)
}

// ReadEventsForFlow returns the events one operation emitted, in seq order.
func (j *Journal) ReadEventsForFlow(ctx context.Context, flow string) ([]EventRecord, error) {
	return j.readEvents(ctx, `
		SELECT id, seq, flow_token, type, params
		FROM events
		WHERE flow_token = ?
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`, flow)
}

// ReadEventsSince returns events with seq >= since, in seq order.
func (j *Journal) ReadEventsSince(ctx context.Context, since int64) ([]EventRecord, error) {
	return j.readEvents(ctx, `
		SELECT id, seq, flow_token, type, params
		FROM events
		WHERE seq >= ?
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`, since)
}

func (j *Journal) readEvents(ctx context.Context, query string, args ...any) ([]EventRecord, error) {
	rows, err := j.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	events := []EventRecord{}
	for rows.Next() {
		var (
			rec    EventRecord
			params string
		)
		if err := rows.Scan(&rec.ID, &rec.Seq, &rec.Flow, &rec.Type, &params); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		if rec.Params, err = unmarshalParams(params); err != nil {
			return nil, fmt.Errorf("event %s: %w", rec.ID, err)
		}
		events = append(events, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return events, nil
}

// LastSeq returns the highest event seq in the journal, or 0 when empty.
// Used to resume the logical clock after a restart.
func (j *Journal) LastSeq(ctx context.Context) (int64, error) {
	var seq int64
	err := j.db.QueryRowContext(ctx, `
		SELECT COALESCE(MAX(seq), 0) FROM events
	`).Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("last seq: %w", err)
	}
	return seq, nil
}

// ListFlows returns every distinct flow token, in acceptance order.
func (j *Journal) ListFlows(ctx context.Context) ([]string, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT flow_token FROM ops ORDER BY ordinal ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list flows: %w", err)
	}
	defer rows.Close()

	flows := []string{}
	for rows.Next() {
		var flow string
		if err := rows.Scan(&flow); err != nil {
			return nil, fmt.Errorf("scan flow: %w", err)
		}
		flows = append(flows, flow)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate flows: %w", err)
	}
	return flows, nil
}
