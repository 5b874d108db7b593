package cli

import (
	"context"

	"github.com/mintick/mintick/internal/config"
	"github.com/mintick/mintick/internal/contract"
	"github.com/mintick/mintick/internal/journal"
)

// session is an open journaled deployment: the parsed config, the journal,
// and the contract rebuilt by replaying it.
type session struct {
	cfg   *config.Config
	jrnl  *journal.Journal
	ct    *contract.Contract
	flows *journal.FlowSource
}

// openSession loads the config, opens the journal and replays it into a live
// contract. An empty dbOverride uses the configured journal path.
func openSession(ctx context.Context, configPath, dbOverride string) (*session, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load config", err)
	}

	path := cfg.DB
	if dbOverride != "" {
		path = dbOverride
	}
	j, err := journal.Open(path)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open journal", err)
	}

	ct, flows, err := journal.Resume(ctx, j, cfg.Owner, cfg.Vault, cfg.Options()...)
	if err != nil {
		j.Close()
		return nil, WrapExitError(ExitFailure, "journal replay failed", err)
	}

	return &session{cfg: cfg, jrnl: j, ct: ct, flows: flows}, nil
}

func (s *session) Close() error {
	return s.jrnl.Close()
}

// record journals one applied operation. The flow source must already carry
// op.Flow and the contract must already have applied the operation, with
// next naming the first event seq it produced.
func (s *session) record(ctx context.Context, op journal.OpRecord, next int64) (bool, error) {
	return s.jrnl.WriteOpAtomic(ctx, op, s.ct.Events().Since(next))
}
