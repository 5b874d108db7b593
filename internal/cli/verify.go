package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mintick/mintick/internal/config"
	"github.com/mintick/mintick/internal/journal"
)

// VerifyOptions holds flags for the verify command.
type VerifyOptions struct {
	*RootOptions
	Database string
}

// VerifyResult reports the outcome of a full journal replay.
type VerifyResult struct {
	Ops      int             `json:"ops"`
	Events   int64           `json:"events"`
	Seq      int64           `json:"seq"`
	Flows    int             `json:"flows"`
	Verified bool            `json:"verified"`
	Mismatch *VerifyMismatch `json:"mismatch,omitempty"`
}

// VerifyMismatch describes the first divergent event.
type VerifyMismatch struct {
	Flow     string `json:"flow_token"`
	Seq      int64  `json:"seq"`
	Recorded string `json:"recorded"`
	Replayed string `json:"replayed"`
}

// NewVerifyCommand creates the verify command.
func NewVerifyCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &VerifyOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Replay the journal and verify event identities",
		Long: `Replay every journaled operation and verify the event trace.

Each operation is reapplied against a fresh contract and the regenerated
content-addressed event IDs are compared with the journaled ones. Any
divergence — a tampered record, or a config that no longer matches the
original deployment — is reported with the first mismatching event.

Exit codes:
  0 - Journal verified
  1 - Replay diverged from the journaled history
  2 - Command error (bad config, missing journal, etc.)

Examples:
  mintick verify --config mintick.cue
  mintick verify --config mintick.cue --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVerify(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "journal path (overrides config)")

	return cmd
}

func runVerify(opts *VerifyOptions, cmd *cobra.Command) error {
	ctx := context.Background()
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	cfg, err := config.Load(opts.Config)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load config", err)
	}
	path := cfg.DB
	if opts.Database != "" {
		path = opts.Database
	}
	j, err := journal.Open(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open journal", err)
	}
	defer j.Close()

	ops, err := j.ReadOps(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read journal", err)
	}
	flows, err := j.ListFlows(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to list flows", err)
	}
	lastSeq, err := j.LastSeq(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read journal", err)
	}

	result := VerifyResult{Ops: len(ops), Events: lastSeq, Flows: len(flows)}

	ct, err := journal.Replay(ctx, j, cfg.Owner, cfg.Vault, cfg.Options()...)
	if err != nil {
		var mismatch *journal.MismatchError
		if !errors.As(err, &mismatch) {
			return WrapExitError(ExitCommandError, "replay failed", err)
		}
		result.Mismatch = &VerifyMismatch{
			Flow:     mismatch.Flow,
			Seq:      mismatch.Seq,
			Recorded: mismatch.Recorded,
			Replayed: mismatch.Replayed,
		}
	} else {
		result.Verified = true
		result.Seq = ct.Seq()
	}

	if opts.Format == "json" {
		if err := formatter.Success(result); err != nil {
			return err
		}
	} else {
		outputVerifyText(cmd, result)
	}

	if !result.Verified {
		return NewExitError(ExitFailure, "journal verification failed")
	}
	return nil
}

func outputVerifyText(cmd *cobra.Command, result VerifyResult) {
	out := cmd.OutOrStdout()
	if result.Verified {
		fmt.Fprintf(out, "Verified: %d ops, %d events, %d flows (seq %d)\n",
			result.Ops, result.Events, result.Flows, result.Seq)
		return
	}
	fmt.Fprintf(out, "DIVERGED at seq %d (flow %s)\n", result.Mismatch.Seq, result.Mismatch.Flow)
	fmt.Fprintf(out, "  recorded: %s\n", result.Mismatch.Recorded)
	fmt.Fprintf(out, "  replayed: %s\n", result.Mismatch.Replayed)
}
