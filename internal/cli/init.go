package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mintick/mintick/internal/contract"
	"github.com/mintick/mintick/internal/journal"
)

// InitOptions holds flags for the init command.
type InitOptions struct {
	*RootOptions
	Database string
}

// InitResult reports the genesis state of a new deployment.
type InitResult struct {
	Database string   `json:"database"`
	Owner    string   `json:"owner"`
	Vault    string   `json:"vault"`
	Ops      int      `json:"ops"`
	Seq      int64    `json:"seq"`
	Admins   []string `json:"admins,omitempty"`
}

// NewInitCommand creates the init command.
func NewInitCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &InitOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a journal and record the genesis operations",
		Long: `Create the journal database and record the configured genesis state.

The configured exchange rate and admin grants are journaled as ordinary
operations invoked by the owner, so a later replay rebuilds the deployment
from an empty contract with no out-of-band seeding.

Exit codes:
  0 - Journal initialized
  1 - Genesis operation rejected
  2 - Command error (bad config, journal already initialized)

Examples:
  mintick init --config mintick.cue
  mintick init --config mintick.cue --db ./mintick.db`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "journal path (overrides config)")

	return cmd
}

func runInit(opts *InitOptions, cmd *cobra.Command) error {
	ctx := context.Background()
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	sess, err := openSession(ctx, opts.Config, opts.Database)
	if err != nil {
		return err
	}
	defer sess.Close()

	count, err := sess.jrnl.CountOps(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to inspect journal", err)
	}
	if count > 0 {
		return NewExitError(ExitCommandError, fmt.Sprintf("journal already holds %d operations", count))
	}

	var ops []journal.OpRecord
	if sess.cfg.Rate != nil {
		ops = append(ops, journal.OpRecord{
			Name:   journal.OpSetRate,
			Caller: sess.cfg.Owner,
			Args:   journal.Args{Rate: sess.cfg.Rate.String()},
		})
	}
	for _, admin := range sess.cfg.Admins {
		ops = append(ops, journal.OpRecord{
			Name:   journal.OpAddAdmin,
			Caller: sess.cfg.Owner,
			Args:   journal.Args{AccountID: string(admin)},
		})
	}

	gen := contract.UUIDv7Generator{}
	for _, op := range ops {
		op.Flow = gen.Generate()
		sess.flows.Set(op.Flow)
		next := sess.ct.Seq() + 1
		if err := journal.Apply(sess.ct, op); err != nil {
			if ferr := formatter.Error(string(contract.CodeOf(err)), err.Error(), nil); ferr != nil {
				return ferr
			}
			return NewExitError(ExitFailure, fmt.Sprintf("genesis %s rejected", op.Name))
		}
		if _, err := sess.record(ctx, op, next); err != nil {
			return WrapExitError(ExitCommandError, "failed to journal genesis operation", err)
		}
		formatter.VerboseLog("journaled %s (flow %s)", op.Name, op.Flow)
	}

	result := InitResult{
		Database: sess.cfg.DB,
		Owner:    string(sess.cfg.Owner),
		Vault:    string(sess.cfg.Vault),
		Ops:      len(ops),
		Seq:      sess.ct.Seq(),
	}
	if opts.Database != "" {
		result.Database = opts.Database
	}
	for _, admin := range sess.cfg.Admins {
		result.Admins = append(result.Admins, string(admin))
	}

	if opts.Format == "json" {
		return formatter.Success(result)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Initialized journal %s (owner %s, vault %s, %d genesis ops)\n",
		result.Database, result.Owner, result.Vault, result.Ops)
	return nil
}
