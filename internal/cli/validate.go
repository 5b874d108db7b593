package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mintick/mintick/internal/config"
)

// ValidationResult holds the outcome of a config validation.
type ValidationResult struct {
	Valid  bool   `json:"valid"`
	Owner  string `json:"owner,omitempty"`
	Vault  string `json:"vault,omitempty"`
	Error  string `json:"error,omitempty"`
	Admins int    `json:"admins,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate [config]",
		Short: "Validate a deployment config",
		Long: `Validate a deployment config against the schema without touching the journal.

Checks the CUE schema (accounts, fee bounds, rate format) and the engine's
own account and rate rules. Defaults to the global --config path when no
argument is given.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := rootOpts.Config
			if len(args) == 1 {
				path = args[0]
			}
			return runValidate(rootOpts, path, cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd.OutOrStdout(), cmd.ErrOrStderr())

	cfg, err := config.Load(path)
	if err != nil {
		result := ValidationResult{Valid: false, Error: err.Error()}
		if opts.Format == "json" {
			if ferr := formatter.Success(result); ferr != nil {
				return ferr
			}
		} else {
			fmt.Fprintf(cmd.OutOrStdout(), "INVALID %s\n  %s\n", path, err)
		}
		return NewExitError(ExitFailure, "config validation failed")
	}

	result := ValidationResult{
		Valid:  true,
		Owner:  string(cfg.Owner),
		Vault:  string(cfg.Vault),
		Admins: len(cfg.Admins),
	}
	if opts.Format == "json" {
		return formatter.Success(result)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "OK %s (owner %s, vault %s, %d admins)\n",
		path, result.Owner, result.Vault, result.Admins)
	return nil
}
