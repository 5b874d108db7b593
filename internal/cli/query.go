package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mintick/mintick/internal/contract"
	"github.com/mintick/mintick/internal/ledger"
	"github.com/mintick/mintick/internal/series"
	"github.com/mintick/mintick/internal/token"
)

// QueryOptions holds flags shared by the query subcommands.
type QueryOptions struct {
	*RootOptions
	Database string
	Owner    string
	Series   string
	From     int
	Limit    int
}

// NewQueryCommand creates the query command with its subcommands.
func NewQueryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &QueryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "query",
		Short: "Read deployment state",
		Long: `Read the deployment state rebuilt from the journal.

All reads are served from a full replay of the journal, so they reflect
exactly the journaled history and nothing else.

Examples:
  mintick query metadata
  mintick query series --from 0 --limit 10
  mintick query series "1|1"
  mintick query token "1|1:1"
  mintick query tokens --owner fan.near --limit 20
  mintick query supply --series "1|1"
  mintick query payout "1|1:1" 400000000000000000000000 --max-recipients 10`,
	}

	cmd.PersistentFlags().StringVar(&opts.Database, "db", "", "journal path (overrides config)")

	cmd.AddCommand(newQueryMetadataCommand(opts))
	cmd.AddCommand(newQueryRateCommand(opts))
	cmd.AddCommand(newQueryAdminsCommand(opts))
	cmd.AddCommand(newQuerySeriesCommand(opts))
	cmd.AddCommand(newQueryPriceCommand(opts))
	cmd.AddCommand(newQueryCopiesCommand(opts))
	cmd.AddCommand(newQueryTokenCommand(opts))
	cmd.AddCommand(newQueryTokensCommand(opts))
	cmd.AddCommand(newQuerySupplyCommand(opts))
	cmd.AddCommand(newQueryPayoutCommand(opts))

	return cmd
}

// runQuery opens a session and hands the rebuilt contract to fn, formatting
// engine rejections with their error class.
func runQuery(opts *QueryOptions, cmd *cobra.Command, fn func(ct *contract.Contract) (interface{}, error)) error {
	ctx := context.Background()
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	sess, err := openSession(ctx, opts.Config, opts.Database)
	if err != nil {
		return err
	}
	defer sess.Close()

	data, err := fn(sess.ct)
	if err != nil {
		if ferr := formatter.Error(string(contract.CodeOf(err)), err.Error(), nil); ferr != nil {
			return ferr
		}
		return NewExitError(ExitFailure, "query failed")
	}
	return formatter.SuccessJSON(data)
}

func newQueryMetadataCommand(opts *QueryOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "metadata",
		Short:         "Show the contract metadata",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(opts, cmd, func(ct *contract.Contract) (interface{}, error) {
				return ct.Metadata(), nil
			})
		},
	}
}

func newQueryRateCommand(opts *QueryOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "rate",
		Short:         "Show the current exchange rate",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(opts, cmd, func(ct *contract.Contract) (interface{}, error) {
				rate, ok := ct.Rate()
				if !ok {
					return map[string]interface{}{"set": false}, nil
				}
				return map[string]interface{}{"set": true, "tasa": rate.String()}, nil
			})
		},
	}
}

func newQueryAdminsCommand(opts *QueryOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "admins",
		Short:         "List admin accounts",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(opts, cmd, func(ct *contract.Contract) (interface{}, error) {
				return ct.Admins(), nil
			})
		},
	}
}

func newQuerySeriesCommand(opts *QueryOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "series [series-id]",
		Short:         "List series or show one series",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(opts, cmd, func(ct *contract.Contract) (interface{}, error) {
				if len(args) == 1 {
					return ct.SeriesSingle(series.ID(args[0]))
				}
				return ct.SeriesList(opts.From, opts.Limit)
			})
		},
	}
	cmd.Flags().IntVar(&opts.From, "from", 0, "pagination offset")
	cmd.Flags().IntVar(&opts.Limit, "limit", 50, "pagination limit")
	return cmd
}

func newQueryPriceCommand(opts *QueryOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "price <series-id>",
		Short:         "Show a series' quoted price in yocto (native price plus display margin)",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(opts, cmd, func(ct *contract.Contract) (interface{}, error) {
				price, err := ct.SeriesPrice(series.ID(args[0]))
				if err != nil {
					return nil, err
				}
				if price == nil {
					return map[string]interface{}{"token_series_id": args[0], "price": nil}, nil
				}
				return map[string]interface{}{"token_series_id": args[0], "price": price.String()}, nil
			})
		},
	}
}

func newQueryCopiesCommand(opts *QueryOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "copies <series-id>",
		Short:         "Show a series' remaining purchasable copies",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(opts, cmd, func(ct *contract.Contract) (interface{}, error) {
				remaining, err := ct.AvailableCopies(series.ID(args[0]))
				if err != nil {
					return nil, err
				}
				return map[string]interface{}{"token_series_id": args[0], "available": remaining}, nil
			})
		},
	}
}

func newQueryTokenCommand(opts *QueryOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "token <token-id>",
		Short:         "Show one issued item",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(opts, cmd, func(ct *contract.Contract) (interface{}, error) {
				return ct.Token(token.ItemID(args[0]))
			})
		},
	}
}

func newQueryTokensCommand(opts *QueryOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "tokens",
		Short:         "List issued items, optionally for one holder",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(opts, cmd, func(ct *contract.Contract) (interface{}, error) {
				if opts.Owner != "" {
					return ct.TokensForOwner(ledger.AccountID(opts.Owner), opts.From, opts.Limit)
				}
				return ct.Tokens(opts.From, opts.Limit)
			})
		},
	}
	cmd.Flags().StringVar(&opts.Owner, "owner", "", "filter by holder account")
	cmd.Flags().IntVar(&opts.From, "from", 0, "pagination offset")
	cmd.Flags().IntVar(&opts.Limit, "limit", 50, "pagination limit")
	return cmd
}

func newQuerySupplyCommand(opts *QueryOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "supply",
		Short:         "Show issued-item counts",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.Owner != "" && opts.Series != "" {
				return NewExitError(ExitCommandError, "--owner and --series are mutually exclusive")
			}
			return runQuery(opts, cmd, func(ct *contract.Contract) (interface{}, error) {
				switch {
				case opts.Owner != "":
					return map[string]interface{}{"owner": opts.Owner, "supply": ct.SupplyForOwner(ledger.AccountID(opts.Owner))}, nil
				case opts.Series != "":
					supply, err := ct.SupplyForSeries(series.ID(opts.Series))
					if err != nil {
						return nil, err
					}
					return map[string]interface{}{"token_series_id": opts.Series, "supply": supply}, nil
				default:
					return map[string]interface{}{"supply": ct.TotalSupply()}, nil
				}
			})
		},
	}
	cmd.Flags().StringVar(&opts.Owner, "owner", "", "count items held by this account")
	cmd.Flags().StringVar(&opts.Series, "series", "", "count items issued from this series")
	return cmd
}

func newQueryPayoutCommand(opts *QueryOptions) *cobra.Command {
	var maxRecipients int
	cmd := &cobra.Command{
		Use:           "payout <token-id> <balance>",
		Short:         "Preview the royalty split for a sale balance",
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			balance, err := ledger.ParseAmount(args[1])
			if err != nil {
				return WrapExitError(ExitCommandError, fmt.Sprintf("invalid balance %q", args[1]), err)
			}
			return runQuery(opts, cmd, func(ct *contract.Contract) (interface{}, error) {
				return ct.PayoutPreview(token.ItemID(args[0]), balance, maxRecipients)
			})
		},
	}
	cmd.Flags().IntVar(&maxRecipients, "max-recipients", 10, "maximum payout entries")
	return cmd
}
