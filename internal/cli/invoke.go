package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mintick/mintick/internal/contract"
	"github.com/mintick/mintick/internal/journal"
	"github.com/mintick/mintick/internal/ledger"
)

// InvokeOptions holds flags for the invoke command.
type InvokeOptions struct {
	*RootOptions
	Database string
	Caller   string
	Args     string
	Deposit  string
}

// InvokeEvent is one emitted event in an invocation result.
type InvokeEvent struct {
	Seq    int64       `json:"seq"`
	Type   string      `json:"type"`
	Params interface{} `json:"params"`
}

// InvokeEffect is one outbound transfer settled by an invocation.
type InvokeEffect struct {
	To     string `json:"to"`
	Amount string `json:"amount"`
	Reason string `json:"reason"`
}

// InvokeResult is the outcome of one accepted operation.
type InvokeResult struct {
	Flow    string         `json:"flow_token"`
	Op      string         `json:"op"`
	Caller  string         `json:"caller"`
	Seq     int64          `json:"seq"`
	Events  []InvokeEvent  `json:"events"`
	Effects []InvokeEffect `json:"effects,omitempty"`
}

// knownOps is the set of journalable operation names.
var knownOps = map[string]bool{
	journal.OpAddAdmin:        true,
	journal.OpSetRate:         true,
	journal.OpCreateEvent:     true,
	journal.OpCreateCompanion: true,
	journal.OpUpdateSeries:    true,
	journal.OpBuy:             true,
	journal.OpMint:            true,
	journal.OpBurn:            true,
	journal.OpBurnObject:      true,
	journal.OpApproveObject:   true,
	journal.OpApprove:         true,
	journal.OpRevoke:          true,
	journal.OpRevokeAll:       true,
	journal.OpTransfer:        true,
	journal.OpTransferUnsafe:  true,
	journal.OpTransferPayout:  true,
}

// NewInvokeCommand creates the invoke command.
func NewInvokeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &InvokeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "invoke <op>",
		Short: "Invoke an operation and journal the result",
		Long: `Invoke a named operation against the journaled deployment.

The journal is replayed to rebuild the contract, the operation is applied,
and on acceptance the operation and its events are journaled atomically. A
rejected operation mutates nothing and leaves no record.

Exit codes:
  0 - Operation accepted and journaled
  1 - Operation rejected by the engine
  2 - Command error (bad arguments, journal replay failure, etc.)

Examples:
  mintick invoke update_tasa --caller owner.near --args '{"tasa":"2"}'
  mintick invoke nft_buy --caller fan.near \
      --args '{"token_series_id":"1|1","receiver_id":"fan.near"}' \
      --deposit 5050000000000000000000000`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInvoke(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "journal path (overrides config)")
	cmd.Flags().StringVar(&opts.Caller, "caller", "", "invoking account (required)")
	_ = cmd.MarkFlagRequired("caller")
	cmd.Flags().StringVar(&opts.Args, "args", "{}", "operation arguments as JSON")
	cmd.Flags().StringVar(&opts.Deposit, "deposit", "", "attached deposit in yocto")

	return cmd
}

func runInvoke(opts *InvokeOptions, opName string, cmd *cobra.Command) error {
	ctx := context.Background()
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	if !knownOps[opName] {
		return NewExitError(ExitCommandError, fmt.Sprintf("unknown operation %q (known: %s)", opName, opNameList()))
	}

	caller := ledger.AccountID(opts.Caller)
	if !caller.Valid() {
		return NewExitError(ExitCommandError, fmt.Sprintf("invalid caller account %q", opts.Caller))
	}

	var args journal.Args
	dec := json.NewDecoder(bytes.NewReader([]byte(opts.Args)))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&args); err != nil {
		return WrapExitError(ExitCommandError, "invalid --args JSON", err)
	}

	op := journal.OpRecord{
		Flow:   contract.UUIDv7Generator{}.Generate(),
		Name:   opName,
		Caller: caller,
		Args:   args,
	}
	if opts.Deposit != "" {
		dep, err := ledger.ParseAmount(opts.Deposit)
		if err != nil {
			return WrapExitError(ExitCommandError, "invalid --deposit", err)
		}
		op.Deposit = dep
	}

	sess, err := openSession(ctx, opts.Config, opts.Database)
	if err != nil {
		return err
	}
	defer sess.Close()

	sess.flows.Set(op.Flow)
	next := sess.ct.Seq() + 1
	if err := journal.Apply(sess.ct, op); err != nil {
		if ferr := formatter.Error(string(contract.CodeOf(err)), err.Error(), nil); ferr != nil {
			return ferr
		}
		return NewExitError(ExitFailure, fmt.Sprintf("%s rejected", opName))
	}

	if _, err := sess.record(ctx, op, next); err != nil {
		return WrapExitError(ExitCommandError, "failed to journal operation", err)
	}

	result := InvokeResult{
		Flow:   op.Flow,
		Op:     op.Name,
		Caller: string(op.Caller),
		Seq:    sess.ct.Seq(),
	}
	for _, e := range sess.ct.Events().Since(next) {
		result.Events = append(result.Events, InvokeEvent{Seq: e.Seq, Type: e.Type, Params: e.Params})
	}
	for _, eff := range sess.ct.Effects().Drain() {
		result.Effects = append(result.Effects, InvokeEffect{
			To:     string(eff.To),
			Amount: eff.Amount.String(),
			Reason: eff.Reason,
		})
	}

	if opts.Format == "json" {
		return formatter.Success(result)
	}
	return outputInvokeText(cmd, result)
}

func outputInvokeText(cmd *cobra.Command, result InvokeResult) error {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Accepted %s by %s (flow %s)\n", result.Op, result.Caller, result.Flow)
	for _, e := range result.Events {
		params, err := json.Marshal(e.Params)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "  event %d %s %s\n", e.Seq, e.Type, params)
	}
	for _, eff := range result.Effects {
		fmt.Fprintf(out, "  transfer %s -> %s (%s)\n", eff.Amount, eff.To, eff.Reason)
	}
	return nil
}

func opNameList() string {
	names := make([]string, 0, len(knownOps))
	for name := range knownOps {
		names = append(names, name)
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}
