// Package harness runs scripted conformance scenarios against the settlement
// engine. A scenario describes a genesis configuration, an operation
// sequence, and assertions over the resulting event trace and final state;
// each run uses a fresh contract with deterministic flow tokens and
// timestamps so repeated runs produce byte-identical traces.
package harness

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/mintick/mintick/internal/contract"
	"github.com/mintick/mintick/internal/event"
	"github.com/mintick/mintick/internal/journal"
	"github.com/mintick/mintick/internal/ledger"
	"github.com/mintick/mintick/internal/pricing"
	"github.com/mintick/mintick/internal/testutil"
)

// Result holds the outcome of one scenario run.
type Result struct {
	// Contract is the final state, for follow-up queries.
	Contract *contract.Contract

	// Events is the full emitted trace.
	Events []event.Event

	// Errors collects assertion and expectation failures. Empty means pass.
	Errors []string
}

// Pass reports whether the run completed with no failures.
func (r *Result) Pass() bool { return len(r.Errors) == 0 }

func (r *Result) addErrorf(format string, args ...interface{}) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

// Run executes a scenario against a fresh contract.
//
// Steps either succeed or fail exactly as their expect clause demands; any
// divergence is a scenario failure, not an error. Run itself errors only on
// malformed input, e.g. an unparsable deposit.
func Run(scenario *Scenario) (*Result, error) {
	c, err := newContract(scenario.Genesis)
	if err != nil {
		return nil, err
	}

	result := &Result{Contract: c}
	for i, step := range scenario.Steps {
		op, err := opRecord(step)
		if err != nil {
			return nil, fmt.Errorf("steps[%d]: %w", i, err)
		}
		checkStep(result, i, step, journal.Apply(c, op))
	}

	result.Events = c.Events().All()
	evaluateAssertions(result, scenario.Assertions)
	return result, nil
}

// newContract builds the genesis contract: fee and rate from the scenario,
// sequenced flow tokens, a stepped time source, and discarded logs.
func newContract(g Genesis) (*contract.Contract, error) {
	opts := []contract.Option{
		contract.WithFlowGenerator(testutil.NewSequencedFlowGenerator()),
		contract.WithNow(testutil.NewTimeSource(0, 1_000_000_000).Now),
		contract.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	}
	if g.VaultFeeBps != nil {
		opts = append(opts, contract.WithVaultFee(*g.VaultFeeBps))
	}

	c, err := contract.New(ledger.AccountID(g.Owner), ledger.AccountID(g.Vault), opts...)
	if err != nil {
		return nil, fmt.Errorf("genesis: %w", err)
	}
	if g.Rate != "" {
		rate, err := pricing.ParseDecimal(g.Rate)
		if err != nil {
			return nil, fmt.Errorf("genesis rate: %w", err)
		}
		if _, err := c.SetRate(c.Owner(), rate); err != nil {
			return nil, fmt.Errorf("genesis rate: %w", err)
		}
	}
	for _, admin := range g.Admins {
		if err := c.AddAdmin(c.Owner(), ledger.AccountID(admin)); err != nil {
			return nil, fmt.Errorf("genesis admin %q: %w", admin, err)
		}
	}
	return c, nil
}

func opRecord(step Step) (journal.OpRecord, error) {
	op := journal.OpRecord{
		Name:   step.Op,
		Caller: ledger.AccountID(step.Caller),
		Args:   step.Args,
	}
	if step.Deposit != "" {
		deposit, err := ledger.ParseAmount(step.Deposit)
		if err != nil {
			return journal.OpRecord{}, fmt.Errorf("deposit: %w", err)
		}
		op.Deposit = deposit
	}
	return op, nil
}

// checkStep compares a step's outcome against its expect clause.
func checkStep(result *Result, index int, step Step, err error) {
	if step.Expect == nil {
		if err != nil {
			result.addErrorf("steps[%d] %s: unexpected error: %v", index, step.Op, err)
		}
		return
	}
	if err == nil {
		result.addErrorf("steps[%d] %s: expected %s error, got success", index, step.Op, step.Expect.Error)
		return
	}
	if code := string(contract.CodeOf(err)); code != step.Expect.Error {
		result.addErrorf("steps[%d] %s: expected %s error, got %s: %v", index, step.Op, step.Expect.Error, code, err)
		return
	}
	if c := step.Expect.Contains; c != "" && !strings.Contains(err.Error(), c) {
		result.addErrorf("steps[%d] %s: error %q does not contain %q", index, step.Op, err, c)
	}
}

// toValue converts a YAML-parsed value into an event payload value for
// subset matching. YAML floats must be integral; payloads never carry floats.
func toValue(val interface{}) (event.Value, error) {
	switch v := val.(type) {
	case nil:
		return event.Null{}, nil
	case string:
		return event.Str(v), nil
	case int:
		return event.Int(int64(v)), nil
	case int64:
		return event.Int(v), nil
	case uint64:
		return event.Int(int64(v)), nil
	case float64:
		if v != float64(int64(v)) {
			return nil, fmt.Errorf("floats are not valid payload values: %v", v)
		}
		return event.Int(int64(v)), nil
	case bool:
		return event.Bool(v), nil
	case []interface{}:
		arr := make(event.Arr, len(v))
		for i, elem := range v {
			ev, err := toValue(elem)
			if err != nil {
				return nil, fmt.Errorf("array[%d]: %w", i, err)
			}
			arr[i] = ev
		}
		return arr, nil
	case map[string]interface{}:
		obj := make(event.Obj, len(v))
		for key, elem := range v {
			ev, err := toValue(elem)
			if err != nil {
				return nil, fmt.Errorf("field %q: %w", key, err)
			}
			obj[key] = ev
		}
		return obj, nil
	default:
		return nil, fmt.Errorf("unsupported type %T", val)
	}
}
