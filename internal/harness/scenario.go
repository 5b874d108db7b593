package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/mintick/mintick/internal/journal"
)

// Scenario is one scripted conformance run: a genesis configuration, a
// sequence of operations, and assertions over the resulting event trace and
// final state.
type Scenario struct {
	// Name uniquely identifies this scenario; golden files are keyed on it.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Genesis is the deployment configuration the run starts from.
	Genesis Genesis `yaml:"genesis"`

	// Steps is the operation sequence. Steps with no expect clause must
	// succeed; a step may instead expect a specific error code.
	Steps []Step `yaml:"steps"`

	// Assertions validate the final trace and state.
	Assertions []Assertion `yaml:"assertions"`
}

// Genesis mirrors the deployment configuration a scenario runs under.
type Genesis struct {
	Owner       string   `yaml:"owner"`
	Vault       string   `yaml:"vault"`
	VaultFeeBps *uint32  `yaml:"vault_fee_bps,omitempty"`
	Rate        string   `yaml:"rate,omitempty"`
	Admins      []string `yaml:"admins,omitempty"`
}

// Step is one operation invocation.
type Step struct {
	// Op is the operation name, e.g. "nft_buy".
	Op string `yaml:"op"`

	// Caller is the invoking account.
	Caller string `yaml:"caller"`

	// Args carries the operation arguments under their wire names.
	Args journal.Args `yaml:"args,omitempty"`

	// Deposit is the attached deposit in yocto, as a decimal string.
	Deposit string `yaml:"deposit,omitempty"`

	// Expect validates the outcome. Nil means the step must succeed.
	Expect *ExpectClause `yaml:"expect,omitempty"`
}

// ExpectClause specifies an expected failure.
type ExpectClause struct {
	// Error is the expected error code (e.g. "FUNDING", "AUTHORIZATION").
	Error string `yaml:"error"`

	// Contains optionally requires a substring of the error message.
	Contains string `yaml:"contains,omitempty"`
}

// Assertion validates the trace or final state.
type Assertion struct {
	// Type selects the assertion:
	//   - "event_count": event type appears exactly Count times
	//   - "event_order": event types appear as a subsequence, in order
	//   - "event_contains": some event of the type carries the given params
	//   - "owner_of": the token is owned by the given account
	//   - "supply": total, per-series, or per-owner supply equals Count
	Type string `yaml:"type"`

	// Event is the event type tag (event_count, event_contains).
	Event string `yaml:"event,omitempty"`

	// Events is the expected type order (event_order).
	Events []string `yaml:"events,omitempty"`

	// Params are expected payload values, subset-matched (event_contains).
	Params map[string]interface{} `yaml:"params,omitempty"`

	// TokenID and Owner serve owner_of; Owner and SeriesID scope supply.
	TokenID  string `yaml:"token_id,omitempty"`
	Owner    string `yaml:"owner,omitempty"`
	SeriesID string `yaml:"token_series_id,omitempty"`

	// Count is the expected quantity (event_count, supply).
	Count int `yaml:"count,omitempty"`
}

// Assertion type constants.
const (
	AssertEventCount    = "event_count"
	AssertEventOrder    = "event_order"
	AssertEventContains = "event_contains"
	AssertOwnerOf       = "owner_of"
	AssertSupply        = "supply"
)

// LoadScenario reads and parses a scenario YAML file. Unknown fields are
// rejected so a typo fails loudly instead of silently skipping a check.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML with strict field validation.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("parse scenario: %w", err)
	}
	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.Genesis.Owner == "" {
		return fmt.Errorf("genesis.owner is required")
	}
	if s.Genesis.Vault == "" {
		return fmt.Errorf("genesis.vault is required")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	for i, step := range s.Steps {
		if step.Op == "" {
			return fmt.Errorf("steps[%d]: op is required", i)
		}
		if step.Caller == "" {
			return fmt.Errorf("steps[%d]: caller is required", i)
		}
		if step.Expect != nil && step.Expect.Error == "" {
			return fmt.Errorf("steps[%d].expect: error is required", i)
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}
	return nil
}

func validateAssertion(index int, a *Assertion) error {
	switch a.Type {
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	case AssertEventCount:
		if a.Event == "" {
			return fmt.Errorf("assertions[%d]: event is required for event_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative", index)
		}
	case AssertEventOrder:
		if len(a.Events) == 0 {
			return fmt.Errorf("assertions[%d]: events list is required for event_order", index)
		}
	case AssertEventContains:
		if a.Event == "" {
			return fmt.Errorf("assertions[%d]: event is required for event_contains", index)
		}
		if len(a.Params) == 0 {
			return fmt.Errorf("assertions[%d]: params is required for event_contains", index)
		}
	case AssertOwnerOf:
		if a.TokenID == "" || a.Owner == "" {
			return fmt.Errorf("assertions[%d]: token_id and owner are required for owner_of", index)
		}
	case AssertSupply:
		if a.Owner != "" && a.SeriesID != "" {
			return fmt.Errorf("assertions[%d]: owner and token_series_id are mutually exclusive", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
