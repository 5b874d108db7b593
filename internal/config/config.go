// Package config loads and validates the deployment configuration. Config
// files are CUE; the embedded schema supplies defaults and rejects malformed
// input before any state exists.
package config

import (
	_ "embed"
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"

	"github.com/mintick/mintick/internal/contract"
	"github.com/mintick/mintick/internal/ledger"
	"github.com/mintick/mintick/internal/pricing"
)

//go:embed schema.cue
var schemaCUE string

// Metadata holds optional contract metadata overrides. Empty fields keep the
// stock value.
type Metadata struct {
	Spec   string `json:"spec,omitempty"`
	Name   string `json:"name,omitempty"`
	Symbol string `json:"symbol,omitempty"`
	Icon   string `json:"icon,omitempty"`
}

// Config is a validated deployment configuration.
type Config struct {
	Owner       ledger.AccountID   `json:"owner"`
	Vault       ledger.AccountID   `json:"vault"`
	VaultFeeBps uint32             `json:"vault_fee_bps"`
	DB          string             `json:"db"`
	Admins      []ledger.AccountID `json:"admins"`
	Metadata    *Metadata          `json:"metadata,omitempty"`

	// Rate is nil when the config sets no initial exchange rate.
	Rate *pricing.Decimal `json:"-"`
}

// Load reads, schema-checks, and decodes a CUE config file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(data, path)
}

// Parse validates raw CUE source against the embedded schema. filename is
// used in error positions only.
func Parse(data []byte, filename string) (*Config, error) {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	def := schema.LookupPath(cue.ParsePath("#Config"))
	if err := def.Err(); err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}

	value := ctx.CompileBytes(data, cue.Filename(filename))
	if err := value.Err(); err != nil {
		return nil, fmt.Errorf("compile config: %w", err)
	}

	unified := def.Unify(value)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	var raw struct {
		Owner       string    `json:"owner"`
		Vault       string    `json:"vault"`
		VaultFeeBps uint32    `json:"vault_fee_bps"`
		Rate        string    `json:"rate"`
		DB          string    `json:"db"`
		Admins      []string  `json:"admins"`
		Metadata    *Metadata `json:"metadata"`
	}
	if err := unified.Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	cfg := &Config{
		Owner:       ledger.AccountID(raw.Owner),
		Vault:       ledger.AccountID(raw.Vault),
		VaultFeeBps: raw.VaultFeeBps,
		DB:          raw.DB,
		Metadata:    raw.Metadata,
	}
	for _, a := range raw.Admins {
		cfg.Admins = append(cfg.Admins, ledger.AccountID(a))
	}

	if !cfg.Owner.Valid() {
		return nil, fmt.Errorf("validate config: owner account %q is not valid", raw.Owner)
	}
	if !cfg.Vault.Valid() {
		return nil, fmt.Errorf("validate config: vault account %q is not valid", raw.Vault)
	}
	for _, a := range cfg.Admins {
		if !a.Valid() {
			return nil, fmt.Errorf("validate config: admin account %q is not valid", a)
		}
	}
	if raw.Rate != "" {
		rate, err := pricing.ParseDecimal(raw.Rate)
		if err != nil {
			return nil, fmt.Errorf("validate config: rate: %w", err)
		}
		if !rate.Positive() {
			return nil, fmt.Errorf("validate config: rate %q must be greater than 0", raw.Rate)
		}
		cfg.Rate = &rate
	}

	return cfg, nil
}

// Options translates the config into contract options.
func (c *Config) Options() []contract.Option {
	opts := []contract.Option{contract.WithVaultFee(c.VaultFeeBps)}
	if c.Metadata != nil {
		m := contract.DefaultMetadata()
		if c.Metadata.Spec != "" {
			m.Spec = c.Metadata.Spec
		}
		if c.Metadata.Name != "" {
			m.Name = c.Metadata.Name
		}
		if c.Metadata.Symbol != "" {
			m.Symbol = c.Metadata.Symbol
		}
		if c.Metadata.Icon != "" {
			m.Icon = c.Metadata.Icon
		}
		opts = append(opts, contract.WithMetadata(m))
	}
	return opts
}

// Apply seeds a fresh contract with the configured rate and admin list. The
// owner is the caller for both, so this must run before any other operation.
func (c *Config) Apply(ct *contract.Contract) error {
	if c.Rate != nil {
		if _, err := ct.SetRate(c.Owner, *c.Rate); err != nil {
			return fmt.Errorf("apply config: %w", err)
		}
	}
	for _, admin := range c.Admins {
		if err := ct.AddAdmin(c.Owner, admin); err != nil {
			return fmt.Errorf("apply config: %w", err)
		}
	}
	return nil
}
