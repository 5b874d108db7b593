package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mintick/mintick/internal/contract"
	"github.com/mintick/mintick/internal/ledger"
)

const fullConfig = `
owner:         "owner.near"
vault:         "vault.near"
vault_fee_bps: 250
rate:          "2.5"
db:            "state/mintick.db"
admins: ["mod.near", "ops.near"]
metadata: {
	name:   "Mintick Stage"
	symbol: "MTKS"
}
`

func TestParseFullConfig(t *testing.T) {
	cfg, err := Parse([]byte(fullConfig), "config.cue")
	require.NoError(t, err)

	assert.Equal(t, ledger.AccountID("owner.near"), cfg.Owner)
	assert.Equal(t, ledger.AccountID("vault.near"), cfg.Vault)
	assert.Equal(t, uint32(250), cfg.VaultFeeBps)
	assert.Equal(t, "state/mintick.db", cfg.DB)
	assert.Equal(t, []ledger.AccountID{"mod.near", "ops.near"}, cfg.Admins)
	require.NotNil(t, cfg.Rate)
	assert.Equal(t, "2.5", cfg.Rate.String())
	require.NotNil(t, cfg.Metadata)
	assert.Equal(t, "Mintick Stage", cfg.Metadata.Name)
}

func TestParseDefaults(t *testing.T) {
	cfg, err := Parse([]byte(`
owner: "owner.near"
vault: "vault.near"
`), "config.cue")
	require.NoError(t, err)

	assert.Equal(t, uint32(300), cfg.VaultFeeBps)
	assert.Equal(t, "mintick.db", cfg.DB)
	assert.Empty(t, cfg.Admins)
	assert.Nil(t, cfg.Rate)
	assert.Nil(t, cfg.Metadata)
}

func TestParseRejectsBadInput(t *testing.T) {
	cases := []struct {
		name string
		src  string
	}{
		{"missing owner", `vault: "vault.near"`},
		{"fee too large", `owner: "o.near", vault: "v.near", vault_fee_bps: 10000`},
		{"negative fee", `owner: "o.near", vault: "v.near", vault_fee_bps: -1`},
		{"empty rate", `owner: "o.near", vault: "v.near", rate: ""`},
		{"bad rate literal", `owner: "o.near", vault: "v.near", rate: "abc"`},
		{"zero rate", `owner: "o.near", vault: "v.near", rate: "0"`},
		{"invalid owner account", `owner: "Owner!", vault: "v.near"`},
		{"invalid admin account", `owner: "o.near", vault: "v.near", admins: ["Bad Admin"]`},
		{"unparsable", `owner: "o.near" vault:`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse([]byte(tc.src), "config.cue")
			assert.Error(t, err)
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.cue")
	require.NoError(t, os.WriteFile(path, []byte(fullConfig), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ledger.AccountID("owner.near"), cfg.Owner)

	_, err = Load(filepath.Join(t.TempDir(), "missing.cue"))
	assert.Error(t, err)
}

func TestOptionsAndApply(t *testing.T) {
	cfg, err := Parse([]byte(fullConfig), "config.cue")
	require.NoError(t, err)

	c, err := contract.New(cfg.Owner, cfg.Vault, cfg.Options()...)
	require.NoError(t, err)
	assert.Equal(t, uint32(250), c.VaultFeeBps())
	assert.Equal(t, "Mintick Stage", c.Metadata().Name)
	assert.Equal(t, "MTKS", c.Metadata().Symbol)
	// Unset overrides keep the stock value.
	assert.Equal(t, "nft-1.0.0", c.Metadata().Spec)

	require.NoError(t, cfg.Apply(c))
	rate, ok := c.Rate()
	require.True(t, ok)
	assert.Equal(t, "2.5", rate.String())
	assert.Equal(t, []ledger.AccountID{"mod.near", "ops.near"}, c.Admins())
}
