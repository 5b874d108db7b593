package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeConfig writes a deployment config pointing at a journal inside dir and
// returns the config path.
func writeConfig(t *testing.T, dir string) string {
	t.Helper()
	db := filepath.Join(dir, "mintick.db")
	content := fmt.Sprintf(`owner:  "owner.near"
vault:  "vault.near"
rate:   "2"
db:     %q
admins: ["mod.near"]
`, db)
	path := filepath.Join(dir, "mintick.cue")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// execute runs the CLI with the given args and returns stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

// decodeResponse unmarshals a JSON-format CLI response envelope.
func decodeResponse(t *testing.T, out string) CLIResponse {
	t.Helper()
	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	return resp
}

func dataMap(t *testing.T, resp CLIResponse) map[string]interface{} {
	t.Helper()
	m, ok := resp.Data.(map[string]interface{})
	require.True(t, ok, "data is not an object: %v", resp.Data)
	return m
}

const (
	ampleDeposit = "10000000000000000000000"
	buyDeposit   = "5050000000000000000000000"
)

func initDeployment(t *testing.T) string {
	t.Helper()
	cfg := writeConfig(t, t.TempDir())
	_, err := execute(t, "--config", cfg, "init")
	require.NoError(t, err)
	return cfg
}

func TestInitJournalsGenesis(t *testing.T) {
	cfg := writeConfig(t, t.TempDir())

	out, err := execute(t, "--config", cfg, "--format", "json", "init")
	require.NoError(t, err)

	resp := decodeResponse(t, out)
	assert.Equal(t, "ok", resp.Status)
	data := dataMap(t, resp)
	assert.Equal(t, "owner.near", data["owner"])
	assert.Equal(t, "vault.near", data["vault"])
	assert.Equal(t, float64(2), data["ops"]) // update_tasa + add_admin
	assert.Equal(t, float64(2), data["seq"])
}

func TestInitRefusesNonEmptyJournal(t *testing.T) {
	cfg := initDeployment(t)

	_, err := execute(t, "--config", cfg, "init")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "already holds")
}

func TestInvokeCreateEventAndQuerySeries(t *testing.T) {
	cfg := initDeployment(t)

	out, err := execute(t, "--config", cfg, "--format", "json",
		"invoke", "nft_create_event", "--caller", "creator.near",
		"--args", `{"title":"Summer Show","description":"Main stage","copies":5,"price":"10"}`,
		"--deposit", ampleDeposit)
	require.NoError(t, err)

	resp := decodeResponse(t, out)
	require.Equal(t, "ok", resp.Status)
	data := dataMap(t, resp)
	assert.Equal(t, "nft_create_event", data["op"])
	assert.Equal(t, "creator.near", data["caller"])
	events, ok := data["events"].([]interface{})
	require.True(t, ok)
	require.Len(t, events, 2) // primary series + companion

	out, err = execute(t, "--config", cfg, "--format", "json", "query", "series")
	require.NoError(t, err)
	resp = decodeResponse(t, out)
	listing, ok := resp.Data.([]interface{})
	require.True(t, ok)
	assert.Len(t, listing, 2)

	out, err = execute(t, "--config", cfg, "--format", "json", "query", "price", "1|1")
	require.NoError(t, err)
	resp = decodeResponse(t, out)
	// Quoted price: native 5e24 plus the display margin.
	assert.Equal(t, "5100000000000000000000000", dataMap(t, resp)["price"])
}

func TestInvokeBuySettlesAndJournals(t *testing.T) {
	cfg := initDeployment(t)

	_, err := execute(t, "--config", cfg,
		"invoke", "nft_create_event", "--caller", "creator.near",
		"--args", `{"title":"Summer Show","copies":5,"price":"10","royalty_buy":{"promoter.near":500}}`,
		"--deposit", ampleDeposit)
	require.NoError(t, err)

	out, err := execute(t, "--config", cfg, "--format", "json",
		"invoke", "nft_buy", "--caller", "fan.near",
		"--args", `{"token_series_id":"1|1","receiver_id":"fan.near"}`,
		"--deposit", buyDeposit)
	require.NoError(t, err)

	resp := decodeResponse(t, out)
	data := dataMap(t, resp)
	effects, ok := data["effects"].([]interface{})
	require.True(t, ok)
	require.NotEmpty(t, effects)
	first, ok := effects[0].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "vault.near", first["to"])
	assert.Equal(t, "150000000000000000000000", first["amount"])

	out, err = execute(t, "--config", cfg, "--format", "json", "query", "token", "1|1:1")
	require.NoError(t, err)
	resp = decodeResponse(t, out)
	assert.Equal(t, "fan.near", dataMap(t, resp)["owner_id"])

	out, err = execute(t, "--config", cfg, "--format", "json",
		"query", "supply", "--owner", "fan.near")
	require.NoError(t, err)
	resp = decodeResponse(t, out)
	assert.Equal(t, float64(2), dataMap(t, resp)["supply"]) // item + companion item

	// The whole history must verify after real operations.
	out, err = execute(t, "--config", cfg, "--format", "json", "verify")
	require.NoError(t, err)
	resp = decodeResponse(t, out)
	assert.Equal(t, true, dataMap(t, resp)["verified"])
}

func TestInvokeRejectionLeavesNoRecord(t *testing.T) {
	cfg := initDeployment(t)

	out, err := execute(t, "--config", cfg, "--format", "json",
		"invoke", "update_tasa", "--caller", "stranger.near",
		"--args", `{"tasa":"3"}`)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	resp := decodeResponse(t, out)
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "AUTHORIZATION", resp.Error.Code)

	// Only the two genesis ops remain journaled.
	out, err = execute(t, "--config", cfg, "--format", "json", "verify")
	require.NoError(t, err)
	resp = decodeResponse(t, out)
	assert.Equal(t, float64(2), dataMap(t, resp)["ops"])
}

func TestInvokeRejectsUnknownOperation(t *testing.T) {
	cfg := initDeployment(t)

	_, err := execute(t, "--config", cfg,
		"invoke", "nft_steal", "--caller", "owner.near")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "unknown operation")
}

func TestInvokeRejectsUnknownArgField(t *testing.T) {
	cfg := initDeployment(t)

	_, err := execute(t, "--config", cfg,
		"invoke", "update_tasa", "--caller", "owner.near",
		"--args", `{"rate":"3"}`)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestQueryRateAndAdmins(t *testing.T) {
	cfg := initDeployment(t)

	out, err := execute(t, "--config", cfg, "--format", "json", "query", "rate")
	require.NoError(t, err)
	data := dataMap(t, decodeResponse(t, out))
	assert.Equal(t, true, data["set"])
	assert.Equal(t, "2", data["tasa"])

	out, err = execute(t, "--config", cfg, "--format", "json", "query", "admins")
	require.NoError(t, err)
	resp := decodeResponse(t, out)
	admins, ok := resp.Data.([]interface{})
	require.True(t, ok)
	assert.Contains(t, admins, "mod.near")
}

func TestQueryMissingSeriesFailsWithCode(t *testing.T) {
	cfg := initDeployment(t)

	out, err := execute(t, "--config", cfg, "--format", "json", "query", "series", "1|9")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	resp := decodeResponse(t, out)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "NOT_FOUND", resp.Error.Code)
}

func TestRootRejectsInvalidFormat(t *testing.T) {
	_, err := execute(t, "--format", "xml", "query", "rate")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
}

func TestValidateConfig(t *testing.T) {
	cfg := writeConfig(t, t.TempDir())

	out, err := execute(t, "--format", "json", "validate", cfg)
	require.NoError(t, err)
	data := dataMap(t, decodeResponse(t, out))
	assert.Equal(t, true, data["valid"])
	assert.Equal(t, "owner.near", data["owner"])

	bad := filepath.Join(t.TempDir(), "bad.cue")
	require.NoError(t, os.WriteFile(bad, []byte(`owner: "o"`), 0o644))
	_, err = execute(t, "--format", "json", "validate", bad)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
}
