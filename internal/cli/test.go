package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mintick/mintick/internal/harness"
)

// TestOptions holds flags for the test command.
type TestOptions struct {
	*RootOptions
	Filter string
}

// ScenarioResult holds the result of a single scenario.
type ScenarioResult struct {
	Name     string   `json:"name"`
	File     string   `json:"file"`
	Pass     bool     `json:"pass"`
	Steps    int      `json:"steps"`
	Events   int      `json:"events"`
	Failures []string `json:"failures,omitempty"`
	Error    string   `json:"error,omitempty"`
}

// TestResult holds the overall test run result.
type TestResult struct {
	Scenarios []ScenarioResult `json:"scenarios"`
	Total     int              `json:"total"`
	Passed    int              `json:"passed"`
	Failed    int              `json:"failed"`
}

// NewTestCommand creates the test command.
func NewTestCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TestOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "test <scenarios-dir>",
		Short: "Run conformance scenarios",
		Long: `Run YAML conformance scenarios against fresh in-memory contracts.

Each scenario describes a genesis configuration, an operation sequence with
expected outcomes, and assertions over the emitted trace and final state.
Scenarios run with deterministic flow tokens and timestamps, so a failing
scenario reproduces identically.

Exit codes:
  0 - All scenarios passed
  1 - One or more scenarios failed
  2 - Command error (directory not found, malformed scenario, etc.)

Examples:
  mintick test ./scenarios
  mintick test ./scenarios --filter "buy-*"
  mintick test ./scenarios --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTests(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Filter, "filter", "", "filter scenarios by glob pattern")

	return cmd
}

func runTests(opts *TestOptions, scenariosDir string, cmd *cobra.Command) error {
	if _, err := os.Stat(scenariosDir); os.IsNotExist(err) {
		return NewExitError(ExitCommandError, fmt.Sprintf("scenarios directory not found: %s", scenariosDir))
	}

	files, err := findScenarioFiles(scenariosDir, opts.Filter)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to find scenarios", err)
	}

	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	if len(files) == 0 {
		if opts.Format == "json" {
			return formatter.Success(TestResult{Scenarios: []ScenarioResult{}})
		}
		fmt.Fprintln(cmd.OutOrStdout(), "No scenarios found.")
		return nil
	}

	result := TestResult{
		Scenarios: make([]ScenarioResult, 0, len(files)),
		Total:     len(files),
	}
	for _, file := range files {
		sr := runScenarioFile(file, formatter)
		result.Scenarios = append(result.Scenarios, sr)
		if sr.Pass {
			result.Passed++
		} else {
			result.Failed++
		}
	}

	if opts.Format == "json" {
		if err := formatter.Success(result); err != nil {
			return err
		}
	} else {
		outputTestText(cmd, result, opts.Verbose)
	}

	if result.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d of %d scenarios failed", result.Failed, result.Total))
	}
	return nil
}

func runScenarioFile(file string, formatter *OutputFormatter) ScenarioResult {
	sr := ScenarioResult{File: file, Name: scenarioName(file)}

	scenario, err := harness.LoadScenario(file)
	if err != nil {
		sr.Error = err.Error()
		return sr
	}
	sr.Name = scenario.Name
	sr.Steps = len(scenario.Steps)

	formatter.VerboseLog("running %s (%d steps)", scenario.Name, len(scenario.Steps))

	run, err := harness.Run(scenario)
	if err != nil {
		sr.Error = err.Error()
		return sr
	}
	sr.Events = len(run.Events)
	sr.Failures = run.Errors
	sr.Pass = run.Pass()
	return sr
}

// findScenarioFiles finds all YAML scenario files in a directory, optionally
// filtered by a glob pattern matched against the base name.
func findScenarioFiles(dir string, filter string) ([]string, error) {
	var files []string

	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		ext := filepath.Ext(path)
		if ext != ".yaml" && ext != ".yml" {
			return nil
		}
		if filter != "" {
			matched, err := filepath.Match(filter, filepath.Base(path))
			if err != nil {
				return fmt.Errorf("invalid filter pattern: %w", err)
			}
			if !matched {
				return nil
			}
		}
		files = append(files, path)
		return nil
	})
	return files, err
}

func scenarioName(file string) string {
	base := filepath.Base(file)
	return base[:len(base)-len(filepath.Ext(base))]
}

func outputTestText(cmd *cobra.Command, result TestResult, verbose bool) {
	out := cmd.OutOrStdout()
	for _, sr := range result.Scenarios {
		switch {
		case sr.Pass:
			fmt.Fprintf(out, "PASS %s (%d steps, %d events)\n", sr.Name, sr.Steps, sr.Events)
		case sr.Error != "":
			fmt.Fprintf(out, "FAIL %s: %s\n", sr.Name, sr.Error)
		default:
			fmt.Fprintf(out, "FAIL %s\n", sr.Name)
			for _, failure := range sr.Failures {
				fmt.Fprintf(out, "  - %s\n", failure)
			}
		}
	}
	fmt.Fprintf(out, "\n%d passed, %d failed (%d total)\n", result.Passed, result.Failed, result.Total)
}
