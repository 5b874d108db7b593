package harness

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/mintick/mintick/internal/event"
)

// TraceSnapshot is the serialized form of a scenario's emitted trace, keyed
// for golden-file comparison. Event payloads serialize with sorted keys, so
// the snapshot is byte-deterministic across runs.
type TraceSnapshot struct {
	ScenarioName string       `json:"scenario_name"`
	Trace        []TraceEvent `json:"trace"`
}

// TraceEvent is one emitted event in a snapshot.
type TraceEvent struct {
	Seq    int64     `json:"seq"`
	Type   string    `json:"type"`
	Params event.Obj `json:"params"`
}

// Snapshot builds the golden-comparable form of a run's trace.
func Snapshot(name string, events []event.Event) TraceSnapshot {
	trace := make([]TraceEvent, len(events))
	for i, e := range events {
		trace[i] = TraceEvent{Seq: e.Seq, Type: e.Type, Params: e.Params}
	}
	return TraceSnapshot{ScenarioName: name, Trace: trace}
}

// RunWithGolden executes a scenario, fails the test on any step or assertion
// failure, and compares the emitted trace against the scenario's golden file
// under testdata/golden.
//
// To regenerate golden files:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) error {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return err
	}
	for _, msg := range result.Errors {
		t.Error(msg)
	}

	data, err := json.MarshalIndent(Snapshot(scenario.Name, result.Events), "", "  ")
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenario.Name, data)
	return nil
}
