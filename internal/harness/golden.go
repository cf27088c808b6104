package harness

import (
	"fmt"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/sseqchart/internal/value"
)

// Snapshot is the golden form of a run: every delivered batch in wire form
// and the final chart encoding, serialized canonically.
func Snapshot(scenarioName string, result *Result) ([]byte, error) {
	batches := make(value.Array, len(result.Batches))
	for i, batch := range result.Batches {
		msgs := make(value.Array, len(batch))
		for j, m := range batch {
			msgs[j] = m.Object()
		}
		batches[i] = msgs
	}

	snapshot := value.Object{
		"scenario_name": value.String(scenarioName),
		"batches":       batches,
	}
	if result.Document != nil {
		doc, err := value.Unmarshal(result.Document)
		if err != nil {
			return nil, fmt.Errorf("snapshot document: %w", err)
		}
		snapshot["document"] = doc
	}
	return value.MarshalCanonical(snapshot)
}

// RunWithGolden executes a scenario and compares its snapshot against
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario, opts ...Option) (*Result, error) {
	t.Helper()

	result, err := Run(scenario, opts...)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares an existing result against its golden file
// without re-running the scenario.
func AssertGolden(t *testing.T, scenarioName string, result *Result, opts ...goldie.Option) error {
	t.Helper()

	data, err := Snapshot(scenarioName, result)
	if err != nil {
		return err
	}

	g := goldie.New(t, append([]goldie.Option{
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	}, opts...)...)
	g.Assert(t, scenarioName, data)
	return nil
}
