package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/cmlibs/zinc-sub001/internal/ir"
)

// OutcomeSnapshot captures what a scenario did.
// All fields use canonical JSON serialization for deterministic comparison.
type OutcomeSnapshot struct {
	ScenarioName  string
	Steps         []StepOutcome
	Identifiers   map[string]map[string]int64
	Notifications int
}

// toCanonicalMap converts the snapshot to a map[string]any for canonical JSON serialization.
// This is required because ir.MarshalCanonical only handles IR types and primitives.
func (s *OutcomeSnapshot) toCanonicalMap() map[string]any {
	steps := make([]any, len(s.Steps))
	for i, step := range s.Steps {
		reports := make([]any, len(step.Reports))
		for j, rep := range step.Reports {
			changes := make([]any, len(rep.Changes))
			for k, c := range rep.Changes {
				changes[k] = map[string]any{"from": c.From, "to": c.To}
			}
			reports[j] = map[string]any{
				"region":     rep.Region,
				"group":      rep.Group,
				"space":      rep.Space,
				"members":    rep.Members,
				"relabelled": rep.Relabelled,
				"relocated":  rep.Relocated,
				"changes":    changes,
			}
		}
		stepMap := map[string]any{
			"op":      step.Op,
			"reports": reports,
		}
		if step.Error != "" {
			stepMap["error"] = step.Error
		}
		steps[i] = stepMap
	}

	identifiers := make(map[string]any, len(s.Identifiers))
	for path, ids := range s.Identifiers {
		identifiers[path] = ids
	}

	return map[string]any{
		"scenario_name": s.ScenarioName,
		"steps":         steps,
		"identifiers":   identifiers,
		"notifications": s.Notifications,
	}
}

// RunWithGolden executes a scenario and compares its outcome against a golden file.
// The golden file is stored in testdata/golden/{scenario.Name}.golden
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails.
// Test failure (via goldie) occurs if the outcome doesn't match the golden file.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares the given result against a golden file.
// This is useful when you've already run a scenario and want to compare
// the result against a golden file without re-running.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	outcomeJSON, err := Outcome(scenarioName, result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, outcomeJSON)

	return nil
}

// Outcome returns the canonical JSON golden files hold for result.
func Outcome(scenarioName string, result *Result) ([]byte, error) {
	snapshot := OutcomeSnapshot{
		ScenarioName:  scenarioName,
		Steps:         result.Steps,
		Identifiers:   result.Identifiers,
		Notifications: result.Notifications,
	}
	return ir.MarshalCanonical(snapshot.toCanonicalMap())
}
