package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/cmlibs/zinc-sub001/internal/engine"
	"github.com/cmlibs/zinc-sub001/internal/ir"
	"github.com/cmlibs/zinc-sub001/internal/mesh"
)

// Scenario defines a renumbering scenario: a mesh, the calls made on it and
// what must hold afterwards.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Mesh is the inline starting mesh. Exactly one of Mesh and MeshFile
	// is set.
	Mesh *mesh.Document `yaml:"mesh,omitempty"`

	// MeshFile is a mesh document path, relative to the scenario file once
	// loaded with LoadScenario.
	MeshFile string `yaml:"mesh_file,omitempty"`

	// Steps run in order on the same mesh.
	Steps []Step `yaml:"steps"`

	// Assertions validate the final mesh.
	Assertions []Assertion `yaml:"assertions"`
}

// Step is one call. Exactly one of Renumber and Offset is set.
type Step struct {
	Renumber *RenumberStep `yaml:"renumber,omitempty"`
	Offset   *OffsetStep   `yaml:"offset,omitempty"`

	// ExpectError is the error code the step must fail with. Empty means
	// the step must succeed.
	ExpectError string `yaml:"expect_error,omitempty"`
}

// RenumberStep is one engine call.
type RenumberStep struct {
	Region string  `yaml:"region,omitempty"`
	Group  string  `yaml:"group,omitempty"`
	Space  string  `yaml:"space"`
	Offset int64   `yaml:"offset"`
	SortBy string  `yaml:"sort_by,omitempty"`
	Time   float64 `yaml:"time,omitempty"`
}

// OffsetStep shifts whole spaces across the region tree.
type OffsetStep struct {
	Elements int64 `yaml:"elements,omitempty"`
	Faces    int64 `yaml:"faces,omitempty"`
	Lines    int64 `yaml:"lines,omitempty"`
	Nodes    int64 `yaml:"nodes,omitempty"`
	Data     bool  `yaml:"data,omitempty"`
}

// Assertion validates the final mesh.
type Assertion struct {
	// Type is one of identifiers, unchanged, notifications.
	Type string `yaml:"type"`

	// Region is the region path (default "/"), for identifiers and
	// unchanged.
	Region string `yaml:"region,omitempty"`

	// Expect maps entity names to identifier numbers (identifiers).
	Expect map[string]int64 `yaml:"expect,omitempty"`

	// Count is the expected number of change sets (notifications).
	Count int `yaml:"count,omitempty"`
}

// Assertion type constants.
const (
	AssertIdentifiers   = "identifiers"
	AssertUnchanged     = "unchanged"
	AssertNotifications = "notifications"
)

var errorCodes = []engine.RenumberErrorCode{
	engine.ErrCodeEvaluationFailed,
	engine.ErrCodeNonPositiveIdentifier,
	engine.ErrCodeNonMonotonicIdentifiers,
	engine.ErrCodeOutsideCollision,
	engine.ErrCodeMutationFailure,
	engine.ErrCodeInvalidRequest,
	engine.ErrCodeCollectionRead,
}

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	scenario, err := ParseScenario(data)
	if err != nil {
		return nil, err
	}
	if scenario.MeshFile != "" && !filepath.IsAbs(scenario.MeshFile) {
		scenario.MeshFile = filepath.Join(filepath.Dir(path), scenario.MeshFile)
	}
	return scenario, nil
}

// ParseScenario parses and validates scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if (s.Mesh == nil) == (s.MeshFile == "") {
		return fmt.Errorf("exactly one of mesh and mesh_file is required")
	}

	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for i, step := range s.Steps {
		if err := validateStep(i, &step); err != nil {
			return err
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}

	return nil
}

func validateStep(index int, s *Step) error {
	if (s.Renumber == nil) == (s.Offset == nil) {
		return fmt.Errorf("steps[%d]: exactly one of renumber and offset is required", index)
	}
	if s.Renumber != nil {
		if _, err := ir.ParseSpace(s.Renumber.Space); err != nil {
			return fmt.Errorf("steps[%d]: %w", index, err)
		}
	}
	if s.ExpectError != "" && !slices.Contains(errorCodes, engine.RenumberErrorCode(s.ExpectError)) {
		return fmt.Errorf("steps[%d]: unknown error code %q", index, s.ExpectError)
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertIdentifiers:
		if len(a.Expect) == 0 {
			return fmt.Errorf("assertions[%d]: expect is required for identifiers", index)
		}
	case AssertUnchanged:
	case AssertNotifications:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for notifications", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
