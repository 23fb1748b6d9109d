package harness

import "github.com/cmlibs/zinc-sub001/internal/ir"

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass indicates overall scenario success: every step behaved as
	// expected and every assertion held.
	Pass bool `json:"pass"`

	// Steps holds one outcome per executed step, in order.
	Steps []StepOutcome `json:"steps"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// Identifiers maps region path to entity name to identifier number,
	// for every named entity after the last step.
	Identifiers map[string]map[string]int64 `json:"identifiers"`

	// Notifications counts the change sets delivered to subscribers.
	Notifications int `json:"notifications"`
}

// StepOutcome records what one step did.
type StepOutcome struct {
	Op      string          `json:"op"` // "renumber" or "offset"
	Error   string          `json:"error,omitempty"`
	Reports []ReportOutcome `json:"reports"`
}

// ReportOutcome is one successful engine call within a step.
type ReportOutcome struct {
	Region     string      `json:"region"`
	Group      string      `json:"group"`
	Space      string      `json:"space"`
	Members    int         `json:"members"`
	Relabelled int         `json:"relabelled"`
	Relocated  int         `json:"relocated"`
	Changes    []ir.Change `json:"changes"`
}

// NewResult creates a new passing result.
// Used as the starting point for scenario execution.
func NewResult() *Result {
	return &Result{
		Pass:        true,
		Steps:       []StepOutcome{},
		Errors:      []string{},
		Identifiers: make(map[string]map[string]int64),
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
