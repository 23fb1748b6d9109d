package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/cmlibs/zinc-sub001/internal/engine"
	"github.com/cmlibs/zinc-sub001/internal/field"
	"github.com/cmlibs/zinc-sub001/internal/ir"
	"github.com/cmlibs/zinc-sub001/internal/mesh"
	"github.com/cmlibs/zinc-sub001/internal/testutil"
)

// Harness executes one scenario against an in-memory region tree.
type Harness struct {
	root     *mesh.Region
	logger   *slog.Logger
	recorder *testutil.Recorder
	before   map[string]string // region path -> fingerprint as loaded
}

// Run executes a scenario and returns the result.
//
// Each scenario runs on a freshly built mesh. An error means the scenario
// could not be executed at all; step and assertion failures are reported in
// the result.
//
// Execution flow:
// 1. Build the region tree from the inline mesh or mesh_file
// 2. Record each region's fingerprint and subscribe to its changes
// 3. Execute steps, checking expected error codes
// 4. Evaluate assertions against the final tree
func Run(scenario *Scenario) (*Result, error) {
	root, err := buildRoot(scenario)
	if err != nil {
		return nil, fmt.Errorf("failed to build mesh: %w", err)
	}

	h := &Harness{
		root:     root,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)), // Suppress logs in tests
		recorder: &testutil.Recorder{},
		before:   make(map[string]string),
	}

	var walkErr error
	root.Walk(func(path string, r *mesh.Region) {
		fp, err := r.Mesh().Fingerprint()
		if err != nil && walkErr == nil {
			walkErr = fmt.Errorf("fingerprint region %s: %w", path, err)
		}
		h.before[path] = fp
		r.Mesh().Subscribe(h.recorder.Record)
	})
	if walkErr != nil {
		return nil, walkErr
	}

	ctx := context.Background()
	result := NewResult()
	for i, step := range scenario.Steps {
		if err := h.executeStep(ctx, i, step, result); err != nil {
			return nil, fmt.Errorf("failed to execute step %d: %w", i, err)
		}
	}

	root.Walk(func(path string, r *mesh.Region) {
		result.Identifiers[path] = namedIdentifiers(r.Mesh())
	})
	result.Notifications = len(h.recorder.Sets())

	actx := &AssertionContext{Root: root, Before: h.before}
	for _, errMsg := range EvaluateAssertions(result, scenario.Assertions, actx) {
		result.AddError(errMsg)
	}

	return result, nil
}

func buildRoot(scenario *Scenario) (*mesh.Region, error) {
	if scenario.Mesh != nil {
		return scenario.Mesh.Build("")
	}
	return mesh.LoadFile(scenario.MeshFile)
}

// executeStep runs one step and compares its error code with the expected
// one. It returns an error only when the step cannot be set up.
func (h *Harness) executeStep(ctx context.Context, i int, step Step, result *Result) error {
	var (
		outcome StepOutcome
		err     error
	)
	if step.Renumber != nil {
		outcome, err = h.renumber(ctx, step.Renumber)
	} else {
		outcome, err = h.offset(ctx, step.Offset)
	}
	if outcome.Reports == nil {
		outcome.Reports = []ReportOutcome{}
	}

	var re *engine.RenumberError
	switch {
	case err == nil:
	case errors.As(err, &re):
		outcome.Error = string(re.Code)
	default:
		return err
	}
	result.Steps = append(result.Steps, outcome)

	switch {
	case step.ExpectError == "" && outcome.Error != "":
		result.AddError(fmt.Sprintf("step %d: unexpected error: %v", i, err))
	case step.ExpectError != "" && outcome.Error != step.ExpectError:
		got := outcome.Error
		if got == "" {
			got = "success"
		}
		result.AddError(fmt.Sprintf("step %d: got %s, want error %s", i, got, step.ExpectError))
	}

	h.logger.Info("step completed", "step", i, "op", outcome.Op, "error", outcome.Error)
	return nil
}

func (h *Harness) renumber(ctx context.Context, s *RenumberStep) (StepOutcome, error) {
	out := StepOutcome{Op: "renumber"}
	region, err := h.root.Find(s.Region)
	if err != nil {
		return out, err
	}
	space, err := ir.ParseSpace(s.Space)
	if err != nil {
		return out, err
	}
	kind, err := engine.KindOf(space)
	if err != nil {
		return out, err
	}
	req := engine.Request{Group: s.Group, Kind: kind, Offset: s.Offset, Time: s.Time}
	if s.SortBy != "" {
		f, err := field.Resolve(region.Mesh(), s.SortBy)
		if err != nil {
			return out, fmt.Errorf("sort field: %w", err)
		}
		req.SortBy = f
	}

	eng := engine.New(region.Mesh(), engine.WithLogger(h.logger))
	rep, err := eng.Renumber(ctx, req)
	if err != nil {
		return out, err
	}
	out.Reports = append(out.Reports, reportOutcome(regionPath(s.Region), rep))
	return out, nil
}

func (h *Harness) offset(ctx context.Context, s *OffsetStep) (StepOutcome, error) {
	out := StepOutcome{Op: "offset"}
	off := engine.Offsets{Elements: s.Elements, Faces: s.Faces, Lines: s.Lines, Nodes: s.Nodes, Data: s.Data}
	reports, err := engine.OffsetTree(ctx, h.root, off, engine.WithLogger(h.logger))
	for _, rr := range reports {
		for _, rep := range rr.Reports {
			out.Reports = append(out.Reports, reportOutcome(rr.Path, rep))
		}
	}
	return out, err
}

func reportOutcome(path string, rep *engine.Report) ReportOutcome {
	changes := rep.Changes
	if changes == nil {
		changes = []ir.Change{}
	}
	return ReportOutcome{
		Region:     path,
		Group:      rep.Group,
		Space:      rep.Space.String(),
		Members:    rep.Members,
		Relabelled: rep.Relabelled,
		Relocated:  rep.Relocated,
		Changes:    changes,
	}
}

func namedIdentifiers(m *mesh.Mesh) map[string]int64 {
	out := make(map[string]int64)
	for h, id := range m.Identifiers() {
		if name := m.Name(h); name != "" {
			out[name] = id.Number
		}
	}
	return out
}

// regionPath normalizes a scenario region reference to the form Walk uses.
func regionPath(p string) string {
	return "/" + strings.Trim(p, "/")
}
