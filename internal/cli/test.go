package cli

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cmlibs/zinc-sub001/internal/harness"
)

// TestOptions holds flags for the test command.
type TestOptions struct {
	*RootOptions
	Update    bool   // regenerate golden files
	Filter    string // scenario filter (glob pattern)
	GoldenDir string // default <scenarios-dir>/golden
}

// ScenarioResult holds the result of a single scenario execution.
type ScenarioResult struct {
	Name   string   `json:"name"`
	Pass   bool     `json:"pass"`
	Errors []string `json:"errors,omitempty"`
}

// TestResult holds the overall test result.
type TestResult struct {
	Scenarios []ScenarioResult `json:"scenarios"`
	Passed    int              `json:"passed"`
	Failed    int              `json:"failed"`
	Total     int              `json:"total"`
}

// NewTestCommand creates the test command.
func NewTestCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TestOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "test <scenarios-dir>",
		Short: "Run renumbering scenarios",
		Long: `Run YAML renumbering scenarios on in-memory meshes.

Each scenario's steps and assertions are checked; when a golden file
<golden-dir>/<name>.golden exists, the outcome must also match it.

Exit codes:
  0 - All scenarios passed
  1 - One or more scenarios failed
  2 - Command error (invalid paths, etc.)

Examples:
  meshid test ./scenarios
  meshid test ./scenarios --filter "offset-*"
  meshid test ./scenarios --golden-dir ./golden --update
  meshid test ./scenarios --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTests(opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Update, "update", false, "regenerate golden files")
	cmd.Flags().StringVar(&opts.Filter, "filter", "", "filter scenarios by glob pattern")
	cmd.Flags().StringVar(&opts.GoldenDir, "golden-dir", "", "golden file directory (default <scenarios-dir>/golden)")

	return cmd
}

func runTests(opts *TestOptions, scenariosDir string, cmd *cobra.Command) error {
	if err := opts.setup(cmd); err != nil {
		return err
	}
	if info, err := os.Stat(scenariosDir); err != nil || !info.IsDir() {
		return NewExitError(ExitCommandError, fmt.Sprintf("scenarios directory not found: %s", scenariosDir))
	}

	r := &scenarioRunner{
		opts:      opts,
		goldenDir: opts.GoldenDir,
		progress:  io.Discard,
	}
	if r.goldenDir == "" {
		r.goldenDir = filepath.Join(scenariosDir, "golden")
	}
	if opts.Format != "json" {
		r.progress = cmd.OutOrStdout()
	}

	files, err := r.scenarioFiles(scenariosDir)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to find scenarios", err)
	}

	f := newFormatter(cmd, opts.RootOptions)
	result := TestResult{Scenarios: make([]ScenarioResult, 0, len(files)), Total: len(files)}
	if len(files) == 0 {
		if f.Format == "json" {
			return f.Success(result)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "No scenarios found.")
		return nil
	}

	for _, file := range files {
		sr := r.run(file)
		if sr.Pass {
			result.Passed++
		} else {
			result.Failed++
		}
		result.Scenarios = append(result.Scenarios, sr)
	}

	if result.Failed == 0 {
		return f.Success(result)
	}
	msg := fmt.Sprintf("%d scenario(s) failed", result.Failed)
	if err := f.Failure(result, "E_TEST_FAILED", msg); err != nil {
		return err
	}
	return NewExitError(ExitFailure, msg)
}

// RenderText writes the summary line.
func (r TestResult) RenderText(w io.Writer) {
	fmt.Fprintf(w, "\nTest Summary: %d passed, %d failed, %d total\n", r.Passed, r.Failed, r.Total)
	if r.Failed == 0 {
		fmt.Fprintln(w, "✓ All scenarios passed")
	}
}

// scenarioRunner runs scenario files and compares their outcomes with
// golden files.
type scenarioRunner struct {
	opts      *TestOptions
	goldenDir string
	progress  io.Writer
}

// scenarioFiles lists the YAML files under dir that match the filter,
// skipping the golden directory.
func (r *scenarioRunner) scenarioFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != dir && filepath.Clean(path) == filepath.Clean(r.goldenDir) {
				return filepath.SkipDir
			}
			return nil
		}
		ext := filepath.Ext(path)
		if ext != ".yaml" && ext != ".yml" {
			return nil
		}
		if r.opts.Filter != "" {
			ok, err := filepath.Match(r.opts.Filter, strings.TrimSuffix(d.Name(), ext))
			if err != nil {
				return fmt.Errorf("invalid filter pattern: %w", err)
			}
			if !ok {
				return nil
			}
		}
		files = append(files, path)
		return nil
	})
	return files, err
}

// run executes one scenario file.
func (r *scenarioRunner) run(file string) ScenarioResult {
	scenario, err := harness.LoadScenario(file)
	if err != nil {
		return r.fail(filepath.Base(file), fmt.Sprintf("failed to load scenario: %v", err))
	}

	result, err := harness.Run(scenario)
	if err != nil {
		return r.fail(scenario.Name, fmt.Sprintf("execution failed: %v", err))
	}
	outcome, err := harness.Outcome(scenario.Name, result)
	if err != nil {
		return r.fail(scenario.Name, fmt.Sprintf("failed to marshal outcome: %v", err))
	}
	golden := filepath.Join(r.goldenDir, scenario.Name+".golden")

	if r.opts.Update {
		if err := writeGolden(golden, outcome); err != nil {
			return r.fail(scenario.Name, err.Error())
		}
		fmt.Fprintf(r.progress, "✓ %s (golden updated)\n", scenario.Name)
		return ScenarioResult{Name: scenario.Name, Pass: true}
	}

	problems := slices.Clone(result.Errors)
	want, err := os.ReadFile(golden)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		// assertions only
	case err != nil:
		problems = append(problems, fmt.Sprintf("failed to read golden file: %v", err))
	case !bytes.Equal(want, outcome):
		problems = append(problems, "outcome does not match golden file (run with --update to regenerate)")
	}
	if len(problems) > 0 || !result.Pass {
		return r.fail(scenario.Name, problems...)
	}

	fmt.Fprintf(r.progress, "✓ %s\n", scenario.Name)
	r.opts.Logger.Debug("scenario passed", "name", scenario.Name, "steps", len(result.Steps))
	return ScenarioResult{Name: scenario.Name, Pass: true}
}

func (r *scenarioRunner) fail(name string, problems ...string) ScenarioResult {
	fmt.Fprintf(r.progress, "✗ %s\n", name)
	for _, p := range problems {
		fmt.Fprintf(r.progress, "  %s\n", p)
	}
	return ScenarioResult{Name: name, Errors: problems}
}

// writeGolden replaces the golden file at path with outcome.
func writeGolden(path string, outcome []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create golden directory: %w", err)
	}
	if err := os.WriteFile(path, outcome, 0644); err != nil {
		return fmt.Errorf("failed to write golden file: %w", err)
	}
	return nil
}
