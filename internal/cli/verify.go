package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

// VerifyOptions holds flags for the verify command.
type VerifyOptions struct {
	*RootOptions
	Database string
}

// VerifyResult lists the problems found.
type VerifyResult struct {
	Valid       bool     `json:"valid"`
	Fingerprint string   `json:"fingerprint"`
	Problems    []string `json:"problems"`
}

// RenderText writes the verdict and any problems.
func (r VerifyResult) RenderText(w io.Writer) {
	if r.Valid {
		fmt.Fprintf(w, "✓ Collection is consistent (fingerprint %s)\n", r.Fingerprint)
		return
	}
	fmt.Fprintf(w, "✗ %d problem(s) found\n", len(r.Problems))
	for _, p := range r.Problems {
		fmt.Fprintf(w, "  %s\n", p)
	}
}

// NewVerifyCommand creates the verify command.
func NewVerifyCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &VerifyOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Check the collection for inconsistencies",
		Long: `Check that every identifier is positive and unique in its space, that
element nodes are nodes and that group members exist. Run it after a
MUTATION_FAILURE to see what state the collection was left in.

Exit codes:
  0 - Consistent
  1 - Problems found
  2 - Command error

Examples:
  meshid verify --db mesh.db`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVerify(cmd.Context(), opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (default from config)")

	return cmd
}

func runVerify(ctx context.Context, opts *VerifyOptions, cmd *cobra.Command) error {
	st, err := openStore(cmd, opts.RootOptions, opts.Database, false)
	if err != nil {
		return err
	}
	defer st.Close()

	problems, err := st.Verify(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "verification could not run", err)
	}
	fp, err := st.Fingerprint(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to fingerprint collection", err)
	}

	result := VerifyResult{Valid: len(problems) == 0, Fingerprint: fp, Problems: make([]string, 0, len(problems))}
	for _, p := range problems {
		result.Problems = append(result.Problems, p.String())
	}
	if err := newFormatter(cmd, opts.RootOptions).Success(result); err != nil {
		return err
	}
	if !result.Valid {
		return NewExitError(ExitFailure, fmt.Sprintf("%d problem(s) found", len(problems)))
	}
	return nil
}
