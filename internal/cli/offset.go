package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/cmlibs/zinc-sub001/internal/engine"
)

// OffsetOptions holds flags for the offset command.
type OffsetOptions struct {
	*RootOptions
	Database string
	Elements int64
	Faces    int64
	Lines    int64
	Nodes    int64
	Data     bool
}

// OffsetResult lists the calls made per region.
type OffsetResult struct {
	Regions []RegionOutput `json:"regions"`
}

// RegionOutput is one region's calls.
type RegionOutput struct {
	Path    string           `json:"path"`
	Reports []RenumberResult `json:"reports"`
}

// RenderText writes one line per call.
func (r OffsetResult) RenderText(w io.Writer) {
	for _, region := range r.Regions {
		for _, rep := range region.Reports {
			fmt.Fprintf(w, "%s: %d %s identifiers shifted\n", region.Path, rep.Relabelled, rep.Space)
		}
	}
}

// NewOffsetCommand creates the offset command.
func NewOffsetCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &OffsetOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "offset",
		Short: "Shift every identifier of whole spaces",
		Long: `Add an offset to every identifier of the chosen spaces of the collection.

Each nonzero offset renumbers its whole space; all spaces change under one
batch so subscribers see one change set per space.

Exit codes:
  0 - Shifted
  1 - Rejected (an identifier would become non-positive)
  2 - Command error
  3 - Mutation failure

Examples:
  meshid offset --db mesh.db --nodes 1000 --elements 1000
  meshid offset --db mesh.db --nodes 100 --data`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOffset(cmd.Context(), opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (default from config)")
	cmd.Flags().Int64Var(&opts.Elements, "elements", 0, "element identifier offset")
	cmd.Flags().Int64Var(&opts.Faces, "faces", 0, "face identifier offset")
	cmd.Flags().Int64Var(&opts.Lines, "lines", 0, "line identifier offset")
	cmd.Flags().Int64Var(&opts.Nodes, "nodes", 0, "node identifier offset")
	cmd.Flags().BoolVar(&opts.Data, "data", false, "apply --nodes to datapoints instead of nodes")

	return cmd
}

func runOffset(ctx context.Context, opts *OffsetOptions, cmd *cobra.Command) error {
	off := engine.Offsets{
		Elements: opts.Elements,
		Faces:    opts.Faces,
		Lines:    opts.Lines,
		Nodes:    opts.Nodes,
		Data:     opts.Data,
	}
	if off == (engine.Offsets{Data: opts.Data}) {
		return NewExitError(ExitCommandError, "no offset given (use --elements, --faces, --lines or --nodes)")
	}

	st, err := openStore(cmd, opts.RootOptions, opts.Database, false)
	if err != nil {
		return err
	}
	defer st.Close()

	f := newFormatter(cmd, opts.RootOptions)
	reports, err := engine.OffsetTree(ctx, st.Region(), off, opts.engineOptions()...)
	if err != nil {
		return fail(f, string(engine.Code(err)), renumberExit("offset failed", err))
	}

	result := OffsetResult{Regions: make([]RegionOutput, 0, len(reports))}
	for _, rr := range reports {
		ro := RegionOutput{Path: rr.Path, Reports: make([]RenumberResult, 0, len(rr.Reports))}
		for _, rep := range rr.Reports {
			ro.Reports = append(ro.Reports, newRenumberResult(rep))
		}
		result.Regions = append(result.Regions, ro)
	}
	return f.Success(result)
}
