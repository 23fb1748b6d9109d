package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/cmlibs/zinc-sub001/internal/engine"
	"github.com/cmlibs/zinc-sub001/internal/field"
	"github.com/cmlibs/zinc-sub001/internal/ir"
)

// RenumberOptions holds flags for the renumber command.
type RenumberOptions struct {
	*RootOptions
	Database string
	Group    string
	Space    string
	Offset   int64
	SortBy   string
	Time     float64
}

// RenumberResult is the outcome of one engine call.
type RenumberResult struct {
	Group      string         `json:"group"`
	Space      string         `json:"space"`
	Members    int            `json:"members"`
	Relabelled int            `json:"relabelled"`
	Relocated  int            `json:"relocated"`
	Changes    []ChangeOutput `json:"changes"`
}

// ChangeOutput is one relabelled entity.
type ChangeOutput struct {
	From string `json:"from"`
	To   string `json:"to"`
}

func newRenumberResult(rep *engine.Report) RenumberResult {
	out := RenumberResult{
		Group:      rep.Group,
		Space:      rep.Space.String(),
		Members:    rep.Members,
		Relabelled: rep.Relabelled,
		Relocated:  rep.Relocated,
		Changes:    make([]ChangeOutput, 0, len(rep.Changes)),
	}
	for _, c := range rep.Changes {
		out.Changes = append(out.Changes, ChangeOutput{From: c.From.String(), To: c.To.String()})
	}
	return out
}

// RenderText writes the human-readable summary.
func (r RenumberResult) RenderText(w io.Writer) {
	fmt.Fprintf(w, "Renumbered %d %s entities of group %s: %d relabelled, %d relocated\n",
		r.Members, r.Space, groupLabel(r.Group), r.Relabelled, r.Relocated)
	for _, c := range r.Changes {
		fmt.Fprintf(w, "  %s -> %s\n", c.From, c.To)
	}
}

// NewRenumberCommand creates the renumber command.
func NewRenumberCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RenumberOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "renumber",
		Short: "Renumber the identifiers of a group",
		Long: `Renumber the identifiers of one space of a group.

Without --sort-by every identifier is shifted by --offset. With --sort-by the
members are ordered by the field and numbered --offset, --offset+1, ...
--sort-by names a stored field, or is "expr:<cue>" for a CUE expression over
stored fields, identifier and time.

The call either succeeds completely or changes nothing, unless it fails with
MUTATION_FAILURE.

Exit codes:
  0 - Renumbered
  1 - Rejected (non-positive, non-monotonic, collision, evaluation failed)
  2 - Command error (invalid flags, database not found, etc.)
  3 - Mutation failure; the collection may be partially renumbered

Examples:
  meshid renumber --db mesh.db --group heart --offset 1000
  meshid renumber --db mesh.db --group heart --space element --sort-by coordinates --offset 1
  meshid renumber --db mesh.db --sort-by 'expr:-coordinates[2]' --offset 1`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRenumber(cmd.Context(), opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (default from config)")
	cmd.Flags().StringVar(&opts.Group, "group", "", "group to renumber (default every entity of the space)")
	cmd.Flags().StringVar(&opts.Space, "space", "node", "identifier space (node|datapoint|element|face|line)")
	cmd.Flags().Int64Var(&opts.Offset, "offset", 0, "offset, or first identifier with --sort-by")
	cmd.Flags().StringVar(&opts.SortBy, "sort-by", "", "field or expr:<cue> to order members by")
	cmd.Flags().Float64Var(&opts.Time, "time", 0, "time at which --sort-by is evaluated (default from config)")

	return cmd
}

func runRenumber(ctx context.Context, opts *RenumberOptions, cmd *cobra.Command) error {
	space, err := parseSpace(opts.Space)
	if err != nil {
		return err
	}

	st, err := openStore(cmd, opts.RootOptions, opts.Database, false)
	if err != nil {
		return err
	}
	defer st.Close()

	kind, err := engine.KindOf(space)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid --space", err)
	}
	req := engine.Request{Group: opts.Group, Kind: kind, Offset: opts.Offset, Time: opts.Time}
	if !cmd.Flags().Changed("time") {
		req.Time = opts.Config.Time
	}
	f := newFormatter(cmd, opts.RootOptions)
	if opts.SortBy != "" {
		sortBy, err := field.Resolve(st, opts.SortBy)
		if err != nil {
			return fail(f, "E_SORT_FIELD", WrapExitError(ExitCommandError, "invalid --sort-by", err))
		}
		req.SortBy = sortBy
	}

	rep, err := engine.New(st, opts.engineOptions()...).Renumber(ctx, req)
	if err != nil {
		return fail(f, string(engine.Code(err)), renumberExit("renumber failed", err))
	}
	return f.Success(newRenumberResult(rep))
}

// groupLabel is how a group appears in messages.
func groupLabel(group string) string {
	if ir.NormalizeName(group) == "" {
		return "(all)"
	}
	return group
}
