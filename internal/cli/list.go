package cli

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

// ListOptions holds flags for the list command.
type ListOptions struct {
	*RootOptions
	Database string
	Group    string
	Space    string
}

// EntityOutput is one listed entity.
type EntityOutput struct {
	Identifier int64  `json:"identifier"`
	Name       string `json:"name,omitempty"`
	Shape      string `json:"shape,omitempty"`
}

// ListResult lists the entities of a space.
type ListResult struct {
	Group    string         `json:"group,omitempty"`
	Space    string         `json:"space"`
	Entities []EntityOutput `json:"entities"`
}

// RenderText writes an aligned table.
func (r ListResult) RenderText(w io.Writer) {
	if len(r.Entities) == 0 {
		fmt.Fprintf(w, "No %s entities in group %s.\n", r.Space, groupLabel(r.Group))
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tSHAPE")
	for _, e := range r.Entities {
		fmt.Fprintf(tw, "%d\t%s\t%s\n", e.Identifier, e.Name, e.Shape)
	}
	tw.Flush()
}

// NewListCommand creates the list command.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ListOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List entities in identifier order",
		Long: `List the entities of one space, optionally only those of a group, in
ascending identifier order.

Examples:
  meshid list --db mesh.db
  meshid list --db mesh.db --group heart --space element --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(cmd.Context(), opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (default from config)")
	cmd.Flags().StringVar(&opts.Group, "group", "", "only list members of this group")
	cmd.Flags().StringVar(&opts.Space, "space", "node", "identifier space (node|datapoint|element|face|line)")

	return cmd
}

func runList(ctx context.Context, opts *ListOptions, cmd *cobra.Command) error {
	space, err := parseSpace(opts.Space)
	if err != nil {
		return err
	}

	st, err := openStore(cmd, opts.RootOptions, opts.Database, false)
	if err != nil {
		return err
	}
	defer st.Close()

	entities, err := st.Entities(ctx, opts.Group, space)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to list entities", err)
	}

	result := ListResult{Group: opts.Group, Space: space.String(), Entities: make([]EntityOutput, 0, len(entities))}
	for _, e := range entities {
		result.Entities = append(result.Entities, EntityOutput{
			Identifier: e.Identifier.Number,
			Name:       e.Name,
			Shape:      e.Shape.String(),
		})
	}
	return newFormatter(cmd, opts.RootOptions).Success(result)
}
