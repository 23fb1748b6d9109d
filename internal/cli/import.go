package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/cmlibs/zinc-sub001/internal/mesh"
)

// ImportOptions holds flags for the import command.
type ImportOptions struct {
	*RootOptions
	Database string
}

// ImportResult is the outcome of import.
type ImportResult struct {
	File     string   `json:"file"`
	Entities int      `json:"entities"`
	Skipped  []string `json:"skipped_regions,omitempty"`
}

// RenderText writes the summary.
func (r ImportResult) RenderText(w io.Writer) {
	fmt.Fprintf(w, "Imported %d entities from %s\n", r.Entities, r.File)
	for _, path := range r.Skipped {
		fmt.Fprintf(w, "  skipped child region %s\n", path)
	}
}

// NewImportCommand creates the import command.
func NewImportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ImportOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "import <mesh.yaml>",
		Short: "Import a YAML mesh document into the database",
		Long: `Import the root region of a YAML mesh document: fields, nodes,
datapoints, elements, faces, lines and groups. The database is created if it
does not exist. Nothing is imported if any identifier or name is already
taken. Child regions are skipped; the database holds one region.

Examples:
  meshid import heart.yaml --db mesh.db`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd.Context(), opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (default from config)")

	return cmd
}

func runImport(ctx context.Context, opts *ImportOptions, path string, cmd *cobra.Command) error {
	root, err := mesh.LoadFile(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load mesh", err)
	}

	st, err := openStore(cmd, opts.RootOptions, opts.Database, true)
	if err != nil {
		return err
	}
	defer st.Close()

	result := ImportResult{File: path}
	root.Walk(func(p string, _ *mesh.Region) {
		if p != "/" {
			result.Skipped = append(result.Skipped, p)
		}
	})
	for _, p := range result.Skipped {
		opts.Logger.Warn("child region not imported", "region", p)
	}

	n, err := st.Import(ctx, root.Mesh())
	if err != nil {
		return WrapExitError(ExitFailure, "import failed", err)
	}
	result.Entities = n
	return newFormatter(cmd, opts.RootOptions).Success(result)
}

// ExportOptions holds flags for the export command.
type ExportOptions struct {
	*RootOptions
	Database string
	Output   string
}

// NewExportCommand creates the export command.
func NewExportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExportOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the database as a YAML mesh document",
		Long: `Write the collection, with its current identifiers, as a YAML mesh
document that import accepts. The output is YAML whatever --format says.

Examples:
  meshid export --db mesh.db
  meshid export --db mesh.db -o renumbered.yaml`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(cmd.Context(), opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (default from config)")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output file (default stdout)")

	return cmd
}

func runExport(ctx context.Context, opts *ExportOptions, cmd *cobra.Command) error {
	st, err := openStore(cmd, opts.RootOptions, opts.Database, false)
	if err != nil {
		return err
	}
	defer st.Close()

	m, err := st.Export(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "export failed", err)
	}

	w := cmd.OutOrStdout()
	if opts.Output != "" {
		f, err := os.Create(opts.Output)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to create output file", err)
		}
		defer f.Close()
		w = f
	}
	if err := mesh.NewRegion("", m).EncodeYAML(w); err != nil {
		return WrapExitError(ExitCommandError, "export failed", err)
	}
	return nil
}
