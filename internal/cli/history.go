package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/cmlibs/zinc-sub001/internal/store"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Database string
	BatchID  string
	Space    string
	Limit    int
}

// HistoryEntry is one logged relabel.
type HistoryEntry struct {
	Seq     int64  `json:"seq"`
	BatchID string `json:"batch_id"`
	Handle  uint32 `json:"handle"`
	From    string `json:"from"`
	To      string `json:"to"`
}

// HistoryResult lists relabels in the order they happened.
type HistoryResult struct {
	Changes []HistoryEntry `json:"changes"`
}

// RenderText writes one change per line, grouped visually by batch.
func (r HistoryResult) RenderText(w io.Writer) {
	if len(r.Changes) == 0 {
		fmt.Fprintln(w, "No identifier changes recorded.")
		return
	}
	batch := ""
	for _, c := range r.Changes {
		if c.BatchID != batch {
			fmt.Fprintf(w, "batch %s\n", c.BatchID)
			batch = c.BatchID
		}
		fmt.Fprintf(w, "  %6d  %s -> %s\n", c.Seq, c.From, c.To)
	}
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show the identifier change log",
		Long: `Show every identifier change recorded in the database, oldest first.
Changes made by one renumber or offset call share a batch ID. Temporary
moves to spare identifiers are included.

Examples:
  meshid history --db mesh.db
  meshid history --db mesh.db --limit 20
  meshid history --db mesh.db --batch 0192f4c5-... --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(cmd.Context(), opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (default from config)")
	cmd.Flags().StringVar(&opts.BatchID, "batch", "", "only changes of this batch")
	cmd.Flags().StringVar(&opts.Space, "space", "", "only changes in this identifier space")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "only the most recent N changes")

	return cmd
}

func runHistory(ctx context.Context, opts *HistoryOptions, cmd *cobra.Command) error {
	filter := store.HistoryFilter{BatchID: opts.BatchID, Limit: opts.Limit}
	if opts.Space != "" {
		space, err := parseSpace(opts.Space)
		if err != nil {
			return err
		}
		filter.Space = space
	}

	st, err := openStore(cmd, opts.RootOptions, opts.Database, false)
	if err != nil {
		return err
	}
	defer st.Close()

	records, err := st.History(ctx, filter)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read history", err)
	}

	result := HistoryResult{Changes: make([]HistoryEntry, 0, len(records))}
	for _, r := range records {
		result.Changes = append(result.Changes, HistoryEntry{
			Seq:     r.Seq,
			BatchID: r.BatchID,
			Handle:  uint32(r.Change.Handle),
			From:    r.Change.From.String(),
			To:      r.Change.To.String(),
		})
	}
	return newFormatter(cmd, opts.RootOptions).Success(result)
}
