package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"github.com/cmlibs/zinc-sub001/internal/engine"
	"github.com/cmlibs/zinc-sub001/internal/ir"
	"github.com/cmlibs/zinc-sub001/internal/store"
)

// openStore opens the collection database named by flag or the config.
// Unless create is set, the database must already exist.
func openStore(cmd *cobra.Command, opts *RootOptions, flag string, create bool) (*store.Store, error) {
	if err := opts.setup(cmd); err != nil {
		return nil, err
	}
	path := opts.database(flag)
	if !create {
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			return nil, NewExitError(ExitCommandError, fmt.Sprintf("database not found: %s", path))
		}
	}
	st, err := store.Open(path)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}
	opts.Logger.Debug("opened database", "path", path)
	return st, nil
}

// engineOptions carries the configured logger and probe limit to the engine.
func (o *RootOptions) engineOptions() []engine.Option {
	return []engine.Option{
		engine.WithLogger(o.Logger),
		engine.WithProbeLimit(int(o.Config.ProbeLimit)),
	}
}

// parseSpace parses a --space flag.
func parseSpace(s string) (ir.Space, error) {
	sp, err := ir.ParseSpace(s)
	if err != nil {
		return ir.Space{}, WrapExitError(ExitCommandError, "invalid --space", err)
	}
	return sp, nil
}

// fail reports err in the JSON envelope when JSON output is selected and
// returns it for the exit code. Text mode leaves printing to main.
func fail(f *OutputFormatter, code string, err *ExitError) error {
	if f.Format == "json" {
		_ = f.Error(code, err.Error(), nil)
	}
	return err
}
