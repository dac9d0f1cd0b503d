package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	foundation "git.home.luguber.info/inful/adocs/internal/foundation/errors"
	"git.home.luguber.info/inful/adocs/internal/history"
)

// HistoryCmd implements the 'history' command.
type HistoryCmd struct {
	Limit  int    `short:"n" help:"Number of runs to show" default:"20"`
	Latest bool   `help:"Show only the most recent run and its transitions"`
	Repo   string `short:"r" help:"Restrict --latest to one repository URL"`
}

func (h *HistoryCmd) Run(_ *Global, root *CLI) error {
	cfg := root.Cfg()
	if !cfg.History.Enabled {
		return foundation.ConfigError("run history is disabled (history.enabled)").Build()
	}
	store, err := history.NewSQLiteStore(cfg.History.Path)
	if err != nil {
		return foundation.WrapError(err, foundation.CategoryHistory, "open history store").Build()
	}
	defer func() { _ = store.Close() }()
	return h.print(context.Background(), os.Stdout, store)
}

func (h *HistoryCmd) print(ctx context.Context, w io.Writer, store history.Store) error {
	if h.Latest {
		run, err := store.Latest(ctx, h.Repo)
		if errors.Is(err, history.ErrRunNotFound) {
			_, err = fmt.Fprintln(w, "No runs recorded")
			return err
		}
		if err != nil {
			return foundation.WrapError(err, foundation.CategoryHistory, "read latest run").Build()
		}
		trs, err := store.Transitions(ctx, run.ID)
		if err != nil {
			return foundation.WrapError(err, foundation.CategoryHistory, "read transitions").Build()
		}
		fmt.Fprintf(w, "Run:       %s\n", run.ID)
		fmt.Fprintf(w, "Source:    %s\n", run.SourceURL)
		fmt.Fprintf(w, "State:     %s (%s)\n", run.State, run.Outcome)
		fmt.Fprintf(w, "Output:    %s\n", run.OutputDir)
		fmt.Fprintf(w, "Documents: %d (%d stub)\n", run.Documents, run.Stubs)
		if run.Error != "" {
			fmt.Fprintf(w, "Error:     %s\n", run.Error)
		}
		for _, tr := range trs {
			fmt.Fprintf(w, "  %s  %s -> %s\n", tr.At.Format(time.RFC3339), tr.From, tr.To)
		}
		return nil
	}

	runs, err := store.List(ctx, h.Limit)
	if err != nil {
		return foundation.WrapError(err, foundation.CategoryHistory, "list runs").Build()
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "STARTED\tRUN\tSTATE\tOUTCOME\tDOCS\tSTUBS\tSOURCE")
	for _, r := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%d\t%s\n",
			r.StartedAt.Format(time.RFC3339), r.ID, r.State, r.Outcome, r.Documents, r.Stubs, r.SourceURL)
	}
	return tw.Flush()
}
