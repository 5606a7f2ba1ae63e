package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"lightcheck/internal/display"
	"lightcheck/internal/format"
	"lightcheck/internal/scenario"
)

var historyFlags struct {
	scenario string
	limit    int
	markdown bool
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recorded runs, or the recent outcomes of one scenario",
	Long: `History reads the run database written by "run" and "serve"
($SF_HISTORY_DB, default <output>/lightcheck.db).

Without --scenario it lists the newest runs with their pass/fail counts.
With --scenario it lists that scenario's outcomes across runs, which tells
a flaky check from a broken one.`,
	Args: cobra.NoArgs,
	RunE: runHistory,
}

func init() {
	f := historyCmd.Flags()
	f.StringVarP(&historyFlags.scenario, "scenario", "s", "", "show outcomes of this scenario")
	f.IntVarP(&historyFlags.limit, "limit", "n", 20, "max rows (0 for all)")
	f.BoolVar(&historyFlags.markdown, "markdown", false, "render as a Markdown table")
}

func runHistory(cmd *cobra.Command, _ []string) error {
	st, err := openHistory(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	mode := format.ASCII
	if historyFlags.markdown {
		mode = format.Markdown
	}
	tb := format.NewTable(mode)

	if historyFlags.scenario != "" {
		sc, err := scenario.Builtin().Get(historyFlags.scenario)
		if err != nil {
			return err
		}
		outs, err := st.ScenarioHistory(sc.Name, historyFlags.limit)
		if err != nil {
			return err
		}
		tb.Title(sc.Name + ": " + sc.Title)
		tb.Header("Run", "Started", "Status", "Duration", "Failure", "Record")
		failed := 0
		for _, o := range outs {
			if o.Status == scenario.Failed {
				failed++
			}
			tb.Row(o.RunID, stamp(o.StartedAt), string(o.Status), format.Duration(o.Duration),
				display.ErrorKindWithCode(o.ErrorKind), o.RecordID)
		}
		tb.Footer("", "", fmt.Sprintf("%d/%d failed", failed, len(outs)), "", "", "")
		fmt.Fprintln(cmd.OutOrStdout(), tb.String())
		return nil
	}

	runs, err := st.ListRuns(historyFlags.limit)
	if err != nil {
		return err
	}
	tb.Header("Run", "Started", "Duration", "Passed", "Failed", "Skipped")
	tb.Columns(
		format.ColumnConfig{Number: 4, Align: format.AlignRight},
		format.ColumnConfig{Number: 5, Align: format.AlignRight},
		format.ColumnConfig{Number: 6, Align: format.AlignRight},
	)
	for _, r := range runs {
		tb.Row(r.RunID, stamp(r.StartedAt), format.Duration(r.Duration), r.Passed, r.Failed, r.Skipped)
	}
	tb.Footer("", fmt.Sprintf("%d runs", len(runs)), "", "", "", "")
	fmt.Fprintln(cmd.OutOrStdout(), tb.String())
	return nil
}

func stamp(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04:05")
}
