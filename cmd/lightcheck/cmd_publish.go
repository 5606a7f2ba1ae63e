package main

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"lightcheck/internal/config"
	"lightcheck/internal/report"
	"lightcheck/internal/rp"
	"lightcheck/internal/scenario"
	"lightcheck/internal/store"
)

var publishCmd = &cobra.Command{
	Use:   "publish [run-id]",
	Short: "Publish a finished run to Report Portal",
	Long: `Publish sends a recorded run (the newest one when no ID is given) to the
Report Portal instance named by SF_RP_URL, SF_RP_PROJECT and SF_RP_TOKEN or
SF_RP_TOKEN_FILE. The run is looked up in the history database first and in
<output>/<run-id>/results.json second.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runPublish,
}

func runPublish(cmd *cobra.Command, args []string) error {
	var runID string
	if len(args) == 1 {
		runID = args[0]
	}
	sum, err := findRun(runID)
	if err != nil {
		return err
	}
	return publish(cmd, sum)
}

// findRun loads runID, or the newest recorded run when runID is empty.
func findRun(runID string) (scenario.Summary, error) {
	st, err := openHistory(cfg)
	if err != nil {
		return scenario.Summary{}, err
	}
	defer st.Close()

	if runID == "" {
		runs, err := st.ListRuns(1)
		if err != nil {
			return scenario.Summary{}, err
		}
		if len(runs) == 0 {
			return scenario.Summary{}, fmt.Errorf("no recorded runs in %s", historyPath(cfg))
		}
		runID = runs[0].RunID
	}
	sum, err := st.GetRun(runID)
	if !errors.Is(err, store.ErrRunNotFound) {
		return sum, err
	}
	sum, lerr := report.Load(filepath.Join(cfg.OutputDir, runID, report.ResultsFile))
	if lerr != nil {
		return scenario.Summary{}, fmt.Errorf("%w (and %v)", err, lerr)
	}
	return sum, nil
}

func publish(cmd *cobra.Command, sum scenario.Summary) error {
	pub, err := newPublisher(cfg)
	if err != nil {
		return err
	}
	out, err := pub.Publish(cmd.Context(), sum)
	switch {
	case rp.IsUnauthorized(err):
		return fmt.Errorf("publish run %s: token rejected, check %s: %w", sum.RunID, config.KeyRPToken, err)
	case rp.IsNotFound(err):
		return fmt.Errorf("publish run %s: project %q not found: %w", sum.RunID, cfg.ReportPortal.Project, err)
	case err != nil:
		return fmt.Errorf("publish run %s: %w", sum.RunID, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "published run %s as launch #%d (%d items) %s\n", sum.RunID, out.Number, out.Items, out.Link)
	return nil
}
