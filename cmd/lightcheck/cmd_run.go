package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"lightcheck/internal/artifact"
	"lightcheck/internal/format"
	"lightcheck/internal/logging"
	"lightcheck/internal/metrics"
	"lightcheck/internal/report"
	"lightcheck/internal/scenario"
)

var runFlags struct {
	tags        []string
	format      string
	runID       string
	metricsFile string
	noHistory   bool
	publish     bool
}

var runCmd = &cobra.Command{
	Use:   "run [scenario...]",
	Short: "Run scenarios against the configured org",
	Long: `Run executes the named scenarios (all of them when none are named) in
order, each on a fresh browser page. Screenshots and results.json land in
<output>/<run-id>/ and the run is appended to the history database
(see "lightcheck history"). The exit status is 1 when any scenario fails.`,
	RunE: runRun,
}

func init() {
	f := runCmd.Flags()
	f.StringSliceVarP(&runFlags.tags, "tag", "t", nil, "only scenarios with any of these tags (smoke, regression, login, lead, opportunity)")
	f.StringVar(&runFlags.format, "format", "list", "report format (list, table, markdown)")
	f.StringVar(&runFlags.runID, "run-id", "", "run directory name (default: a fresh ULID)")
	f.StringVar(&runFlags.metricsFile, "metrics-file", "", "write Prometheus text metrics here after the run (node_exporter textfile format)")
	f.BoolVar(&runFlags.noHistory, "no-history", false, "do not record the run in the history database")
	f.BoolVar(&runFlags.publish, "publish", false, "publish the run to Report Portal (see lightcheck publish)")
}

func runRun(cmd *cobra.Command, args []string) error {
	ss, err := scenario.Builtin().Select(scenario.Filter{Names: args, Tags: runFlags.tags})
	if err != nil {
		return err
	}
	if len(ss) == 0 {
		return fmt.Errorf("no scenarios match names=%v tags=%v", args, runFlags.tags)
	}
	return execute(cmd, ss)
}

// execute runs ss, prints the report and saves results.json.
func execute(cmd *cobra.Command, ss []scenario.Scenario) error {
	br, err := newBrowserRunner(cfg)
	if err != nil {
		return err
	}
	defer br.Close()
	if runFlags.metricsFile != "" {
		br.metrics = metrics.New()
	}

	runID := runFlags.runID
	if runID == "" {
		runID = newRunID()
	}
	sum, err := br.Run(cmd.Context(), runID, ss)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	switch strings.ToLower(runFlags.format) {
	case "table", "markdown", "md":
		fmt.Fprintln(out, report.Table(sum, format.ParseMode(runFlags.format)))
	default:
		if err := report.WriteList(out, sum); err != nil {
			return err
		}
	}

	dir, err := artifact.New(cfg.OutputDir, runID)
	if err != nil {
		return err
	}
	path, err := report.Save(dir, sum)
	if err != nil {
		return err
	}
	logging.New("report").Info("results written", "path", path)

	if !runFlags.noHistory {
		recordHistory(sum)
	}
	if br.metrics != nil {
		if err := br.metrics.WriteFile(runFlags.metricsFile); err != nil {
			return fmt.Errorf("write metrics: %w", err)
		}
	}

	var errs []error
	if !sum.OK() {
		errs = append(errs, errFailed)
	}
	if runFlags.publish {
		if err := publish(cmd, sum); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// recordHistory appends sum to the history database. A broken history
// database never fails the run.
func recordHistory(sum scenario.Summary) {
	log := logging.New("history")
	st, err := openHistory(cfg)
	if err != nil {
		log.Warn("run not recorded", "error", err)
		return
	}
	defer st.Close()
	if err := st.SaveRun(sum); err != nil {
		log.Warn("run not recorded", "run_id", sum.RunID, "error", err)
		return
	}
	log.Debug("run recorded", "run_id", sum.RunID, "db", historyPath(cfg))
}
