package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"lightcheck/internal/config"
	"lightcheck/internal/logging"
	"lightcheck/internal/telemetry"
)

// version is set at build time via -ldflags.
var version = "dev"

var rootFlags struct {
	envFile   string
	file      string
	driver    string
	headless  bool
	outputDir string
	logLevel  string
	logFormat string
	traceFile string
}

// cfg is resolved once per invocation in PersistentPreRunE.
var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "lightcheck",
	Short: "End-to-end checks for Salesforce Lightning orgs",
	Long: `lightcheck drives a real browser through Salesforce Lightning: login,
record creation and detail verification, tolerating spinners, toasts and
post-login interstitials.

Settings come from a .env file, an optional YAML file and SF_* environment
variables; flags override all of them.`,
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
}

func init() {
	f := rootCmd.PersistentFlags()
	f.StringVar(&rootFlags.envFile, "env-file", ".env", "dotenv file to read (missing is fine)")
	f.StringVarP(&rootFlags.file, "config", "c", "", "YAML config file")
	f.StringVar(&rootFlags.driver, "driver", "", "browser backend (chromedp, playwright); default $"+config.KeyDriver)
	f.BoolVar(&rootFlags.headless, "headless", true, "run the browser headless")
	f.StringVarP(&rootFlags.outputDir, "output", "o", "", "results directory; default $"+config.KeyOutputDir)
	f.StringVar(&rootFlags.logLevel, "log-level", "", "debug, info, warn, error")
	f.StringVar(&rootFlags.logFormat, "log-format", "", "text or json")
	f.StringVar(&rootFlags.traceFile, "trace-file", "", "write OpenTelemetry spans as JSON to this file")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(publishCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.Version = version

	// version needs no configuration.
	versionCmd.PersistentPreRunE = func(*cobra.Command, []string) error { return nil }
}

func loadConfig(cmd *cobra.Command, _ []string) error {
	c, err := config.Resolve(config.Options{EnvFile: rootFlags.envFile, File: rootFlags.file})
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	if flags.Changed("driver") {
		c.Driver = rootFlags.driver
	}
	if flags.Changed("headless") {
		c.Headless = rootFlags.headless
	}
	if flags.Changed("output") {
		c.OutputDir = rootFlags.outputDir
	}
	if flags.Changed("log-level") {
		c.LogLevel = rootFlags.logLevel
	}
	if flags.Changed("log-format") {
		c.LogFormat = rootFlags.logFormat
	}

	level, err := logging.ParseLevel(c.LogLevel)
	if err != nil {
		return fmt.Errorf("%s: %w", config.KeyLogLevel, err)
	}
	logging.Init(level, c.LogFormat, cmd.ErrOrStderr())
	cfg = c

	if rootFlags.traceFile != "" {
		if err := startTracing(rootFlags.traceFile); err != nil {
			return err
		}
	}
	return nil
}

// stopTracing flushes spans; main calls it once the command returns.
var stopTracing = func() {}

func startTracing(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("trace file: %w", err)
	}
	shutdown, err := telemetry.Setup(f, version)
	if err != nil {
		f.Close()
		return err
	}
	stopTracing = func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(ctx); err != nil {
			logging.New("telemetry").Warn("flush spans", "error", err)
		}
		f.Close()
		stopTracing = func() {}
	}
	return nil
}

// errFailed marks a run that completed with failing scenarios.
var errFailed = errors.New("one or more scenarios failed")

func exitCode(err error) int {
	if errors.Is(err, errFailed) {
		return 1
	}
	return 2
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "lightcheck %s\n", version)
	},
}
