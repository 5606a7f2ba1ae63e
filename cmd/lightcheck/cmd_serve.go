package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"lightcheck/internal/artifact"
	"lightcheck/internal/logging"
	mcpserver "lightcheck/internal/mcp"
	"lightcheck/internal/metrics"
	"lightcheck/internal/report"
	"lightcheck/internal/scenario"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server over stdio",
	Long: `Starts an MCP server over stdin/stdout exposing list_scenarios,
run_scenarios, get_report and scenario_history. The browser is launched on
the first run and reused afterwards. Finished runs are recorded in the
history database.

With --metrics-addr, Prometheus metrics are served on /metrics.

The server exits when its parent process goes away.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

var serveFlags struct {
	metricsAddr string
}

func init() {
	serveCmd.Flags().StringVar(&serveFlags.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address, e.g. :9464")
}

func runServe(cmd *cobra.Command, _ []string) error {
	br, err := newBrowserRunner(cfg)
	if err != nil {
		return err
	}
	defer br.Close()
	br.metrics = metrics.New()

	hist, err := openHistory(cfg)
	if err != nil {
		return err
	}
	defer hist.Close()

	srv := mcpserver.NewServer(scenario.Builtin(), br, version)
	srv.History = hist
	srv.Persist = func(sum scenario.Summary) (string, error) {
		dir, err := artifact.New(cfg.OutputDir, sum.RunID)
		if err != nil {
			return "", err
		}
		if err := hist.SaveRun(sum); err != nil {
			logging.New("history").Warn("run not recorded", "run_id", sum.RunID, "error", err)
		}
		return report.Save(dir, sum)
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	mcpserver.WatchParent(ctx, cancel)

	logging.New("mcp").Info("starting lightcheck MCP server over stdio (parent watchdog active)")
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer cancel()
		return srv.MCPServer.Run(gctx, &sdkmcp.StdioTransport{})
	})
	g.Go(func() error {
		<-gctx.Done()
		srv.Shutdown()
		return nil
	})
	if serveFlags.metricsAddr != "" {
		hs := &http.Server{Addr: serveFlags.metricsAddr, Handler: metricsMux(br.metrics), ReadHeaderTimeout: 5 * time.Second}
		g.Go(func() error {
			logging.New("metrics").Info("serving metrics", "addr", hs.Addr)
			if err := hs.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			sctx, stop := context.WithTimeout(context.Background(), 5*time.Second)
			defer stop()
			return hs.Shutdown(sctx)
		})
	}
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func metricsMux(m *metrics.Metrics) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	return mux
}
