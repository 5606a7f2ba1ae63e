package mcp

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"lightcheck/internal/format"
	"lightcheck/internal/logging"
	"lightcheck/internal/report"
	"lightcheck/internal/scenario"
	"lightcheck/internal/store"
)

// DefaultWaitTimeout bounds how long run_scenarios and get_report block
// when asked to wait.
var DefaultWaitTimeout = 30 * time.Minute

// Server exposes the scenario suite as MCP tools.
type Server struct {
	MCPServer *sdkmcp.Server
	// Persist, when set, stores each finished summary and returns its path.
	Persist func(scenario.Summary) (string, error)
	// History, when set, answers get_report for earlier runs and
	// scenario_history.
	History store.Store

	registry *scenario.Registry
	runner   Runner

	mu   sync.Mutex
	last *Run
}

// NewServer registers the tools over registry and runner.
func NewServer(registry *scenario.Registry, runner Runner, version string) *Server {
	s := &Server{registry: registry, runner: runner}
	s.MCPServer = sdkmcp.NewServer(&sdkmcp.Implementation{Name: "lightcheck", Version: version}, nil)
	s.registerTools()
	return s
}

func (s *Server) registerTools() {
	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "list_scenarios",
		Description: "List the end-to-end scenarios, optionally only those carrying any of the given tags.",
	}, s.handleListScenarios)

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "run_scenarios",
		Description: "Run scenarios by name and/or tag against the configured org. Runs in the background unless wait is set; only one run at a time.",
	}, s.handleRunScenarios)

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "get_report",
		Description: "Get the status and per-scenario results of the last run, or of an earlier run by ID.",
	}, s.handleGetReport)

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "scenario_history",
		Description: "Recent outcomes of one scenario across stored runs, newest first. Use it to tell a flaky scenario from a broken one.",
	}, s.handleScenarioHistory)
}

// --- Tool input/output types ---

type listScenariosInput struct {
	Tags []string `json:"tags,omitempty" jsonschema:"only scenarios with any of these tags (smoke, regression, login, lead, opportunity)"`
}

type scenarioInfo struct {
	Name  string   `json:"name"`
	Title string   `json:"title"`
	Tags  []string `json:"tags"`
	Auth  bool     `json:"auth"`
}

type listScenariosOutput struct {
	Scenarios []scenarioInfo `json:"scenarios"`
	Tags      []string       `json:"tags"`
}

type runScenariosInput struct {
	Names []string `json:"names,omitempty" jsonschema:"scenario names, e.g. TC-LEAD-001; empty means all"`
	Tags  []string `json:"tags,omitempty" jsonschema:"only scenarios with any of these tags"`
	Wait  bool     `json:"wait,omitempty" jsonschema:"block until the run finishes and return its report"`
	Force bool     `json:"force,omitempty" jsonschema:"cancel a run in progress and start this one"`
}

type runScenariosOutput struct {
	RunID     string   `json:"run_id"`
	Scenarios []string `json:"scenarios"`
	Status    RunState `json:"status"`
	Report    string   `json:"report,omitempty"`
}

type getReportInput struct {
	RunID string `json:"run_id,omitempty" jsonschema:"run ID from run_scenarios; defaults to the last run"`
	Wait  bool   `json:"wait,omitempty" jsonschema:"block until the run finishes"`
}

type getReportOutput struct {
	RunID       string            `json:"run_id"`
	Status      RunState          `json:"status"`
	Report      string            `json:"report,omitempty"`
	Summary     *scenario.Summary `json:"summary,omitempty"`
	ResultsPath string            `json:"results_path,omitempty"`
	Error       string            `json:"error,omitempty"`
}

type scenarioHistoryInput struct {
	Name  string `json:"name" jsonschema:"scenario name, e.g. TC-OPP-002"`
	Limit int    `json:"limit,omitempty" jsonschema:"max outcomes; default 10"`
}

type outcomeInfo struct {
	RunID     string          `json:"run_id"`
	Status    scenario.Status `json:"status"`
	StartedAt time.Time       `json:"started_at"`
	Duration  string          `json:"duration"`
	ErrorKind string          `json:"error_kind,omitempty"`
	Error     string          `json:"error,omitempty"`
	RecordID  string          `json:"record_id,omitempty"`
}

type scenarioHistoryOutput struct {
	Name     string        `json:"name"`
	Outcomes []outcomeInfo `json:"outcomes"`
	Passed   int           `json:"passed"`
	Failed   int           `json:"failed"`
}

// --- Tool handlers ---

func (s *Server) handleListScenarios(_ context.Context, _ *sdkmcp.CallToolRequest, input listScenariosInput) (*sdkmcp.CallToolResult, listScenariosOutput, error) {
	ss, err := s.registry.Select(scenario.Filter{Tags: input.Tags})
	if err != nil {
		return nil, listScenariosOutput{}, err
	}
	out := listScenariosOutput{Scenarios: make([]scenarioInfo, 0, len(ss)), Tags: s.registry.Tags()}
	for _, sc := range ss {
		out.Scenarios = append(out.Scenarios, scenarioInfo{Name: sc.Name, Title: sc.Title, Tags: sc.Tags, Auth: sc.Auth})
	}
	return nil, out, nil
}

func (s *Server) handleRunScenarios(ctx context.Context, _ *sdkmcp.CallToolRequest, input runScenariosInput) (*sdkmcp.CallToolResult, runScenariosOutput, error) {
	ss, err := s.registry.Select(scenario.Filter{Names: input.Names, Tags: input.Tags})
	if err != nil {
		return nil, runScenariosOutput{}, err
	}
	if len(ss) == 0 {
		return nil, runScenariosOutput{}, fmt.Errorf("no scenarios match names=%v tags=%v", input.Names, input.Tags)
	}

	logger := logging.New("mcp")
	s.mu.Lock()
	if s.last != nil {
		select {
		case <-s.last.Done():
		default:
			if !input.Force {
				id := s.last.ID
				s.mu.Unlock()
				return nil, runScenariosOutput{}, fmt.Errorf("a run is already in progress (id=%s)", id)
			}
			logger.Warn("force-cancelling active run", "old_id", s.last.ID)
			s.last.Cancel()
		}
	}
	run := startRun(ulid.Make().String(), s.runner, ss, s.Persist)
	s.last = run
	s.mu.Unlock()
	logger.Info("run started", "run_id", run.ID, "scenarios", run.Scenarios)

	out := runScenariosOutput{RunID: run.ID, Scenarios: run.Scenarios, Status: StateRunning}
	if !input.Wait {
		return nil, out, nil
	}
	if err := waitFor(ctx, run); err != nil {
		return nil, out, err
	}
	state, sum, _, runErr := run.Snapshot()
	out.Status = state
	if runErr != nil {
		return nil, out, runErr
	}
	out.Report = renderList(sum)
	return nil, out, nil
}

func (s *Server) handleGetReport(ctx context.Context, _ *sdkmcp.CallToolRequest, input getReportInput) (*sdkmcp.CallToolResult, getReportOutput, error) {
	s.mu.Lock()
	run := s.last
	s.mu.Unlock()
	if input.RunID != "" && (run == nil || input.RunID != run.ID) {
		return s.storedReport(input.RunID)
	}
	if run == nil {
		return nil, getReportOutput{}, fmt.Errorf("no run yet; call run_scenarios first")
	}
	if input.Wait {
		if err := waitFor(ctx, run); err != nil {
			return nil, getReportOutput{}, err
		}
	}
	state, sum, path, runErr := run.Snapshot()
	out := getReportOutput{RunID: run.ID, Status: state, Summary: sum, ResultsPath: path}
	if runErr != nil {
		out.Error = runErr.Error()
	}
	if sum != nil {
		out.Report = renderList(sum)
	}
	return nil, out, nil
}

func (s *Server) storedReport(runID string) (*sdkmcp.CallToolResult, getReportOutput, error) {
	if s.History == nil {
		return nil, getReportOutput{}, fmt.Errorf("unknown run %q", runID)
	}
	sum, err := s.History.GetRun(runID)
	if err != nil {
		return nil, getReportOutput{}, err
	}
	return nil, getReportOutput{RunID: runID, Status: StateDone, Summary: &sum, Report: renderList(&sum)}, nil
}

func (s *Server) handleScenarioHistory(_ context.Context, _ *sdkmcp.CallToolRequest, input scenarioHistoryInput) (*sdkmcp.CallToolResult, scenarioHistoryOutput, error) {
	if s.History == nil {
		return nil, scenarioHistoryOutput{}, fmt.Errorf("no run history configured")
	}
	sc, err := s.registry.Get(input.Name)
	if err != nil {
		return nil, scenarioHistoryOutput{}, err
	}
	limit := input.Limit
	if limit <= 0 {
		limit = 10
	}
	outs, err := s.History.ScenarioHistory(sc.Name, limit)
	if err != nil {
		return nil, scenarioHistoryOutput{}, err
	}
	out := scenarioHistoryOutput{Name: sc.Name, Outcomes: make([]outcomeInfo, 0, len(outs))}
	for _, o := range outs {
		switch o.Status {
		case scenario.Passed:
			out.Passed++
		case scenario.Failed:
			out.Failed++
		}
		out.Outcomes = append(out.Outcomes, outcomeInfo{
			RunID: o.RunID, Status: o.Status, StartedAt: o.StartedAt, Duration: format.Duration(o.Duration),
			ErrorKind: o.ErrorKind, Error: o.Error, RecordID: o.RecordID,
		})
	}
	return nil, out, nil
}

func waitFor(ctx context.Context, run *Run) error {
	t := time.NewTimer(DefaultWaitTimeout)
	defer t.Stop()
	select {
	case <-run.Done():
		return nil
	case <-t.C:
		return fmt.Errorf("run %s still going after %s; poll get_report", run.ID, DefaultWaitTimeout)
	case <-ctx.Done():
		return ctx.Err()
	}
}

func renderList(sum *scenario.Summary) string {
	if sum == nil {
		return ""
	}
	var buf bytes.Buffer
	_ = report.WriteList(&buf, *sum)
	return buf.String()
}

// Shutdown cancels a run in progress and waits for it to stop.
func (s *Server) Shutdown() {
	s.mu.Lock()
	run := s.last
	s.mu.Unlock()
	if run == nil {
		return
	}
	run.Cancel()
	<-run.Done()
}
