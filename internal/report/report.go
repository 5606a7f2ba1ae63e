// Package report renders run summaries: a line per scenario for the
// terminal, a table, and a results.json file for tooling.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"lightcheck/internal/artifact"
	"lightcheck/internal/display"
	"lightcheck/internal/format"
	"lightcheck/internal/scenario"
)

// ResultsFile is the JSON report's name inside the run directory.
const ResultsFile = "results.json"

// WriteList prints one line per scenario, the failure underneath, and a
// totals line.
func WriteList(w io.Writer, sum scenario.Summary) error {
	var b strings.Builder
	for _, r := range sum.Results {
		mark := format.Mark(r.Status == scenario.Passed)
		if r.Status == scenario.Skipped {
			mark = "-"
		}
		fmt.Fprintf(&b, "  %s %s %s (%s)", mark, r.Name, r.Title, format.Duration(r.Duration))
		if r.RecordID != "" {
			fmt.Fprintf(&b, " [%s]", r.RecordID)
		}
		b.WriteByte('\n')
		if r.Status == scenario.Failed {
			fmt.Fprintf(&b, "      %s: %s\n", r.ErrorKind, r.Error)
			for _, s := range r.Screenshots {
				fmt.Fprintf(&b, "      screenshot: %s\n", s)
			}
		}
	}
	b.WriteString("\n  " + Totals(sum) + "\n")
	_, err := io.WriteString(w, b.String())
	return err
}

// Totals is the one-line run outcome.
func Totals(sum scenario.Summary) string {
	p, f, s := sum.Counts()
	out := fmt.Sprintf("%d passed", p)
	if f > 0 {
		out += fmt.Sprintf(", %d failed", f)
	}
	if s > 0 {
		out += fmt.Sprintf(", %d skipped", s)
	}
	return out + fmt.Sprintf(" (%s)", format.Duration(sum.Duration))
}

// Table renders the summary as a table.
func Table(sum scenario.Summary, mode format.Mode) string {
	tb := format.NewTable(mode)
	tb.Title("Run " + sum.RunID)
	tb.Header("Scenario", "Status", "Duration", "Record", "Failure", "Error")
	for _, r := range sum.Results {
		tb.Row(r.Name, string(r.Status), format.Duration(r.Duration), r.RecordID, display.ErrorKind(r.ErrorKind), format.Truncate(r.Error, 60))
	}
	tb.Footer("", "", "", "", "", Totals(sum))
	tb.Columns(format.ColumnConfig{Number: 3, Align: format.AlignRight}, format.ColumnConfig{Number: 6, MaxWidth: 60})
	return tb.String()
}

// Save writes results.json into the run directory.
func Save(dir *artifact.Dir, sum scenario.Summary) (string, error) {
	data, err := json.MarshalIndent(sum, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode results: %w", err)
	}
	return dir.WriteFile(ResultsFile, append(data, '\n'))
}

// Load reads a results.json written by Save.
func Load(path string) (scenario.Summary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return scenario.Summary{}, fmt.Errorf("read results: %w", err)
	}
	var sum scenario.Summary
	if err := json.Unmarshal(data, &sum); err != nil {
		return scenario.Summary{}, fmt.Errorf("parse results: %w", err)
	}
	return sum, nil
}
