// Package format renders run summaries as terminal or Markdown tables.
package format

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// Mode controls the output format.
type Mode int

const (
	ASCII    Mode = iota // Fixed-width terminal tables
	Markdown             // GitHub-flavoured Markdown tables
)

// ParseMode maps "markdown"/"md" to Markdown and anything else to ASCII.
func ParseMode(s string) Mode {
	switch s {
	case "markdown", "md":
		return Markdown
	}
	return ASCII
}

// ColumnAlign specifies the horizontal alignment for a column.
type ColumnAlign int

const (
	AlignDefault ColumnAlign = iota
	AlignLeft
	AlignCenter
	AlignRight
)

// ColumnConfig controls per-column formatting.
type ColumnConfig struct {
	Number   int         // 1-based column index
	Align    ColumnAlign // horizontal alignment
	MaxWidth int         // wrap content beyond this width (0 = unlimited)
}

// Table is built once and rendered in the Mode set at creation.
type Table interface {
	// Title is printed above the table; empty means none.
	Title(s string)
	Header(cols ...string)
	// Row appends a data row. Values are converted with fmt.Sprint.
	Row(vals ...any)
	Footer(vals ...any)
	Columns(cfgs ...ColumnConfig)
	String() string
}

// NewTable returns a Table that renders in m.
func NewTable(m Mode) Table {
	w := table.NewWriter()
	if m == ASCII {
		w.SetStyle(terminalStyle())
	}
	return &prettyTable{writer: w, mode: m}
}

// terminalStyle is StyleLight with headers and footers left as written, so
// scenario names like "login/valid" read the same in both modes.
func terminalStyle() table.Style {
	st := table.StyleLight
	st.Format.Header = text.FormatDefault
	st.Format.Footer = text.FormatDefault
	st.Title.Format = text.FormatDefault
	return st
}

type prettyTable struct {
	writer table.Writer
	mode   Mode
}

func (t *prettyTable) Title(s string) { t.writer.SetTitle(s) }

func (t *prettyTable) Header(cols ...string) {
	row := make(table.Row, 0, len(cols))
	for _, c := range cols {
		row = append(row, c)
	}
	t.writer.AppendHeader(row)
}

func (t *prettyTable) Row(vals ...any) {
	t.writer.AppendRow(table.Row(vals))
}

func (t *prettyTable) Footer(vals ...any) {
	t.writer.AppendFooter(table.Row(vals))
}

func (t *prettyTable) Columns(cfgs ...ColumnConfig) {
	out := make([]table.ColumnConfig, len(cfgs))
	for i, c := range cfgs {
		out[i] = table.ColumnConfig{Number: c.Number, Align: align(c.Align), WidthMax: c.MaxWidth}
	}
	t.writer.SetColumnConfigs(out)
}

func (t *prettyTable) String() string {
	if t.mode == Markdown {
		return t.writer.RenderMarkdown()
	}
	return t.writer.Render()
}

func align(a ColumnAlign) text.Align {
	switch a {
	case AlignLeft:
		return text.AlignLeft
	case AlignRight:
		return text.AlignRight
	case AlignCenter:
		return text.AlignCenter
	}
	return text.AlignDefault
}
