package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"lightcheck/internal/format"
	"lightcheck/internal/scenario"
)

var listFlags struct {
	tags     []string
	markdown bool
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the available scenarios",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

func init() {
	f := listCmd.Flags()
	f.StringSliceVarP(&listFlags.tags, "tag", "t", nil, "only scenarios with any of these tags")
	f.BoolVar(&listFlags.markdown, "markdown", false, "render as a Markdown table")
}

func runList(cmd *cobra.Command, _ []string) error {
	reg := scenario.Builtin()
	ss, err := reg.Select(scenario.Filter{Tags: listFlags.tags})
	if err != nil {
		return err
	}
	mode := format.ASCII
	if listFlags.markdown {
		mode = format.Markdown
	}
	tb := format.NewTable(mode)
	tb.Header("Scenario", "Title", "Tags", "Login")
	for _, s := range ss {
		tb.Row(s.Name, s.Title, strings.Join(s.Tags, ", "), format.Mark(s.Auth))
	}
	tb.Footer("", "", "", fmt.Sprintf("%d", len(ss)))
	fmt.Fprintln(cmd.OutOrStdout(), tb.String())
	fmt.Fprintf(cmd.OutOrStdout(), "tags: %s\n", strings.Join(reg.Tags(), ", "))
	return nil
}
