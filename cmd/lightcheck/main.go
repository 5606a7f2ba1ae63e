// lightcheck runs end-to-end checks against a Salesforce Lightning org.
//
// Usage:
//
//	lightcheck list [--tag=smoke]
//	lightcheck run [names...] [--tag=lead] [--format=list|table|markdown]
//	lightcheck login
//	lightcheck serve [--metrics-addr=:9464]
//	lightcheck history [--scenario=TC-LEAD-001]
//	lightcheck publish [run-id]
//	lightcheck version
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	_ "lightcheck/internal/driver/cdpdriver"
	_ "lightcheck/internal/driver/pwdriver"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stopTracing()
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCode(err))
	}
}
