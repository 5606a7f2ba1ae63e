package main

import (
	"github.com/spf13/cobra"

	"lightcheck/internal/scenario"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Check that the configured credentials reach the Lightning home page",
	Long: `Login signs in with SF_USERNAME/SF_PASSWORD, clears any post-login
interstitial and waits for the navigation bar. It is the login/valid
scenario on its own.`,
	Args: cobra.NoArgs,
	RunE: runLogin,
}

func runLogin(cmd *cobra.Command, _ []string) error {
	s, err := scenario.Builtin().Get("login/valid")
	if err != nil {
		return err
	}
	return execute(cmd, []scenario.Scenario{s})
}
