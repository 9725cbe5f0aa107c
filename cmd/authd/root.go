// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 remix-auth-example Contributors

package main

import (
	"github.com/spf13/cobra"
)

// Global flags available to all subcommands.
var configFile string

// NewRootCmd creates the root command for the authd CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "authd",
		Short: "authd - account and session administration",
		Long: `authd manages the user and session store behind the web login:
schema migrations, the expired-session sweeper and account creation.`,
		SilenceUsage: true,
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&configFile, "config", "", "config file path (default: XDG_CONFIG_HOME/remix-auth/config.yaml)")
	flags.String("database-url", "", "PostgreSQL connection URL (default: DATABASE_URL)")
	flags.String("environment", "", "deployment environment; production enables secure cookies")
	flags.String("session-backend", "", "session store: postgres or redis")
	flags.String("redis-addr", "", "redis address for the redis session backend")
	flags.String("log-format", "", "log format (json or text)")
	flags.String("log-level", "", "log level (debug, info, warn, error)")

	cmd.AddCommand(NewMigrateCmd())
	cmd.AddCommand(NewSweepCmd())
	cmd.AddCommand(NewUserCmd())

	return cmd
}
