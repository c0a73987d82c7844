package main

import (
	"log/slog"

	"github.com/spf13/cobra"
)

// RootCommand creates and returns the root command
func RootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "ringstress",
		Short:        "Stress the bounded queue and shared pointers with concurrent goroutines",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			level, _ := parseLevel(cfg.LogLevel) // validated by loadConfig
			logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
			return run(cmd.Context(), cfg, logger)
		},
	}

	setupFlags(cmd)
	return cmd
}
