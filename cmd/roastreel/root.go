package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"roastreel/internal/config"
)

func newRootCommand() *cobra.Command {
	var configFlag string
	var addressFlag string

	ctx := &commandContext{configPath: &configFlag, address: &addressFlag}

	rootCmd := &cobra.Command{
		Use:           "roastreel",
		Short:         "Roastreel CLI",
		Long:          "Inspect and drive the roastreel daemon: resume roast scripts, scene videos, and final exports.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Configuration file path")
	rootCmd.PersistentFlags().StringVar(&addressFlag, "address", "", "Daemon API address (host:port)")

	rootCmd.AddCommand(newStatusCommand(ctx))
	rootCmd.AddCommand(newSessionsCommand(ctx))
	rootCmd.AddCommand(newHistoryCommand(ctx))
	rootCmd.AddCommand(newTestNotifyCommand(ctx))
	rootCmd.AddCommand(newConfigCommand())
	rootCmd.AddCommand(newVersionCommand())

	return rootCmd
}

// commandContext lazily resolves configuration shared across subcommands.
type commandContext struct {
	configPath *string
	address    *string

	loaded *config.Config
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	if c.loaded != nil {
		return c.loaded, nil
	}
	cfg, _, _, err := config.Load(strings.TrimSpace(*c.configPath))
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	c.loaded = cfg
	return cfg, nil
}

// apiAddress returns the daemon API address, preferring the flag over config.
func (c *commandContext) apiAddress() (string, error) {
	if addr := strings.TrimSpace(*c.address); addr != "" {
		return addr, nil
	}
	cfg, err := c.ensureConfig()
	if err != nil {
		return "", err
	}
	addr := strings.TrimSpace(cfg.Paths.APIBind)
	if addr == "" {
		return "", fmt.Errorf("no daemon API address configured (set paths.api_bind or pass --address)")
	}
	return addr, nil
}
