package main

import (
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/Faultbox/glbviewer/internal/config"
)

func (c *cli) configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration",
	}
	cmd.AddCommand(c.configWriteCmd())
	return cmd
}

func (c *cli) configWriteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "write [path]",
		Short: "Write the effective configuration as YAML",
		Long:  "Write the effective configuration (defaults, the --config file and --data) to path, or to the user config directory.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.load()
			if err != nil {
				return err
			}
			if len(args) == 0 {
				if err := cfg.Save(); err != nil {
					return err
				}
				c.printf("Wrote %s\n", filepath.Join(config.ConfigDir(), "config.yaml"))
				return nil
			}
			if err := cfg.SaveTo(args[0]); err != nil {
				return err
			}
			c.printf("Wrote %s\n", args[0])
			return nil
		},
	}
}
