// Package main manages studio accounts and the model library from the
// command line.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/Faultbox/glbviewer/internal/app"
	"github.com/Faultbox/glbviewer/internal/auth"
	"github.com/Faultbox/glbviewer/internal/config"
	"github.com/Faultbox/glbviewer/internal/logger"
)

// cli carries the root flags shared by every subcommand.
type cli struct {
	out        io.Writer
	configPath string
	dataDir    string
	verbose    bool
}

func main() {
	cmd := newRootCmd(os.Stdout)
	err := cmd.Execute()
	logger.Sync()
	if err != nil {
		os.Exit(1)
	}
}

func newRootCmd(out io.Writer) *cobra.Command {
	c := &cli{out: out}
	root := &cobra.Command{
		Use:           "glbctl",
		Short:         "Manage GLB studio accounts and models",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.SetOut(out)
	root.SetErr(os.Stderr)
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file path")
	root.PersistentFlags().StringVar(&c.dataDir, "data", "", "directory for records and imported models")
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "log to stdout")

	root.AddCommand(c.userCmd(), c.modelCmd(), c.configCmd())
	return root
}

// load reads the config file and applies the root flags.
func (c *cli) load() (*config.Config, error) {
	cfg, err := config.LoadFile(c.configPath)
	if err != nil {
		return nil, err
	}
	if c.dataDir != "" {
		cfg.Data.DataDir = c.dataDir
	}
	return cfg, nil
}

// services loads the config and opens the stores.
func (c *cli) services() (*app.Services, error) {
	cfg, err := c.load()
	if err != nil {
		return nil, err
	}
	var file logger.FileConfig
	if cfg.Logging.LogFile != "" {
		file = logger.DefaultFileConfig(cfg.Logging.LogFile)
	}
	if err := logger.InitWithFileConfig(cfg.Logging.Level, file, c.verbose); err != nil {
		return nil, err
	}
	return app.Open(cfg)
}

func (c *cli) printf(format string, args ...any) {
	fmt.Fprintf(c.out, format, args...)
}

func roleFlag(cmd *cobra.Command, role *string) {
	cmd.Flags().StringVarP(role, "role", "r", string(auth.RoleUser), "account role (user or admin)")
}
