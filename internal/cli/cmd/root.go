// Package cmd defines the mcinstall commands.
package cmd

import (
	"github.com/spf13/cobra"

	"github.com/aayushdutt/mcinstall/internal/cli"
	"github.com/aayushdutt/mcinstall/internal/config"
)

type globalFlags struct {
	configPath string
	root       string
	platform   string
	workers    int
	logLevel   string
}

// NewRootCommand creates the root command with every subcommand attached.
// The shared App is built once flags are parsed.
func NewRootCommand() *cobra.Command {
	a := &cli.App{}
	var flags globalFlags

	rootCmd := &cobra.Command{
		Use:   "mcinstall",
		Short: "Resolve, verify and install game versions",
		Long: `mcinstall resolves a version from the remote catalog, merges its
inheritance chain and installs the client jar, libraries and assets into
an install root, verifying every file by SHA-1 before downloading it.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, flags)
			if err != nil {
				return err
			}
			app, err := cli.NewApp(cfg, cmd.OutOrStdout(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			*a = *app
			return nil
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flags.configPath, "config", "", "config file (default is <data dir>/config.json)")
	pf.StringVar(&flags.root, "root", "", "install root")
	pf.StringVar(&flags.platform, "platform", "", "target platform: linux, osx or windows")
	pf.IntVarP(&flags.workers, "workers", "w", 0, "concurrent downloads")
	pf.StringVar(&flags.logLevel, "log-level", "", "debug, info, warn or error")

	rootCmd.AddCommand(
		NewListCommand(a),
		NewShowCommand(a),
		NewInstallCommand(a),
		NewVerifyCommand(a),
	)
	return rootCmd
}

// loadConfig reads the config file and lets explicit flags win over it
// and the environment.
func loadConfig(cmd *cobra.Command, flags globalFlags) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if flags.configPath != "" {
		cfg, err = config.LoadFile(flags.configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}

	pf := cmd.Flags()
	if pf.Changed("root") {
		cfg.InstallRoot = flags.root
	}
	if pf.Changed("platform") {
		cfg.Platform = flags.platform
	}
	if pf.Changed("workers") {
		cfg.Workers = flags.workers
	}
	if pf.Changed("log-level") {
		cfg.LogLevel = flags.logLevel
	}
	return cfg, nil
}
