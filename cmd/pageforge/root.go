package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/livetemplate/pageforge/internal/config"
	"github.com/livetemplate/pageforge/internal/logging"
)

var (
	configPath string
	verbose    bool
	operator   string

	// Set by the root command before any subcommand runs.
	cfg    *config.Config
	logger zerolog.Logger
	logOut *logging.Log
)

var rootCmd = &cobra.Command{
	Use:   "pageforge",
	Short: "A visual page builder: element trees, an editor and a publishing server",
	Long: `pageforge stores pages as trees of typed elements, renders them to HTML
and serves a REST API plus a websocket editor for building them.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		if configPath != "" {
			cfg, err = config.Load(configPath)
		} else {
			cfg, err = config.LoadFromDir(".")
		}
		if err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}

		logOut, err = logging.New().
			FromWriter(cmd.ErrOrStderr()).
			FromPath(cfg.Log.Path).
			Level(cfg.Log.Level).
			Verbose(verbose).
			Pretty(cfg.Log.Pretty).
			Make()
		if err != nil {
			return err
		}
		logger = logOut.Logger

		config.SetOperator(operator)
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if logOut != nil {
			return logOut.Close()
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (default: ./pageforge.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&operator, "operator", "", "User id owning pages created locally (default: $USER)")
	rootCmd.SetOut(os.Stdout)
	rootCmd.SetErr(os.Stderr)
}
