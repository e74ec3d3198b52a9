package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/livetemplate/pageforge/internal/config"
	"github.com/livetemplate/pageforge/internal/server"
)

var (
	servePort           int
	serveHost           string
	serveDriver         string
	serveDir            string
	serveWatch          bool
	serveAllowAnonymous bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the pages API, the editor websocket and published pages",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		applyServeFlags(cmd)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		b, err := openBackend()
		if err != nil {
			return err
		}
		defer b.Close()

		srv := server.New(cfg, b.pages,
			server.WithLogger(logger),
			server.WithRenderer(b.renderer),
		)
		defer srv.Close()

		if cfg.Storage.Watch {
			if err := srv.WatchStore(ctx, b.store); err != nil {
				if !errors.Is(err, server.ErrNotWatchable) {
					return err
				}
				logger.Warn().Str("driver", cfg.Storage.Driver).Msg("storage.watch ignored: driver cannot be watched")
			}
		}

		if !cfg.API.IsAuthEnabled() {
			logger.Warn().Str("operator", config.GetOperator()).Msg("no API keys configured; every request acts as the operator")
		}
		return srv.Run(ctx)
	},
}

// applyServeFlags lets explicitly set flags override the config file.
func applyServeFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	if flags.Changed("port") {
		cfg.Server.Port = servePort
	}
	if flags.Changed("host") {
		cfg.Server.Host = serveHost
	}
	if flags.Changed("driver") {
		cfg.Storage.Driver = serveDriver
	}
	if flags.Changed("dir") {
		cfg.Storage.Dir = serveDir
	}
	if flags.Changed("watch") {
		cfg.Storage.Watch = serveWatch
	}
	config.SetAllowAnonymous(serveAllowAnonymous)
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 8080, "Port to listen on")
	serveCmd.Flags().StringVar(&serveHost, "host", "localhost", "Host to bind")
	serveCmd.Flags().StringVar(&serveDriver, "driver", "", "Storage driver: sqlite, postgres, file or memory")
	serveCmd.Flags().StringVar(&serveDir, "dir", "", "Page directory for the file driver")
	serveCmd.Flags().BoolVar(&serveWatch, "watch", false, "Follow external edits of page files")
	serveCmd.Flags().BoolVar(&serveAllowAnonymous, "allow-anonymous", false, "Let requests without an API key act as the operator")
}

