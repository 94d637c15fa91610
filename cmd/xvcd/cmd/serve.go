package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	xvcserver "github.com/anshi233/xvc-server-d2xx"
	"github.com/anshi233/xvc-server-d2xx/config"
	"github.com/anshi233/xvc-server-d2xx/internal/xvclog"
	"github.com/anshi233/xvc-server-d2xx/supervisor"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run every enabled instance from the configuration file",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	log := xvclog.New(logLevel())

	if _, err := xvcserver.Init(); err != nil {
		return fmt.Errorf("initialize ftdi driver: %w", err)
	}

	g, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config %s: %w", configPath, err)
	}
	if !g.InstanceMgmtEnabled {
		log.Warn("instance management disabled in config, nothing to serve")
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Info("shutting down")
		cancel()
	}()

	supervisor.RunAll(ctx, g, log)
	return nil
}
