package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/TFMV/graphsketch/config"
	"github.com/TFMV/graphsketch/editor"
	"github.com/TFMV/graphsketch/logging"
	"github.com/TFMV/graphsketch/metrics"
	"github.com/TFMV/graphsketch/server"
	"github.com/TFMV/graphsketch/tui"
)

// flags shared by every command
type globalFlags struct {
	configPath string
	logLevel   string
	serveAddr  string
}

func main() {
	// Cancel on SIGINT/SIGTERM so the HTTP view and paced walks stop cleanly
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}
	rootCmd := &cobra.Command{
		Use:   "graphsketch",
		Short: "Sketch a graph in the terminal and watch a breadth-first walk over it",
		Long: `graphsketch is an interactive graph editor for the terminal. Click the
canvas to add nodes, double-click a node and then click another to connect
them, drag nodes to move them, and press b to walk the graph breadth-first
from the first node you placed.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEditor(cmd, flags)
		},
	}

	rootCmd.PersistentFlags().StringVarP(&flags.configPath, "config", "c", "", "Path to a YAML config file")
	rootCmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	rootCmd.Flags().StringVar(&flags.serveAddr, "serve", "", "Serve a read-only view of the graph on this address, e.g. :8080")

	rootCmd.AddCommand(newDemoCmd(flags))
	return rootCmd
}

// loadConfig reads the config file and applies flag overrides
func loadConfig(cmd *cobra.Command, flags *globalFlags) (*config.Config, error) {
	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return nil, err
	}
	if cmd.Flags().Changed("log-level") {
		cfg.Log.Level = flags.logLevel
	}
	if cmd.Flags().Changed("serve") {
		cfg.Server.Addr = flags.serveAddr
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// serve starts the HTTP view in the background when an address is configured
func serve(ctx context.Context, cfg *config.Config, ed *editor.Editor, reg *metrics.Registry, log *slog.Logger) {
	if cfg.Server.Addr == "" {
		return
	}
	srv := server.New(ed, server.Config{Addr: cfg.Server.Addr, Logger: log, Metrics: reg})
	go func() {
		if err := srv.Start(ctx); err != nil {
			log.Error("graph view stopped", "error", err)
		}
	}()
}

func runEditor(cmd *cobra.Command, flags *globalFlags) error {
	cfg, err := loadConfig(cmd, flags)
	if err != nil {
		return err
	}

	// The terminal belongs to the canvas; logs go to log.file or nowhere
	log, closeLog, err := logging.Open(cfg.Log, nil)
	if err != nil {
		return err
	}
	defer closeLog()

	reg := metrics.NewRegistry()
	ed, err := editor.New(editor.Options{Config: cfg, Logger: log, Metrics: reg})
	if err != nil {
		return err
	}
	defer ed.Close()

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	serve(ctx, cfg, ed, reg, log)

	log.Info("editor started")
	if err := tui.Run(ed, tui.WithLogger(log)); err != nil {
		return fmt.Errorf("editor: %w", err)
	}
	return nil
}
