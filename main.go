package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bjartek/keeper/pkg/api"
	"github.com/bjartek/keeper/pkg/config"
	"github.com/bjartek/keeper/pkg/logs"
	"github.com/bjartek/keeper/pkg/supervisor"
	"github.com/bjartek/keeper/pkg/ui"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		configPath string
		headless   bool
	)

	cmd := &cobra.Command{
		Use:           "keeper",
		Short:         "Start, stop and watch the gatekeeper worker",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			bootLogger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(zerolog.WarnLevel)
			cfg, err := config.Load(configPath, bootLogger)
			if err != nil {
				return err
			}

			root := cfg.Root
			if root == "" {
				if root, err = supervisor.InstallRoot(); err != nil {
					return err
				}
			}

			if headless {
				return runHeadless(cfg, root)
			}
			return runTUI(cfg, root)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to keeper.yaml")
	cmd.Flags().BoolVar(&headless, "headless", false, "run only the control API, without the terminal UI")

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the keeper version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "keeper %s (%s)\n", version, commit)
		},
	})

	return cmd
}

func runTUI(cfg *config.Config, root string) error {
	logWriter := logs.NewLogWriter(nil)
	logger, closeLog, err := logs.New(cfg.Logging, logWriter)
	if err != nil {
		return err
	}
	defer closeLog()

	sup := supervisor.New(supervisor.NewWorkerLauncher(root), logger)

	p := tea.NewProgram(
		ui.NewModel(sup, cfg.UI),
		tea.WithAltScreen(),
	)
	logWriter.Attach(p)

	var srv *api.Server
	if cfg.API.Enabled {
		srv = api.NewServer(sup, cfg.API, logger)
		go func() {
			if err := srv.ListenAndServe(); err != nil {
				logger.Error().Err(err).Msg("Control API stopped")
			}
		}()
	}

	logger.Info().Str("root", root).Msg("keeper started")

	_, runErr := p.Run()
	// The program no longer takes messages, so shutdown logs go to the terminal.
	logWriter.Detach(os.Stderr)
	shutdown(sup, srv, logger)
	if runErr != nil {
		return errors.Wrap(runErr, "run terminal ui")
	}
	return nil
}

func runHeadless(cfg *config.Config, root string) error {
	logger, closeLog, err := logs.New(cfg.Logging, os.Stderr)
	if err != nil {
		return err
	}
	defer closeLog()

	sup := supervisor.New(supervisor.NewWorkerLauncher(root), logger)
	srv := api.NewServer(sup, cfg.API, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	logger.Info().Str("root", root).Msg("keeper started in headless mode")

	select {
	case <-ctx.Done():
		logger.Info().Msg("Shutdown requested")
	case err = <-errCh:
	}

	shutdown(sup, srv, logger)
	return err
}

// shutdown stops the control API and the worker, if either is running.
func shutdown(sup *supervisor.Supervisor, srv *api.Server, logger zerolog.Logger) {
	logger.Info().Msg("Shutting down...")

	if srv != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			logger.Warn().Err(err).Msg("Control API did not shut down cleanly")
		}
	}

	if err := sup.Stop(); err != nil && !errors.Is(err, supervisor.ErrNotRunning) {
		logger.Error().Err(err).Msg("Failed to stop worker on exit")
	}
}
