package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"codeberg.org/mutker/meterdash/internal/config"
	"codeberg.org/mutker/meterdash/internal/dashboard"
	"codeberg.org/mutker/meterdash/internal/device"
	"codeberg.org/mutker/meterdash/internal/errors"
	"codeberg.org/mutker/meterdash/internal/link"
	"codeberg.org/mutker/meterdash/internal/logger"
	"codeberg.org/mutker/meterdash/internal/meter"
	"codeberg.org/mutker/meterdash/internal/pid"
	"codeberg.org/mutker/meterdash/internal/recorder"
	"codeberg.org/mutker/meterdash/internal/snapshot"
	"codeberg.org/mutker/meterdash/internal/wslink"
	"github.com/spf13/cobra"
)

// Set at build time with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	root := &cobra.Command{
		Use:   "meterdash",
		Short: "Live terminal dashboard for USB power meters",
		Long: `meterdash connects to a meter backend, shows the samples it relays as a
live table and a dual-axis chart, and can record them into a local database.`,
		SilenceUsage: true,
		RunE:         runDashboard,
	}
	config.RegisterFlags(root.PersistentFlags())

	root.AddCommand(newScanCommand(), newSessionsCommand(), newVersionCommand())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print meterdash version",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "meterdash %s\n", version)
		},
	}
}

// loadConfig reads the configuration with the command's flags on top and
// sets up logging from it.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(config.WithFlags(cmd.Flags()))
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "failed to load config: %v\n", err)
		return nil, err
	}

	initLogger(cfg)
	logger.Debug().Msg("Config loaded")

	return cfg, nil
}

func initLogger(cfg *config.Config) {
	logger.Init(cfg.Debug, cfg.Verbose, logger.IsService())
	applyLogLevel(cfg)
}

func applyLogLevel(cfg *config.Config) {
	level, err := logger.ParseLevel(cfg.EffectiveLogLevel())
	if err != nil {
		logger.Warn().Err(err).Msg("Falling back to warning level")
	}
	logger.SetLogLevel(level)
}

func runDashboard(cmd *cobra.Command, _ []string) error {
	errFactory := errors.New()

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	if _, err := device.Lookup(cfg.Device); err != nil {
		return err
	}
	sel, err := axisSelection(cfg)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	go handleSignals(cancel)

	if cfg.Record {
		dir := filepath.Dir(cfg.RecordDB)
		if err := pid.Write(dir); err != nil {
			return err
		}
		defer func() {
			if err := pid.Remove(dir); err != nil {
				logger.Error().Err(err).Msg("failed to remove PID file")
			}
		}()
	}

	rec, err := recorder.NewService(recorderConfig(cfg), logger.Get())
	if err != nil {
		return errFactory.Wrap(errors.ErrInitApp, err)
	}
	defer func() {
		if err := rec.Close(); err != nil {
			logger.Error().Err(err).Msg("failed to close recorder")
		}
	}()

	source, err := snapshotSource(cfg, rec)
	if err != nil {
		return err
	}

	client, err := wslink.Dial(ctx, cfg.Backend)
	if err != nil {
		return err
	}
	defer client.Close()

	// Log lines go to the log pane while the dashboard owns the terminal.
	logs := dashboard.NewLogWriter()
	logger.SetOutput(logs)
	applyLogLevel(cfg)
	defer func() {
		logs.Close()
		initLogger(cfg)
	}()

	model, err := dashboard.New(dashboard.Options{
		Transport: client,
		Events:    client.Events(),
		Logs:      logs.Lines(),
		Snapshots: source,
		Recorder:  rec,
		Params: link.Params{
			Device:  cfg.Device,
			Address: cfg.Address,
			Rate:    cfg.Rate,
			Session: cfg.Session,
		},
		Selection: sel,
		LogLines:  cfg.LogLines,
	})
	if err != nil {
		return errFactory.Wrap(errors.ErrInitApp, err)
	}

	logger.Info().Str("backend", cfg.Backend).Str("device", cfg.Device).Msg("Dashboard started")

	return dashboard.Run(ctx, model)
}

func handleSignals(cancel context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	<-sigs
	logger.Info().Msg("Received termination signal.")
	cancel()
}

func axisSelection(cfg *config.Config) (meter.AxisSelection, error) {
	mode, err := meter.ParseColorMode(cfg.ColorMode)
	if err != nil {
		return meter.AxisSelection{}, err
	}
	for _, name := range []string{cfg.LeftAxis, cfg.RightAxis} {
		if _, err := device.LookupMetric(name); err != nil {
			return meter.AxisSelection{}, err
		}
	}

	return meter.AxisSelection{
		LeftMetric:  cfg.LeftAxis,
		RightMetric: cfg.RightAxis,
		ColorMode:   mode,
	}, nil
}

func recorderConfig(cfg *config.Config) recorder.Config {
	rc := recorder.DefaultConfig(cfg.RecordDB)
	rc.BatchSize = cfg.BatchSize
	rc.BatchTimeout = cfg.BatchTimeout
	rc.Enabled = cfg.Record

	return rc
}

func snapshotSource(cfg *config.Config, rec recorder.Recorder) (snapshot.Source, error) {
	if config.SnapshotMode(cfg.Snapshots) == config.SnapshotsLocal {
		if !rec.IsEnabled() {
			return nil, errors.New().WithMessage(errors.ErrInvalidConfig, "local snapshots need --record")
		}
		return snapshot.NewRecorderSource(rec), nil
	}

	source, err := snapshot.NewHTTPSource(cfg.Backend, nil)
	if err != nil {
		return nil, err
	}

	return source, nil
}
