package main

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"codeberg.org/mutker/meterdash/internal/device"
	"codeberg.org/mutker/meterdash/internal/errors"
	"codeberg.org/mutker/meterdash/internal/link"
	"codeberg.org/mutker/meterdash/internal/logger"
	"codeberg.org/mutker/meterdash/internal/meter"
	"codeberg.org/mutker/meterdash/internal/recorder"
	"codeberg.org/mutker/meterdash/internal/wslink"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
)

const (
	defaultScanTimeout = 30 * time.Second
	sessionTimeLayout  = "2006-01-02 15:04:05"
)

func newScanCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:       "scan <serial|ble|rfcomm>",
		Short:     "Ask the backend for nearby meters and print them",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{string(device.ChannelSerial), string(device.ChannelBLE), string(device.ChannelRFCOMM)},
		RunE:      runScan,
	}
	cmd.Flags().Duration("timeout", defaultScanTimeout, "How long to wait for the scan result")

	return cmd
}

func runScan(cmd *cobra.Command, args []string) error {
	errFactory := errors.New()

	ch, err := device.ParseChannel(args[0])
	if err != nil {
		return err
	}
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	timeout, _ := cmd.Flags().GetDuration("timeout")

	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()
	go handleSignals(cancel)

	client, err := wslink.Dial(ctx, cfg.Backend)
	if err != nil {
		return err
	}
	defer client.Close()

	results := make(chan link.Discovery, 1)
	controller := link.NewController(client, link.WithObserver(link.Funcs{
		Discovery: func(d link.Discovery) {
			select {
			case results <- d:
			default:
			}
		},
	}))
	if err := controller.RequestDiscovery(ch); err != nil {
		return err
	}
	logger.Info().Str("channel", string(ch)).Msg("Scanning for devices")

	for {
		select {
		case <-ctx.Done():
			return errFactory.Wrap(errors.ErrTimeout, ctx.Err())
		case ev, ok := <-client.Events():
			if !ok {
				return errFactory.New(wslink.ErrClosed)
			}
			controller.Handle(ev)
		case result := <-results:
			return printDiscovery(cmd, result)
		}
	}
}

func printDiscovery(cmd *cobra.Command, result link.Discovery) error {
	if result.Failed {
		return errors.New().WithMessage(errors.ErrOperationFailed, strings.TrimSpace(result.Payload))
	}

	out := cmd.OutOrStdout()
	if len(result.Devices) == 0 {
		fmt.Fprintln(out, "No devices found")
		return nil
	}
	for _, candidate := range result.Devices {
		fmt.Fprintf(out, "%s\t%s\n", candidate.Address, candidate.Name)
	}

	return nil
}

func newSessionsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sessions [file]",
		Short: "List, export or delete sessions recorded in the local database",
		Long: `Without flags, sessions lists the recorded sessions. --export writes the
samples of one session as CSV to file, or to stdout when no file is given.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runSessions,
	}
	cmd.Flags().Int64("delete", 0, "Delete the session with this ID and its samples")
	cmd.Flags().Int64("export", 0, "Export the samples of the session with this ID as CSV")
	cmd.MarkFlagsMutuallyExclusive("delete", "export")

	return cmd
}

func runSessions(cmd *cobra.Command, args []string) error {
	errFactory := errors.New()

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	rc := recorderConfig(cfg)
	rc.Enabled = true
	rec, err := recorder.NewService(rc, logger.Get())
	if err != nil {
		return errFactory.Wrap(errors.ErrInitApp, err)
	}
	defer func() {
		if err := rec.Close(); err != nil {
			logger.Error().Err(err).Msg("failed to close recorder")
		}
	}()

	ctx := cmd.Context()
	if id, _ := cmd.Flags().GetInt64("export"); id != 0 {
		return exportSession(cmd, rec, id, args)
	}
	if len(args) > 0 {
		return errFactory.WithMessage(errors.ErrInvalidConfig, "a file is only accepted with --export")
	}
	if id, _ := cmd.Flags().GetInt64("delete"); id != 0 {
		if err := rec.DeleteSession(ctx, id); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Session %d deleted\n", id)
		return nil
	}

	sessions, err := rec.Sessions(ctx)
	if err != nil {
		return err
	}
	if len(sessions) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No recorded sessions")
		return nil
	}

	fmt.Fprintln(cmd.OutOrStdout(), sessionTable(sessions))

	return nil
}

func sessionTable(sessions []recorder.Session) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("ID", "Name", "Device", "Started", "Last sample", "Samples")

	for _, s := range sessions {
		last := "-"
		if !s.LastSample.IsZero() {
			last = s.LastSample.Local().Format(sessionTimeLayout)
		}
		t.Row(
			strconv.FormatInt(s.ID, 10),
			s.Name,
			s.Device,
			s.StartedAt.Local().Format(sessionTimeLayout),
			last,
			strconv.Itoa(s.Samples),
		)
	}

	return t.Render()
}

func exportSession(cmd *cobra.Command, rec recorder.Recorder, id int64, args []string) error {
	errFactory := errors.New()
	ctx := cmd.Context()

	sessions, err := rec.Sessions(ctx)
	if err != nil {
		return err
	}
	found := false
	for _, s := range sessions {
		found = found || s.ID == id
	}
	if !found {
		return errFactory.WithData(recorder.ErrSessionNotFound, id)
	}

	samples, err := rec.Samples(ctx, id)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(args) == 1 {
		file, err := os.Create(args[0])
		if err != nil {
			return errFactory.Wrap(errors.ErrOperationFailed, err).WithMessage("create " + args[0])
		}
		defer file.Close()
		out = file
	}

	if err := writeCSV(out, samples); err != nil {
		return errFactory.Wrap(errors.ErrOperationFailed, err).WithMessage("write CSV")
	}
	if len(args) == 1 {
		fmt.Fprintf(cmd.ErrOrStderr(), "Exported %d samples to %s\n", len(samples), args[0])
	}

	return nil
}

// writeCSV writes one row per sample: local time, then every catalogued
// metric, empty where the sample has no value.
func writeCSV(w io.Writer, samples []meter.Sample) error {
	metrics := device.Metrics()

	writer := csv.NewWriter(w)

	header := []string{"Time"}
	for _, m := range metrics {
		header = append(header, device.Label(m.Name))
	}
	if err := writer.Write(header); err != nil {
		return err
	}

	for _, sample := range samples {
		row := make([]string, 0, len(header))
		ts := meter.ChartPoint{Timestamp: sample.Timestamp()}.Time()
		row = append(row, ts.Local().Format(sessionTimeLayout))
		for _, m := range metrics {
			v, ok := sample.Value(m.Name)
			if !ok {
				row = append(row, "")
				continue
			}
			row = append(row, strconv.FormatFloat(v, 'f', -1, 64))
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}
