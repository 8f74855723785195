// Package dashboard is the terminal front end. Its bubbletea Update function
// is the only place the link controller, telemetry buffer and chart sink
// are touched; background work posts messages back into it.
package dashboard

import (
	"context"
	"fmt"
	"strings"
	"time"

	"codeberg.org/mutker/meterdash/internal/chart"
	"codeberg.org/mutker/meterdash/internal/device"
	"codeberg.org/mutker/meterdash/internal/errors"
	"codeberg.org/mutker/meterdash/internal/link"
	"codeberg.org/mutker/meterdash/internal/logger"
	"codeberg.org/mutker/meterdash/internal/logview"
	"codeberg.org/mutker/meterdash/internal/meter"
	"codeberg.org/mutker/meterdash/internal/recorder"
	"codeberg.org/mutker/meterdash/internal/snapshot"
	"codeberg.org/mutker/meterdash/internal/telemetry"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
)

const (
	recorderTimeout = 5 * time.Second
	minLogHeight    = 3
	// samples kept while a recording session is being opened
	maxUnrecorded = 1000
)

type page int

const (
	pageSetup page = iota
	pageResults
)

// Options wires a Model to its collaborators.
type Options struct {
	Transport link.Transport
	Events    <-chan link.Event
	Logs      <-chan string
	Snapshots snapshot.Source
	Recorder  recorder.Recorder
	Surfaces  chart.SurfaceFactory

	Params    link.Params
	Selection meter.AxisSelection
	Telemetry telemetry.Config
	LogLines  int
	Now       func() time.Time
}

// Model is the dashboard state. It implements both tea.Model and
// link.Observer.
type Model struct {
	opts Options
	keys KeyMap

	controller *link.Controller
	sink       *chart.Sink
	buffer     *telemetry.Buffer
	logs       *logview.Follower
	recorder   recorder.Recorder
	session    *recorder.Session
	// conn changes on every Connected and Disconnected so a late
	// sessionMsg can be told apart from the current connection's.
	conn       uint64
	opening    bool
	unrecorded []meter.Sample

	table   table.Model
	spinner spinner.Model
	help    help.Model

	params link.Params
	page   page
	latest *meter.Sample
	fatal  error
	closed bool

	width  int
	height int

	// cmds collects commands raised by observer callbacks during Update.
	cmds []tea.Cmd
}

// New builds a dashboard model.
func New(opts Options) (*Model, error) {
	errFactory := errors.New()

	if opts.Transport == nil {
		return nil, errFactory.New(ErrMissingTransport)
	}
	if opts.Snapshots == nil {
		return nil, errFactory.New(ErrMissingSource)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if len(opts.Telemetry.Thresholds) == 0 {
		opts.Telemetry = telemetry.DefaultConfig()
	}
	if opts.Recorder == nil {
		rec, err := recorder.NewService(recorder.Config{}, logger.Get())
		if err != nil {
			return nil, err
		}
		opts.Recorder = rec
	}

	sink := chart.NewSink(opts.Surfaces, opts.Selection)
	buffer, err := telemetry.New(sink, opts.Telemetry)
	if err != nil {
		return nil, err
	}

	spin := spinner.New()
	spin.Spinner = spinner.MiniDot

	m := &Model{
		opts:     opts,
		keys:     DefaultKeyMap,
		sink:     sink,
		buffer:   buffer,
		logs:     logview.New(0, minLogHeight, opts.LogLines),
		recorder: opts.Recorder,
		table:    newSampleTable(),
		spinner:  spin,
		help:     help.New(),
		params:   opts.Params,
	}
	m.controller = link.NewController(opts.Transport, link.WithObserver(m))

	return m, nil
}

// Controller exposes the link controller driven by this model.
func (m *Model) Controller() *link.Controller {
	return m.controller
}

// Sink exposes the chart sink.
func (m *Model) Sink() *chart.Sink {
	return m.sink
}

// Buffer exposes the telemetry buffer.
func (m *Model) Buffer() *telemetry.Buffer {
	return m.buffer
}

// Logs exposes the log pane.
func (m *Model) Logs() *logview.Follower {
	return m.logs
}

// Init starts listening for backend events and log lines and loads the
// initial chart.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(
		ListenEvents(m.opts.Events),
		ListenLogs(m.opts.Logs),
		m.spinner.Tick,
		m.reconfigure(m.sink.Selection()),
	)
}

// Update handles messages
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.Quit) {
			return m, tea.Quit
		}
		m.handleKey(msg)

	case tea.MouseMsg:
		m.queue(m.logs.Update(msg))

	case linkEventMsg:
		m.controller.Handle(msg.Event)
		m.queue(ListenEvents(m.opts.Events))

	case linkClosedMsg:
		m.closed = true
		logger.Warn().Msg("Connection to backend closed")

	case logLineMsg:
		m.logs.Append(msg.Text)
		m.queue(ListenLogs(m.opts.Logs))

	case snapshotMsg:
		m.completeSnapshot(msg)

	case sessionMsg:
		m.completeSession(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		m.queue(cmd)
	}

	cmds := m.cmds
	m.cmds = nil

	return m, tea.Batch(cmds...)
}

func (m *Model) queue(cmd tea.Cmd) {
	if cmd != nil {
		m.cmds = append(m.cmds, cmd)
	}
}

func (m *Model) handleKey(msg tea.KeyMsg) {
	switch {
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	case key.Matches(msg, m.keys.Connect):
		m.toggleConnection()
	case key.Matches(msg, m.keys.ScanSerial):
		m.scan(device.ChannelSerial)
	case key.Matches(msg, m.keys.ScanBLE):
		m.scan(device.ChannelBLE)
	case key.Matches(msg, m.keys.ScanRFCOMM):
		m.scan(device.ChannelRFCOMM)
	case key.Matches(msg, m.keys.Pick):
		m.pickAddress(int(msg.String()[0] - '1'))
	case key.Matches(msg, m.keys.LeftAxis):
		sel := m.sink.Selection()
		sel.LeftMetric = nextMetric(sel.LeftMetric)
		m.queue(m.reconfigure(sel))
	case key.Matches(msg, m.keys.RightAxis):
		sel := m.sink.Selection()
		sel.RightMetric = nextMetric(sel.RightMetric)
		m.queue(m.reconfigure(sel))
	case key.Matches(msg, m.keys.ColorMode):
		sel := m.sink.Selection()
		sel.ColorMode = sel.ColorMode.Next()
		m.queue(m.reconfigure(sel))
	case key.Matches(msg, m.keys.Up):
		m.logs.ScrollUp(1)
	case key.Matches(msg, m.keys.Down):
		m.logs.ScrollDown(1)
	case key.Matches(msg, m.keys.Bottom):
		m.logs.GotoBottom()
	case key.Matches(msg, m.keys.SwitchView):
		if m.page == pageSetup {
			m.page = pageResults
		} else {
			m.page = pageSetup
		}
	}
}

func (m *Model) toggleConnection() {
	state := m.controller.State()

	if state.CanClose() {
		if err := m.controller.Close(); err != nil {
			logger.Error().Err(err).Msg("Failed to disconnect")
		}
		return
	}
	if !state.CanOpen() {
		return
	}

	model, err := device.Lookup(m.params.Device)
	if err != nil {
		m.fatal = err
		return
	}
	if err := model.CheckAddress(m.params.Address); err != nil {
		m.fatal = err
		return
	}

	m.fatal = nil
	m.params.Channel = model.Channel
	if err := m.controller.Open(m.params); err != nil {
		m.fatal = err
		logger.Error().Err(err).Msg("Failed to connect")
	}
}

func (m *Model) scan(ch device.Channel) {
	if err := m.controller.RequestDiscovery(ch); err != nil {
		logger.Error().Err(err).Str("channel", string(ch)).Msg("Failed to start scan")
		return
	}
	logger.Info().Str("channel", string(ch)).Msg("Scanning for devices")
}

func (m *Model) pickAddress(index int) {
	result, ok := m.controller.LatestDiscovery()
	if !ok || index < 0 || index >= len(result.Devices) {
		return
	}

	candidate := result.Devices[index]
	m.params.Address = candidate.Address
	logger.Info().Str("address", candidate.Address).Str("name", candidate.Name).Msg("Using discovered device")
}

// reconfigure replaces the chart selection and starts fetching the
// matching history.
func (m *Model) reconfigure(sel meter.AxisSelection) tea.Cmd {
	token := m.sink.Reconfigure(sel)

	return FetchSnapshot(m.opts.Snapshots, token, snapshot.Request{
		Session:   m.sessionName(),
		Selection: sel,
	})
}

func (m *Model) completeSnapshot(msg snapshotMsg) {
	points := msg.Points
	if msg.Err != nil {
		logger.Warn().Err(msg.Err).Msg("Failed to load chart history")
		points = nil
	}

	if err := m.sink.Complete(msg.Token, points); err != nil {
		if errors.HasCode(err, chart.ErrStaleSnapshot) {
			logger.Debug().Uint64("token", uint64(msg.Token)).Msg("Discarding stale chart history")
			return
		}
		logger.Failure(err).Msg("Failed to build chart")
		if !m.sink.Ready() {
			// nothing will drain them until the next reconfiguration
			if n := m.buffer.Discard(); n > 0 {
				logger.Debug().Int("samples", n).Msg("Discarded unrendered samples")
			}
		}
		return
	}

	m.buffer.Drain()
}

func (m *Model) sessionName() string {
	if m.session != nil {
		return m.session.Name
	}

	return m.params.Session
}

func (m *Model) openSession() {
	if !m.recorder.IsEnabled() {
		return
	}

	m.opening = true
	m.queue(OpenSession(m.recorder, m.conn, m.params, m.opts.Now()))
}

func (m *Model) completeSession(msg sessionMsg) {
	if msg.Conn != m.conn || !m.opening {
		logger.Debug().Uint64("conn", msg.Conn).Msg("Ignoring session for a closed connection")
		return
	}

	m.opening = false
	pending := m.unrecorded
	m.unrecorded = nil

	if msg.Err != nil {
		logger.Failure(msg.Err).Msg("Failed to open recording session")
		return
	}

	s := msg.Session
	m.session = &s
	logger.Info().Int64("session_id", s.ID).Str("session", s.Name).Msg("Recording session")

	for _, sample := range pending {
		m.record(sample)
	}

	// history was requested under the configured name before the recorder
	// picked this one
	if m.page == pageResults && s.Name != m.params.Session {
		m.queue(m.reconfigure(m.sink.Selection()))
	}
}

func (m *Model) record(sample meter.Sample) {
	if err := m.recorder.Record(context.Background(), m.session.ID, sample); err != nil {
		logger.Debug().Err(err).Msg("Failed to record sample")
	}
}

// OnStateChange implements link.Observer.
func (m *Model) OnStateChange(state link.State) {
	switch state {
	case link.Connected:
		m.conn++
		m.openSession()
	case link.Disconnected:
		if n := m.buffer.Discard(); n > 0 {
			logger.Debug().Int("samples", n).Msg("Discarded unrendered samples")
		}
		m.conn++
		m.session = nil
		m.opening = false
		m.unrecorded = nil
		if m.controller.LastDisconnectDropped() {
			logger.Warn().Msg("Meter connection dropped")
		}
	}
}

// OnSample implements link.Observer.
func (m *Model) OnSample(sample meter.Sample) {
	m.latest = &sample
	m.table.SetRows([]table.Row{tableRow(sample.Table)})
	m.buffer.Push(sample)

	switch {
	case m.session != nil:
		m.record(sample)
	case m.opening && len(m.unrecorded) < maxUnrecorded:
		m.unrecorded = append(m.unrecorded, sample)
	}
}

// OnFirstSample implements link.Observer.
func (m *Model) OnFirstSample(meter.Sample) {
	m.page = pageResults
	m.fatal = nil
	m.queue(m.reconfigure(m.sink.Selection()))
}

// OnFatal implements link.Observer.
func (m *Model) OnFatal(reason error) {
	m.fatal = reason
	m.page = pageSetup
	logger.Failure(reason).Msg("Meter reported a failure")
}

// OnDiscovery implements link.Observer.
func (m *Model) OnDiscovery(result link.Discovery) {
	if result.Failed {
		logger.Warn().Str("channel", string(result.Channel)).Msg("Scan failed")
		return
	}
	logger.Info().
		Str("channel", string(result.Channel)).
		Int("devices", len(result.Devices)).
		Msg("Scan finished")
}

// OnLog implements link.Observer.
func (m *Model) OnLog(line string) {
	m.logs.Append(line)
}

func (m *Model) resize(width, height int) {
	m.width = width
	m.height = height
	m.help.Width = width
	m.table.SetWidth(width)
	m.logs.SetSize(width, max(height-setupChromeHeight, minLogHeight))
}

func nextMetric(current string) string {
	metrics := device.Metrics()
	for i, metric := range metrics {
		if metric.Name == current {
			return metrics[(i+1)%len(metrics)].Name
		}
	}

	return metrics[0].Name
}

func tableRow(cells []string) table.Row {
	row := make(table.Row, len(device.TableFields))
	copy(row, cells)

	return row
}

func statusText(state link.State) string {
	s := state.String()
	if s == "" {
		return s
	}

	return strings.ToUpper(s[:1]) + s[1:]
}

func countLabel(n int, one, many string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, one)
	}

	return fmt.Sprintf("%d %s", n, many)
}
