package dashboard

import (
	"context"
	"time"

	"codeberg.org/mutker/meterdash/internal/chart"
	"codeberg.org/mutker/meterdash/internal/link"
	"codeberg.org/mutker/meterdash/internal/meter"
	"codeberg.org/mutker/meterdash/internal/recorder"
	"codeberg.org/mutker/meterdash/internal/snapshot"
	tea "github.com/charmbracelet/bubbletea"
)

const snapshotTimeout = 30 * time.Second

// linkEventMsg carries one inbound backend event.
type linkEventMsg struct {
	Event link.Event
}

// linkClosedMsg signals that the event channel was closed.
type linkClosedMsg struct{}

// logLineMsg carries text written to the log output.
type logLineMsg struct {
	Text string
}

// snapshotMsg carries a finished snapshot fetch. Token is the chart
// generation the fetch was started for.
type snapshotMsg struct {
	Token  chart.Token
	Points []meter.ChartPoint
	Err    error
}

// sessionMsg carries the result of opening a recording session. Conn is
// the connection the session was requested for.
type sessionMsg struct {
	Conn    uint64
	Session recorder.Session
	Err     error
}

// ListenEvents waits for the next backend event.
func ListenEvents(ch <-chan link.Event) tea.Cmd {
	if ch == nil {
		return nil
	}

	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return linkClosedMsg{}
		}

		return linkEventMsg{Event: ev}
	}
}

// ListenLogs waits for the next log write.
func ListenLogs(ch <-chan string) tea.Cmd {
	if ch == nil {
		return nil
	}

	return func() tea.Msg {
		text, ok := <-ch
		if !ok {
			return nil
		}

		return logLineMsg{Text: text}
	}
}

// FetchSnapshot loads the historical series for req off the event loop.
func FetchSnapshot(src snapshot.Source, token chart.Token, req snapshot.Request) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), snapshotTimeout)
		defer cancel()

		points, err := src.Fetch(ctx, req)
		return snapshotMsg{Token: token, Points: points, Err: err}
	}
}

// OpenSession opens the recording session for a new connection off the
// event loop.
func OpenSession(rec recorder.Recorder, conn uint64, params link.Params, now time.Time) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), recorderTimeout)
		defer cancel()

		s, err := rec.OpenSession(ctx, params.Session, params.Device, now)
		return sessionMsg{Conn: conn, Session: s, Err: err}
	}
}
