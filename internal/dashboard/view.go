package dashboard

import (
	"fmt"
	"strconv"
	"strings"

	"codeberg.org/mutker/meterdash/internal/device"
	"codeberg.org/mutker/meterdash/internal/link"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
)

const (
	// Lines around the log pane on the setup page.
	setupChromeHeight = 14
	// Lines around the chart on the results page.
	resultsChromeHeight = 7
	maxListedDevices    = 5
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true)
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Width(9)
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	statusStyle = map[link.State]lipgloss.Style{
		link.Idle:          lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
		link.Connecting:    lipgloss.NewStyle().Foreground(lipgloss.Color("3")),
		link.Connected:     lipgloss.NewStyle().Foreground(lipgloss.Color("2")),
		link.Disconnecting: lipgloss.NewStyle().Foreground(lipgloss.Color("3")),
		link.Disconnected:  lipgloss.NewStyle().Foreground(lipgloss.Color("1")),
	}
)

// columnWidths sizes table columns that need more than their title.
var columnWidths = map[string]int{
	"Time":        19,
	"Data":        13,
	"Mode":        10,
	"Accumulated": 20,
}

func newSampleTable() table.Model {
	columns := make([]table.Column, 0, len(device.TableFields))
	for _, field := range device.TableFields {
		width := max(len(field), 9)
		if w, ok := columnWidths[field]; ok {
			width = w
		}
		columns = append(columns, table.Column{Title: field, Width: width})
	}

	return table.New(
		table.WithColumns(columns),
		table.WithHeight(3),
		table.WithFocused(false),
	)
}

// View renders the dashboard.
func (m *Model) View() string {
	var b strings.Builder

	b.WriteString(m.headerView())
	b.WriteString("\n\n")

	if m.page == pageResults {
		b.WriteString(m.resultsView())
	} else {
		b.WriteString(m.setupView())
	}

	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))

	return b.String()
}

func (m *Model) headerView() string {
	state := m.controller.State()

	status := statusStyle[state].Render(statusText(state))
	if state == link.Connecting || state == link.Disconnecting {
		status = m.spinner.View() + " " + status
	}

	parts := []string{titleStyle.Render("meterdash"), status}
	if m.session != nil {
		parts = append(parts, mutedStyle.Render("recording "+m.session.Name))
	}
	if m.closed {
		parts = append(parts, errorStyle.Render("backend offline"))
	}

	return strings.Join(parts, "  ")
}

func (m *Model) setupView() string {
	var b strings.Builder

	rate := strconv.FormatFloat(m.params.Rate, 'f', -1, 64)
	fields := [][2]string{
		{"Device", m.params.Device},
		{"Address", m.params.Address},
		{"Rate", rate + " s"},
		{"Session", m.params.Session},
	}
	for _, f := range fields {
		value := f[1]
		if value == "" {
			value = mutedStyle.Render("not set")
		}
		b.WriteString(labelStyle.Render(f[0]) + value + "\n")
	}

	if m.fatal != nil {
		b.WriteString(errorStyle.Render(m.fatal.Error()) + "\n")
	}

	b.WriteString("\n")
	b.WriteString(m.discoveryView())
	b.WriteString("\n")
	b.WriteString(m.logs.View())

	return b.String()
}

func (m *Model) discoveryView() string {
	for _, ch := range []device.Channel{device.ChannelSerial, device.ChannelBLE, device.ChannelRFCOMM} {
		if m.controller.Scanning(ch) {
			return m.spinner.View() + " scanning " + string(ch) + "\n"
		}
	}

	result, ok := m.controller.LatestDiscovery()
	if !ok {
		return mutedStyle.Render("No scan yet") + "\n"
	}
	if result.Failed {
		return errorStyle.Render(strings.TrimSpace(result.Payload)) + "\n"
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("Found %s on %s\n", countLabel(len(result.Devices), "device", "devices"), result.Channel))
	for i, candidate := range result.Devices {
		if i == maxListedDevices {
			b.WriteString(mutedStyle.Render(fmt.Sprintf("  ... %d more", len(result.Devices)-i)) + "\n")
			break
		}
		b.WriteString(fmt.Sprintf("  %d) %s  %s\n", i+1, candidate.Address, mutedStyle.Render(candidate.Name)))
	}

	return b.String()
}

func (m *Model) resultsView() string {
	var b strings.Builder

	if m.latest == nil {
		b.WriteString(mutedStyle.Render("No sample received yet"))
	} else {
		b.WriteString(m.table.View())
	}
	b.WriteString("\n")

	if !m.sink.Ready() && m.sink.CurrentLength() == 0 {
		b.WriteString(m.spinner.View() + " loading chart")
		return b.String()
	}

	b.WriteString(m.sink.Render(m.width, max(m.height-resultsChromeHeight, 0)))

	return b.String()
}
