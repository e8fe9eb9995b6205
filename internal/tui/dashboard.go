package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/muurk/go2n"
)

// visibleEvents is how many event feed lines the dashboard shows
const visibleEvents = 12

// View renders the current phase
func (m MonitorModel) View() string {
	var content, helpText string

	switch m.Phase {
	case PhaseConnecting:
		content = m.renderConnecting()
		helpText = "q quit"
	case PhaseFailed:
		content = m.renderFailed()
		helpText = m.Help.View(m.Failed)
	default:
		content = m.renderDashboardContent()
		helpText = m.Help.View(m.Keys)
	}

	return RenderApplicationContainer(content, helpText, m.Width, m.Height)
}

// renderConnecting renders a centered connection progress display
func (m MonitorModel) renderConnecting() string {
	width := m.Width
	if width == 0 {
		width = MinTerminalWidth
	}

	elapsed := int(time.Since(m.ConnectStart).Seconds())

	title := fmt.Sprintf("%s CONNECTING TO DEVICE", m.Spinner.View())
	subtitle := fmt.Sprintf("Fetching identity from %s...", m.Conn.Host)
	elapsedText := fmt.Sprintf("Elapsed: %ds", elapsed)

	content := lipgloss.JoinVertical(lipgloss.Center,
		"", // Top spacing
		TitleStyle.Render(title),
		"",
		SubtitleStyle.Render(subtitle),
		"",
		SubtitleStyle.Render(elapsedText),
		"", // Bottom spacing
	)

	return lipgloss.Place(width, 0, lipgloss.Center, lipgloss.Top, content)
}

// renderFailed renders the connection failure screen with hints
func (m MonitorModel) renderFailed() string {
	var b strings.Builder

	b.WriteString("\n")
	b.WriteString(RenderError(fmt.Sprintf("Connection failed: %s", go2n.ShortErrorMessage(m.Err))))
	b.WriteString("\n\n")

	b.WriteString("  Troubleshooting:\n")
	b.WriteString("    • " + go2n.TroubleshootingHint(m.Err) + "\n")
	b.WriteString("    • Check the device is powered on and reachable\n")
	b.WriteString("    • Verify the HTTP API is enabled on the device\n")

	return b.String()
}

// renderDashboardContent renders the live monitor view
func (m MonitorModel) renderDashboardContent() string {
	// Device identity line
	name := m.Info.Name
	if name == "" {
		name = m.Info.Model
	}
	deviceInfo := fmt.Sprintf("%s • %s • FW %s • SN %s",
		name,
		m.Info.Host,
		m.Info.Firmware,
		m.Info.Serial)

	deviceLine := lipgloss.NewStyle().Foreground(TextColor).Bold(true).Render(deviceInfo)

	// Status line: uptime plus refresh age
	statusLine := SubtitleStyle.Render(fmt.Sprintf("Uptime %s • Refreshed %s ago",
		formatUptime(m.Status.UpTime),
		time.Since(m.LastRefresh).Round(time.Second)))

	divider := lipgloss.NewStyle().
		Foreground(BorderColor).
		Render(strings.Repeat("─", 60))

	return lipgloss.JoinVertical(lipgloss.Left,
		deviceLine,
		statusLine,
		divider,
		"",
		m.renderSwitchesSection(),
		"",
		m.renderPortsSection(),
		"",
		m.renderEventsSection(),
	)
}

// renderSwitchesSection renders the switch state list
func (m MonitorModel) renderSwitchesSection() string {
	parts := []string{SectionTitleStyle.Render("SWITCHES")}

	if len(m.Switches) == 0 {
		parts = append(parts, SubtleColorLine("  (no switches reported)"))
		return lipgloss.JoinVertical(lipgloss.Left, parts...)
	}

	for _, sw := range m.Switches {
		label := fmt.Sprintf("  Switch %d", sw.ID)
		var state string
		switch {
		case !sw.Enabled:
			state = StateOffStyle.Render("· not configured")
		case sw.Active:
			state = StateOnStyle.Render("● on")
		default:
			state = StateOffStyle.Render("○ off")
		}

		line := fmt.Sprintf("%-14s %s", label, state)
		if sw.Enabled && sw.Mode != "" {
			line += SubtitleStyle.Render("  (" + sw.Mode + ")")
		}
		if sw.Locked {
			line += lipgloss.NewStyle().Foreground(WarningColor).Render("  locked")
		}
		if sw.Held {
			line += lipgloss.NewStyle().Foreground(WarningColor).Render("  held")
		}
		parts = append(parts, line)
	}

	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

// renderPortsSection renders the I/O port state list
func (m MonitorModel) renderPortsSection() string {
	parts := []string{SectionTitleStyle.Render("PORTS")}

	if len(m.Ports) == 0 {
		parts = append(parts, SubtleColorLine("  (no ports reported)"))
		return lipgloss.JoinVertical(lipgloss.Left, parts...)
	}

	for _, port := range m.Ports {
		var state string
		if port.State == 1 {
			state = StateOnStyle.Render("● high")
		} else {
			state = StateOffStyle.Render("○ low")
		}

		line := fmt.Sprintf("  %-14s %s %s",
			port.ID,
			SubtitleStyle.Render(fmt.Sprintf("[%s]", port.Type)),
			state)
		parts = append(parts, line)
	}

	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

// renderEventsSection renders the newest slice of the event feed
func (m MonitorModel) renderEventsSection() string {
	parts := []string{SectionTitleStyle.Render("EVENT LOG")}

	if m.EventsErr != nil {
		parts = append(parts, SubtleColorLine(fmt.Sprintf("  (event log unavailable: %s)", go2n.ShortErrorMessage(m.EventsErr))))
		return lipgloss.JoinVertical(lipgloss.Left, parts...)
	}

	if m.Sub == nil {
		parts = append(parts, SubtleColorLine("  (subscribing to event log...)"))
		return lipgloss.JoinVertical(lipgloss.Left, parts...)
	}

	if len(m.Events) == 0 {
		parts = append(parts, SubtleColorLine("  (waiting for events)"))
		return lipgloss.JoinVertical(lipgloss.Left, parts...)
	}

	shown := m.Events
	if len(shown) > visibleEvents {
		shown = shown[:visibleEvents]
	}

	for _, ev := range shown {
		line := "  " + EventTimeStyle.Render(ev.Time().Local().Format("15:04:05")) +
			" " + EventTypeStyle.Render(ev.Type)
		if params := formatEventParams(ev); params != "" {
			line += " " + EventParamsStyle.Render(params)
		}
		parts = append(parts, line)
	}

	if len(m.Events) > visibleEvents {
		parts = append(parts, SubtleColorLine(fmt.Sprintf("  ... %d more", len(m.Events)-visibleEvents)))
	}

	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

// SubtleColorLine renders a single muted line
func SubtleColorLine(text string) string {
	return lipgloss.NewStyle().Foreground(SubtleColor).Render(text)
}

// formatEventParams renders event parameters compactly, truncated to
// keep the feed to one line per event
func formatEventParams(ev go2n.Event) string {
	if len(ev.Params) == 0 {
		return ""
	}
	params := string(ev.Params)
	if len(params) > 60 {
		params = params[:57] + "..."
	}
	return params
}

// formatUptime formats an uptime in seconds as 3d 4h 5m 6s
func formatUptime(seconds int64) string {
	if seconds <= 0 {
		return "0s"
	}

	d := seconds / 86400
	h := (seconds % 86400) / 3600
	min := (seconds % 3600) / 60
	s := seconds % 60

	var parts []string
	if d > 0 {
		parts = append(parts, fmt.Sprintf("%dd", d))
	}
	if h > 0 {
		parts = append(parts, fmt.Sprintf("%dh", h))
	}
	if min > 0 {
		parts = append(parts, fmt.Sprintf("%dm", min))
	}
	if s > 0 || len(parts) == 0 {
		parts = append(parts, fmt.Sprintf("%ds", s))
	}

	return strings.Join(parts, " ")
}
