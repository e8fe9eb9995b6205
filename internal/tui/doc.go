// Package tui implements the terminal user interface for the go2n device monitor.
//
// This package provides an interactive, full-screen TUI for watching a 2N
// intercom or access unit in real time. Built using the Bubble Tea framework,
// it follows the Elm architecture with immutable state updates and a clean
// Model-Update-View pattern.
//
// # Architecture
//
// The monitor is a single screen with three phases:
//   - Connecting: Device identity fetch in progress
//   - Live: Dashboard with switch/port state and a streaming event feed
//   - Failed: Connection error with troubleshooting hints
//
// All phases use a unified container pattern (RenderApplicationContainer) for
// consistent layout with header, content area, and context-sensitive footer.
//
// # Framework Components
//
// The TUI leverages Bubble Tea framework components throughout:
//   - bubbles/spinner: Connection progress indicator
//   - bubbles/help: Context-aware key binding help
//   - bubbles/key: Declarative key bindings
//   - lipgloss: Styling and layout
//
// # Usage Example
//
//	conn, _ := go2n.NewConnectionData("192.168.1.69", "admin", "secret")
//	model := tui.NewMonitorModel(conn)
//	program := tea.NewProgram(model, tea.WithAltScreen())
//
//	if _, err := program.Run(); err != nil {
//	    log.Fatal(err)
//	}
//
// # Data Flow
//
// All device I/O happens in tea.Cmd functions so the update loop never
// blocks:
//
//  1. connectCmd builds the go2n.Device, which fetches identity
//  2. subscribeCmd opens an event log subscription
//  3. pullEventsCmd long polls the subscription and reschedules itself,
//     which also renews the subscription lifetime on the device
//  4. refreshStateCmd re-reads system status, switches and ports on a
//     periodic tick (and on demand with 'r')
//
// If the event subscription fails the dashboard stays live without the
// feed; switch and port state keeps refreshing.
//
// # Key Bindings
//
// Key bindings are phase-aware:
//   - Live: r refresh, c clear events, q quit
//   - Failed: r retry, q quit
//   - Connecting: q quit
//
// On quit the monitor unsubscribes from the device event log (best
// effort) and releases the HTTP client.
package tui
