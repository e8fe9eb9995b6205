package tui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/muurk/go2n"
)

// Phase represents the current state of the monitor screen
type Phase string

const (
	PhaseConnecting Phase = "connecting"
	PhaseLive       Phase = "live"
	PhaseFailed     Phase = "failed"
)

// Monitor timing constants
const (
	// connectTimeout bounds the initial identity fetch
	connectTimeout = 15 * time.Second

	// defaultRefreshInterval is how often switch/port state is re-read
	defaultRefreshInterval = 5 * time.Second

	// eventPullTimeout is the long poll duration for event pulls.
	// Kept below the default subscription lifetime so every pull
	// renews the subscription before the device expires it.
	eventPullTimeout = 25 * time.Second

	// maxEvents caps the in-memory event feed
	maxEvents = 100
)

// Messages for async operations
type connectResultMsg struct {
	device *go2n.Device
	err    error
}

type subscribeResultMsg struct {
	sub *go2n.EventSubscription
	err error
}

type eventsMsg struct {
	events []go2n.Event
	err    error
}

type stateRefreshMsg struct {
	status   go2n.SystemStatus
	switches []go2n.Switch
	ports    []go2n.Port
	err      error
}

type refreshTickMsg time.Time

// monitorKeyMap defines key bindings for the live monitor screen
type monitorKeyMap struct {
	Refresh key.Binding
	Clear   key.Binding
	Quit    key.Binding
}

// ShortHelp returns keybindings to be shown in the mini help view
func (k monitorKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Refresh, k.Clear, k.Quit}
}

// FullHelp returns keybindings for the expanded help view
func (k monitorKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Refresh, k.Clear, k.Quit},
	}
}

// failedKeyMap defines key bindings for the failed screen
type failedKeyMap struct {
	Retry key.Binding
	Quit  key.Binding
}

// ShortHelp returns keybindings to be shown in the mini help view
func (k failedKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Retry, k.Quit}
}

// FullHelp returns keybindings for the expanded help view
func (k failedKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Retry, k.Quit},
	}
}

// MonitorModel is the live device monitor screen. It connects to the
// device, subscribes to its event log, and keeps switch and port state
// fresh with periodic refreshes.
type MonitorModel struct {
	// Connection parameters, used by connectCmd
	Conn            go2n.ConnectionData
	RefreshInterval time.Duration

	// Phase state
	Phase Phase
	Err   error

	// Device state (populated once connected)
	Device   *go2n.Device
	Sub      *go2n.EventSubscription
	Info     go2n.DeviceInfo
	Status   go2n.SystemStatus
	Switches []go2n.Switch
	Ports    []go2n.Port

	// Event feed, newest first, capped at maxEvents
	Events    []go2n.Event
	EventsErr error

	// Timing
	ConnectStart time.Time
	LastRefresh  time.Time

	// UI state
	Width   int
	Height  int
	Spinner spinner.Model
	Help    help.Model
	Keys    monitorKeyMap
	Failed  failedKeyMap
}

// NewMonitorModel creates a monitor for the given device connection
func NewMonitorModel(conn go2n.ConnectionData) MonitorModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = SpinnerStyle

	h := help.New()

	keys := monitorKeyMap{
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh"),
		),
		Clear: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "clear events"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q"),
			key.WithHelp("q", "quit"),
		),
	}

	failed := failedKeyMap{
		Retry: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "retry"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "esc"),
			key.WithHelp("q", "quit"),
		),
	}

	return MonitorModel{
		Conn:            conn,
		RefreshInterval: defaultRefreshInterval,
		Phase:           PhaseConnecting,
		ConnectStart:    time.Now(),
		Spinner:         s,
		Help:            h,
		Keys:            keys,
		Failed:          failed,
	}
}

// Init starts the connection attempt and the spinner animation
func (m MonitorModel) Init() tea.Cmd {
	return tea.Batch(
		connectCmd(m.Conn),
		m.Spinner.Tick,
	)
}

// Update handles messages and updates the model
func (m MonitorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		return m, nil

	case tea.KeyMsg:
		return m.updateKeys(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.Spinner, cmd = m.Spinner.Update(msg)
		return m, cmd

	case connectResultMsg:
		if msg.err != nil {
			m.Phase = PhaseFailed
			m.Err = msg.err
			return m, nil
		}
		m.Phase = PhaseLive
		m.Device = msg.device
		m.Info = msg.device.Info()
		m.LastRefresh = time.Now()
		return m, tea.Batch(
			subscribeCmd(m.Device),
			refreshStateCmd(m.Device),
			m.refreshTick(),
		)

	case subscribeResultMsg:
		if msg.err != nil {
			// The dashboard stays live without the event feed
			m.EventsErr = msg.err
			return m, nil
		}
		m.Sub = msg.sub
		return m, pullEventsCmd(m.Sub)

	case eventsMsg:
		if m.Sub == nil {
			return m, nil
		}
		if msg.err != nil {
			m.EventsErr = msg.err
			return m, nil
		}
		m.appendEvents(msg.events)
		return m, pullEventsCmd(m.Sub)

	case stateRefreshMsg:
		if msg.err == nil {
			m.Status = msg.status
			m.Switches = msg.switches
			m.Ports = msg.ports
			m.LastRefresh = time.Now()
		}
		return m, nil

	case refreshTickMsg:
		if m.Phase != PhaseLive {
			return m, nil
		}
		return m, tea.Batch(
			refreshStateCmd(m.Device),
			m.refreshTick(),
		)
	}

	return m, nil
}

// updateKeys handles keyboard input for the current phase
func (m MonitorModel) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		m.teardown()
		return m, tea.Quit
	}

	switch m.Phase {
	case PhaseLive:
		switch msg.String() {
		case "q":
			m.teardown()
			return m, tea.Quit
		case "r":
			return m, refreshStateCmd(m.Device)
		case "c":
			m.Events = nil
			return m, nil
		}

	case PhaseFailed:
		switch msg.String() {
		case "q", "esc":
			return m, tea.Quit
		case "r":
			m.Phase = PhaseConnecting
			m.Err = nil
			m.ConnectStart = time.Now()
			return m, tea.Batch(
				connectCmd(m.Conn),
				m.Spinner.Tick,
			)
		}

	case PhaseConnecting:
		if msg.String() == "q" {
			return m, tea.Quit
		}
	}

	return m, nil
}

// teardown releases the event subscription and the device client.
// Best effort: the device expires unused subscriptions on its own.
func (m *MonitorModel) teardown() {
	if m.Sub != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		_ = m.Sub.Unsubscribe(ctx)
		cancel()
		m.Sub = nil
	}
	if m.Device != nil {
		m.Device.Close()
	}
}

// appendEvents prepends new events to the feed, newest first
func (m *MonitorModel) appendEvents(events []go2n.Event) {
	for _, ev := range events {
		m.Events = append([]go2n.Event{ev}, m.Events...)
	}
	if len(m.Events) > maxEvents {
		m.Events = m.Events[:maxEvents]
	}
}

// refreshTick schedules the next periodic state refresh
func (m MonitorModel) refreshTick() tea.Cmd {
	return tea.Tick(m.RefreshInterval, func(t time.Time) tea.Msg {
		return refreshTickMsg(t)
	})
}

// connectCmd connects to the device and fetches its identity
func connectCmd(conn go2n.ConnectionData) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
		defer cancel()

		device, err := go2n.NewDevice(ctx, nil, conn)
		return connectResultMsg{device: device, err: err}
	}
}

// subscribeCmd opens an event log subscription on the device
func subscribeCmd(device *go2n.Device) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
		defer cancel()

		sub, err := device.Subscribe(ctx, go2n.EventFilter{})
		return subscribeResultMsg{sub: sub, err: err}
	}
}

// pullEventsCmd long polls the subscription for new events. The
// command reschedules itself from Update after each result.
func pullEventsCmd(sub *go2n.EventSubscription) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), eventPullTimeout+10*time.Second)
		defer cancel()

		events, err := sub.Pull(ctx, eventPullTimeout)
		return eventsMsg{events: events, err: err}
	}
}

// refreshStateCmd re-reads runtime status, switches and ports
func refreshStateCmd(device *go2n.Device) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
		defer cancel()

		status, err := device.SystemStatus(ctx)
		if err != nil {
			return stateRefreshMsg{err: err}
		}
		switches, err := device.Switches(ctx)
		if err != nil {
			return stateRefreshMsg{err: err}
		}
		ports, err := device.Ports(ctx)
		if err != nil {
			return stateRefreshMsg{err: err}
		}
		return stateRefreshMsg{status: status, switches: switches, ports: ports}
	}
}
