package go2n

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"sync"

	"go.uber.org/zap"
)

// Device endpoint paths (vendor REST API, fixed by the hardware)
const (
	pathSystemInfo    = "/api/system/info"
	pathSystemStatus  = "/api/system/status"
	pathSystemRestart = "/api/system/restart"
	pathAudioTest     = "/api/audio/test"
	pathSwitchCaps    = "/api/switch/caps"
	pathSwitchStatus  = "/api/switch/status"
	pathSwitchCtrl    = "/api/switch/ctrl"
	pathIOCaps        = "/api/io/caps"
	pathIOStatus      = "/api/io/status"
	pathIOCtrl        = "/api/io/ctrl"
	pathLogCaps       = "/api/log/caps"
	pathLogSubscribe  = "/api/log/subscribe"
	pathLogPull       = "/api/log/pull"
	pathLogUnsubscr   = "/api/log/unsubscribe"
)

// Device is a client for one 2N intercom or access-control unit.
//
// A Device is safe for concurrent use: operations are independent HTTP
// requests, and the cached identity snapshot is guarded internally.
// The caller owns any injected *http.Client and is responsible for its
// lifetime; the Device never closes or reconfigures it.
type Device struct {
	conn       ConnectionData
	httpClient *http.Client
	ownsClient bool
	logger     *zap.Logger

	mu   sync.RWMutex
	info DeviceInfo
}

// DeviceOption customizes a Device under construction
type DeviceOption func(*Device)

// WithLogger attaches a zap logger to the device. The default is a
// no-op logger; credentials are never logged at any level.
func WithLogger(logger *zap.Logger) DeviceOption {
	return func(d *Device) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// NewDevice connects to a device and returns a client for it.
//
// httpClient is the transport session all requests go through. It is
// caller-owned and shared across any number of devices; pass nil to
// have the device build a private client honoring conn.SSLVerify with
// the default timeout. An injected client's TLS configuration is used
// as-is.
//
// The factory performs an initial identity fetch (Update) to validate
// reachability and populate the cached DeviceInfo; it fails with a
// typed error and returns no Device when the device is unreachable,
// rejects credentials, or answers with an unparseable body.
func NewDevice(ctx context.Context, httpClient *http.Client, conn ConnectionData, opts ...DeviceOption) (*Device, error) {
	if err := conn.validate(); err != nil {
		return nil, err
	}

	d := &Device{
		conn:       conn,
		httpClient: httpClient,
		logger:     zap.NewNop(),
	}
	if d.httpClient == nil {
		d.httpClient = newHTTPClient(conn)
		d.ownsClient = true
	}

	for _, opt := range opts {
		opt(d)
	}

	if err := d.Update(ctx); err != nil {
		return nil, err
	}

	d.logger.Debug("device initialized",
		zap.String("host", conn.Host),
		zap.String("model", d.Info().Model),
		zap.String("serial", d.Info().Serial),
	)

	return d, nil
}

// Connection returns the ConnectionData the device was built with
func (d *Device) Connection() ConnectionData {
	return d.conn
}

// Host returns the device host
func (d *Device) Host() string {
	return d.conn.Host
}

// Info returns the cached identity snapshot captured at construction
// or by the most recent Update. It never performs a network call.
func (d *Device) Info() DeviceInfo {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.info
}

// Update refetches identity, status, switches and ports and rebuilds
// the cached DeviceInfo. Switch and IO endpoints are optional device
// capabilities; a device-reported error there (unsupported or disabled
// function) leaves the respective list empty, while authentication and
// connectivity failures propagate.
func (d *Device) Update(ctx context.Context) error {
	info, err := d.SystemInfo(ctx)
	if err != nil {
		return err
	}

	status, err := d.SystemStatus(ctx)
	if err != nil {
		return err
	}

	switches, err := d.fetchSwitches(ctx)
	if err != nil {
		if !IsDeviceError(err) {
			return err
		}
		switches = nil
	}

	ports, err := d.fetchPorts(ctx)
	if err != nil {
		if !IsDeviceError(err) {
			return err
		}
		ports = nil
	}

	d.mu.Lock()
	d.info = newDeviceInfo(d.conn.Host, info, status, switches, ports)
	d.mu.Unlock()

	return nil
}

// SystemInfo fetches the device identity from /api/system/info
func (d *Device) SystemInfo(ctx context.Context) (SystemInfo, error) {
	var info SystemInfo
	if err := d.get(ctx, pathSystemInfo, nil, &info); err != nil {
		return SystemInfo{}, err
	}
	return info, nil
}

// SystemStatus fetches the device clock and uptime from /api/system/status
func (d *Device) SystemStatus(ctx context.Context) (SystemStatus, error) {
	var status SystemStatus
	if err := d.get(ctx, pathSystemStatus, nil, &status); err != nil {
		return SystemStatus{}, err
	}
	return status, nil
}

// Restart reboots the device. The request returns as soon as the
// device accepts the command; the reboot itself happens afterwards.
func (d *Device) Restart(ctx context.Context) error {
	return d.post(ctx, pathSystemRestart, nil)
}

// AudioTest starts the automatic loudspeaker/microphone test on
// devices equipped with both
func (d *Device) AudioTest(ctx context.Context) error {
	return d.post(ctx, pathAudioTest, nil)
}

// Switches refetches switch capabilities and states, refreshes the
// cached snapshot and returns the merged list
func (d *Device) Switches(ctx context.Context) ([]Switch, error) {
	switches, err := d.fetchSwitches(ctx)
	if err != nil {
		return nil, err
	}

	d.mu.Lock()
	d.info.Switches = switches
	d.mu.Unlock()

	return switches, nil
}

// Switch returns one switch from the cached snapshot
func (d *Device) Switch(id int) (Switch, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if len(d.info.Switches) == 0 {
		return Switch{}, NewConfigurationError("no switches configured")
	}
	for _, s := range d.info.Switches {
		if s.ID == id {
			return s, nil
		}
	}
	return Switch{}, NewConfigurationError(fmt.Sprintf("invalid switch id: %d", id))
}

// SetSwitch activates or deactivates a switch. The switch must exist
// in the cached snapshot and be enabled on the device.
func (d *Device) SetSwitch(ctx context.Context, id int, on bool) error {
	s, err := d.Switch(id)
	if err != nil {
		return err
	}
	if !s.Enabled {
		return NewConfigurationError(fmt.Sprintf("switch %d is disabled", id))
	}

	query := url.Values{}
	query.Set("switch", strconv.Itoa(id))
	query.Set("action", onOff(on))
	return d.post(ctx, pathSwitchCtrl, query)
}

// Ports refetches IO port capabilities and states, refreshes the
// cached snapshot and returns the merged list
func (d *Device) Ports(ctx context.Context) ([]Port, error) {
	ports, err := d.fetchPorts(ctx)
	if err != nil {
		return nil, err
	}

	d.mu.Lock()
	d.info.Ports = ports
	d.mu.Unlock()

	return ports, nil
}

// Port returns one IO port from the cached snapshot
func (d *Device) Port(id string) (Port, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	for _, p := range d.info.Ports {
		if p.ID == id {
			return p, nil
		}
	}
	return Port{}, NewConfigurationError(fmt.Sprintf("unknown port id: %s", id))
}

// SetPort drives an output port high or low. Input ports cannot be
// set and are refused without a device request.
func (d *Device) SetPort(ctx context.Context, id string, on bool) error {
	p, err := d.Port(id)
	if err != nil {
		return err
	}
	if p.Type == PortTypeInput {
		return NewConfigurationError(fmt.Sprintf("invalid operation: unable to set state on input port %s", id))
	}

	query := url.Values{}
	query.Set("port", id)
	query.Set("action", onOff(on))
	return d.post(ctx, pathIOCtrl, query)
}

// EventCaps returns the event types this device can report through
// the event log
func (d *Device) EventCaps(ctx context.Context) ([]string, error) {
	var caps eventCapsResult
	if err := d.get(ctx, pathLogCaps, nil, &caps); err != nil {
		return nil, err
	}
	return caps.Events, nil
}

// Close releases resources held by the device. Only the private HTTP
// client built for a nil injection is touched; a caller-owned client
// is left untouched.
func (d *Device) Close() {
	if d.ownsClient {
		d.httpClient.CloseIdleConnections()
	}
}

// fetchSwitches merges /api/switch/caps with /api/switch/status
func (d *Device) fetchSwitches(ctx context.Context) ([]Switch, error) {
	var caps switchCapsResult
	if err := d.get(ctx, pathSwitchCaps, nil, &caps); err != nil {
		return nil, err
	}

	var status switchStatusResult
	if err := d.get(ctx, pathSwitchStatus, nil, &status); err != nil {
		return nil, err
	}

	switches := make([]Switch, 0, len(caps.Switches))
	for _, c := range caps.Switches {
		s := Switch{ID: c.Switch, Enabled: c.Enabled, Mode: c.Mode}
		for _, row := range status.Switches {
			if row.Switch == c.Switch {
				s.Active = row.Active
				s.Locked = row.Locked
				s.Held = row.Held
				break
			}
		}
		switches = append(switches, s)
	}
	return switches, nil
}

// fetchPorts merges /api/io/caps with /api/io/status
func (d *Device) fetchPorts(ctx context.Context) ([]Port, error) {
	var caps portCapsResult
	if err := d.get(ctx, pathIOCaps, nil, &caps); err != nil {
		return nil, err
	}

	var status portStatusResult
	if err := d.get(ctx, pathIOStatus, nil, &status); err != nil {
		return nil, err
	}

	ports := make([]Port, 0, len(caps.Ports))
	for _, c := range caps.Ports {
		p := Port{ID: c.Port, Type: c.Type}
		for _, row := range status.Ports {
			if row.Port == c.Port {
				p.State = row.State
				break
			}
		}
		ports = append(ports, p)
	}
	return ports, nil
}

func onOff(on bool) string {
	if on {
		return "on"
	}
	return "off"
}
