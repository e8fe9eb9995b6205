package go2n

import (
	"encoding/json"
	"fmt"
	"time"
)

// apiResponse is the envelope every 2N HTTP API endpoint returns.
// Success carries either a result payload or an error description.
type apiResponse struct {
	Success bool            `json:"success"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *apiError       `json:"error,omitempty"`
}

// apiError is the error object inside a failed envelope
type apiError struct {
	Code        int    `json:"code"`
	Param       string `json:"param,omitempty"`
	Description string `json:"description,omitempty"`
}

// SystemInfo is the device identity returned by /api/system/info
type SystemInfo struct {
	Variant      string `json:"variant"`      // Product model name (e.g. "2N IP Vario")
	SerialNumber string `json:"serialNumber"` // Serial number (e.g. "54-0956-0004")
	HWVersion    string `json:"hwVersion"`    // Hardware revision
	SWVersion    string `json:"swVersion"`    // Firmware version
	BuildType    string `json:"buildType"`    // Firmware build type (e.g. "release", "beta")
	DeviceName   string `json:"deviceName"`   // User-configured device name
	MACAddr      string `json:"macAddr"`      // MAC address
}

// Firmware returns the combined firmware identifier (version-buildType)
func (s SystemInfo) Firmware() string {
	if s.BuildType == "" {
		return s.SWVersion
	}
	return fmt.Sprintf("%s-%s", s.SWVersion, s.BuildType)
}

// SystemStatus is the runtime state returned by /api/system/status
type SystemStatus struct {
	SystemTime int64 `json:"systemTime"` // Device clock, Unix seconds UTC
	UpTime     int64 `json:"upTime"`     // Seconds since boot
}

// Time returns the device clock as a time.Time
func (s SystemStatus) Time() time.Time {
	return time.Unix(s.SystemTime, 0).UTC()
}

// BootTime derives the boot instant from the reported uptime
func (s SystemStatus) BootTime() time.Time {
	return time.Now().UTC().Add(-time.Duration(s.UpTime) * time.Second)
}

// Switch is the merged view of one device switch, combining capability
// fields from /api/switch/caps with state fields from /api/switch/status
type Switch struct {
	ID      int    `json:"id"`      // Switch number (1-based)
	Enabled bool   `json:"enabled"` // Configured for use on the device
	Mode    string `json:"mode"`    // "monostable" or "bistable"
	Active  bool   `json:"active"`  // Currently switched on
	Locked  bool   `json:"locked"`  // Locked against activation
	Held    bool   `json:"held"`    // Held in the on state
}

// Raw rows from the switch endpoints, merged into Switch by the client

type switchCap struct {
	Switch  int    `json:"switch"`
	Enabled bool   `json:"enabled"`
	Mode    string `json:"mode"`
}

type switchCapsResult struct {
	Switches []switchCap `json:"switches"`
}

type switchStatusRow struct {
	Switch int  `json:"switch"`
	Active bool `json:"active"`
	Locked bool `json:"locked"`
	Held   bool `json:"held"`
}

type switchStatusResult struct {
	Switches []switchStatusRow `json:"switches"`
}

// Port types reported by /api/io/caps
const (
	PortTypeInput  = "input"
	PortTypeOutput = "output"
)

// Port is the merged view of one logic input/output, combining
// /api/io/caps with /api/io/status
type Port struct {
	ID    string `json:"id"`    // Port identifier (e.g. "relay1", "led_secured")
	Type  string `json:"type"`  // PortTypeInput or PortTypeOutput
	State int    `json:"state"` // Logic level, 0 or 1
}

type portCap struct {
	Port string `json:"port"`
	Type string `json:"type"`
}

type portCapsResult struct {
	Ports []portCap `json:"ports"`
}

type portStatusRow struct {
	Port  string `json:"port"`
	State int    `json:"state"`
}

type portStatusResult struct {
	Ports []portStatusRow `json:"ports"`
}

// DeviceInfo is the identity snapshot a Device caches at construction
// and refreshes on Update
type DeviceInfo struct {
	Name     string    `json:"name"`     // User-configured device name
	Model    string    `json:"model"`    // Product model (variant)
	Serial   string    `json:"serial"`   // Serial number
	Host     string    `json:"host"`     // Host the snapshot was fetched from
	MAC      string    `json:"mac"`      // MAC address
	Firmware string    `json:"firmware"` // Firmware version-buildType
	Hardware string    `json:"hardware"` // Hardware revision
	BootTime time.Time `json:"bootTime"` // Boot instant derived from uptime
	Switches []Switch  `json:"switches,omitempty"`
	Ports    []Port    `json:"ports,omitempty"`
}

// newDeviceInfo assembles the snapshot from the raw endpoint payloads
func newDeviceInfo(host string, info SystemInfo, status SystemStatus, switches []Switch, ports []Port) DeviceInfo {
	return DeviceInfo{
		Name:     info.DeviceName,
		Model:    info.Variant,
		Serial:   info.SerialNumber,
		Host:     host,
		MAC:      info.MACAddr,
		Firmware: info.Firmware(),
		Hardware: info.HWVersion,
		BootTime: status.BootTime(),
		Switches: switches,
		Ports:    ports,
	}
}

// Uptime returns how long the device has been running
func (d DeviceInfo) Uptime() time.Duration {
	return time.Since(d.BootTime)
}

// Summary returns a one-line summary of the device
func (d DeviceInfo) Summary() string {
	return fmt.Sprintf("%s %s @ %s (FW: %s)", d.Model, d.Serial, d.Host, d.Firmware)
}

// Event is one entry from the device event log (/api/log/pull)
type Event struct {
	ID      int             `json:"id"`               // Monotonic event id within the log
	TZShift int             `json:"tzShift"`          // Device timezone offset in minutes
	UTCTime int64           `json:"utcTime"`          // Event time, Unix seconds UTC
	UpTime  int64           `json:"upTime"`           // Device uptime at the event, seconds
	Type    string          `json:"event"`            // Event type name (e.g. "KeyPressed")
	Params  json.RawMessage `json:"params,omitempty"` // Type-specific parameters
}

// Time returns the event timestamp as a time.Time
func (e Event) Time() time.Time {
	return time.Unix(e.UTCTime, 0).UTC()
}

type eventCapsResult struct {
	Events []string `json:"events"`
}

type subscribeResult struct {
	ID uint64 `json:"id"`
}

type eventPullResult struct {
	Events []Event `json:"events"`
}
