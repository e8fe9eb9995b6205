package registry

import (
	"fmt"
	"sort"
	"time"
)

// Registry represents the entire user configuration file.
// This stores known devices under user-chosen aliases and application preferences.
type Registry struct {
	Version     int                `yaml:"version"`
	Devices     map[string]*Device `yaml:"devices,omitempty"` // Keyed by user-chosen alias
	Preferences *Preferences       `yaml:"preferences,omitempty"`
}

// Device represents one registered 2N device: how to reach it, and the
// identity cached from the last successful connection.
type Device struct {
	Host       string `yaml:"host"`                  // IP or hostname, optionally with port
	Username   string `yaml:"username,omitempty"`    // Account for the HTTP API
	AuthMethod string `yaml:"auth_method,omitempty"` // "basic" (default) or "digest"
	Protocol   string `yaml:"protocol,omitempty"`    // "http" (default) or "https"
	SSLVerify  bool   `yaml:"ssl_verify,omitempty"`  // Verify HTTPS certificates

	// Identity cached from the last successful connection
	Model    string    `yaml:"model,omitempty"`
	Serial   string    `yaml:"serial,omitempty"`
	Firmware string    `yaml:"firmware,omitempty"`
	MAC      string    `yaml:"mac,omitempty"`
	LastSeen time.Time `yaml:"last_seen,omitempty"`

	// User labels for switches and IO ports
	SwitchLabels map[int]string    `yaml:"switch_labels,omitempty"`
	PortLabels   map[string]string `yaml:"port_labels,omitempty"`
}

// Preferences represents application-wide user preferences.
type Preferences struct {
	DefaultDevice   string     `yaml:"default_device,omitempty"` // Alias used when no device is named
	DiscoverTimeout int        `yaml:"discover_timeout"`         // mDNS discovery timeout in seconds
	DefaultAuth     *AuthPrefs `yaml:"default_auth,omitempty"`   // Default authentication preferences
}

// AuthPrefs represents default authentication preferences.
// Note: Passwords are NEVER stored - they are always prompted from the user.
type AuthPrefs struct {
	Username string `yaml:"username"` // Default username (e.g., "admin")
	// Password is NEVER stored in config file for security reasons
}

// NewRegistry creates a new Registry with default values.
func NewRegistry() *Registry {
	return &Registry{
		Version: 1,
		Devices: make(map[string]*Device),
		Preferences: &Preferences{
			DiscoverTimeout: 10,
			DefaultAuth: &AuthPrefs{
				Username: "admin",
			},
		},
	}
}

// GetDevice retrieves a device entry by alias.
// Returns nil if the alias doesn't exist in the registry.
func (r *Registry) GetDevice(alias string) *Device {
	return r.Devices[alias]
}

// AddDevice registers a host under an alias, creating or replacing the entry.
// Returns the entry for further configuration.
func (r *Registry) AddDevice(alias, host string) *Device {
	if r.Devices == nil {
		r.Devices = make(map[string]*Device)
	}

	device := &Device{Host: host}
	r.Devices[alias] = device
	return device
}

// EnsureDevice ensures a device entry exists for the alias.
// If the alias doesn't exist, creates a new empty entry.
// Returns the device entry (existing or newly created).
func (r *Registry) EnsureDevice(alias string) *Device {
	if r.Devices == nil {
		r.Devices = make(map[string]*Device)
	}

	if device, exists := r.Devices[alias]; exists {
		return device
	}

	device := &Device{}
	r.Devices[alias] = device
	return device
}

// RemoveDevice deletes an alias from the registry.
// Returns true if the alias existed.
func (r *Registry) RemoveDevice(alias string) bool {
	if _, exists := r.Devices[alias]; !exists {
		return false
	}
	delete(r.Devices, alias)

	if r.Preferences != nil && r.Preferences.DefaultDevice == alias {
		r.Preferences.DefaultDevice = ""
	}
	return true
}

// Aliases returns the registered aliases in sorted order.
func (r *Registry) Aliases() []string {
	aliases := make([]string, 0, len(r.Devices))
	for alias := range r.Devices {
		aliases = append(aliases, alias)
	}
	sort.Strings(aliases)
	return aliases
}

// Resolve maps a device argument to a connection target. The argument
// may be a registered alias, empty (falls back to the default device),
// or a raw host/IP. The returned alias is empty when the target is not
// a registered device.
func (r *Registry) Resolve(nameOrHost string) (string, *Device, error) {
	if nameOrHost == "" {
		def := r.DefaultDevice()
		if def == "" {
			return "", nil, fmt.Errorf("no device given and no default device configured")
		}
		device := r.GetDevice(def)
		if device == nil {
			return "", nil, fmt.Errorf("default device %q is not registered", def)
		}
		return def, device, nil
	}

	if device := r.GetDevice(nameOrHost); device != nil {
		if device.Host == "" {
			return "", nil, fmt.Errorf("device %q has no host configured", nameOrHost)
		}
		return nameOrHost, device, nil
	}

	// Not a registered alias, treat it as a raw host or IP
	return "", &Device{Host: nameOrHost}, nil
}

// UpdateDeviceIdentity caches the identity fetched from a device and
// stamps the last seen time.
func (r *Registry) UpdateDeviceIdentity(alias, model, serial, firmware, mac string) {
	device := r.EnsureDevice(alias)
	device.Model = model
	device.Serial = serial
	device.Firmware = firmware
	device.MAC = mac
	device.LastSeen = time.Now()
}

// SetSwitchLabel sets or updates the user label for a switch.
func (r *Registry) SetSwitchLabel(alias string, switchID int, label string) {
	device := r.EnsureDevice(alias)

	if device.SwitchLabels == nil {
		device.SwitchLabels = make(map[int]string)
	}
	device.SwitchLabels[switchID] = label
}

// SetPortLabel sets or updates the user label for an IO port.
func (r *Registry) SetPortLabel(alias string, portID string, label string) {
	device := r.EnsureDevice(alias)

	if device.PortLabels == nil {
		device.PortLabels = make(map[string]string)
	}
	device.PortLabels[portID] = label
}

// SetDefaultDevice records the alias to use when no device is named.
func (r *Registry) SetDefaultDevice(alias string) {
	if r.Preferences == nil {
		r.Preferences = &Preferences{DiscoverTimeout: 10}
	}
	r.Preferences.DefaultDevice = alias
}

// DefaultDevice returns the configured default alias, or empty.
func (r *Registry) DefaultDevice() string {
	if r.Preferences == nil {
		return ""
	}
	return r.Preferences.DefaultDevice
}

// SwitchLabel returns the user label for a switch, or empty.
func (d *Device) SwitchLabel(switchID int) string {
	if d == nil || d.SwitchLabels == nil {
		return ""
	}
	return d.SwitchLabels[switchID]
}

// PortLabel returns the user label for an IO port, or empty.
func (d *Device) PortLabel(portID string) string {
	if d == nil || d.PortLabels == nil {
		return ""
	}
	return d.PortLabels[portID]
}
