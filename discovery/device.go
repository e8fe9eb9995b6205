package discovery

import (
	"fmt"
	"time"
)

// Device represents a discovered 2N device on the network
type Device struct {
	// Name is the advertised mDNS instance name (e.g., "2N IP Verso")
	Name string

	// Hostname is the mDNS hostname (e.g., "2NIPVerso-7C1EB3001122.local.")
	Hostname string

	// IP is the device address, IPv4 preferred
	IP string

	// Port is the advertised web server port (typically 80)
	Port int

	// Metadata contains additional mDNS TXT record data
	Metadata map[string]string

	// DiscoveredAt is when the device was discovered
	DiscoveredAt time.Time
}

// String returns a human-readable string representation of the device
func (d *Device) String() string {
	return fmt.Sprintf("%s (%s) at %s:%d", d.Name, d.Hostname, d.IP, d.Port)
}

// Host returns the address in the form go2n.NewConnectionData accepts:
// the bare IP on the default HTTP port, ip:port otherwise
func (d *Device) Host() string {
	if d.Port == DefaultPort {
		return d.IP
	}
	return fmt.Sprintf("%s:%d", d.IP, d.Port)
}

// GetMetadata retrieves a TXT record value by key, or returns empty string if not found
func (d *Device) GetMetadata(key string) string {
	if d.Metadata == nil {
		return ""
	}
	return d.Metadata[key]
}
