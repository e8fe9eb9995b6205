package discovery

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/grandcat/zeroconf"
)

const (
	// ServiceType is the mDNS service type 2N devices advertise their
	// web server under
	ServiceType = "_http._tcp"

	// ServiceDomain is the mDNS domain (typically "local.")
	ServiceDomain = "local."

	// DefaultScanTimeout is the default timeout for device discovery
	DefaultScanTimeout = 10 * time.Second

	// DefaultPort is the default HTTP port for 2N devices
	DefaultPort = 80
)

// hostnamePattern matches factory-default 2N hostnames
// (e.g., "2NIPVerso-7C1EB3001122.local.")
var hostnamePattern = regexp.MustCompile(`^2N[\w-]+\.local\.?$`)

// Scanner handles mDNS device discovery
type Scanner struct {
	// Timeout bounds a scan when the context carries no deadline of
	// its own
	Timeout time.Duration
}

// NewScanner creates a new mDNS scanner with default settings
func NewScanner() *Scanner {
	return &Scanner{
		Timeout: DefaultScanTimeout,
	}
}

// Scan browses the local network and returns every 2N device that
// answered before the timeout. Devices announcing on multiple
// interfaces are reported once.
func (s *Scanner) Scan(ctx context.Context) ([]*Device, error) {
	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create mDNS resolver: %w", err)
	}

	entries := make(chan *zeroconf.ServiceEntry)
	devices := make([]*Device, 0)
	seen := make(map[string]bool)

	// The resolver closes the entries channel when the context ends;
	// done marks that every entry has been collected.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for entry := range entries {
			device := parseServiceEntry(entry)
			if device == nil || seen[device.Hostname] {
				continue
			}
			seen[device.Hostname] = true
			devices = append(devices, device)
		}
	}()

	if err := resolver.Browse(ctx, ServiceType, ServiceDomain, entries); err != nil {
		return nil, fmt.Errorf("failed to browse for mDNS services: %w", err)
	}

	<-done
	return devices, nil
}

// Find waits for one specific device, matched case-insensitively
// against the advertised instance name and the hostname. It returns
// as soon as the device announces itself, or an error at timeout.
func (s *Scanner) Find(ctx context.Context, name string) (*Device, error) {
	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create mDNS resolver: %w", err)
	}

	entries := make(chan *zeroconf.ServiceEntry)
	found := make(chan *Device, 1)

	go func() {
		for entry := range entries {
			device := parseServiceEntry(entry)
			if device != nil && deviceMatches(device, name) {
				found <- device
				cancel()
				return
			}
		}
	}()

	if err := resolver.Browse(ctx, ServiceType, ServiceDomain, entries); err != nil {
		return nil, fmt.Errorf("failed to browse for mDNS services: %w", err)
	}

	select {
	case device := <-found:
		return device, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("device %q not found within timeout", name)
	}
}

// deviceMatches reports whether a discovered device answers to name
func deviceMatches(device *Device, name string) bool {
	name = strings.ToLower(name)
	if strings.Contains(strings.ToLower(device.Name), name) {
		return true
	}
	hostname := strings.TrimSuffix(strings.TrimSuffix(strings.ToLower(device.Hostname), "."), ".local")
	return hostname == name || strings.Contains(hostname, name)
}

// parseServiceEntry converts a zeroconf service entry to a Device.
// Returns nil if the entry does not look like a 2N device.
func parseServiceEntry(entry *zeroconf.ServiceEntry) *Device {
	if !is2NEntry(entry) {
		return nil
	}

	// Prefer IPv4; fall back to IPv6
	var ip string
	for _, addr := range entry.AddrIPv4 {
		ip = addr.String()
		break
	}
	if ip == "" && len(entry.AddrIPv6) > 0 {
		ip = entry.AddrIPv6[0].String()
	}
	if ip == "" {
		return nil
	}

	port := entry.Port
	if port == 0 {
		port = DefaultPort
	}

	// TXT records are "key=value" pairs, keys may appear bare
	metadata := make(map[string]string)
	for _, txt := range entry.Text {
		key, value, _ := strings.Cut(txt, "=")
		metadata[key] = value
	}

	return &Device{
		Name:         entry.Instance,
		Hostname:     entry.HostName,
		IP:           ip,
		Port:         port,
		Metadata:     metadata,
		DiscoveredAt: time.Now(),
	}
}

// is2NEntry identifies 2N hardware among generic "_http._tcp"
// announcements. Factory-default devices match on the hostname;
// renamed devices usually keep a "2N ..." instance name.
func is2NEntry(entry *zeroconf.ServiceEntry) bool {
	if hostnamePattern.MatchString(entry.HostName) {
		return true
	}
	instance := strings.ToLower(entry.Instance)
	return strings.HasPrefix(instance, "2n ") || strings.HasPrefix(instance, "2n-")
}

// Discover is a convenience function to scan for devices with a custom timeout
func Discover(timeout time.Duration) ([]*Device, error) {
	scanner := NewScanner()
	scanner.Timeout = timeout
	return scanner.Scan(context.Background())
}

// QuickScan performs a fast scan with a 3-second timeout
func QuickScan() ([]*Device, error) {
	return Discover(3 * time.Second)
}
