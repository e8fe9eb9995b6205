package discovery

import (
	"net"
	"testing"
	"time"

	"github.com/grandcat/zeroconf"
)

func entryWithInstance(instance, hostname string) *zeroconf.ServiceEntry {
	return &zeroconf.ServiceEntry{
		ServiceRecord: zeroconf.ServiceRecord{Instance: instance},
		HostName:      hostname,
		Port:          80,
		AddrIPv4:      []net.IP{net.ParseIP("192.168.1.69")},
	}
}

func TestParseServiceEntry(t *testing.T) {
	tests := []struct {
		name     string
		entry    *zeroconf.ServiceEntry
		wantNil  bool
		wantIP   string
		wantPort int
	}{
		{
			name: "factory-default hostname with IPv4",
			entry: &zeroconf.ServiceEntry{
				HostName: "2NIPVerso-7C1EB3001122.local.",
				Port:     80,
				AddrIPv4: []net.IP{net.ParseIP("192.168.1.69")},
				Text:     []string{"path=/"},
			},
			wantIP:   "192.168.1.69",
			wantPort: 80,
		},
		{
			name: "hostname without trailing dot",
			entry: &zeroconf.ServiceEntry{
				HostName: "2NAccessUnit-000000000000.local",
				Port:     80,
				AddrIPv4: []net.IP{net.ParseIP("10.0.0.5")},
			},
			wantIP:   "10.0.0.5",
			wantPort: 80,
		},
		{
			name: "custom port",
			entry: &zeroconf.ServiceEntry{
				HostName: "2NIPStyle-AABBCCDDEEFF.local",
				Port:     8080,
				AddrIPv4: []net.IP{net.ParseIP("192.168.1.100")},
			},
			wantIP:   "192.168.1.100",
			wantPort: 8080,
		},
		{
			name: "no port advertised defaults to 80",
			entry: &zeroconf.ServiceEntry{
				HostName: "2NIPVerso-7C1EB3001122.local",
				Port:     0,
				AddrIPv4: []net.IP{net.ParseIP("172.16.0.1")},
			},
			wantIP:   "172.16.0.1",
			wantPort: 80,
		},
		{
			name:     "renamed device matched by instance name",
			entry:    entryWithInstance("2N IP Verso Front Door", "frontdoor.local."),
			wantIP:   "192.168.1.69",
			wantPort: 80,
		},
		{
			name: "non-2N device",
			entry: &zeroconf.ServiceEntry{
				ServiceRecord: zeroconf.ServiceRecord{Instance: "Office Printer"},
				HostName:      "printer.local",
				Port:          80,
				AddrIPv4:      []net.IP{net.ParseIP("192.168.1.1")},
			},
			wantNil: true,
		},
		{
			name: "empty hostname and instance",
			entry: &zeroconf.ServiceEntry{
				HostName: "",
				Port:     80,
				AddrIPv4: []net.IP{net.ParseIP("192.168.1.1")},
			},
			wantNil: true,
		},
		{
			name: "no IP address",
			entry: &zeroconf.ServiceEntry{
				HostName: "2NIPVerso-7C1EB3001122.local",
				Port:     80,
			},
			wantNil: true,
		},
		{
			name: "IPv6 only device",
			entry: &zeroconf.ServiceEntry{
				HostName: "2NIPVerso-7C1EB3001122.local",
				Port:     80,
				AddrIPv6: []net.IP{net.ParseIP("fe80::1")},
			},
			wantIP:   "fe80::1",
			wantPort: 80,
		},
		{
			name: "both address families prefers IPv4",
			entry: &zeroconf.ServiceEntry{
				HostName: "2NIPVerso-7C1EB3001122.local",
				Port:     80,
				AddrIPv4: []net.IP{net.ParseIP("192.168.1.50")},
				AddrIPv6: []net.IP{net.ParseIP("fe80::2")},
			},
			wantIP:   "192.168.1.50",
			wantPort: 80,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			device := parseServiceEntry(tt.entry)

			if tt.wantNil {
				if device != nil {
					t.Errorf("parseServiceEntry() = %v, want nil", device)
				}
				return
			}

			if device == nil {
				t.Fatal("parseServiceEntry() = nil, want device")
			}

			if device.IP != tt.wantIP {
				t.Errorf("device.IP = %v, want %v", device.IP, tt.wantIP)
			}

			if device.Port != tt.wantPort {
				t.Errorf("device.Port = %v, want %v", device.Port, tt.wantPort)
			}

			if device.Hostname != tt.entry.HostName {
				t.Errorf("device.Hostname = %v, want %v", device.Hostname, tt.entry.HostName)
			}

			if time.Since(device.DiscoveredAt) > time.Second {
				t.Errorf("device.DiscoveredAt is not recent: %v", device.DiscoveredAt)
			}
		})
	}
}

func TestParseServiceEntry_Metadata(t *testing.T) {
	entry := &zeroconf.ServiceEntry{
		HostName: "2NIPVerso-7C1EB3001122.local",
		Port:     80,
		AddrIPv4: []net.IP{net.ParseIP("192.168.1.69")},
		Text:     []string{"path=/", "flag", "version=2.43"},
	}

	device := parseServiceEntry(entry)
	if device == nil {
		t.Fatal("parseServiceEntry() = nil, want device")
	}

	expectedMetadata := map[string]string{
		"path":    "/",
		"flag":    "", // Key without value
		"version": "2.43",
	}

	if len(device.Metadata) != len(expectedMetadata) {
		t.Errorf("device.Metadata has %d entries, want %d", len(device.Metadata), len(expectedMetadata))
	}

	for key, expectedValue := range expectedMetadata {
		if actualValue, ok := device.Metadata[key]; !ok {
			t.Errorf("device.Metadata missing key %q", key)
		} else if actualValue != expectedValue {
			t.Errorf("device.Metadata[%q] = %q, want %q", key, actualValue, expectedValue)
		}
	}
}

func TestNewScanner(t *testing.T) {
	scanner := NewScanner()

	if scanner == nil {
		t.Fatal("NewScanner() = nil, want scanner")
	}

	if scanner.Timeout != DefaultScanTimeout {
		t.Errorf("scanner.Timeout = %v, want %v", scanner.Timeout, DefaultScanTimeout)
	}
}

func TestHostnamePattern(t *testing.T) {
	tests := []struct {
		hostname    string
		shouldMatch bool
	}{
		{"2NIPVerso-7C1EB3001122.local", true},
		{"2NIPVerso-7C1EB3001122.local.", true},
		{"2NIPStyle-AABBCCDDEEFF.local", true},
		{"2NAccessUnit-000000000000.local", true},
		{"2NIndoorTalk-1.local", true},
		{"2n-lowercase.local", false}, // factory hostnames keep the 2N prefix uppercase
		{"2N.local", false},           // prefix alone is not a device
		{"frontdoor.local", false},
		{"2NIPVerso-7C1EB3001122", false}, // missing .local
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.hostname, func(t *testing.T) {
			if got := hostnamePattern.MatchString(tt.hostname); got != tt.shouldMatch {
				t.Errorf("hostnamePattern.MatchString(%q) = %v, want %v", tt.hostname, got, tt.shouldMatch)
			}
		})
	}
}

func TestDeviceMatches(t *testing.T) {
	device := &Device{
		Name:     "2N IP Verso Front Door",
		Hostname: "2NIPVerso-7C1EB3001122.local.",
	}

	tests := []struct {
		name  string
		query string
		want  bool
	}{
		{"instance substring", "front door", true},
		{"full instance", "2N IP Verso Front Door", true},
		{"hostname without domain", "2nipverso-7c1eb3001122", true},
		{"hostname substring", "7c1eb300", true},
		{"no match", "back gate", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := deviceMatches(device, tt.query); got != tt.want {
				t.Errorf("deviceMatches(%q) = %v, want %v", tt.query, got, tt.want)
			}
		})
	}
}

func TestDeviceHost(t *testing.T) {
	tests := []struct {
		name   string
		device Device
		want   string
	}{
		{"default port", Device{IP: "192.168.1.69", Port: 80}, "192.168.1.69"},
		{"custom port", Device{IP: "192.168.1.69", Port: 8080}, "192.168.1.69:8080"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.device.Host(); got != tt.want {
				t.Errorf("Host() = %q, want %q", got, tt.want)
			}
		})
	}
}
