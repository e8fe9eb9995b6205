// Package discovery provides mDNS-based discovery of 2N devices.
//
// 2N intercoms and access units with Bonjour enabled advertise their
// web server as a "_http._tcp" service. The scanner browses for those
// services and keeps the entries that look like 2N hardware, based on
// the advertised instance name and hostname.
//
// # Usage Example
//
//	devices, err := discovery.Discover(10 * time.Second)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	for _, device := range devices {
//	    fmt.Printf("Found: %s at %s\n", device.Name, device.Host())
//	}
//
// A discovered device's Host() plugs straight into go2n.NewConnectionData.
//
// # Network Requirements
//
//   - Multicast support on the network interface
//   - Devices on the same local network segment
//   - Firewall allowing mDNS (UDP port 5353)
//   - Bonjour enabled on the device (Services > Web Server)
//
// # Thread Safety
//
// This package is safe for concurrent use. Multiple discovery sessions
// can run simultaneously without interference.
package discovery
