// Package registry provides user configuration management for the go2n tools.
//
// This package manages a YAML-based configuration file that stores known
// 2N devices under user-chosen aliases, together with connection settings,
// cached identity and application preferences. The configuration follows
// OS-specific conventions for storage location.
//
// # Configuration File Location
//
// The configuration file is stored in platform-appropriate locations:
//   - Linux: $XDG_CONFIG_HOME/go2n/config.yaml or $HOME/.config/go2n/config.yaml
//   - macOS: $HOME/.config/go2n/config.yaml
//   - Windows: %LOCALAPPDATA%\go2n\config.yaml
//
// # Security
//
// IMPORTANT: This package NEVER stores device passwords. Credentials are
// always prompted or taken from the environment when needed.
//
// # Usage Example
//
//	// Load the global registry
//	reg, err := registry.LoadRegistry()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Register a device under an alias
//	reg.AddDevice("front-door", "192.168.1.69")
//	reg.GetDevice("front-door").Username = "admin"
//
//	// Save changes atomically
//	if err := reg.Save(); err != nil {
//	    log.Fatal(err)
//	}
//
// # Thread Safety
//
// The global registry uses sync.Once for safe initialization across goroutines.
// File operations are protected by a mutex to ensure atomic writes.
package registry
