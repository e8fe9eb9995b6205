package registry

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"
)

func TestGetConfigDir(t *testing.T) {
	configDir, err := GetConfigDir()
	if err != nil {
		t.Fatalf("GetConfigDir() error = %v", err)
	}

	if configDir == "" {
		t.Error("GetConfigDir() returned empty string")
	}

	if !strings.Contains(configDir, "go2n") {
		t.Errorf("GetConfigDir() = %v, should contain 'go2n'", configDir)
	}

	// Platform-specific checks
	switch runtime.GOOS {
	case "windows":
		if !strings.Contains(configDir, "AppData") && !strings.Contains(configDir, "Local") {
			t.Errorf("Windows config dir should contain 'AppData' or 'Local', got: %v", configDir)
		}
	case "darwin", "linux":
		if !strings.Contains(configDir, ".config") {
			t.Errorf("Unix config dir should contain '.config', got: %v", configDir)
		}
	}

	t.Logf("Config directory: %s", configDir)
}

func TestGetConfigPath(t *testing.T) {
	configPath, err := GetConfigPath()
	if err != nil {
		t.Fatalf("GetConfigPath() error = %v", err)
	}

	if filepath.Base(configPath) != "config.yaml" {
		t.Errorf("GetConfigPath() should end with 'config.yaml', got: %v", configPath)
	}

	t.Logf("Config path: %s", configPath)
}

func TestNewRegistry(t *testing.T) {
	reg := NewRegistry()

	if reg.Version != 1 {
		t.Errorf("NewRegistry().Version = %v, want 1", reg.Version)
	}

	if reg.Devices == nil {
		t.Error("NewRegistry().Devices should not be nil")
	}

	if reg.Preferences == nil {
		t.Fatal("NewRegistry().Preferences should not be nil")
	}

	if reg.Preferences.DiscoverTimeout != 10 {
		t.Errorf("NewRegistry().Preferences.DiscoverTimeout = %v, want 10", reg.Preferences.DiscoverTimeout)
	}

	if reg.Preferences.DefaultAuth == nil || reg.Preferences.DefaultAuth.Username != "admin" {
		t.Error("NewRegistry() should default the auth username to admin")
	}
}

func TestRegistryAddDevice(t *testing.T) {
	reg := NewRegistry()

	device := reg.AddDevice("front-door", "192.168.1.69")
	if device == nil {
		t.Fatal("AddDevice() returned nil")
	}

	if device.Host != "192.168.1.69" {
		t.Errorf("Host = %v, want 192.168.1.69", device.Host)
	}

	if reg.GetDevice("front-door") != device {
		t.Error("GetDevice() should return the added entry")
	}

	// Adding again replaces the entry
	replaced := reg.AddDevice("front-door", "10.0.0.5")
	if reg.GetDevice("front-door") != replaced {
		t.Error("AddDevice() should replace an existing entry")
	}
	if reg.GetDevice("front-door").Host != "10.0.0.5" {
		t.Errorf("Host after replace = %v, want 10.0.0.5", reg.GetDevice("front-door").Host)
	}
}

func TestRegistryEnsureDevice(t *testing.T) {
	reg := NewRegistry()

	// First call should create device
	device1 := reg.EnsureDevice("front-door")
	if device1 == nil {
		t.Fatal("EnsureDevice() returned nil")
	}

	// Second call should return same device
	device2 := reg.EnsureDevice("front-door")
	if device1 != device2 {
		t.Error("EnsureDevice() should return same instance for same alias")
	}

	// Different alias should create new device
	device3 := reg.EnsureDevice("back-gate")
	if device1 == device3 {
		t.Error("EnsureDevice() should create new instance for different alias")
	}
}

func TestRegistryRemoveDevice(t *testing.T) {
	reg := NewRegistry()
	reg.AddDevice("front-door", "192.168.1.69")
	reg.SetDefaultDevice("front-door")

	if !reg.RemoveDevice("front-door") {
		t.Error("RemoveDevice() should report an existing alias")
	}
	if reg.GetDevice("front-door") != nil {
		t.Error("Device should be gone after RemoveDevice()")
	}
	if reg.DefaultDevice() != "" {
		t.Error("Removing the default device should clear the default")
	}

	if reg.RemoveDevice("front-door") {
		t.Error("RemoveDevice() should report a missing alias")
	}
}

func TestRegistryAliases(t *testing.T) {
	reg := NewRegistry()
	reg.AddDevice("garage", "10.0.0.3")
	reg.AddDevice("front-door", "10.0.0.1")
	reg.AddDevice("back-gate", "10.0.0.2")

	aliases := reg.Aliases()
	want := []string{"back-gate", "front-door", "garage"}

	if len(aliases) != len(want) {
		t.Fatalf("Aliases() returned %d entries, want %d", len(aliases), len(want))
	}
	for i := range want {
		if aliases[i] != want[i] {
			t.Errorf("Aliases()[%d] = %v, want %v (sorted)", i, aliases[i], want[i])
		}
	}
}

func TestRegistryUpdateDeviceIdentity(t *testing.T) {
	reg := NewRegistry()

	before := time.Now()
	reg.UpdateDeviceIdentity("front-door", "2N IP Verso", "54-0956-0004", "2.43.0.45.5-release", "7C-1E-B3-00-11-22")
	after := time.Now()

	device := reg.GetDevice("front-door")
	if device == nil {
		t.Fatal("Device should exist after UpdateDeviceIdentity()")
	}

	if device.Model != "2N IP Verso" {
		t.Errorf("Model = %v, want 2N IP Verso", device.Model)
	}
	if device.Serial != "54-0956-0004" {
		t.Errorf("Serial = %v, want 54-0956-0004", device.Serial)
	}
	if device.Firmware != "2.43.0.45.5-release" {
		t.Errorf("Firmware = %v, want 2.43.0.45.5-release", device.Firmware)
	}

	if device.LastSeen.Before(before) || device.LastSeen.After(after) {
		t.Errorf("LastSeen = %v, should be between %v and %v", device.LastSeen, before, after)
	}
}

func TestRegistrySwitchAndPortLabels(t *testing.T) {
	reg := NewRegistry()

	reg.SetSwitchLabel("front-door", 1, "Door Lock")
	reg.SetPortLabel("front-door", "relay1", "Gate Relay")

	device := reg.GetDevice("front-door")
	if device == nil {
		t.Fatal("Device should exist after SetSwitchLabel()")
	}

	if device.SwitchLabel(1) != "Door Lock" {
		t.Errorf("SwitchLabel(1) = %v, want 'Door Lock'", device.SwitchLabel(1))
	}
	if device.SwitchLabel(2) != "" {
		t.Errorf("SwitchLabel(2) = %v, want empty", device.SwitchLabel(2))
	}
	if device.PortLabel("relay1") != "Gate Relay" {
		t.Errorf("PortLabel(relay1) = %v, want 'Gate Relay'", device.PortLabel("relay1"))
	}

	var missing *Device
	if missing.SwitchLabel(1) != "" {
		t.Error("SwitchLabel on nil device should return empty")
	}
}

func TestRegistryResolve(t *testing.T) {
	reg := NewRegistry()
	reg.AddDevice("front-door", "192.168.1.69")

	t.Run("registered alias", func(t *testing.T) {
		alias, device, err := reg.Resolve("front-door")
		if err != nil {
			t.Fatalf("Resolve() error = %v", err)
		}
		if alias != "front-door" {
			t.Errorf("alias = %v, want front-door", alias)
		}
		if device.Host != "192.168.1.69" {
			t.Errorf("Host = %v, want 192.168.1.69", device.Host)
		}
	})

	t.Run("raw host", func(t *testing.T) {
		alias, device, err := reg.Resolve("10.0.0.5:8080")
		if err != nil {
			t.Fatalf("Resolve() error = %v", err)
		}
		if alias != "" {
			t.Errorf("alias for raw host = %v, want empty", alias)
		}
		if device.Host != "10.0.0.5:8080" {
			t.Errorf("Host = %v, want 10.0.0.5:8080", device.Host)
		}
	})

	t.Run("empty without default", func(t *testing.T) {
		if _, _, err := reg.Resolve(""); err == nil {
			t.Error("Resolve(\"\") should fail when no default device is set")
		}
	})

	t.Run("empty with default", func(t *testing.T) {
		reg.SetDefaultDevice("front-door")
		alias, device, err := reg.Resolve("")
		if err != nil {
			t.Fatalf("Resolve() error = %v", err)
		}
		if alias != "front-door" {
			t.Errorf("alias = %v, want front-door", alias)
		}
		if device.Host != "192.168.1.69" {
			t.Errorf("Host = %v, want 192.168.1.69", device.Host)
		}
	})

	t.Run("stale default", func(t *testing.T) {
		stale := NewRegistry()
		stale.Preferences.DefaultDevice = "ghost"
		if _, _, err := stale.Resolve(""); err == nil {
			t.Error("Resolve(\"\") should fail for an unregistered default")
		}
	})
}

func TestRegistrySaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	reg := NewRegistry()
	device := reg.AddDevice("front-door", "192.168.1.69")
	device.Username = "admin"
	device.AuthMethod = "digest"
	device.Protocol = "https"
	device.SSLVerify = true
	reg.SetSwitchLabel("front-door", 1, "Door Lock")
	reg.SetDefaultDevice("front-door")

	if err := reg.saveTo(path); err != nil {
		t.Fatalf("saveTo() error = %v", err)
	}

	loaded, err := loadRegistryFile(path)
	if err != nil {
		t.Fatalf("loadRegistryFile() error = %v", err)
	}

	got := loaded.GetDevice("front-door")
	if got == nil {
		t.Fatal("Device should exist in loaded registry")
	}

	if got.Host != "192.168.1.69" {
		t.Errorf("Loaded host = %v, want 192.168.1.69", got.Host)
	}
	if got.Username != "admin" {
		t.Errorf("Loaded username = %v, want admin", got.Username)
	}
	if got.AuthMethod != "digest" {
		t.Errorf("Loaded auth method = %v, want digest", got.AuthMethod)
	}
	if !got.SSLVerify {
		t.Error("Loaded ssl_verify should be true")
	}
	if got.SwitchLabel(1) != "Door Lock" {
		t.Errorf("Loaded switch label = %v, want 'Door Lock'", got.SwitchLabel(1))
	}
	if loaded.DefaultDevice() != "front-door" {
		t.Errorf("Loaded default device = %v, want front-door", loaded.DefaultDevice())
	}
}

func TestLoadRegistryFile_Missing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "does-not-exist.yaml")

	reg, err := loadRegistryFile(path)
	if err != nil {
		t.Fatalf("loadRegistryFile() error = %v", err)
	}

	if reg.Version != 1 {
		t.Errorf("Missing file should yield a default registry, got version %d", reg.Version)
	}
	if len(reg.Devices) != 0 {
		t.Errorf("Default registry should have no devices, got %d", len(reg.Devices))
	}
}

func TestLoadRegistryFile_BadVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	reg := NewRegistry()
	reg.Version = 99
	if err := reg.saveTo(path); err != nil {
		t.Fatalf("saveTo() error = %v", err)
	}

	if _, err := loadRegistryFile(path); err == nil {
		t.Error("Expected error for unsupported config version")
	}
}

// The config file must never contain a password, whatever the caller
// stuffs into the registry structures.
func TestSaveNeverWritesPasswords(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	reg := NewRegistry()
	device := reg.AddDevice("front-door", "192.168.1.69")
	device.Username = "admin"

	if err := reg.saveTo(path); err != nil {
		t.Fatalf("saveTo() error = %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading config: %v", err)
	}
	data := string(raw)

	if strings.Contains(data, "password:") {
		t.Errorf("Config file mentions a password field:\n%s", data)
	}
	if !strings.Contains(data, "passwords are NEVER stored") {
		t.Error("Config header should carry the security note")
	}
}

func BenchmarkEnsureDevice(b *testing.B) {
	reg := NewRegistry()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		reg.EnsureDevice("front-door")
	}
}
