package go2n

import (
	"strings"
	"testing"
)

func TestNewConnectionData_Defaults(t *testing.T) {
	conn, err := NewConnectionData("192.168.1.69", "admin", "secret")
	if err != nil {
		t.Fatalf("NewConnectionData failed: %v", err)
	}

	if conn.Host != "192.168.1.69" {
		t.Errorf("Host = %q, want 192.168.1.69", conn.Host)
	}
	if conn.Username != "admin" {
		t.Errorf("Username = %q, want admin", conn.Username)
	}
	if conn.Password != "secret" {
		t.Errorf("Password = %q, want secret", conn.Password)
	}
	if conn.AuthMethod != AuthBasic {
		t.Errorf("AuthMethod = %q, want %q", conn.AuthMethod, AuthBasic)
	}
	if conn.Protocol != ProtocolHTTP {
		t.Errorf("Protocol = %q, want %q", conn.Protocol, ProtocolHTTP)
	}
	if conn.SSLVerify {
		t.Error("SSLVerify should default to false")
	}
}

func TestNewConnectionData_Options(t *testing.T) {
	conn, err := NewConnectionData("intercom.local", "admin", "secret",
		WithAuthMethod(AuthDigest),
		WithProtocol(ProtocolHTTPS),
		WithSSLVerify(true),
	)
	if err != nil {
		t.Fatalf("NewConnectionData failed: %v", err)
	}

	if conn.AuthMethod != AuthDigest {
		t.Errorf("AuthMethod = %q, want %q", conn.AuthMethod, AuthDigest)
	}
	if conn.Protocol != ProtocolHTTPS {
		t.Errorf("Protocol = %q, want %q", conn.Protocol, ProtocolHTTPS)
	}
	if !conn.SSLVerify {
		t.Error("SSLVerify should be true")
	}
}

func TestNewConnectionData_Validation(t *testing.T) {
	tests := []struct {
		name     string
		host     string
		username string
		password string
		opts     []ConnectionOption
		wantText string
	}{
		{
			name:     "empty host",
			host:     "",
			username: "admin",
			password: "secret",
			wantText: "host must not be empty",
		},
		{
			name:     "unsupported auth method",
			host:     "192.168.1.69",
			username: "admin",
			password: "secret",
			opts:     []ConnectionOption{WithAuthMethod("ntlm")},
			wantText: `unsupported auth method: "ntlm"`,
		},
		{
			name:     "unsupported protocol",
			host:     "192.168.1.69",
			username: "admin",
			password: "secret",
			opts:     []ConnectionOption{WithProtocol("ftp")},
			wantText: `unsupported protocol: "ftp"`,
		},
		{
			name:     "username without password",
			host:     "192.168.1.69",
			username: "admin",
			password: "",
			wantText: "username and password must be supplied together",
		},
		{
			name:     "password without username",
			host:     "192.168.1.69",
			username: "",
			password: "secret",
			wantText: "username and password must be supplied together",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewConnectionData(tt.host, tt.username, tt.password, tt.opts...)
			if err == nil {
				t.Fatal("Expected error, got nil")
			}

			if !IsConfigurationError(err) {
				t.Errorf("Expected configuration error, got %v", err)
			}

			if !strings.Contains(err.Error(), tt.wantText) {
				t.Errorf("Error %q should contain %q", err.Error(), tt.wantText)
			}
		})
	}
}

func TestNewConnectionData_AnonymousAllowed(t *testing.T) {
	conn, err := NewConnectionData("192.168.1.69", "", "")
	if err != nil {
		t.Fatalf("Anonymous connection should be valid: %v", err)
	}

	if conn.HasCredentials() {
		t.Error("HasCredentials() should be false for anonymous connection")
	}
}

func TestConnectionDataBaseURL(t *testing.T) {
	tests := []struct {
		name     string
		host     string
		protocol Protocol
		want     string
	}{
		{"http", "192.168.1.69", ProtocolHTTP, "http://192.168.1.69"},
		{"https", "192.168.1.69", ProtocolHTTPS, "https://192.168.1.69"},
		{"host with port", "intercom.local:8443", ProtocolHTTPS, "https://intercom.local:8443"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conn, err := NewConnectionData(tt.host, "", "", WithProtocol(tt.protocol))
			if err != nil {
				t.Fatalf("NewConnectionData failed: %v", err)
			}
			if got := conn.BaseURL(); got != tt.want {
				t.Errorf("BaseURL() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestConnectionDataString_RedactsPassword(t *testing.T) {
	conn, err := NewConnectionData("192.168.1.69", "admin", "topsecret")
	if err != nil {
		t.Fatalf("NewConnectionData failed: %v", err)
	}

	s := conn.String()

	if strings.Contains(s, "topsecret") {
		t.Errorf("String() leaked the password: %s", s)
	}
	if !strings.Contains(s, "********") {
		t.Errorf("String() should show a redaction marker: %s", s)
	}
	if !strings.Contains(s, "admin") {
		t.Errorf("String() should include the username: %s", s)
	}
}

func TestConnectionDataString_EmptyPassword(t *testing.T) {
	conn, err := NewConnectionData("192.168.1.69", "", "")
	if err != nil {
		t.Fatalf("NewConnectionData failed: %v", err)
	}

	if strings.Contains(conn.String(), "********") {
		t.Error("String() should not show a redaction marker for an empty password")
	}
}
