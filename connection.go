package go2n

import "fmt"

// AuthMethod selects the HTTP authentication scheme used for device requests
type AuthMethod string

const (
	// AuthBasic sends credentials with every request in an Authorization header
	AuthBasic AuthMethod = "basic"
	// AuthDigest answers the device's challenge with a computed digest response
	AuthDigest AuthMethod = "digest"
)

// Protocol selects the URL scheme used for device requests
type Protocol string

const (
	ProtocolHTTP  Protocol = "http"
	ProtocolHTTPS Protocol = "https"
)

// ConnectionData captures how to reach and authenticate to a device.
// It is constructed once by NewConnectionData and treated as immutable
// afterwards; a Device keeps its own copy.
type ConnectionData struct {
	// Host is the device hostname or IP address, optionally with a port
	// (e.g. "192.168.1.69" or "intercom.local:8080")
	Host string

	// Username for device authentication (empty for anonymous access)
	Username string

	// Password for device authentication. Never logged and excluded
	// from String output.
	Password string

	// AuthMethod is the authentication scheme (default AuthBasic)
	AuthMethod AuthMethod

	// Protocol is the URL scheme (default ProtocolHTTP)
	Protocol Protocol

	// SSLVerify controls certificate verification for HTTPS connections
	// (default false, matching factory-default self-signed device certs)
	SSLVerify bool
}

// ConnectionOption customizes a ConnectionData under construction
type ConnectionOption func(*ConnectionData) error

// WithAuthMethod sets the authentication scheme
func WithAuthMethod(method AuthMethod) ConnectionOption {
	return func(c *ConnectionData) error {
		c.AuthMethod = method
		return nil
	}
}

// WithProtocol sets the URL scheme
func WithProtocol(protocol Protocol) ConnectionOption {
	return func(c *ConnectionData) error {
		c.Protocol = protocol
		return nil
	}
}

// WithSSLVerify enables certificate verification for HTTPS connections
func WithSSLVerify(verify bool) ConnectionOption {
	return func(c *ConnectionData) error {
		c.SSLVerify = verify
		return nil
	}
}

// NewConnectionData builds a validated ConnectionData. Username and
// password must be supplied together; either both empty (anonymous) or
// both set. Unrecognized AuthMethod or Protocol values fail with a
// configuration error.
func NewConnectionData(host, username, password string, opts ...ConnectionOption) (ConnectionData, error) {
	conn := ConnectionData{
		Host:       host,
		Username:   username,
		Password:   password,
		AuthMethod: AuthBasic,
		Protocol:   ProtocolHTTP,
		SSLVerify:  false,
	}

	for _, opt := range opts {
		if err := opt(&conn); err != nil {
			return ConnectionData{}, err
		}
	}

	if err := conn.validate(); err != nil {
		return ConnectionData{}, err
	}

	return conn, nil
}

// validate checks the invariants NewConnectionData promises
func (c ConnectionData) validate() error {
	if c.Host == "" {
		return NewConfigurationError("host must not be empty")
	}

	switch c.AuthMethod {
	case AuthBasic, AuthDigest:
	default:
		return NewConfigurationError(fmt.Sprintf("unsupported auth method: %q", string(c.AuthMethod)))
	}

	switch c.Protocol {
	case ProtocolHTTP, ProtocolHTTPS:
	default:
		return NewConfigurationError(fmt.Sprintf("unsupported protocol: %q", string(c.Protocol)))
	}

	if (c.Username == "") != (c.Password == "") {
		return NewConfigurationError("username and password must be supplied together")
	}

	return nil
}

// BaseURL returns the device base URL derived from protocol and host
func (c ConnectionData) BaseURL() string {
	return fmt.Sprintf("%s://%s", c.Protocol, c.Host)
}

// HasCredentials reports whether the connection carries a username/password pair
func (c ConnectionData) HasCredentials() bool {
	return c.Username != ""
}

// String implements fmt.Stringer with the password redacted, so a
// ConnectionData is safe to pass to %v in log output.
func (c ConnectionData) String() string {
	password := ""
	if c.Password != "" {
		password = "********"
	}
	return fmt.Sprintf("ConnectionData{Host: %s, Username: %s, Password: %s, AuthMethod: %s, Protocol: %s, SSLVerify: %v}",
		c.Host, c.Username, password, c.AuthMethod, c.Protocol, c.SSLVerify)
}
