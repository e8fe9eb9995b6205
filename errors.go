package go2n

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"os"
	"strings"
	"syscall"
)

// Error types for device communication operations

// ErrorType represents the category of error that occurred
type ErrorType int

const (
	// ErrTypeConfiguration indicates invalid connection parameters (empty host, unknown enum value)
	ErrTypeConfiguration ErrorType = iota
	// ErrTypeAuthentication indicates the device rejected the supplied credentials
	ErrTypeAuthentication
	// ErrTypeConnectivity indicates a network-level failure (timeout, DNS, connection refused)
	ErrTypeConnectivity
	// ErrTypeProtocol indicates a malformed or unexpected response body
	ErrTypeProtocol
	// ErrTypeDevice indicates a well-formed error reported by the device itself
	ErrTypeDevice
)

// ConnectivitySubtype provides more specific connectivity error classification
type ConnectivitySubtype int

const (
	ConnectivityGeneral ConnectivitySubtype = iota
	ConnectivityTimeout
	ConnectivityConnectionRefused
	ConnectivityDNS
	ConnectivityHostUnreachable
	ConnectivityNetworkUnreachable
)

// String returns a human-readable name for the error type
func (et ErrorType) String() string {
	switch et {
	case ErrTypeConfiguration:
		return "Configuration Error"
	case ErrTypeAuthentication:
		return "Authentication Error"
	case ErrTypeConnectivity:
		return "Connectivity Error"
	case ErrTypeProtocol:
		return "Protocol Error"
	case ErrTypeDevice:
		return "Device Error"
	default:
		return fmt.Sprintf("ErrorType(%d)", et)
	}
}

// Error represents a failure while talking to a 2N device.
//
// Credentials never appear in the message or any field, so an Error is
// always safe to log.
type Error struct {
	Type       ErrorType           // Category of error
	Message    string              // Human-readable error message
	StatusCode int                 // HTTP status code (if applicable)
	Code       int                 // Device API error code (ErrTypeDevice only)
	Param      string              // Offending parameter reported by the device (ErrTypeDevice only)
	Err        error               // Underlying error (if any)
	Subtype    ConnectivitySubtype // More specific connectivity error type
	Host       string              // Device host (for context)
	Retryable  bool                // Hint for caller-side retry policies; the library itself never retries
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error for error chain inspection
func (e *Error) Unwrap() error {
	return e.Err
}

// ClassifyConnectivityError analyzes a transport error and returns a
// connectivity Error with a specific subtype
func ClassifyConnectivityError(err error, host string) *Error {
	if err == nil {
		return nil
	}

	// Check for timeout errors
	if os.IsTimeout(err) {
		return &Error{
			Type:      ErrTypeConnectivity,
			Message:   "request timed out",
			Err:       err,
			Subtype:   ConnectivityTimeout,
			Host:      host,
			Retryable: true,
		}
	}

	// Check for DNS errors
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return &Error{
			Type:      ErrTypeConnectivity,
			Message:   fmt.Sprintf("DNS resolution failed for %s", dnsErr.Name),
			Err:       err,
			Subtype:   ConnectivityDNS,
			Host:      host,
			Retryable: false,
		}
	}

	// Check for connection refused and unreachable conditions
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		if errors.Is(opErr.Err, syscall.ECONNREFUSED) {
			return &Error{
				Type:      ErrTypeConnectivity,
				Message:   "device refused connection",
				Err:       err,
				Subtype:   ConnectivityConnectionRefused,
				Host:      host,
				Retryable: true,
			}
		}
		if errors.Is(opErr.Err, syscall.EHOSTUNREACH) {
			return &Error{
				Type:      ErrTypeConnectivity,
				Message:   "host unreachable",
				Err:       err,
				Subtype:   ConnectivityHostUnreachable,
				Host:      host,
				Retryable: true,
			}
		}
		if errors.Is(opErr.Err, syscall.ENETUNREACH) {
			return &Error{
				Type:      ErrTypeConnectivity,
				Message:   "network unreachable",
				Err:       err,
				Subtype:   ConnectivityNetworkUnreachable,
				Host:      host,
				Retryable: true,
			}
		}
	}

	// URL errors wrap the transport failure; classify the cause
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return ClassifyConnectivityError(urlErr.Err, host)
	}

	// Generic connectivity error
	return &Error{
		Type:      ErrTypeConnectivity,
		Message:   "network error occurred",
		Err:       err,
		Subtype:   ConnectivityGeneral,
		Host:      host,
		Retryable: true,
	}
}

// NewConfigurationError creates an error for invalid connection parameters
func NewConfigurationError(message string) *Error {
	return &Error{
		Type:      ErrTypeConfiguration,
		Message:   message,
		Retryable: false,
	}
}

// NewAuthenticationError creates an error for rejected credentials
func NewAuthenticationError(message string) *Error {
	return &Error{
		Type:       ErrTypeAuthentication,
		Message:    message,
		StatusCode: http.StatusUnauthorized,
		Retryable:  false,
	}
}

// NewConnectivityError creates a connectivity error with automatic classification
func NewConnectivityError(message string, err error, host string) *Error {
	classified := ClassifyConnectivityError(err, host)
	if classified != nil {
		classified.Message = message
		return classified
	}
	return &Error{
		Type:      ErrTypeConnectivity,
		Message:   message,
		Err:       err,
		Host:      host,
		Retryable: true,
	}
}

// NewProtocolError creates an error for a malformed or unexpected response body
func NewProtocolError(message string, err error) *Error {
	return &Error{
		Type:      ErrTypeProtocol,
		Message:   message,
		Err:       err,
		Retryable: false,
	}
}

// NewDeviceError creates an error for a failure reported by the device.
// statusCode is the HTTP status; code and param come from the API error
// envelope and are zero when the device returned a bare HTTP error.
func NewDeviceError(statusCode int, code int, param, description string) *Error {
	message := description
	if message == "" {
		message = fmt.Sprintf("unexpected status code: %d", statusCode)
	}
	if param != "" {
		message = fmt.Sprintf("%s (param: %s)", message, param)
	}
	return &Error{
		Type:       ErrTypeDevice,
		Message:    message,
		StatusCode: statusCode,
		Code:       code,
		Param:      param,
		Retryable:  statusCode >= 500,
	}
}

// IsConfigurationError checks if an error is a configuration error
func IsConfigurationError(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Type == ErrTypeConfiguration
}

// IsAuthenticationError checks if an error is an authentication error
func IsAuthenticationError(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Type == ErrTypeAuthentication
}

// IsConnectivityError checks if an error is a connectivity error
func IsConnectivityError(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Type == ErrTypeConnectivity
}

// IsProtocolError checks if an error is a protocol error
func IsProtocolError(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Type == ErrTypeProtocol
}

// IsDeviceError checks if an error is a device-reported error
func IsDeviceError(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Type == ErrTypeDevice
}

// IsRetryable reports whether retrying the operation could plausibly
// succeed. The library never retries on its own; this is a hint for
// callers implementing their own retry policy.
func IsRetryable(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Retryable
	}
	return false
}

// TroubleshootingHint returns user-friendly troubleshooting advice for an error
func TroubleshootingHint(err error) string {
	var e *Error
	if !errors.As(err, &e) {
		return "An unexpected error occurred. Please try again."
	}

	switch e.Type {
	case ErrTypeConfiguration:
		return "The connection parameters are invalid. Check the error message for details."

	case ErrTypeAuthentication:
		return strings.Join([]string{
			"Authentication failed.",
			"Troubleshooting:",
			"  • Verify the username and password",
			"  • Check that the account is enabled in Services > HTTP API on the device",
			"  • Ensure the account has the privileges required for this operation",
			"  • Digest authentication may be required - try --digest",
		}, "\n")

	case ErrTypeConnectivity:
		switch e.Subtype {
		case ConnectivityTimeout:
			return strings.Join([]string{
				"The device did not respond in time.",
				"Troubleshooting:",
				"  • Check that the device is powered on",
				"  • Verify you're on the same network as the device",
				"  • Try increasing the timeout duration",
			}, "\n")

		case ConnectivityConnectionRefused:
			return strings.Join([]string{
				"The device refused the connection.",
				"Troubleshooting:",
				"  • Check that the HTTP API service is enabled on the device",
				"  • Verify the protocol - the device may only accept HTTPS",
				"  • The device web server may be restarting - try again shortly",
			}, "\n")

		case ConnectivityDNS:
			return strings.Join([]string{
				"Could not resolve the device hostname.",
				"Troubleshooting:",
				"  • Use the IP address instead of the hostname",
				"  • Check your network DNS settings",
				"  • Verify you're on the same network as the device",
			}, "\n")

		case ConnectivityHostUnreachable:
			hint := []string{
				"The device is not reachable on the network.",
				"Troubleshooting:",
				"  • Verify the device IP address is correct",
				"  • Check that you're on the same network as the device",
			}
			if e.Host != "" {
				hint = append(hint, "  • Try pinging the device: ping "+e.Host)
			}
			return strings.Join(hint, "\n")

		default:
			return strings.Join([]string{
				"Network communication failed.",
				"Troubleshooting:",
				"  • Check your network connection",
				"  • Verify the device is powered on",
				"  • Ensure you're connected to the correct network",
			}, "\n")
		}

	case ErrTypeProtocol:
		return strings.Join([]string{
			"Failed to parse the device's response.",
			"This may indicate a firmware issue or an unexpected endpoint.",
			"Troubleshooting:",
			"  • Check the device firmware version",
			"  • Verify the host really is a 2N device",
		}, "\n")

	case ErrTypeDevice:
		if e.StatusCode >= 500 {
			return fmt.Sprintf("The device returned an internal error (HTTP %d). Try rebooting the device.", e.StatusCode)
		}
		if e.Code != 0 {
			return fmt.Sprintf("The device rejected the request (API error %d). Check the request parameters.", e.Code)
		}
		return fmt.Sprintf("The device returned HTTP error %d. Check the request parameters.", e.StatusCode)

	default:
		return "An error occurred. Please check the error message for details."
	}
}

// ShortErrorMessage returns a concise, user-friendly error message
func ShortErrorMessage(err error) string {
	var e *Error
	if !errors.As(err, &e) {
		return err.Error()
	}

	switch e.Type {
	case ErrTypeConfiguration:
		return e.Message
	case ErrTypeAuthentication:
		return "Authentication failed - check credentials"
	case ErrTypeConnectivity:
		switch e.Subtype {
		case ConnectivityTimeout:
			return "Device not responding (timeout)"
		case ConnectivityConnectionRefused:
			return "Device refused connection - is the HTTP API enabled?"
		case ConnectivityDNS:
			return "Cannot resolve device hostname"
		case ConnectivityHostUnreachable:
			return "Device unreachable - check network connection"
		case ConnectivityNetworkUnreachable:
			return "Network unreachable - check your connection"
		default:
			return "Network error - check connection"
		}
	case ErrTypeProtocol:
		return "Failed to parse device response"
	case ErrTypeDevice:
		if e.Code != 0 {
			return fmt.Sprintf("Device error %d: %s", e.Code, e.Message)
		}
		return fmt.Sprintf("Device error (HTTP %d)", e.StatusCode)
	default:
		return e.Message
	}
}
