// Package logging provides structured logging for the go2n binaries.
//
// This package wraps zap logger with convenience functions for common
// logging patterns used by the CLI and the event bridge. It provides
// both general logging functions and specialized functions for
// device-facing logging needs.
//
// # Log Levels
//
// The package supports standard log levels:
//   - Debug: Detailed debugging info (API calls, event payload details)
//   - Info: Normal operations (connections, subscriptions, state changes)
//   - Warn: Non-fatal issues (connection drops, expired subscriptions)
//   - Error: Fatal issues (startup failures, critical errors)
//
// # Structured Logging
//
// All log functions use structured fields for queryability:
//
//	logging.Info("Device connected",
//	    zap.String("host", "192.168.1.69"),
//	    zap.String("model", "2N IP Verso"),
//	    zap.String("firmware", "2.43.0.45.5-release"),
//	)
//
// Credentials are never logged at any level.
//
// # Specialized Logging
//
// The package provides domain-specific logging functions:
//
//	logging.LogConnection(remoteAddr, "websocket_upgraded")
//	logging.LogDeviceEvent(host, "KeyPressed", eventID)
//	logging.LogDeviceCall(host, "POST", "/api/system/restart", 200, elapsed)
//
// # Configuration
//
// CLI commands stay silent unless GO2N_LOG_LEVEL is set:
//
//	if err := logging.InitializeFromEnv(); err != nil {
//	    log.Fatal(err)
//	}
//	defer logging.Sync()
//
// Long-running binaries pass an explicit level instead:
//
//	if err := logging.Initialize("info"); err != nil {
//	    log.Fatal(err)
//	}
//
// # Thread Safety
//
// All logging functions are safe for concurrent use. The underlying zap
// logger handles synchronization automatically.
package logging
