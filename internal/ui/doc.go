// Package ui provides terminal UI components for the go2n-ctl CLI.
//
// This package uses Bubble Tea bubbles and Lipgloss to render polished
// terminal output for device commands. Unlike the interactive monitor TUI,
// these components follow a "run once and exit" pattern - they render output
// compellingly but don't require user interaction.
//
// # Architecture
//
// The UI package provides four main component types:
//
//   - Header: Command banner showing operation name and parameters
//   - Progress: Progress bar with step list showing real-time status
//   - Result: Success/failure boxes with styled information
//   - Detail lists: Aligned label/value rows for device state
//
// Commands compose these directly: print a header, run the device
// operation, then print a success or failure box. Multi-step operations
// such as restart --wait drive a Progress via its step callback.
//
// # Usage Pattern
//
// Device commands use this package by:
//
//  1. Printing a command header with device parameters
//  2. Running the device operation
//  3. Reporting multi-step progress via a step callback when applicable
//  4. Printing the styled result
//
// Example:
//
//	ui.PrintCommandHeader("DEVICE RESTART", "go2n-ctl restart",
//	    map[string]string{"Device": "192.168.1.69"})
//
//	p := ui.NewProgress("Restarting device...", []string{
//	    "Send restart request",
//	    "Wait for device to go offline",
//	    "Wait for device to come back online",
//	})
//	onStep := p.Printer(os.Stdout)
//	onStep(1, "", ui.StepRunning, "")
//	// ... do work ...
//	onStep(1, "", ui.StepComplete, "")
//
// # Logging Integration
//
// This package expects logging to be controlled via the GO2N_LOG_LEVEL
// environment variable. When unset or empty, zap logging is silent, allowing
// the curated UI output to be displayed cleanly. Set GO2N_LOG_LEVEL to
// "debug", "info", "warn", or "error" to enable logging output.
package ui
