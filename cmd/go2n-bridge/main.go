// Go2n-bridge re-broadcasts 2N device events over WebSocket.
//
// It holds a single subscription to a device's event log over the 2N
// HTTP API and fans every event out as JSON to any number of connected
// WebSocket clients. This turns the device's one-consumer long-poll
// interface into a push stream for dashboards and automations.
//
// Usage:
//
//	go2n-bridge server [flags]
//
// See 'go2n-bridge server --help' for available options.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/muurk/go2n"
	"github.com/muurk/go2n/internal/bridge"
	"github.com/muurk/go2n/internal/registry"
	"github.com/muurk/go2n/internal/version"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "go2n-bridge",
	Short: "2N Event WebSocket Bridge",
	Long: `A WebSocket bridge for 2N device events.

The bridge holds one subscription to a device's event log and
re-broadcasts every event as JSON to all connected WebSocket clients.
The device's long-poll event interface serves a single consumer; the
bridge turns it into a push stream that any number of dashboards and
automations can share.

Note: For interactive device control, use the separate 'go2n-ctl'
utility.`,
	Version: version.Version,
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.AddCommand(serverCmd)
	rootCmd.AddCommand(versionCmd)
}

// Server command and flags
var (
	deviceArg string
	username  string
	password  string
	useDigest bool
	useHTTPS  bool
	sslVerify bool
	listen    string
	wsPath    string
	certPath  string
	keyPath   string
	logLevel  string
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the event bridge",
	Long: `Start the event bridge.

The bridge connects to the device, subscribes to its event log, and
serves a WebSocket endpoint that pushes every event to connected
clients as it arrives. When the device drops the subscription the
bridge resubscribes on its own; clients stay connected throughout.

Each message is a JSON envelope carrying the device host and the raw
event:

  {"host": "192.168.1.69", "event": {"id": 42, "event": "KeyPressed", ...}}`,
	Example: `  # Bridge the front door intercom
  go2n-bridge server --device 192.168.1.69 --username admin

  # Registered alias, custom listen address and path
  go2n-bridge server --device front-door --listen :9000 --path /intercom

  # Serve the WebSocket endpoint over TLS
  go2n-bridge server --device front-door --cert cert.pem --key key.pem`,
	RunE: runServer,
}

func init() {
	serverCmd.Flags().StringVar(&deviceArg, "device", "", "Device IP, hostname, or registered alias")
	serverCmd.Flags().StringVar(&username, "username", "", "Account for the device HTTP API")
	serverCmd.Flags().StringVar(&password, "password", "", "Password (prefer GO2N_PASSWORD)")
	serverCmd.Flags().BoolVar(&useDigest, "digest", false, "Use HTTP digest authentication")
	serverCmd.Flags().BoolVar(&useHTTPS, "https", false, "Connect to the device over HTTPS")
	serverCmd.Flags().BoolVar(&sslVerify, "ssl-verify", false, "Verify the device TLS certificate")
	serverCmd.Flags().StringVar(&listen, "listen", ":8765", "Address to serve the WebSocket endpoint on")
	serverCmd.Flags().StringVar(&wsPath, "path", "/events", "URL path of the WebSocket endpoint")
	serverCmd.Flags().StringVar(&certPath, "cert", "", "TLS certificate for the WebSocket endpoint (optional)")
	serverCmd.Flags().StringVar(&keyPath, "key", "", "TLS private key for the WebSocket endpoint (optional)")
	serverCmd.Flags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
}

func runServer(cmd *cobra.Command, args []string) error {
	// Either both cert and key, or neither (plain ws)
	if (certPath != "" && keyPath == "") || (certPath == "" && keyPath != "") {
		return fmt.Errorf("both --cert and --key must be provided together, or neither")
	}
	if certPath != "" {
		if _, err := os.Stat(certPath); os.IsNotExist(err) {
			return fmt.Errorf("certificate file not found: %s", certPath)
		}
		if _, err := os.Stat(keyPath); os.IsNotExist(err) {
			return fmt.Errorf("private key file not found: %s", keyPath)
		}
	}

	conn, err := resolveConnection(cmd)
	if err != nil {
		return err
	}

	config := &bridge.Config{
		Addr:     listen,
		Path:     wsPath,
		CertFile: certPath,
		KeyFile:  keyPath,
		LogLevel: logLevel,
	}

	srv, err := bridge.New(config, conn)
	if err != nil {
		return fmt.Errorf("failed to create bridge: %w", err)
	}

	return srv.Start()
}

// resolveConnection maps the --device flag (or the default registered
// device) to connection data, merging registry entry values under
// explicit flags.
func resolveConnection(cmd *cobra.Command) (go2n.ConnectionData, error) {
	reg, err := registry.LoadRegistry()
	if err != nil {
		return go2n.ConnectionData{}, fmt.Errorf("failed to load device registry: %w", err)
	}

	_, entry, err := reg.Resolve(deviceArg)
	if err != nil {
		return go2n.ConnectionData{}, err
	}

	user := entry.Username
	if cmd.Flags().Changed("username") {
		user = username
	} else if user == "" {
		if prefs := reg.Preferences; prefs != nil && prefs.DefaultAuth != nil {
			user = prefs.DefaultAuth.Username
		}
	}

	pass := password
	if pass == "" {
		pass = os.Getenv("GO2N_PASSWORD")
	}
	if user != "" && pass == "" {
		pass, err = promptPassword(user, entry.Host)
		if err != nil {
			return go2n.ConnectionData{}, err
		}
	}

	var opts []go2n.ConnectionOption
	if useDigest || entry.AuthMethod == string(go2n.AuthDigest) {
		opts = append(opts, go2n.WithAuthMethod(go2n.AuthDigest))
	}
	if useHTTPS || entry.Protocol == string(go2n.ProtocolHTTPS) {
		opts = append(opts, go2n.WithProtocol(go2n.ProtocolHTTPS))
	}
	if sslVerify || entry.SSLVerify {
		opts = append(opts, go2n.WithSSLVerify(true))
	}

	return go2n.NewConnectionData(entry.Host, user, pass, opts...)
}

// promptPassword reads a password from the terminal without echo. A
// bridge started from a service manager has no terminal; the password
// must come from GO2N_PASSWORD or --password there.
func promptPassword(user, host string) (string, error) {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return "", fmt.Errorf("no password given for %s@%s (use --password or GO2N_PASSWORD)", user, host)
	}

	fmt.Fprintf(os.Stderr, "Password for %s@%s: ", user, host)
	raw, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return string(raw), nil
}

// Version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("go2n-bridge %s (commit: %s)\n", version.Version, version.Commit)
	},
}
