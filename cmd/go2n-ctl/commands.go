package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/muurk/go2n"
	"github.com/muurk/go2n/discovery"
	"github.com/muurk/go2n/internal/logging"
	"github.com/muurk/go2n/internal/registry"
	"github.com/muurk/go2n/internal/tui"
	"github.com/muurk/go2n/internal/ui"
	"github.com/muurk/go2n/internal/urls"
)

// Command flags
var (
	deviceArg    string
	username     string
	password     string
	useDigest    bool
	useHTTPS     bool
	sslVerify    bool
	opTimeout    string
	outputFormat string

	restartYes  bool
	restartWait bool

	eventFollow  bool
	eventHistory bool
	eventTypes   string
)

func init() {
	// Common flags for device commands (persistent on root)
	rootCmd.PersistentFlags().StringVar(&deviceArg, "device", "", "Device IP, hostname, or registered alias")
	rootCmd.PersistentFlags().StringVar(&username, "username", "", "Account for the device HTTP API")
	rootCmd.PersistentFlags().StringVar(&password, "password", "", "Password (prefer GO2N_PASSWORD or the prompt on shared systems)")
	rootCmd.PersistentFlags().BoolVar(&useDigest, "digest", false, "Use HTTP digest authentication")
	rootCmd.PersistentFlags().BoolVar(&useHTTPS, "https", false, "Connect over HTTPS")
	rootCmd.PersistentFlags().BoolVar(&sslVerify, "ssl-verify", false, "Verify the device TLS certificate")
	rootCmd.PersistentFlags().StringVar(&opTimeout, "timeout", "10s", "Operation timeout (e.g., 5s, 1m)")
	rootCmd.PersistentFlags().StringVar(&outputFormat, "format", "text", "Output format (text, json)")

	// Add subcommands directly to root
	rootCmd.AddCommand(discoverCmd)
	rootCmd.AddCommand(infoCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(restartCmd)
	rootCmd.AddCommand(audioTestCmd)
	rootCmd.AddCommand(switchCmd)
	rootCmd.AddCommand(portCmd)
	rootCmd.AddCommand(eventsCmd)
	rootCmd.AddCommand(monitorCmd)
	rootCmd.AddCommand(deviceCmd)
}

// opCtx builds the context bounding one device operation from the
// --timeout flag.
func opCtx() (context.Context, context.CancelFunc, error) {
	timeout, err := time.ParseDuration(opTimeout)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid timeout value: %w", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	return ctx, cancel, nil
}

// resolveTarget maps the --device argument (or the configured default
// device) to connection data. Registry entry values fill in whatever
// the flags leave unset; an explicit flag always wins. The returned
// alias is empty when the target is not a registered device.
func resolveTarget(cmd *cobra.Command) (go2n.ConnectionData, *registry.Registry, string, error) {
	reg, err := registry.LoadRegistry()
	if err != nil {
		return go2n.ConnectionData{}, nil, "", fmt.Errorf("failed to load device registry: %w", err)
	}

	alias, entry, err := reg.Resolve(deviceArg)
	if err != nil {
		return go2n.ConnectionData{}, nil, "", err
	}

	user := entry.Username
	if cmd.Flags().Changed("username") {
		// An explicit --username wins, including --username "" for
		// anonymous access
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
			return go2n.ConnectionData{}, nil, "", err
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

	conn, err := go2n.NewConnectionData(entry.Host, user, pass, opts...)
	if err != nil {
		return go2n.ConnectionData{}, nil, "", err
	}
	return conn, reg, alias, nil
}

// promptPassword reads a password from the terminal without echo
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

// connectDevice resolves the target and performs the initial identity
// fetch. On success the cached identity of a registered device is
// refreshed in the registry.
func connectDevice(ctx context.Context, cmd *cobra.Command) (*go2n.Device, error) {
	conn, reg, alias, err := resolveTarget(cmd)
	if err != nil {
		return nil, err
	}

	// Initialize logging from environment variable (silent by default)
	// Set GO2N_LOG_LEVEL=debug to see request logs
	if err := logging.InitializeFromEnv(); err != nil {
		_ = err
	}

	device, err := go2n.NewDevice(ctx, nil, conn, go2n.WithLogger(logging.GetLogger()))
	if err != nil {
		return nil, err
	}

	if alias != "" {
		info := device.Info()
		reg.UpdateDeviceIdentity(alias, info.Model, info.Serial, info.Firmware, info.MAC)
		if err := reg.Save(); err != nil {
			logging.Warn("Failed to save device registry", zap.Error(err))
		}
	}
	return device, nil
}

// printConnectFailure renders a failure box with the library's
// troubleshooting hint broken into bullet lines
func printConnectFailure(title string, err error) {
	ui.PrintFailure(title, fmt.Errorf("%s", go2n.ShortErrorMessage(err)), hintLines(err))
}

// hintLines converts a troubleshooting hint into tips for the failure
// box, which renders its own heading and bullets
func hintLines(err error) []string {
	var tips []string
	for _, line := range strings.Split(go2n.TroubleshootingHint(err), "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimSpace(strings.TrimPrefix(line, "•"))
		if line == "" || line == "Troubleshooting:" {
			continue
		}
		tips = append(tips, line)
	}
	if link := docLink(err); link != "" {
		tips = append(tips, link)
	}
	return tips
}

// docLink picks the vendor guide most likely to resolve the error
func docLink(err error) string {
	switch {
	case go2n.IsAuthenticationError(err):
		return "HTTP API accounts and privileges: " + urls.HTTPAPIServices
	case go2n.IsProtocolError(err), go2n.IsDeviceError(err):
		return "HTTP API reference: " + urls.HTTPAPIManual
	}
	return ""
}

func printJSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	fmt.Println(string(data))
	return nil
}

// formatDuration renders an uptime-style duration as "3d 4h 12m"
func formatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60

	switch {
	case days > 0:
		return fmt.Sprintf("%dd %dh %dm", days, hours, minutes)
	case hours > 0:
		return fmt.Sprintf("%dh %dm %ds", hours, minutes, seconds)
	case minutes > 0:
		return fmt.Sprintf("%dm %ds", minutes, seconds)
	default:
		return fmt.Sprintf("%ds", seconds)
	}
}

// discoverCmd finds devices on the network
var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "Discover 2N devices on the network",
	Long: `Discover 2N devices using mDNS/DNS-SD.

2N devices announce their web server over mDNS. This command browses
for those announcements and lists every device that answered with its
address, hostname, and TXT metadata. Renamed devices are recognized as
long as their instance name still starts with "2N".`,
	Example: `  # Scan with the default 10 second timeout
  go2n-ctl discover

  # Quick scan
  go2n-ctl discover --timeout 3s

  # JSON output for scripting
  go2n-ctl discover --format json`,
	RunE: runDiscover,
}

func runDiscover(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true

	timeout, err := time.ParseDuration(opTimeout)
	if err != nil {
		return fmt.Errorf("invalid timeout value: %w", err)
	}

	scanner := discovery.NewScanner()
	scanner.Timeout = timeout

	if outputFormat != "json" {
		ui.PrintCommandHeader("DEVICE DISCOVERY", "go2n-ctl discover", map[string]string{
			"Service": discovery.ServiceType,
			"Timeout": timeout.String(),
		})
		ui.PrintPleaseWait("Scanning for 2N devices", fmt.Sprintf("up to %s", timeout))
	}

	devices, err := scanner.Scan(context.Background())
	if err != nil {
		ui.PrintFailure("Discovery failed", err, []string{
			"Check that your network allows multicast DNS",
			"Use --device to address a device by IP directly",
		})
		return fmt.Errorf("discovery failed: %w", err)
	}

	if outputFormat == "json" {
		return printJSON(devices)
	}

	if len(devices) == 0 {
		fmt.Println("No devices found.")
		fmt.Println()
		fmt.Println("Troubleshooting:")
		fmt.Println("  - Ensure the devices are powered on and on the same network")
		fmt.Println("  - Multicast DNS is often blocked on routed or guest networks")
		fmt.Println("  - Try increasing --timeout for slower networks")
		fmt.Println("  - Use --device to address a device by IP directly")
		return nil
	}

	fmt.Printf("Found %d device(s):\n\n", len(devices))

	for i, device := range devices {
		fmt.Printf("%d. %s\n", i+1, device.Name)
		fmt.Printf("   Hostname: %s\n", device.Hostname)
		fmt.Printf("   Address:  %s:%d\n", device.IP, device.Port)
		if len(device.Metadata) > 0 {
			fmt.Printf("   Metadata: %v\n", device.Metadata)
		}
		fmt.Println()
	}

	fmt.Println("Use 'go2n-ctl info --device <ip>' to query a device")
	fmt.Println("Use 'go2n-ctl device add <alias> <ip>' to register one")

	return nil
}

// infoCmd shows the device identity
var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show device identity",
	Long: `Show the identity of a device.

Connects to the device, fetches the identity snapshot (name, model,
serial number, firmware) along with the configured switches and IO
ports, and prints it.`,
	Example: `  # Registered device
  go2n-ctl info --device front-door

  # Raw address with explicit credentials
  go2n-ctl info --device 192.168.1.69 --username admin

  # JSON output
  go2n-ctl info --device front-door --format json`,
	RunE: runInfo,
}

func runInfo(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true

	ctx, cancel, err := opCtx()
	if err != nil {
		return err
	}
	defer cancel()

	device, err := connectDevice(ctx, cmd)
	if err != nil {
		printConnectFailure("Device query failed", err)
		return err
	}
	defer device.Close()

	info := device.Info()

	if outputFormat == "json" {
		return printJSON(info)
	}

	ui.PrintCommandHeader("DEVICE INFORMATION", "go2n-ctl info", map[string]string{
		"Device": device.Host(),
	})

	ui.PrintDetailList([]ui.Detail{
		{Label: "Name", Value: info.Name},
		{Label: "Model", Value: info.Model},
		{Label: "Serial", Value: info.Serial},
		{Label: "MAC", Value: info.MAC},
		{Label: "Firmware", Value: info.Firmware},
		{Label: "Hardware", Value: info.Hardware},
		{Label: "Uptime", Value: formatDuration(info.Uptime())},
		{Label: "Switches", Value: fmt.Sprintf("%d configured", len(info.Switches))},
		{Label: "IO Ports", Value: strconv.Itoa(len(info.Ports))},
	})

	return nil
}

// statusCmd shows the runtime state
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show device status",
	Long: `Show the runtime status of a device.

Reports the device clock, the uptime, and the boot time derived from
it.`,
	Example: `  go2n-ctl status --device front-door

  # JSON output
  go2n-ctl status --device front-door --format json`,
	RunE: runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true

	ctx, cancel, err := opCtx()
	if err != nil {
		return err
	}
	defer cancel()

	device, err := connectDevice(ctx, cmd)
	if err != nil {
		printConnectFailure("Status query failed", err)
		return err
	}
	defer device.Close()

	status, err := device.SystemStatus(ctx)
	if err != nil {
		printConnectFailure("Status query failed", err)
		return err
	}

	if outputFormat == "json" {
		return printJSON(status)
	}

	info := device.Info()

	ui.PrintCommandHeader("DEVICE STATUS", "go2n-ctl status", map[string]string{
		"Device": device.Host(),
	})

	ui.PrintDetailList([]ui.Detail{
		{Label: "Device", Value: fmt.Sprintf("%s (%s)", info.Name, info.Model)},
		{Label: "Device Time", Value: status.Time().Format(time.RFC1123)},
		{Label: "Uptime", Value: formatDuration(time.Duration(status.UpTime) * time.Second)},
		{Label: "Booted", Value: status.BootTime().Local().Format(time.RFC1123)},
	})

	return nil
}

// Restart polling bounds. The command keeps polling after the restart
// request so the user sees when the device is reachable again.
const (
	restartPollInterval = 2 * time.Second
	restartOfflineWait  = 30 * time.Second
	restartOnlineWait   = 3 * time.Minute
)

// restartCmd reboots the device
var restartCmd = &cobra.Command{
	Use:   "restart",
	Short: "Restart a device",
	Long: `Restart a device.

The device reboots immediately. Any call in progress is dropped and
door unlocking is unavailable until the device is back online, so the
command asks for confirmation unless --yes is given.

With --wait the command polls the device after sending the restart
request and reports when it is reachable again.`,
	Example: `  # Restart with confirmation prompt
  go2n-ctl restart --device front-door

  # Restart unattended and wait for the device to come back
  go2n-ctl restart --device front-door --yes --wait`,
	RunE: runRestart,
}

func init() {
	restartCmd.Flags().BoolVar(&restartYes, "yes", false, "Skip the confirmation prompt")
	restartCmd.Flags().BoolVar(&restartWait, "wait", false, "Wait until the device is back online")
}

func runRestart(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true

	ctx, cancel, err := opCtx()
	if err != nil {
		return err
	}
	defer cancel()

	device, err := connectDevice(ctx, cmd)
	if err != nil {
		printConnectFailure("Device restart failed", err)
		return err
	}
	defer device.Close()

	info := device.Info()

	ui.PrintCommandHeader("DEVICE RESTART", "go2n-ctl restart", map[string]string{
		"Device": fmt.Sprintf("%s (%s)", info.Name, info.Model),
		"Host":   device.Host(),
	})

	if !restartYes && !ui.RestartConfirmation(device.Host()) {
		return nil // User cancelled
	}

	if restartWait {
		return restartAndWait(device)
	}

	if err := device.Restart(ctx); err != nil {
		printConnectFailure("Device restart failed", err)
		return err
	}

	ui.PrintSuccess("Restart command sent", map[string]string{
		"Device": device.Host(),
		"Note":   "The device takes 30-60 seconds to come back online",
	})
	return nil
}

// restartAndWait sends the restart request and polls the device until
// it disappears and answers again, rendering each phase as a step
func restartAndWait(device *go2n.Device) error {
	p := ui.NewProgress("Restarting device...", []string{
		"Send restart request",
		"Wait for device to go offline",
		"Wait for device to come back online",
	})
	cb := p.Printer(os.Stdout)

	cb(1, "Send restart request", ui.StepRunning, "")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	err := device.Restart(ctx)
	cancel()
	if err != nil {
		cb(1, "Send restart request", ui.StepFailed, go2n.ShortErrorMessage(err))
		printConnectFailure("Device restart failed", err)
		return err
	}
	cb(1, "Send restart request", ui.StepComplete, "")

	cb(2, "Wait for device to go offline", ui.StepRunning, "")
	offlineDeadline := time.Now().Add(restartOfflineWait)
	wentOffline := false
	for time.Now().Before(offlineDeadline) {
		if _, err := pollStatus(device); err != nil {
			wentOffline = true
			break
		}
		time.Sleep(restartPollInterval)
	}
	if wentOffline {
		cb(2, "Wait for device to go offline", ui.StepComplete, "")
	} else {
		// Some models keep the web server up through most of the reboot
		cb(2, "Wait for device to go offline", ui.StepSkipped, "device kept answering")
	}

	cb(3, "Wait for device to come back online", ui.StepRunning, "")
	onlineDeadline := time.Now().Add(restartOnlineWait)
	for time.Now().Before(onlineDeadline) {
		status, err := pollStatus(device)
		if err == nil {
			cb(3, "Wait for device to come back online", ui.StepComplete, "")
			ui.PrintSuccess("Device restarted", map[string]string{
				"Device": device.Host(),
				"Uptime": formatDuration(time.Duration(status.UpTime) * time.Second),
			})
			return nil
		}
		time.Sleep(restartPollInterval)
	}

	err = fmt.Errorf("device did not come back within %s", restartOnlineWait)
	cb(3, "Wait for device to come back online", ui.StepFailed, "timeout")
	ui.PrintFailure("Device restart", err, []string{
		"The restart command was accepted; the device may still be booting",
		"Check the device manually: go2n-ctl status",
	})
	return err
}

// pollStatus makes one bounded status call during restart polling
func pollStatus(device *go2n.Device) (go2n.SystemStatus, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return device.SystemStatus(ctx)
}

// audioTestCmd starts the built-in audio loop test
var audioTestCmd = &cobra.Command{
	Use:   "audio-test",
	Short: "Start the device audio test",
	Long: `Start the built-in audio loop test.

The device plays a test tone and checks it with its own microphone.
The outcome is recorded on the device as an AudioLoopTest event; stream
it with 'go2n-ctl events --follow'.`,
	Example: `  go2n-ctl audio-test --device front-door`,
	RunE:    runAudioTest,
}

func runAudioTest(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true

	ctx, cancel, err := opCtx()
	if err != nil {
		return err
	}
	defer cancel()

	device, err := connectDevice(ctx, cmd)
	if err != nil {
		printConnectFailure("Audio test failed", err)
		return err
	}
	defer device.Close()

	ui.PrintCommandHeader("AUDIO TEST", "go2n-ctl audio-test", map[string]string{
		"Device": device.Host(),
	})

	if err := device.AudioTest(ctx); err != nil {
		printConnectFailure("Audio test failed", err)
		return err
	}

	ui.PrintSuccess("Audio test started", map[string]string{
		"Device": device.Host(),
		"Result": "Watch for the AudioLoopTest event (go2n-ctl events --follow)",
	})
	return nil
}

// switchCmd groups the switch subcommands
var switchCmd = &cobra.Command{
	Use:   "switch",
	Short: "Inspect and control device switches",
	Long: `Inspect and control the switches of a device.

Switches drive door locks and similar loads. A switch must be enabled
in the device configuration before it can be controlled. Monostable
switches return to their rest state on their own after the hold time
configured on the device.`,
}

func init() {
	switchCmd.AddCommand(switchListCmd)
	switchCmd.AddCommand(switchOnCmd)
	switchCmd.AddCommand(switchOffCmd)
}

var switchListCmd = &cobra.Command{
	Use:     "list",
	Short:   "List switches and their states",
	Example: `  go2n-ctl switch list --device front-door`,
	RunE:    runSwitchList,
}

func runSwitchList(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true

	ctx, cancel, err := opCtx()
	if err != nil {
		return err
	}
	defer cancel()

	device, err := connectDevice(ctx, cmd)
	if err != nil {
		printConnectFailure("Switch query failed", err)
		return err
	}
	defer device.Close()

	switches, err := device.Switches(ctx)
	if err != nil {
		printConnectFailure("Switch query failed", err)
		return err
	}

	if outputFormat == "json" {
		return printJSON(switches)
	}

	ui.PrintCommandHeader("SWITCHES", "go2n-ctl switch list", map[string]string{
		"Device": device.Host(),
	})

	if len(switches) == 0 {
		fmt.Println("No switches available on this device.")
		return nil
	}

	labels := switchLabels()
	for _, sw := range switches {
		name := fmt.Sprintf("Switch %d", sw.ID)
		if label := labels[sw.ID]; label != "" {
			name = fmt.Sprintf("%s (%s)", name, label)
		}
		fmt.Printf("  %-28s %s\n", name, switchStateText(sw))
	}
	fmt.Println()

	return nil
}

// switchLabels returns the user labels configured for the target
// device, keyed by switch number. Unregistered targets have none.
func switchLabels() map[int]string {
	reg, err := registry.LoadRegistry()
	if err != nil {
		return nil
	}
	_, entry, err := reg.Resolve(deviceArg)
	if err != nil || entry == nil {
		return nil
	}
	return entry.SwitchLabels
}

// portLabels is the IO port counterpart of switchLabels
func portLabels() map[string]string {
	reg, err := registry.LoadRegistry()
	if err != nil {
		return nil
	}
	_, entry, err := reg.Resolve(deviceArg)
	if err != nil || entry == nil {
		return nil
	}
	return entry.PortLabels
}

// switchStateText renders the state of a switch with its modifiers
func switchStateText(sw go2n.Switch) string {
	if !sw.Enabled {
		return "not configured"
	}

	state := ui.RenderStateMarker(sw.Active)
	var notes []string
	if sw.Mode != "" {
		notes = append(notes, sw.Mode)
	}
	if sw.Locked {
		notes = append(notes, "locked")
	}
	if sw.Held {
		notes = append(notes, "held")
	}
	if len(notes) > 0 {
		state += "  (" + strings.Join(notes, ", ") + ")"
	}
	return state
}

var switchOnCmd = &cobra.Command{
	Use:   "on <switch>",
	Short: "Activate a switch",
	Long: `Activate a switch by number.

Monostable switches (the usual door lock configuration) stay on for
the hold time configured on the device and then release on their own.
Bistable switches stay on until switched off.`,
	Example: `  # Unlock the door wired to switch 1
  go2n-ctl switch on 1 --device front-door`,
	Args: cobra.ExactArgs(1),
	RunE: runSwitchOn,
}

var switchOffCmd = &cobra.Command{
	Use:     "off <switch>",
	Short:   "Deactivate a switch",
	Example: `  go2n-ctl switch off 1 --device front-door`,
	Args:    cobra.ExactArgs(1),
	RunE:    runSwitchOff,
}

func runSwitchOn(cmd *cobra.Command, args []string) error {
	return runSwitchCtrl(cmd, args[0], true)
}

func runSwitchOff(cmd *cobra.Command, args []string) error {
	return runSwitchCtrl(cmd, args[0], false)
}

func runSwitchCtrl(cmd *cobra.Command, arg string, on bool) error {
	cmd.SilenceUsage = true

	id, err := strconv.Atoi(arg)
	if err != nil {
		return fmt.Errorf("invalid switch number %q", arg)
	}

	ctx, cancel, err := opCtx()
	if err != nil {
		return err
	}
	defer cancel()

	device, err := connectDevice(ctx, cmd)
	if err != nil {
		printConnectFailure("Switch control failed", err)
		return err
	}
	defer device.Close()

	action := "on"
	if !on {
		action = "off"
	}

	ui.PrintCommandHeader("SWITCH CONTROL", fmt.Sprintf("go2n-ctl switch %s %d", action, id), map[string]string{
		"Device": device.Host(),
		"Switch": strconv.Itoa(id),
	})

	if err := device.SetSwitch(ctx, id, on); err != nil {
		tips := hintLines(err)
		tips = append(tips, "Switch modes and locking: "+urls.SwitchConfiguration)
		ui.PrintFailure("Switch control failed", fmt.Errorf("%s", go2n.ShortErrorMessage(err)), tips)
		return err
	}

	ui.PrintSuccess("Switch state set", map[string]string{
		"Switch": strconv.Itoa(id),
		"State":  action,
	})
	return nil
}

// portCmd groups the IO port subcommands
var portCmd = &cobra.Command{
	Use:   "port",
	Short: "Inspect and control IO ports",
	Long: `Inspect and control the logic inputs and outputs of a device.

Ports are addressed by the identifiers the device reports, such as
"relay1" or "led_secured". Only output ports can be set; inputs report
their level but refuse control.`,
}

func init() {
	portCmd.AddCommand(portListCmd)
	portCmd.AddCommand(portOnCmd)
	portCmd.AddCommand(portOffCmd)
}

var portListCmd = &cobra.Command{
	Use:     "list",
	Short:   "List IO ports and their levels",
	Example: `  go2n-ctl port list --device front-door`,
	RunE:    runPortList,
}

func runPortList(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true

	ctx, cancel, err := opCtx()
	if err != nil {
		return err
	}
	defer cancel()

	device, err := connectDevice(ctx, cmd)
	if err != nil {
		printConnectFailure("Port query failed", err)
		return err
	}
	defer device.Close()

	ports, err := device.Ports(ctx)
	if err != nil {
		printConnectFailure("Port query failed", err)
		return err
	}

	if outputFormat == "json" {
		return printJSON(ports)
	}

	ui.PrintCommandHeader("IO PORTS", "go2n-ctl port list", map[string]string{
		"Device": device.Host(),
	})

	if len(ports) == 0 {
		fmt.Println("No IO ports available on this device.")
		return nil
	}

	labels := portLabels()
	for _, port := range ports {
		name := port.ID
		if label := labels[port.ID]; label != "" {
			name = fmt.Sprintf("%s (%s)", port.ID, label)
		}
		fmt.Printf("  %-28s [%s]  %s\n", name, port.Type, portStateText(port))
	}
	fmt.Println()

	return nil
}

// portStateText renders the logic level of a port
func portStateText(port go2n.Port) string {
	if port.State != 0 {
		return ui.StateOnStyle.Render("● high")
	}
	return ui.StateOffStyle.Render("○ low")
}

var portOnCmd = &cobra.Command{
	Use:     "on <port>",
	Short:   "Set an output port high",
	Example: `  go2n-ctl port on relay1 --device front-door`,
	Args:    cobra.ExactArgs(1),
	RunE:    runPortOn,
}

var portOffCmd = &cobra.Command{
	Use:     "off <port>",
	Short:   "Set an output port low",
	Example: `  go2n-ctl port off relay1 --device front-door`,
	Args:    cobra.ExactArgs(1),
	RunE:    runPortOff,
}

func runPortOn(cmd *cobra.Command, args []string) error {
	return runPortCtrl(cmd, args[0], true)
}

func runPortOff(cmd *cobra.Command, args []string) error {
	return runPortCtrl(cmd, args[0], false)
}

func runPortCtrl(cmd *cobra.Command, id string, on bool) error {
	cmd.SilenceUsage = true

	ctx, cancel, err := opCtx()
	if err != nil {
		return err
	}
	defer cancel()

	device, err := connectDevice(ctx, cmd)
	if err != nil {
		printConnectFailure("Port control failed", err)
		return err
	}
	defer device.Close()

	action := "on"
	if !on {
		action = "off"
	}

	ui.PrintCommandHeader("PORT CONTROL", fmt.Sprintf("go2n-ctl port %s %s", action, id), map[string]string{
		"Device": device.Host(),
		"Port":   id,
	})

	if err := device.SetPort(ctx, id, on); err != nil {
		printConnectFailure("Port control failed", err)
		return err
	}

	state := "high"
	if !on {
		state = "low"
	}
	ui.PrintSuccess("Port level set", map[string]string{
		"Port":  id,
		"Level": state,
	})
	return nil
}

// eventPullTimeout is the device-side long poll window in follow mode,
// kept below the subscription lifetime so every pull renews it
const eventPullTimeout = 25 * time.Second

// eventsCmd streams the device event log
var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Stream the device event log",
	Long: `Stream events from the device log.

Subscribes to the device event log and prints events as they arrive.
Without --follow a single short poll is made and the command exits;
with --follow the command keeps pulling until interrupted with Ctrl-C.

Event types vary by device model. --types accepts any type the device
reports in its capabilities (KeyPressed, CardEntered, InputChanged,
CallStateChanged, and so on).`,
	Example: `  # Recent events from the device log buffer
  go2n-ctl events --device front-door --history

  # Live stream
  go2n-ctl events --device front-door --follow

  # Only key presses and card taps
  go2n-ctl events --device front-door --follow --types KeyPressed,CardEntered

  # JSON lines for scripting
  go2n-ctl events --device front-door --follow --format json`,
	RunE: runEvents,
}

func init() {
	eventsCmd.Flags().BoolVar(&eventFollow, "follow", false, "Keep streaming events until interrupted")
	eventsCmd.Flags().BoolVar(&eventHistory, "history", false, "Include events already recorded in the device log")
	eventsCmd.Flags().StringVar(&eventTypes, "types", "", "Comma-separated event types to subscribe to")
}

func runEvents(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true

	connectCtx, cancel, err := opCtx()
	if err != nil {
		return err
	}
	device, err := connectDevice(connectCtx, cmd)
	cancel()
	if err != nil {
		printConnectFailure("Event subscription failed", err)
		return err
	}
	defer device.Close()

	filter := go2n.EventFilter{IncludeHistory: eventHistory}
	if eventTypes != "" {
		filter.Types = strings.Split(eventTypes, ",")
	}

	subCtx, subCancel := context.WithTimeout(context.Background(), 10*time.Second)
	sub, err := device.Subscribe(subCtx, filter)
	subCancel()
	if err != nil {
		tips := hintLines(err)
		tips = append(tips, "Event log endpoints and types: "+urls.EventLogging)
		ui.PrintFailure("Event subscription failed", fmt.Errorf("%s", go2n.ShortErrorMessage(err)), tips)
		return err
	}

	// Release the device-side subscription on the way out
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = sub.Unsubscribe(ctx)
	}()

	if outputFormat != "json" {
		ui.PrintCommandHeader("EVENT LOG", "go2n-ctl events", map[string]string{
			"Device": device.Host(),
		})
		if eventFollow {
			ui.PrintPleaseWait("Streaming events, Ctrl-C to stop", "")
		}
	}

	pullTimeout := eventPullTimeout
	if !eventFollow {
		// Single poll: return promptly with whatever the log has
		pullTimeout = 3 * time.Second
	}

	ctx, stop := context.WithCancel(context.Background())
	defer stop()
	if eventFollow {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		go func() {
			<-sigChan
			stop()
		}()
	}

	count := 0
	for {
		pullCtx, pullCancel := context.WithTimeout(ctx, pullTimeout+5*time.Second)
		events, err := sub.Pull(pullCtx, pullTimeout)
		pullCancel()
		if err != nil {
			if ctx.Err() != nil {
				return nil // Interrupted
			}
			printConnectFailure("Event pull failed", err)
			return err
		}

		for _, event := range events {
			printEvent(event)
			count++
		}

		if !eventFollow {
			if count == 0 && outputFormat != "json" {
				fmt.Println("No events during the poll window.")
				fmt.Println("Use --history for buffered events or --follow to keep listening.")
			}
			return nil
		}
	}
}

// printEvent renders one event line, or one JSON document per line in
// json mode
func printEvent(event go2n.Event) {
	if outputFormat == "json" {
		data, err := json.Marshal(event)
		if err != nil {
			return
		}
		fmt.Println(string(data))
		return
	}

	line := event.Time().Local().Format("15:04:05")
	line += "  " + event.Type
	if len(event.Params) > 0 && string(event.Params) != "{}" {
		line += "  " + string(event.Params)
	}
	fmt.Println(line)
}

// monitorCmd opens the live dashboard
var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Live terminal dashboard for a device",
	Long: `Open a full-screen dashboard for a device.

The dashboard shows the device identity, uptime, switch and IO port
states with periodic refresh, and a live feed from the device event
log. Press r to refresh immediately, c to clear the event feed, and q
to quit.`,
	Example: `  go2n-ctl monitor --device front-door`,
	RunE:    runMonitor,
}

func runMonitor(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true

	conn, _, _, err := resolveTarget(cmd)
	if err != nil {
		return err
	}

	model := tui.NewMonitorModel(conn)
	p := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("monitor error: %w", err)
	}
	return nil
}

// deviceCmd groups the registry subcommands
var deviceCmd = &cobra.Command{
	Use:   "device",
	Short: "Manage the device registry",
	Long: `Manage the local device registry.

The registry stores known devices under aliases so commands can be run
with --device <alias> instead of an IP address. Entries remember the
host, username, and connection settings, plus the identity cached from
the last successful connection. Passwords are never stored.`,
}

func init() {
	deviceCmd.AddCommand(deviceAddCmd)
	deviceCmd.AddCommand(deviceListCmd)
	deviceCmd.AddCommand(deviceRemoveCmd)
	deviceCmd.AddCommand(deviceUseCmd)
}

var deviceAddCmd = &cobra.Command{
	Use:   "add <alias> <host>",
	Short: "Register a device under an alias",
	Long: `Register a device under an alias.

Connection flags given with this command (--username, --digest,
--https, --ssl-verify) are stored with the entry and used as defaults
whenever the alias is referenced. The first registered device becomes
the default device.`,
	Example: `  # Register and make addressable as front-door
  go2n-ctl device add front-door 192.168.1.69 --username admin

  # HTTPS-only device
  go2n-ctl device add lab-verso 10.0.40.7 --https --username admin`,
	Args: cobra.ExactArgs(2),
	RunE: runDeviceAdd,
}

func runDeviceAdd(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true
	alias, host := args[0], args[1]

	reg, err := registry.LoadRegistry()
	if err != nil {
		return fmt.Errorf("failed to load device registry: %w", err)
	}

	entry := reg.AddDevice(alias, host)
	if cmd.Flags().Changed("username") {
		entry.Username = username
	}
	if useDigest {
		entry.AuthMethod = string(go2n.AuthDigest)
	}
	if useHTTPS {
		entry.Protocol = string(go2n.ProtocolHTTPS)
	}
	if sslVerify {
		entry.SSLVerify = true
	}

	if reg.DefaultDevice() == "" {
		reg.SetDefaultDevice(alias)
	}

	if err := reg.Save(); err != nil {
		return fmt.Errorf("failed to save device registry: %w", err)
	}

	details := map[string]string{
		"Alias": alias,
		"Host":  host,
	}
	if reg.DefaultDevice() == alias {
		details["Default"] = "yes"
	}
	ui.PrintSuccess("Device registered", details)
	return nil
}

var deviceListCmd = &cobra.Command{
	Use:     "list",
	Short:   "List registered devices",
	Example: `  go2n-ctl device list`,
	RunE:    runDeviceList,
}

func runDeviceList(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true

	reg, err := registry.LoadRegistry()
	if err != nil {
		return fmt.Errorf("failed to load device registry: %w", err)
	}

	if outputFormat == "json" {
		return printJSON(reg.Devices)
	}

	aliases := reg.Aliases()
	if len(aliases) == 0 {
		fmt.Println("No devices registered.")
		fmt.Println("Use 'go2n-ctl device add <alias> <host>' to register one.")
		return nil
	}

	for _, alias := range aliases {
		entry := reg.GetDevice(alias)
		marker := " "
		if alias == reg.DefaultDevice() {
			marker = "*"
		}
		fmt.Printf("%s %-20s %s\n", marker, alias, entry.Host)
		if entry.Model != "" {
			fmt.Printf("  %-20s %s (SN %s, FW %s)\n", "", entry.Model, entry.Serial, entry.Firmware)
		}
		if !entry.LastSeen.IsZero() {
			fmt.Printf("  %-20s last seen %s\n", "", entry.LastSeen.Local().Format("2006-01-02 15:04"))
		}
	}
	fmt.Println()
	fmt.Println("* = default device")

	return nil
}

var deviceRemoveCmd = &cobra.Command{
	Use:     "remove <alias>",
	Short:   "Remove a registered device",
	Example: `  go2n-ctl device remove front-door`,
	Args:    cobra.ExactArgs(1),
	RunE:    runDeviceRemove,
}

func runDeviceRemove(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true

	reg, err := registry.LoadRegistry()
	if err != nil {
		return fmt.Errorf("failed to load device registry: %w", err)
	}

	if !reg.RemoveDevice(args[0]) {
		return fmt.Errorf("no device registered as %q", args[0])
	}
	if err := reg.Save(); err != nil {
		return fmt.Errorf("failed to save device registry: %w", err)
	}

	fmt.Printf("Removed %s from the registry.\n", args[0])
	return nil
}

var deviceUseCmd = &cobra.Command{
	Use:     "use <alias>",
	Short:   "Set the default device",
	Example: `  go2n-ctl device use front-door`,
	Args:    cobra.ExactArgs(1),
	RunE:    runDeviceUse,
}

func runDeviceUse(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true

	reg, err := registry.LoadRegistry()
	if err != nil {
		return fmt.Errorf("failed to load device registry: %w", err)
	}

	if reg.GetDevice(args[0]) == nil {
		return fmt.Errorf("no device registered as %q", args[0])
	}
	reg.SetDefaultDevice(args[0])
	if err := reg.Save(); err != nil {
		return fmt.Errorf("failed to save device registry: %w", err)
	}

	fmt.Printf("Default device is now %s.\n", args[0])
	return nil
}
