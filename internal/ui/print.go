package ui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Simple helper functions for command output. Commands print a header,
// run their device call, then print a success or failure box.

// PrintCommandHeader prints a styled command header
func PrintCommandHeader(title, command string, params map[string]string) {
	width := GetTerminalWidth()
	header := NewHeader(title, command, params)
	header.SetWidth(width)
	fmt.Println(header.Render())
	fmt.Println()
}

// PrintSuccess prints a styled success result
func PrintSuccess(title string, details map[string]string) {
	width := GetTerminalWidth()
	result := NewSuccessResult(title, details)
	result.SetWidth(width)
	fmt.Println()
	fmt.Println(result.Render())
}

// PrintFailure prints a styled failure result
func PrintFailure(title string, err error, troubleshooting []string) {
	width := GetTerminalWidth()
	result := NewFailureResult(title, err, troubleshooting)
	result.SetWidth(width)
	fmt.Println()
	fmt.Println(result.Render())
}

// PrintWarning prints a styled warning result
func PrintWarning(title string, details map[string]string) {
	width := GetTerminalWidth()
	result := NewWarningResult(title, details)
	result.SetWidth(width)
	fmt.Println()
	fmt.Println(result.Render())
}

// PrintPleaseWait prints a styled "please wait" message for operations
// that block for a while (discovery scans, event long-polls). The
// duration hint sets user expectations, e.g. "up to 10 seconds".
func PrintPleaseWait(message string, durationHint string) {
	style := lipgloss.NewStyle().
		Foreground(PrimaryColor).
		Bold(true).
		PaddingLeft(2)

	hintStyle := lipgloss.NewStyle().
		Foreground(MutedColor).
		Italic(true)

	line := style.Render("⏳ " + message)
	if durationHint != "" {
		line += "  " + hintStyle.Render("("+durationHint+")")
	}

	fmt.Println(line)
	fmt.Println()
}

// Detail is one labelled value in a detail list (device info, switch
// state). Details render in declaration order, unlike a map.
type Detail struct {
	Label string
	Value string
}

// RenderDetailList renders aligned label/value rows, e.g.
//
//	Model       2N IP Verso
//	Serial      54-0956-0004
func RenderDetailList(details []Detail) string {
	labelWidth := 0
	for _, d := range details {
		if len(d.Label) > labelWidth {
			labelWidth = len(d.Label)
		}
	}

	var lines []string
	for _, d := range details {
		label := DetailLabelStyle.Render(fmt.Sprintf("  %-*s", labelWidth+2, d.Label))
		lines = append(lines, label+DetailValueStyle.Render(d.Value))
	}
	return strings.Join(lines, "\n")
}

// PrintDetailList prints a detail list followed by a blank line
func PrintDetailList(details []Detail) {
	fmt.Println(RenderDetailList(details))
	fmt.Println()
}

// RenderStateMarker renders an on/off state with color: green "● on"
// for active, muted "○ off" otherwise
func RenderStateMarker(on bool) string {
	if on {
		return StateOnStyle.Render("● on")
	}
	return StateOffStyle.Render("○ off")
}

// SortedKeys returns map keys in sorted order, for stable rendering of
// metadata maps
func SortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
