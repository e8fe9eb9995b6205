package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"
)

// StepStatus represents the current state of a step
type StepStatus int

const (
	StepPending  StepStatus = iota // Not yet started
	StepRunning                    // Currently executing
	StepComplete                   // Successfully completed
	StepFailed                     // Failed
	StepSkipped                    // Skipped
)

// Step represents a single step in a multi-step operation
type Step struct {
	Number  int        // Step number (1-based)
	Name    string     // Step description
	Status  StepStatus // Current status
	Message string     // Optional status message (e.g., "attempt 3", "12s")
}

// Progress tracks a multi-step device operation, such as waiting for a
// device to come back after a restart. It renders a progress bar plus a
// step list, or prints step lines incrementally via Printer.
type Progress struct {
	Label   string  // e.g., "Waiting for device to restart..."
	Steps   []Step  // List of steps
	Current int     // Current step (1-based)
	Total   int     // Total steps
	Percent float64 // Progress percentage (0.0 - 1.0)
	Width   int     // Terminal width
	bar     progress.Model
}

// NewProgress creates a progress tracker for the named steps
func NewProgress(label string, stepNames []string) *Progress {
	bar := progress.New(
		progress.WithDefaultGradient(),
		progress.WithWidth(40),
	)

	steps := make([]Step, len(stepNames))
	for i, name := range stepNames {
		steps[i] = Step{
			Number: i + 1,
			Name:   name,
			Status: StepPending,
		}
	}

	return &Progress{
		Label:   label,
		Steps:   steps,
		Current: 0,
		Total:   len(stepNames),
		Percent: 0,
		Width:   GetTerminalWidth(),
		bar:     bar,
	}
}

// SetWidth sets the terminal width for responsive rendering
func (p *Progress) SetWidth(width int) *Progress {
	p.Width = width
	// Leave room for percentage and step count
	barWidth := width - 20
	if barWidth < 20 {
		barWidth = 20
	}
	if barWidth > 50 {
		barWidth = 50
	}
	p.bar = progress.New(
		progress.WithDefaultGradient(),
		progress.WithWidth(barWidth),
	)
	return p
}

// UpdateStep updates a specific step's status and optional message
func (p *Progress) UpdateStep(stepNumber int, status StepStatus, message string) {
	if stepNumber < 1 || stepNumber > len(p.Steps) {
		return
	}
	idx := stepNumber - 1
	p.Steps[idx].Status = status
	p.Steps[idx].Message = message

	if status == StepRunning {
		p.Current = stepNumber
		return
	}

	// Recompute completion percentage from settled steps
	completed := 0
	for _, s := range p.Steps {
		if s.Status == StepComplete || s.Status == StepSkipped {
			completed++
		}
	}
	p.Percent = float64(completed) / float64(p.Total)
}

// StartStep marks a step as running
func (p *Progress) StartStep(stepNumber int, message string) {
	p.UpdateStep(stepNumber, StepRunning, message)
}

// CompleteStep marks a step as complete
func (p *Progress) CompleteStep(stepNumber int, message string) {
	p.UpdateStep(stepNumber, StepComplete, message)
}

// FailStep marks a step as failed
func (p *Progress) FailStep(stepNumber int, message string) {
	p.UpdateStep(stepNumber, StepFailed, message)
}

// SkipStep marks a step as skipped
func (p *Progress) SkipStep(stepNumber int, message string) {
	p.UpdateStep(stepNumber, StepSkipped, message)
}

// Render returns the full progress display: label, bar and step list
func (p *Progress) Render() string {
	var b strings.Builder

	if p.Label != "" {
		b.WriteString(ProgressLabelStyle.Render(p.Label))
		b.WriteString("\n\n")
	}

	b.WriteString(p.renderProgressBar())
	b.WriteString("\n\n")

	var lines []string
	for _, step := range p.Steps {
		lines = append(lines, p.renderStepLine(step))
	}
	b.WriteString(strings.Join(lines, "\n"))

	return b.String()
}

// renderProgressBar renders the bar with percentage and step counter
func (p *Progress) renderProgressBar() string {
	barView := p.bar.ViewAs(p.Percent)
	percentStr := fmt.Sprintf("%3.0f%%", p.Percent*100)
	stepStr := fmt.Sprintf("[%d/%d]", p.Current, p.Total)

	return lipgloss.NewStyle().
		PaddingLeft(2).
		Render(fmt.Sprintf("%s  %s  %s", barView, percentStr, stepStr))
}

// renderStepLine renders a single step line
func (p *Progress) renderStepLine(step Step) string {
	prefix := fmt.Sprintf("  [%d/%d]", step.Number, p.Total)

	var marker string
	var style lipgloss.Style

	switch step.Status {
	case StepComplete:
		marker = StepMarkerComplete
		style = StepCompleteStyle
	case StepRunning:
		marker = StepMarkerRunning
		style = StepRunningStyle
	case StepFailed:
		marker = FailureMarker
		style = ErrorTitleStyle
	case StepSkipped:
		marker = "⊘"
		style = StepPendingStyle
	default: // StepPending
		marker = StepMarkerPending
		style = StepPendingStyle
	}

	var b strings.Builder
	b.WriteString(prefix)
	b.WriteString(" ")
	b.WriteString(style.Render(step.Name))

	// Pad the name so markers line up in a consistent column
	nameLen := lipgloss.Width(step.Name)
	maxNameLen := 45
	padding := maxNameLen - nameLen
	if padding < 1 {
		padding = 1
	}
	b.WriteString(strings.Repeat(" ", padding))
	b.WriteString(style.Render(marker))

	if step.Message != "" {
		b.WriteString("  ")
		b.WriteString(StepNoteStyle.Render("(" + step.Message + ")"))
	}

	return b.String()
}

// String implements fmt.Stringer
func (p *Progress) String() string {
	return p.Render()
}

// StepCallback is the function signature for step progress updates.
// Operations call this to report progress as they advance.
type StepCallback func(stepNumber int, name string, status StepStatus, message string)

// Printer returns a StepCallback that records updates and prints step
// lines to w as they settle. Running steps are printed with a trailing
// carriage return so the settled line overwrites them.
func (p *Progress) Printer(w io.Writer) StepCallback {
	return func(stepNumber int, name string, status StepStatus, message string) {
		if stepNumber < 1 || stepNumber > len(p.Steps) {
			return
		}
		if name != "" {
			p.Steps[stepNumber-1].Name = name
		}
		p.UpdateStep(stepNumber, status, message)

		step := p.Steps[stepNumber-1]
		switch status {
		case StepComplete, StepFailed, StepSkipped:
			_, _ = fmt.Fprintln(w, p.renderStepLine(step))
		case StepRunning:
			_, _ = fmt.Fprint(w, p.renderStepLine(step)+"\r")
		}
	}
}
