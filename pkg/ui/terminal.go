package ui

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
)

var (
	neonCyan    = lipgloss.Color("#00FFFF")
	neonMagenta = lipgloss.Color("#FF00FF")
	neonGreen   = lipgloss.Color("#39FF14")
	neonYellow  = lipgloss.Color("#FFFF00")
	neonOrange  = lipgloss.Color("#FF6700")
	alertRed    = lipgloss.Color("#FF0000")
	dimWhite    = lipgloss.Color("#B0B0B0")

	labelStyle     = lipgloss.NewStyle().Foreground(neonCyan).Bold(true)
	valueStyle     = lipgloss.NewStyle().Foreground(neonYellow)
	successStyle   = lipgloss.NewStyle().Foreground(neonGreen).Bold(true)
	errorStyle     = lipgloss.NewStyle().Foreground(alertRed).Bold(true)
	warningStyle   = lipgloss.NewStyle().Foreground(neonOrange).Bold(true)
	highlightStyle = lipgloss.NewStyle().Foreground(neonMagenta).Bold(true)
	dimStyle       = lipgloss.NewStyle().Foreground(dimWhite).Faint(true)

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(neonMagenta).
			Padding(0, 1)
)

// Printer writes styled operator output. Styling is dropped when the
// output is not a color terminal.
type Printer struct {
	out   io.Writer
	plain bool
}

// NewPrinter creates a Printer writing to out
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// Stdout returns a Printer for standard output
func Stdout() *Printer {
	return NewPrinter(os.Stdout)
}

// Plain disables styling regardless of the terminal
func (p *Printer) Plain() *Printer {
	return &Printer{out: p.out, plain: true}
}

func (p *Printer) render(style lipgloss.Style, s string) string {
	if p.plain {
		return s
	}
	return style.Render(s)
}

// Error prints an error message with an optional detail
func (p *Printer) Error(msg string, detail ...interface{}) {
	if len(detail) > 0 {
		msg = fmt.Sprintf("%s: %v", msg, detail[0])
	}
	fmt.Fprintln(p.out, p.render(errorStyle, msg))
}

// Warning prints a warning message with an optional detail
func (p *Printer) Warning(msg string, detail ...interface{}) {
	if len(detail) > 0 {
		msg = fmt.Sprintf("%s: %v", msg, detail[0])
	}
	fmt.Fprintln(p.out, p.render(warningStyle, msg))
}

// Success prints a success message
func (p *Printer) Success(msg string) {
	fmt.Fprintln(p.out, p.render(successStyle, msg))
}

// Info prints a label/value pair
func (p *Printer) Info(label string, value interface{}) {
	fmt.Fprintf(p.out, "%s: %s\n", p.render(labelStyle, label), p.render(valueStyle, fmt.Sprint(value)))
}

// Highlight prints a heading
func (p *Printer) Highlight(msg string) {
	fmt.Fprintln(p.out, p.render(highlightStyle, msg))
}

// Dim prints secondary text
func (p *Printer) Dim(msg string) {
	fmt.Fprintln(p.out, p.render(dimStyle, msg))
}

// Panel prints body inside a bordered box
func (p *Printer) Panel(body string) {
	if p.plain {
		fmt.Fprintln(p.out, body)
		return
	}
	fmt.Fprintln(p.out, panelStyle.Render(body))
}

// Raw prints text unchanged
func (p *Printer) Raw(text string) {
	fmt.Fprint(p.out, text)
}
