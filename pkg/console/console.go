// Package console formats human-readable CLI output: startup banners,
// sync/doctor summaries, and warning/error lines written to stderr. It never
// touches the MCP JSON-RPC stream on stdout.
package console

import (
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

var (
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("3")).Bold(true)
	errStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("2")).Bold(true)
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("4")).Bold(true)
)

// colorsEnabled reports whether stderr is a TTY; when it's not (piped into
// a log aggregator, or running under an MCP client) we emit plain text.
func colorsEnabled() bool {
	return term.IsTerminal(int(os.Stderr.Fd()))
}

// FormatWarningMessage renders a warning line for CLI/stderr output.
func FormatWarningMessage(msg string) string {
	if !colorsEnabled() {
		return "warning: " + msg
	}
	return warnStyle.Render("warning:") + " " + msg
}

// FormatErrorMessage renders an error line for CLI/stderr output.
func FormatErrorMessage(msg string) string {
	if !colorsEnabled() {
		return "error: " + msg
	}
	return errStyle.Render("error:") + " " + msg
}

// FormatSuccessMessage renders a success line for CLI/stderr output.
func FormatSuccessMessage(msg string) string {
	if !colorsEnabled() {
		return "ok: " + msg
	}
	return okStyle.Render("ok:") + " " + msg
}

// FormatKV renders a "label: value" pair used by doctor/sync summaries.
func FormatKV(label string, value any) string {
	if !colorsEnabled() {
		return fmt.Sprintf("%s: %v", label, value)
	}
	return labelStyle.Render(label+":") + fmt.Sprintf(" %v", value)
}

// PrintBanner writes a one-line startup banner to stderr.
func PrintBanner(name, version string) {
	fmt.Fprintln(os.Stderr, FormatKV(name, "starting (version "+version+")"))
}
