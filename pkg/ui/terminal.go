package ui

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Version information - overridable at build time via ldflags:
// go build -ldflags "-X github.com/poreport/poreport/pkg/ui.Version=1.2.0"
var (
	Version   = "1.4.0"
	BuildDate = "2026-08-12"
)

// Global UI state
var (
	silentMode  bool
	noColorMode bool
	uiMu        sync.RWMutex
)

// SetSilent suppresses all console output except errors.
func SetSilent(silent bool) {
	uiMu.Lock()
	defer uiMu.Unlock()
	silentMode = silent
}

// SetNoColor disables colored output.
func SetNoColor(noColor bool) {
	uiMu.Lock()
	noColorMode = noColor
	uiMu.Unlock()
	if noColor {
		lipgloss.SetColorProfile(termenv.Ascii)
	}
}

// IsSilent reports whether silent mode is active.
func IsSilent() bool {
	uiMu.RLock()
	defer uiMu.RUnlock()
	return silentMode
}

// Banner prints the tool banner unless silent.
func Banner() {
	if IsSilent() {
		return
	}
	name := BannerStyle.Render("poreport")
	version := VersionStyle.Render("v" + Version)
	sub := SubtitleStyle.Render("Policy Optimizer ticket reports")
	fmt.Fprintf(os.Stderr, "\n%s %s\n%s\n\n", name, version, sub)
}

// Infof prints a formatted informational line unless silent.
func Infof(format string, args ...any) {
	if IsSilent() {
		return
	}
	fmt.Fprintf(os.Stderr, format+"\n", args...)
}

// Successf prints a formatted success line unless silent.
func Successf(format string, args ...any) {
	if IsSilent() {
		return
	}
	fmt.Fprintln(os.Stderr, SuccessStyle.Render("[ok] ")+fmt.Sprintf(format, args...))
}

// Warnf prints a formatted warning line unless silent.
func Warnf(format string, args ...any) {
	if IsSilent() {
		return
	}
	fmt.Fprintln(os.Stderr, WarnStyle.Render("[warn] ")+fmt.Sprintf(format, args...))
}

// Errorf prints a formatted error line; never suppressed.
func Errorf(format string, args ...any) {
	fmt.Fprintln(os.Stderr, ErrorStyle.Render("[error] ")+fmt.Sprintf(format, args...))
}

// Section prints a section divider unless silent.
func Section(title string) {
	if IsSilent() {
		return
	}
	fmt.Fprintf(os.Stderr, "\n%s\n%s\n",
		SectionStyle.Render(title),
		SubtitleStyle.Render(strings.Repeat("-", len(title))))
}

// Stat prints an aligned label/value pair unless silent.
func Stat(label, value string) {
	if IsSilent() {
		return
	}
	fmt.Fprintf(os.Stderr, "  %s %s\n",
		StatLabelStyle.Render(fmt.Sprintf("%-22s", label+":")),
		StatValueStyle.Render(value))
}
