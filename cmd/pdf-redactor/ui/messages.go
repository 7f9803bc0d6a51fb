package ui

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
)

var (
	noColorFlag bool
	verboseFlag bool

	stdout io.Writer = os.Stdout
	stderr io.Writer = os.Stderr
)

// InitUI applies the color and verbose settings.
func InitUI(noColor, verbose bool) {
	noColorFlag = noColor
	verboseFlag = verbose

	if noColor {
		color.NoColor = true
	}
}

// Verbose reports whether --verbose was given.
func Verbose() bool {
	return verboseFlag
}

func printf(w io.Writer, attr color.Attribute, symbol, format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	if noColorFlag {
		fmt.Fprintf(w, "%s %s\n", symbol, msg)
		return
	}
	color.New(attr).Fprintf(w, "%s %s\n", symbol, msg)
}

// Success displays a success message.
func Success(format string, args ...interface{}) {
	printf(stdout, color.FgGreen, "✓", format, args...)
}

// Error displays an error message to stderr.
func Error(format string, args ...interface{}) {
	printf(stderr, color.FgRed, "✗", format, args...)
}

// Warning displays a warning message.
func Warning(format string, args ...interface{}) {
	printf(stdout, color.FgYellow, "⚠", format, args...)
}

// Info displays an informational message.
func Info(format string, args ...interface{}) {
	printf(stdout, color.FgCyan, "ℹ", format, args...)
}

// Newline prints a newline.
func Newline() {
	fmt.Fprintln(stdout)
}

// Section displays a section header.
func Section(title string) {
	fmt.Fprintf(stdout, "\n%s\n", title)
	fmt.Fprintf(stdout, "%s\n\n", strings.Repeat("=", len(title)))
}
