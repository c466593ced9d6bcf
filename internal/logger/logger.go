// Package logger provides verbose diagnostics for usdinspect.
// When verbose mode is enabled via the --verbose flag, debug messages about
// cache misses, lazy expansions and reloads are written to the configured
// output (stderr by default, a log file while the TUI owns the terminal).
package logger

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

var (
	mu      sync.RWMutex
	verbose bool
	output  io.Writer = os.Stderr
)

// SetVerbose enables or disables verbose logging.
func SetVerbose(v bool) {
	mu.Lock()
	defer mu.Unlock()
	verbose = v
}

// IsVerbose returns true if verbose mode is enabled.
func IsVerbose() bool {
	mu.RLock()
	defer mu.RUnlock()
	return verbose
}

// SetOutput sets the output writer for logs.
// Defaults to os.Stderr. Useful for testing and for the TUI.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
}

// Component is a logger whose lines are prefixed with a component name.
type Component struct {
	name string
}

// For returns a logger for the named component.
func For(name string) Component {
	return Component{name: name}
}

// Debug prints a component message if verbose mode is enabled.
func (c Component) Debug(format string, args ...any) {
	write(true, "DEBUG", c.name, format, args...)
}

// Warn prints a component warning if verbose mode is enabled.
func (c Component) Warn(format string, args ...any) {
	write(true, "WARN", c.name, format, args...)
}

// Timed logs how long an operation took once the returned func is called.
func (c Component) Timed(operation string) func() {
	if !IsVerbose() {
		return func() {}
	}
	start := time.Now()
	return func() {
		c.Debug("%s took %s", operation, time.Since(start).Round(time.Microsecond))
	}
}

// Debug prints a message if verbose mode is enabled.
func Debug(format string, args ...any) {
	write(true, "DEBUG", "", format, args...)
}

// Info prints an informational message if verbose mode is enabled.
func Info(format string, args ...any) {
	write(true, "INFO", "", format, args...)
}

// Warn prints a warning message if verbose mode is enabled.
func Warn(format string, args ...any) {
	write(true, "WARN", "", format, args...)
}

// Error prints an error message regardless of verbose mode.
func Error(format string, args ...any) {
	write(false, "ERROR", "", format, args...)
}

// Section prints a section header if verbose mode is enabled.
func Section(name string) {
	mu.RLock()
	defer mu.RUnlock()
	if verbose {
		fmt.Fprintf(output, "\n=== %s ===\n", name)
	}
}

func write(onlyVerbose bool, level, component, format string, args ...any) {
	mu.RLock()
	defer mu.RUnlock()
	if onlyVerbose && !verbose {
		return
	}
	prefix := "[" + level + "] "
	if component != "" {
		prefix += component + ": "
	}
	fmt.Fprintf(output, prefix+format+"\n", args...)
}
