// Package logger provides verbose logging for docsift.
// When verbose mode is enabled via the --verbose flag, debug messages
// are printed to stderr to help users understand the ingestion and
// search pipelines. Warnings are also kept in a small ring so commands
// can report degraded collaborators after the fact.
package logger

import (
	"fmt"
	"io"
	"os"
	"sync"
)

// maxWarnings bounds the warning ring.
const maxWarnings = 100

var (
	mu       sync.RWMutex
	verbose  bool
	output   io.Writer = os.Stderr
	warnings []string
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

// SetOutput sets the output writer for verbose logs.
// Defaults to os.Stderr. Useful for testing.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
}

// Debug prints a message if verbose mode is enabled.
func Debug(format string, args ...any) {
	mu.RLock()
	defer mu.RUnlock()
	if verbose {
		fmt.Fprintf(output, "[DEBUG] "+format+"\n", args...)
	}
}

// Section prints a section header if verbose mode is enabled.
func Section(name string) {
	mu.RLock()
	defer mu.RUnlock()
	if verbose {
		fmt.Fprintf(output, "\n=== %s ===\n", name)
	}
}

// Info prints an informational message if verbose mode is enabled.
func Info(format string, args ...any) {
	mu.RLock()
	defer mu.RUnlock()
	if verbose {
		fmt.Fprintf(output, "[INFO] "+format+"\n", args...)
	}
}

// Warn records a warning and prints it if verbose mode is enabled.
func Warn(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)

	mu.Lock()
	defer mu.Unlock()
	if len(warnings) == maxWarnings {
		warnings = append(warnings[:0], warnings[1:]...)
	}
	warnings = append(warnings, msg)
	if verbose {
		fmt.Fprintf(output, "[WARN] %s\n", msg)
	}
}

// Error prints an error message regardless of verbose mode.
func Error(format string, args ...any) {
	mu.RLock()
	defer mu.RUnlock()
	fmt.Fprintf(output, "[ERROR] "+format+"\n", args...)
}

// Warnings returns a copy of the recorded warnings, oldest first.
func Warnings() []string {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]string, len(warnings))
	copy(out, warnings)
	return out
}

// ResetWarnings clears the recorded warnings.
func ResetWarnings() {
	mu.Lock()
	defer mu.Unlock()
	warnings = nil
}
