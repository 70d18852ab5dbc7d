// Package logger is the annotator's process-wide logger.
// Debug, Info and Warn lines are printed to stderr only when verbose mode
// is on (the --verbose flag). Error lines are always printed.
package logger

import (
	"fmt"
	"io"
	"os"
	"sync"
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

// SetOutput sets the output writer. Defaults to os.Stderr.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
}

// Debug prints a message if verbose mode is enabled.
func Debug(format string, args ...any) {
	logf("DEBUG", false, format, args...)
}

// Info prints an informational message if verbose mode is enabled.
func Info(format string, args ...any) {
	logf("INFO", false, format, args...)
}

// Warn prints a warning message if verbose mode is enabled.
func Warn(format string, args ...any) {
	logf("WARN", false, format, args...)
}

// Error prints a message whether or not verbose mode is enabled.
func Error(format string, args ...any) {
	logf("ERROR", true, format, args...)
}

// Section prints a header separating the log lines of one unit.
func Section(name string) {
	mu.RLock()
	defer mu.RUnlock()
	if verbose {
		fmt.Fprintf(output, "\n=== %s ===\n", name)
	}
}

func logf(level string, always bool, format string, args ...any) {
	mu.RLock()
	defer mu.RUnlock()
	if verbose || always {
		fmt.Fprintf(output, "["+level+"] "+format+"\n", args...)
	}
}
