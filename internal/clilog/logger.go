// Package clilog provides leveled key/value logging for the CLI. Log output
// always goes to stderr or a file, never stdout, so piped primary output
// stays clean.
package clilog

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// Logger writes timestamped key/value log lines.
type Logger struct {
	mu      sync.Mutex
	out     io.Writer
	file    *os.File
	verbose bool
}

// Log is the process-wide logger. It writes warnings and errors to stderr
// until Init configures it otherwise.
var Log = &Logger{out: os.Stderr}

// Init redirects logging to the given file path. An empty path keeps stderr.
func Init(path string, verbose bool) error {
	Log.mu.Lock()
	defer Log.mu.Unlock()
	Log.verbose = verbose
	if path == "" {
		return nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return err
	}
	Log.file = f
	Log.out = f
	return nil
}

// Close closes the log file if one was opened.
func Close() error {
	Log.mu.Lock()
	defer Log.mu.Unlock()
	if Log.file != nil {
		err := Log.file.Close()
		Log.file = nil
		Log.out = os.Stderr
		return err
	}
	return nil
}

// Writer returns the underlying writer for use with other libraries.
func (l *Logger) Writer() io.Writer {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.out
}

func (l *Logger) log(level string, msg string, keyvals ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.out == nil {
		return
	}

	line := fmt.Sprintf("%s [%s] %s", time.Now().Format("15:04:05.000"), level, msg)
	for i := 0; i+1 < len(keyvals); i += 2 {
		line += fmt.Sprintf(" %v=%v", keyvals[i], keyvals[i+1])
	}
	fmt.Fprintln(l.out, line)
}

// Debug logs a debug message. Suppressed unless verbose is enabled.
func (l *Logger) Debug(msg string, keyvals ...any) {
	if !l.verbose {
		return
	}
	l.log("DEBUG", msg, keyvals...)
}

// Info logs an informational message. Suppressed unless verbose is enabled.
func (l *Logger) Info(msg string, keyvals ...any) {
	if !l.verbose {
		return
	}
	l.log("INFO", msg, keyvals...)
}

// Warn logs a warning with optional key-value pairs.
func (l *Logger) Warn(msg string, keyvals ...any) {
	l.log("WARN", msg, keyvals...)
}

// Error logs an error with optional key-value pairs.
func (l *Logger) Error(msg string, keyvals ...any) {
	l.log("ERROR", msg, keyvals...)
}
