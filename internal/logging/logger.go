// Package logging provides categorized file-based logging for trainpilot.
// Logs are written to a per-category file under the configured directory.
// Logging is disabled unless TRAINPILOT_DEBUG is set; when disabled every
// call is a silent no-op so hot paths pay nothing.
package logging

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
)

// Category represents a log category/system.
type Category string

const (
	CategoryBoot       Category = "boot"       // Startup and CLI wiring
	CategoryCouncil    Category = "council"    // Deliberation pipeline stages
	CategoryChat       Category = "chat"       // Conversation engine turns
	CategoryPerception Category = "perception" // Gateway calls, intent routing
	CategoryLedger     Category = "ledger"     // History appends and selection
	CategorySession    Category = "session"    // Session state, digests
)

// Logger wraps a standard logger with category and file output.
type Logger struct {
	category Category
	logger   *log.Logger
	file     *os.File
}

var (
	loggers   = make(map[Category]*Logger)
	loggersMu sync.RWMutex
	logsDir   string
	enabled   bool
)

// Initialize sets up the logging directory. Call once at startup; if dir is
// empty or TRAINPILOT_DEBUG is unset, logging stays off.
func Initialize(dir string) error {
	if os.Getenv("TRAINPILOT_DEBUG") == "" || dir == "" {
		enabled = false
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create logs directory: %w", err)
	}
	logsDir = dir
	enabled = true
	Get(CategoryBoot).Info("=== trainpilot logging initialized (dir=%s) ===", dir)
	return nil
}

// Enabled reports whether debug logging is active.
func Enabled() bool { return enabled }

// Get returns the logger for a category, creating it on first use.
func Get(category Category) *Logger {
	loggersMu.RLock()
	l, ok := loggers[category]
	loggersMu.RUnlock()
	if ok {
		return l
	}

	loggersMu.Lock()
	defer loggersMu.Unlock()
	if l, ok := loggers[category]; ok {
		return l
	}

	l = &Logger{category: category}
	if enabled {
		path := filepath.Join(logsDir, string(category)+".log")
		f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err == nil {
			l.file = f
			l.logger = log.New(f, "", log.LstdFlags|log.Lmicroseconds)
		}
	}
	loggers[category] = l
	return l
}

// Close flushes and closes all open log files.
func Close() {
	loggersMu.Lock()
	defer loggersMu.Unlock()
	for _, l := range loggers {
		if l.file != nil {
			l.file.Close()
		}
	}
	loggers = make(map[Category]*Logger)
	enabled = false
}

func (l *Logger) write(level, format string, args ...any) {
	if l == nil || l.logger == nil {
		return
	}
	l.logger.Printf("[%s] %s", level, fmt.Sprintf(format, args...))
}

// Debug logs at debug level.
func (l *Logger) Debug(format string, args ...any) { l.write("DEBUG", format, args...) }

// Info logs at info level.
func (l *Logger) Info(format string, args ...any) { l.write("INFO", format, args...) }

// Warn logs at warn level.
func (l *Logger) Warn(format string, args ...any) { l.write("WARN", format, args...) }

// Error logs at error level.
func (l *Logger) Error(format string, args ...any) { l.write("ERROR", format, args...) }

// Convenience wrappers for the common categories.

func Council(format string, args ...any)         { Get(CategoryCouncil).Info(format, args...) }
func CouncilDebug(format string, args ...any)    { Get(CategoryCouncil).Debug(format, args...) }
func Chat(format string, args ...any)            { Get(CategoryChat).Info(format, args...) }
func ChatDebug(format string, args ...any)       { Get(CategoryChat).Debug(format, args...) }
func Perception(format string, args ...any)      { Get(CategoryPerception).Info(format, args...) }
func PerceptionDebug(format string, args ...any) { Get(CategoryPerception).Debug(format, args...) }
func Ledger(format string, args ...any)          { Get(CategoryLedger).Info(format, args...) }
func SessionDebug(format string, args ...any)    { Get(CategorySession).Debug(format, args...) }
