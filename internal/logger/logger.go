package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"
)

type LogLevel int

const (
	DEBUG LogLevel = iota
	INFO
	WARN
	ERROR
	FATAL
)

var levelNames = map[LogLevel]string{
	DEBUG: "DEBUG",
	INFO:  "INFO",
	WARN:  "WARN",
	ERROR: "ERROR",
	FATAL: "FATAL",
}

// ParseLevel maps a level name to a LogLevel, defaulting to INFO
func ParseLevel(name string) LogLevel {
	for level, n := range levelNames {
		if strings.EqualFold(n, name) {
			return level
		}
	}
	return INFO
}

// Options configures a Logger
type Options struct {
	Path      string
	Level     LogLevel
	DebugMode bool
	// Stderr mirrors every line to stderr. The TUI leaves this off since it
	// owns the terminal.
	Stderr bool
}

type Logger struct {
	mu           sync.Mutex
	logger       *log.Logger
	level        LogLevel
	file         *os.File
	component    string
	enableCaller bool
	debugMode    bool
	exit         func(int)
}

var globalLogger *Logger

// IsDebugEnabled reports whether the global logger is in debug mode
func IsDebugEnabled() bool {
	if globalLogger == nil {
		return false
	}
	return globalLogger.debugMode
}

// InitLogger initializes the global logger
func InitLogger(opts Options) error {
	l, err := New(opts)
	if err != nil {
		return err
	}
	globalLogger = l
	return nil
}

// SetGlobal replaces the global logger. Used by tests.
func SetGlobal(l *Logger) {
	globalLogger = l
}

// GetLogger returns the global logger
func GetLogger() *Logger {
	return globalLogger
}

// CloseLogger closes the global logger
func CloseLogger() error {
	if globalLogger != nil {
		return globalLogger.Close()
	}
	return nil
}

func Debug(format string, args ...interface{}) {
	if globalLogger != nil && globalLogger.debugMode {
		globalLogger.log(DEBUG, format, args...)
	}
}

func Info(format string, args ...interface{}) {
	if globalLogger != nil {
		globalLogger.log(INFO, format, args...)
	}
}

func Warn(format string, args ...interface{}) {
	if globalLogger != nil {
		globalLogger.log(WARN, format, args...)
	}
}

func Error(format string, args ...interface{}) {
	if globalLogger != nil {
		globalLogger.log(ERROR, format, args...)
	}
}

func Fatal(format string, args ...interface{}) {
	if globalLogger != nil {
		globalLogger.log(FATAL, format, args...)
		return
	}
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}

// New creates a logger writing to opts.Path
func New(opts Options) (*Logger, error) {
	dir := filepath.Dir(opts.Path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	file, err := os.OpenFile(opts.Path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}

	var out io.Writer = file
	if opts.Stderr {
		out = io.MultiWriter(file, os.Stderr)
	}

	l := NewWithWriter(out, opts.Level, opts.DebugMode)
	l.file = file
	return l, nil
}

// NewWithWriter creates a logger on an arbitrary writer
func NewWithWriter(w io.Writer, level LogLevel, debugMode bool) *Logger {
	return &Logger{
		logger:       log.New(w, "", 0),
		level:        level,
		enableCaller: true,
		debugMode:    debugMode,
		exit:         os.Exit,
	}
}

// Named returns a logger sharing the same output that tags lines with component
func (l *Logger) Named(component string) *Logger {
	return &Logger{
		logger:       l.logger,
		level:        l.level,
		component:    component,
		enableCaller: l.enableCaller,
		debugMode:    l.debugMode,
		exit:         l.exit,
	}
}

// Close closes the log file
func (l *Logger) Close() error {
	if l.file != nil {
		return l.file.Close()
	}
	return nil
}

// SetLevel sets the minimum log level
func (l *Logger) SetLevel(level LogLevel) {
	l.mu.Lock()
	l.level = level
	l.mu.Unlock()
}

// EnableCaller enables/disables caller information in logs
func (l *Logger) EnableCaller(enable bool) {
	l.mu.Lock()
	l.enableCaller = enable
	l.mu.Unlock()
}

// Writer exposes the logger as an io.Writer at the given level, for
// libraries that want a *log.Logger.
func (l *Logger) Writer(level LogLevel) io.Writer {
	return writerFunc(func(p []byte) (int, error) {
		l.log(level, "%s", strings.TrimRight(string(p), "\n"))
		return len(p), nil
	})
}

type writerFunc func(p []byte) (int, error)

func (f writerFunc) Write(p []byte) (int, error) { return f(p) }

func (l *Logger) log(level LogLevel, format string, args ...interface{}) {
	l.mu.Lock()
	minLevel, withCaller := l.level, l.enableCaller
	l.mu.Unlock()
	if level < minLevel {
		return
	}

	timestamp := time.Now().Format("2006-01-02 15:04:05.000")

	var caller string
	if withCaller {
		// log <- (*Logger).X or package func <- caller
		if _, file, line, ok := runtime.Caller(2); ok {
			caller = fmt.Sprintf(" [%s:%d]", filepath.Base(file), line)
		}
	}

	var component string
	if l.component != "" {
		component = " " + l.component + ":"
	}

	message := fmt.Sprintf(format, args...)
	l.logger.Printf("%s [%s]%s%s %s", timestamp, levelNames[level], caller, component, message)

	if level == FATAL {
		l.exit(1)
	}
}

// Debug logs a debug message (only if debug mode is enabled)
func (l *Logger) Debug(format string, args ...interface{}) {
	if l.debugMode {
		l.log(DEBUG, format, args...)
	}
}

func (l *Logger) Info(format string, args ...interface{}) {
	l.log(INFO, format, args...)
}

func (l *Logger) Warn(format string, args ...interface{}) {
	l.log(WARN, format, args...)
}

func (l *Logger) Error(format string, args ...interface{}) {
	l.log(ERROR, format, args...)
}

// Fatal logs a fatal message and exits the program
func (l *Logger) Fatal(format string, args ...interface{}) {
	l.log(FATAL, format, args...)
}
