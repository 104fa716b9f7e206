// Package logging provides component loggers for depotscan, backed by
// charmbracelet/log with file rotation handled by lumberjack.
//
// Basic usage:
//
//	if err := logging.Init(logging.Config{Level: "info"}); err != nil {
//	    return err
//	}
//	defer logging.Close()
//
//	logger := logging.Get("scanner")
//	logger.Info("scan started", "app", "480")
package logging

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/adrg/xdg"
	"github.com/charmbracelet/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Level represents a logging level.
type Level int

// Log levels from least to most severe.
const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// String returns the string representation of the level.
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "debug"
	case LevelInfo:
		return "info"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	default:
		return "unknown"
	}
}

func (l Level) charm() log.Level {
	switch l {
	case LevelDebug:
		return log.DebugLevel
	case LevelWarn:
		return log.WarnLevel
	case LevelError:
		return log.ErrorLevel
	default:
		return log.InfoLevel
	}
}

// ErrInvalidLevel is returned when an invalid log level string is provided.
var ErrInvalidLevel = errors.New("invalid log level")

// ParseLevel parses a string into a Level.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, nil
	case "info", "":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	default:
		return LevelInfo, fmt.Errorf("%w: %s", ErrInvalidLevel, s)
	}
}

// RotationConfig configures log file rotation.
type RotationConfig struct {
	// MaxSizeMB is the size in megabytes before the file is rotated.
	MaxSizeMB int

	// MaxAge is the number of days to keep rotated files. Zero keeps them.
	MaxAge int

	// MaxBackups is the number of rotated files to keep. Zero keeps all.
	MaxBackups int

	// Compress gzips rotated files.
	Compress bool
}

// DefaultRotationConfig returns the rotation defaults.
func DefaultRotationConfig() RotationConfig {
	return RotationConfig{
		MaxSizeMB:  10,
		MaxAge:     30,
		MaxBackups: 5,
	}
}

// Config configures the logging system.
type Config struct {
	// Level is the default file log level.
	Level string

	// Path is the log file path. Empty uses DefaultLogPath().
	Path string

	Rotation RotationConfig

	// Components maps component names to level overrides.
	Components map[string]string

	// ConsoleLevel enables stderr output at this level. Empty disables it.
	ConsoleLevel string

	// Console overrides the console writer (tests). Defaults to os.Stderr.
	Console io.Writer
}

// Logger is a component logger writing to the log file and, optionally,
// to the console.
type Logger struct {
	file      *log.Logger
	console   *log.Logger
	component string
}

// Debug logs a debug message.
func (l *Logger) Debug(msg string, args ...interface{}) {
	l.file.Debug(msg, args...)
	if l.console != nil {
		l.console.Debug(msg, args...)
	}
}

// Info logs an info message.
func (l *Logger) Info(msg string, args ...interface{}) {
	l.file.Info(msg, args...)
	if l.console != nil {
		l.console.Info(msg, args...)
	}
}

// Warn logs a warning message.
func (l *Logger) Warn(msg string, args ...interface{}) {
	l.file.Warn(msg, args...)
	if l.console != nil {
		l.console.Warn(msg, args...)
	}
}

// Error logs an error message.
func (l *Logger) Error(msg string, args ...interface{}) {
	l.file.Error(msg, args...)
	if l.console != nil {
		l.console.Error(msg, args...)
	}
}

// With returns a logger that adds key/value context to every message.
func (l *Logger) With(args ...interface{}) *Logger {
	nl := &Logger{
		file:      l.file.With(args...),
		component: l.component,
	}
	if l.console != nil {
		nl.console = l.console.With(args...)
	}
	return nl
}

// Component returns the logger's component name.
func (l *Logger) Component() string {
	return l.component
}

type state struct {
	mu          sync.Mutex
	initialized bool
	writer      *lumberjack.Logger
	level       Level
	components  map[string]Level
	console     io.Writer
	consoleLvl  Level
	loggers     map[string]*Logger
}

var global = &state{
	loggers:    make(map[string]*Logger),
	components: make(map[string]Level),
}

// Init configures logging. Loggers obtained before Init are rebuilt so that
// package-level loggers pick up the configuration. Before Init all output
// is discarded.
func Init(cfg Config) error {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return fmt.Errorf("parsing log level: %w", err)
	}

	components := make(map[string]Level, len(cfg.Components))
	for comp, lvl := range cfg.Components {
		parsed, err := ParseLevel(lvl)
		if err != nil {
			return fmt.Errorf("parsing level for component %s: %w", comp, err)
		}
		components[comp] = parsed
	}

	var console io.Writer
	var consoleLvl Level
	if cfg.ConsoleLevel != "" {
		consoleLvl, err = ParseLevel(cfg.ConsoleLevel)
		if err != nil {
			return fmt.Errorf("parsing console level: %w", err)
		}
		console = cfg.Console
		if console == nil {
			console = os.Stderr
		}
	}

	path := cfg.Path
	if path == "" {
		path = DefaultLogPath()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating log directory: %w", err)
	}

	rot := cfg.Rotation
	if rot.MaxSizeMB <= 0 {
		rot.MaxSizeMB = DefaultRotationConfig().MaxSizeMB
	}

	global.mu.Lock()
	defer global.mu.Unlock()

	if global.writer != nil {
		if err := global.writer.Close(); err != nil {
			return fmt.Errorf("closing existing writer: %w", err)
		}
	}

	global.writer = &lumberjack.Logger{
		Filename:   path,
		MaxSize:    rot.MaxSizeMB,
		MaxAge:     rot.MaxAge,
		MaxBackups: rot.MaxBackups,
		Compress:   rot.Compress,
	}
	global.level = level
	global.components = components
	global.console = console
	global.consoleLvl = consoleLvl
	global.initialized = true

	for comp, l := range global.loggers {
		*l = *global.build(comp)
	}
	return nil
}

// Get returns the logger for a component, creating it on first use.
// The returned pointer stays valid across Init calls.
func Get(component string) *Logger {
	global.mu.Lock()
	defer global.mu.Unlock()

	if l, ok := global.loggers[component]; ok {
		return l
	}
	l := global.build(component)
	global.loggers[component] = l
	return l
}

// build creates a logger for component. Must be called with s.mu held.
func (s *state) build(component string) *Logger {
	level := s.level
	if override, ok := s.components[component]; ok {
		level = override
	}

	if !s.initialized {
		return &Logger{
			file: log.NewWithOptions(io.Discard, log.Options{
				Level:  level.charm(),
				Prefix: component,
			}),
			component: component,
		}
	}

	l := &Logger{
		file: log.NewWithOptions(s.writer, log.Options{
			Level:           level.charm(),
			ReportTimestamp: true,
			TimeFormat:      time.RFC3339,
			Prefix:          component,
		}),
		component: component,
	}
	if s.console != nil {
		l.console = log.NewWithOptions(s.console, log.Options{
			Level:           s.consoleLvl.charm(),
			ReportTimestamp: true,
			TimeFormat:      "15:04:05",
			Prefix:          component,
		})
	}
	return l
}

// Close flushes and closes the log file. Loggers revert to discarding output.
func Close() error {
	global.mu.Lock()
	defer global.mu.Unlock()

	if !global.initialized {
		return nil
	}

	var err error
	if global.writer != nil {
		err = global.writer.Close()
		global.writer = nil
	}
	global.initialized = false
	global.console = nil
	global.components = make(map[string]Level)
	for comp, l := range global.loggers {
		*l = *global.build(comp)
	}
	if err != nil {
		return fmt.Errorf("closing log writer: %w", err)
	}
	return nil
}

// DefaultLogPath returns $XDG_STATE_HOME/depotscan/depotscan.log.
func DefaultLogPath() string {
	return filepath.Join(xdg.StateHome, "depotscan", "depotscan.log")
}
