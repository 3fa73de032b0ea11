package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync"
	"time"
)

// Minimal leveled logger shared by the bot service and the sweeper CLI.
// - zero external deps
// - Init(level) once at startup, then Debugf/Infof/Warnf/Errorf/Fatalf

type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
	LevelFatal
)

var (
	mu    sync.RWMutex
	out   *log.Logger = log.New(os.Stdout, "", 0)
	level Level       = LevelInfo
)

// Init sets the global log level (case-insensitive: debug, info, warn, error, fatal).
// Unknown or empty values fall back to info.
func Init(l string) {
	mu.Lock()
	defer mu.Unlock()
	switch strings.ToLower(strings.TrimSpace(l)) {
	case "debug":
		level = LevelDebug
	case "warn", "warning":
		level = LevelWarn
	case "error":
		level = LevelError
	case "fatal":
		level = LevelFatal
	default:
		level = LevelInfo
	}
}

// SetOutput redirects log output; used by tests to capture lines.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	out = log.New(w, "", 0)
}

func header(lvl string) string {
	return fmt.Sprintf("%s [%s] ", time.Now().Format(time.RFC3339), strings.ToUpper(lvl))
}

func enabled(l Level) bool {
	mu.RLock()
	defer mu.RUnlock()
	return l >= level
}

func emit(lvl string, format string, v ...interface{}) {
	mu.RLock()
	l := out
	mu.RUnlock()
	l.Printf(header(lvl)+format, v...)
}

func Debugf(format string, v ...interface{}) {
	if enabled(LevelDebug) {
		emit("debug", format, v...)
	}
}

func Infof(format string, v ...interface{}) {
	if enabled(LevelInfo) {
		emit("info", format, v...)
	}
}

func Warnf(format string, v ...interface{}) {
	if enabled(LevelWarn) {
		emit("warn", format, v...)
	}
}

func Errorf(format string, v ...interface{}) {
	if enabled(LevelError) {
		emit("error", format, v...)
	}
}

func Fatalf(format string, v ...interface{}) {
	emit("fatal", format, v...)
	os.Exit(1)
}

// single-string helpers
func Debug(v string) { Debugf("%s", v) }
func Info(v string)  { Infof("%s", v) }
func Warn(v string)  { Warnf("%s", v) }
func Error(v string) { Errorf("%s", v) }

// LevelString returns the current level as text.
func LevelString() string {
	mu.RLock()
	defer mu.RUnlock()
	switch level {
	case LevelDebug:
		return "debug"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	case LevelFatal:
		return "fatal"
	}
	return "info"
}
