// Package logx is the shared leveled logger. Every record carries the
// component that emitted it so output from the driver, the services and the
// CLI can be filtered apart.
//
// Nothing here is safe to call from an interrupt handler.
package logx

import (
	"io"
	"os"
	"strings"
	"sync"

	"golang.org/x/exp/slog"
)

// Component identifies a subsystem for log filtering.
type Component string

const (
	ComponentDriver  Component = "spider"
	ComponentTiming  Component = "timing"
	ComponentConfig  Component = "config"
	ComponentService Component = "service"
	ComponentCLI     Component = "cli"
)

var (
	level = new(slog.LevelVar)

	mu     sync.RWMutex
	output io.Writer = os.Stderr
	root   *slog.Logger
)

func init() {
	level.Set(slog.LevelWarn)
	root = newLogger(output)
}

func newLogger(w io.Writer) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// SetLevel sets the minimum level for all loggers, including ones already
// handed out.
func SetLevel(l slog.Level) { level.Set(l) }

// Level returns the current minimum level.
func Level() slog.Level { return level.Level() }

// ParseLevel maps "debug", "info", "warn", "error" and "none" to a level.
// Unknown names report false.
func ParseLevel(s string) (slog.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, true
	case "info":
		return slog.LevelInfo, true
	case "warn", "warning":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	case "none", "off":
		return slog.LevelError + 4, true
	}
	return 0, false
}

// SetOutput redirects loggers obtained after the call to w.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
	root = newLogger(w)
}

// Logger returns a logger tagged with component c.
func Logger(c Component) *slog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return root.With("component", string(c))
}
