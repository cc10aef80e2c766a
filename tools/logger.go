package tools

import (
	"fmt"

	"github.com/golang/glog"
)

var isEnabled = true

func EnableLogger() {
	isEnabled = true
}

// SetLoggerEnabled switches Info output on or off, as --silent does.
func SetLoggerEnabled(enabled bool) {
	if enabled {
		EnableLogger()
	} else {
		DisableLogger()
	}
}

// DisableLogger silences Info output. Warnings and errors are always written.
func DisableLogger() {
	isEnabled = false
}

// Logger is the logging context handed to every component. It is built once in main and
// writes through glog with a component prefix; main flushes glog on exit.
type Logger struct {
	prefix string
}

func NewLogger(component string) *Logger {
	return &Logger{prefix: "[" + component + "] "}
}

// With returns a logger for a sub-component.
func (l *Logger) With(component string) *Logger {
	return &Logger{prefix: l.prefix + "[" + component + "] "}
}

func (l *Logger) Infof(format string, args ...interface{}) {
	if isEnabled {
		glog.InfoDepth(1, l.prefix+fmt.Sprintf(format, args...))
	}
}

func (l *Logger) Warningf(format string, args ...interface{}) {
	glog.WarningDepth(1, l.prefix+fmt.Sprintf(format, args...))
}

func (l *Logger) Errorf(format string, args ...interface{}) {
	glog.ErrorDepth(1, l.prefix+fmt.Sprintf(format, args...))
}

func LogOutput(val ...interface{}) {
	if isEnabled {
		glog.InfoDepth(1, fmt.Sprintln(val...))
	}
}
