package core

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"
)

// StructuredLogger is a small JSON/text logger used as the default
// non-noop Logger. It has no dependency on a telemetry backend; it simply
// writes one line per event to its configured output.
type StructuredLogger struct {
	component string
	debug     bool
	format    string // "json" or "text"
	output    io.Writer
}

// NewStructuredLogger creates a logger that writes to output in the given
// format ("json" or "text"). debug controls whether Debug() calls are
// emitted at all.
func NewStructuredLogger(component, format string, debug bool, output io.Writer) *StructuredLogger {
	if output == nil {
		output = os.Stdout
	}
	return &StructuredLogger{
		component: component,
		debug:     debug,
		format:    strings.ToLower(format),
		output:    output,
	}
}

// WithComponent returns a logger tagged with a different component name,
// sharing the same output and format.
func (l *StructuredLogger) WithComponent(component string) Logger {
	return &StructuredLogger{component: component, debug: l.debug, format: l.format, output: l.output}
}

func (l *StructuredLogger) Info(msg string, fields map[string]interface{})  { l.logEvent("INFO", msg, fields) }
func (l *StructuredLogger) Error(msg string, fields map[string]interface{}) { l.logEvent("ERROR", msg, fields) }
func (l *StructuredLogger) Warn(msg string, fields map[string]interface{})  { l.logEvent("WARN", msg, fields) }

func (l *StructuredLogger) Debug(msg string, fields map[string]interface{}) {
	if l.debug {
		l.logEvent("DEBUG", msg, fields)
	}
}

func (l *StructuredLogger) InfoWithContext(ctx context.Context, msg string, fields map[string]interface{}) {
	l.Info(msg, fields)
}
func (l *StructuredLogger) ErrorWithContext(ctx context.Context, msg string, fields map[string]interface{}) {
	l.Error(msg, fields)
}
func (l *StructuredLogger) WarnWithContext(ctx context.Context, msg string, fields map[string]interface{}) {
	l.Warn(msg, fields)
}
func (l *StructuredLogger) DebugWithContext(ctx context.Context, msg string, fields map[string]interface{}) {
	l.Debug(msg, fields)
}

func (l *StructuredLogger) logEvent(level, msg string, fields map[string]interface{}) {
	timestamp := time.Now().Format(time.RFC3339)

	if l.format == "json" {
		entry := map[string]interface{}{
			"timestamp": timestamp,
			"level":     level,
			"component": l.component,
			"message":   msg,
		}
		for k, v := range fields {
			entry[k] = v
		}
		if data, err := json.Marshal(entry); err == nil {
			fmt.Fprintln(l.output, string(data))
		}
		return
	}

	var fieldStr strings.Builder
	for k, v := range fields {
		fieldStr.WriteString(fmt.Sprintf(" %s=%v", k, v))
	}
	fmt.Fprintf(l.output, "%s [%s] [%s] %s%s\n", timestamp, level, l.component, msg, fieldStr.String())
}
