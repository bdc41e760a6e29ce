// Package events provides the structured logger shared by all components.
package events

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"time"
)

// LogLevel represents logging severity.
type LogLevel int

const (
	DebugLevel LogLevel = iota
	InfoLevel
	WarnLevel
	ErrorLevel
)

// Logger provides structured logging.
type Logger struct {
	mu     sync.Mutex
	level  LogLevel
	format string
	output io.Writer
	fields map[string]interface{}
}

// NewLogger creates a logger. Format is "text" or "json"; file is a log file
// path, empty meaning stdout.
func NewLogger(level, format, file string) (*Logger, error) {
	var output io.Writer = os.Stdout
	if file != "" {
		f, err := os.OpenFile(file, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		output = f
	}

	return &Logger{
		level:  ParseLevel(level),
		format: format,
		output: output,
		fields: make(map[string]interface{}),
	}, nil
}

// NewTestLogger creates a logger for testing.
func NewTestLogger(level LogLevel, format string, output io.Writer) *Logger {
	return &Logger{
		level:  level,
		format: format,
		output: output,
		fields: make(map[string]interface{}),
	}
}

// Discard returns a logger that drops everything. Convenient in tests that
// do not inspect log output.
func Discard() *Logger {
	return NewTestLogger(ErrorLevel, "text", io.Discard)
}

// WithField returns a logger with an additional field.
func (l *Logger) WithField(key string, value interface{}) *Logger {
	return l.WithFields(map[string]interface{}{key: value})
}

// WithFields returns a logger with additional fields.
func (l *Logger) WithFields(fields map[string]interface{}) *Logger {
	l.mu.Lock()
	defer l.mu.Unlock()

	newFields := make(map[string]interface{}, len(l.fields)+len(fields))
	for k, v := range l.fields {
		newFields[k] = v
	}
	for k, v := range fields {
		newFields[k] = v
	}

	return &Logger{
		level:  l.level,
		format: l.format,
		output: l.output,
		fields: newFields,
	}
}

// WithError adds an error field.
func (l *Logger) WithError(err error) *Logger {
	return l.WithField("error", err.Error())
}

// Debug logs at debug level.
func (l *Logger) Debug(msg string) {
	l.log(DebugLevel, msg)
}

// Info logs at info level.
func (l *Logger) Info(msg string) {
	l.log(InfoLevel, msg)
}

// Warn logs at warn level.
func (l *Logger) Warn(msg string) {
	l.log(WarnLevel, msg)
}

// Error logs at error level.
func (l *Logger) Error(msg string) {
	l.log(ErrorLevel, msg)
}

func (l *Logger) log(level LogLevel, msg string) {
	if level < l.level {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now().UTC().Format(time.RFC3339Nano)
	if l.format == "json" {
		l.writeJSON(now, level, msg)
	} else {
		l.writeText(now, level, msg)
	}
}

func (l *Logger) writeJSON(ts string, level LogLevel, msg string) {
	var sb strings.Builder
	sb.WriteString(`{"time":"`)
	sb.WriteString(ts)
	sb.WriteString(`","level":"`)
	sb.WriteString(levelString(level))
	sb.WriteString(`","msg":"`)
	sb.WriteString(escapeJSON(msg))
	sb.WriteString(`"`)

	for _, k := range l.sortedKeys() {
		sb.WriteString(fmt.Sprintf(`,"%s":`, escapeJSON(k)))
		switch v := l.fields[k].(type) {
		case string:
			sb.WriteString(fmt.Sprintf(`"%s"`, escapeJSON(v)))
		case int, int64, float64, bool:
			sb.WriteString(fmt.Sprintf("%v", v))
		default:
			sb.WriteString(fmt.Sprintf(`"%s"`, escapeJSON(fmt.Sprintf("%v", v))))
		}
	}

	sb.WriteString("}\n")
	_, _ = l.output.Write([]byte(sb.String()))
}

func (l *Logger) writeText(ts string, level LogLevel, msg string) {
	fmt.Fprintf(l.output, "%s [%s] %s", ts, strings.ToUpper(levelString(level)), msg)
	for _, k := range l.sortedKeys() {
		fmt.Fprintf(l.output, " %s=%v", k, l.fields[k])
	}
	fmt.Fprintln(l.output)
}

// sortedKeys keeps field order stable across lines.
func (l *Logger) sortedKeys() []string {
	keys := make([]string, 0, len(l.fields))
	for k := range l.fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ParseLevel converts a level name to a LogLevel, defaulting to info.
func ParseLevel(s string) LogLevel {
	switch strings.ToLower(s) {
	case "debug":
		return DebugLevel
	case "warn":
		return WarnLevel
	case "error":
		return ErrorLevel
	default:
		return InfoLevel
	}
}

func levelString(l LogLevel) string {
	switch l {
	case DebugLevel:
		return "debug"
	case InfoLevel:
		return "info"
	case WarnLevel:
		return "warn"
	case ErrorLevel:
		return "error"
	default:
		return "unknown"
	}
}

func escapeJSON(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	s = strings.ReplaceAll(s, "\n", `\n`)
	s = strings.ReplaceAll(s, "\r", `\r`)
	s = strings.ReplaceAll(s, "\t", `\t`)
	return s
}
