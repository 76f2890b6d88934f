/*
Package logger implements a small leveled logger with key/value fields.
*/
package logger

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"
)

// Level represents log level
type Level int

// All levels
const (
	DebugLevel Level = iota
	InfoLevel
	WarnLevel
	ErrorLevel
)

// Config holds logger configuration
type Config struct {
	Level  string
	Format string // text or json
	Output io.Writer
}

// Logger writes leveled messages with fields.
type Logger struct {
	level     Level
	json      bool
	component string
	logger    *log.Logger
}

// Field is a key/value pair attached to a message.
type Field struct {
	Key   string
	Value interface{}
}

// New creates a new logger. Output defaults to stderr, so the
// generated audio can be written to stdout.
func New(cfg Config) *Logger {
	output := cfg.Output
	if output == nil {
		output = os.Stderr
	}

	l := &Logger{
		level:  ParseLevel(cfg.Level),
		json:   strings.EqualFold(cfg.Format, "json"),
		logger: log.New(output, "", log.LstdFlags),
	}
	if l.json {
		l.logger.SetFlags(0)
	}
	return l
}

// Discard returns a logger that drops everything.
func Discard() *Logger {
	return New(Config{Level: "error", Output: io.Discard})
}

// WithComponent creates a child logger with a component prefix
func (l *Logger) WithComponent(component string) *Logger {
	if l.json {
		return &Logger{
			level:     l.level,
			json:      true,
			component: component,
			logger:    log.New(l.logger.Writer(), "", 0),
		}
	}
	return &Logger{
		level:     l.level,
		component: component,
		logger:    log.New(l.logger.Writer(), fmt.Sprintf("[%s] ", component), log.LstdFlags),
	}
}

// Enabled indicates if messages of the given level are written.
func (l *Logger) Enabled(level Level) bool {
	return l.level <= level
}

func (l *Logger) Debug(msg string, fields ...Field) {
	if l.Enabled(DebugLevel) {
		l.log("DEBUG", msg, fields...)
	}
}

func (l *Logger) Info(msg string, fields ...Field) {
	if l.Enabled(InfoLevel) {
		l.log("INFO", msg, fields...)
	}
}

func (l *Logger) Warn(msg string, fields ...Field) {
	if l.Enabled(WarnLevel) {
		l.log("WARN", msg, fields...)
	}
}

func (l *Logger) Error(msg string, fields ...Field) {
	if l.Enabled(ErrorLevel) {
		l.log("ERROR", msg, fields...)
	}
}

func (l *Logger) log(level, msg string, fields ...Field) {
	if l.json {
		l.logJSON(level, msg, fields...)
		return
	}
	if len(fields) == 0 {
		l.logger.Printf("[%s] %s", level, msg)
		return
	}

	fieldStrs := make([]string, 0, len(fields))
	for _, f := range fields {
		fieldStrs = append(fieldStrs, fmt.Sprintf("%s=%v", f.Key, f.Value))
	}

	l.logger.Printf("[%s] %s %s", level, msg, strings.Join(fieldStrs, " "))
}

func (l *Logger) logJSON(level, msg string, fields ...Field) {
	entry := make(map[string]interface{}, len(fields)+4)
	for _, f := range fields {
		entry[f.Key] = f.Value
	}
	entry["time"] = time.Now().Format(time.RFC3339)
	entry["level"] = strings.ToLower(level)
	entry["msg"] = msg
	if l.component != "" {
		entry["component"] = l.component
	}
	line, err := json.Marshal(entry)
	if err != nil {
		l.logger.Printf(`{"level":"error","msg":"cannot marshal log entry: %v"}`, err)
		return
	}
	l.logger.Print(string(line))
}

// ParseLevel maps a level name to a Level, unknown names map to InfoLevel.
func ParseLevel(level string) Level {
	switch strings.ToLower(level) {
	case "debug":
		return DebugLevel
	case "info":
		return InfoLevel
	case "warn", "warning":
		return WarnLevel
	case "error":
		return ErrorLevel
	default:
		return InfoLevel
	}
}

// String creates a string field
func String(key, val string) Field {
	return Field{Key: key, Value: val}
}

// Int creates an int field
func Int(key string, val int) Field {
	return Field{Key: key, Value: val}
}

// Stringer creates a field from a fmt.Stringer
func Stringer(key string, val fmt.Stringer) Field {
	return Field{Key: key, Value: val.String()}
}

// Error creates an error field
func Error(err error) Field {
	if err == nil {
		return Field{Key: "error", Value: "nil"}
	}
	return Field{Key: "error", Value: err.Error()}
}
