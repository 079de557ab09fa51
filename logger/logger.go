package logger

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"
)

type LogEntry struct {
	Timestamp string      `json:"timestamp"`
	Level     string      `json:"level"`
	Service   string      `json:"service"`
	Action    string      `json:"action"`
	Message   string      `json:"message"`
	Hostname  string      `json:"hostname"`
	RequestID string      `json:"request_id,omitempty"`
	Error     *ErrorEntry `json:"error,omitempty"`
}

type ErrorEntry struct {
	Msg string `json:"msg"`
}

// Logger emits one JSON object per line. Safe for concurrent use as long as
// the underlying writer is (os.Stderr is).
type Logger struct {
	service  string
	hostname string
	out      io.Writer
}

func New(service string) *Logger {
	hostname, _ := os.Hostname()
	return &Logger{service: service, hostname: hostname, out: os.Stderr}
}

// NewWithWriter is used by tests to capture output.
func NewWithWriter(service string, out io.Writer) *Logger {
	hostname, _ := os.Hostname()
	return &Logger{service: service, hostname: hostname, out: out}
}

func (l *Logger) Info(requestID, action, message string) {
	l.log("INFO", requestID, action, message, nil)
}

func (l *Logger) Debug(requestID, action, message string) {
	l.log("DEBUG", requestID, action, message, nil)
}

func (l *Logger) Warn(requestID, action, message string) {
	l.log("WARN", requestID, action, message, nil)
}

func (l *Logger) Error(requestID, action, message string, err error) {
	var entry *ErrorEntry
	if err != nil {
		entry = &ErrorEntry{Msg: err.Error()}
	}
	l.log("ERROR", requestID, action, message, entry)
}

func (l *Logger) log(level, requestID, action, message string, errorEntry *ErrorEntry) {
	entry := LogEntry{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Level:     level,
		Service:   l.service,
		Action:    action,
		Message:   message,
		Hostname:  l.hostname,
		RequestID: requestID,
		Error:     errorEntry,
	}
	jsonData, _ := json.Marshal(entry)
	fmt.Fprintln(l.out, string(jsonData))
}
