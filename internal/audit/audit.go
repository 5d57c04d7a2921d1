// Package audit appends analysis outcomes to a JSONL trail, one event per
// line. Events are redacted before they touch disk.
package audit

import (
	"encoding/json"
	"os"
	"sync"
	"time"

	"github.com/shellsentry/shellsentry/internal/redact"
)

// Event is one analysis outcome. Chain analyses log the full sequence in
// Chain with Command holding the most dangerous element.
type Event struct {
	Timestamp       string   `json:"timestamp"`
	Command         string   `json:"command"`
	Chain           []string `json:"chain,omitempty"`
	Shell           string   `json:"shell"`
	ThreatLevel     string   `json:"threat_level"`
	Allowed         bool     `json:"allowed"`
	Patterns        []string `json:"patterns,omitempty"`
	Warnings        []string `json:"warnings,omitempty"`
	Recommendations []string `json:"recommendations,omitempty"`
	UserAction      string   `json:"user_action,omitempty"`
	Feedback        string   `json:"feedback,omitempty"`
	AnalysisTimeMS  uint64   `json:"analysis_time_ms,omitempty"`
}

// Logger writes events to an append-only file. Safe for concurrent use.
type Logger struct {
	mu   sync.Mutex
	file *os.File
}

func New(path string) (*Logger, error) {
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return nil, err
	}
	return &Logger{file: file}, nil
}

// Log redacts and appends one event. The timestamp is filled in when the
// caller left it empty.
func (l *Logger) Log(event Event) error {
	if event.Timestamp == "" {
		event.Timestamp = time.Now().UTC().Format(time.RFC3339)
	}
	event.Command = redact.Redact(event.Command)
	event.Chain = redact.RedactAll(event.Chain)
	event.Warnings = redact.RedactAll(event.Warnings)

	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	data = append(data, '\n')

	l.mu.Lock()
	defer l.mu.Unlock()
	_, err = l.file.Write(data)
	return err
}

func (l *Logger) Close() error {
	if l.file != nil {
		return l.file.Close()
	}
	return nil
}
