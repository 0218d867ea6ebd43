package logging

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

const maxFieldBytes = 2048

// Decision is written as a single JSON object per request.
type Decision struct {
	Timestamp     time.Time `json:"ts"`
	RequestID     string    `json:"request_id"`
	ClientIP      string    `json:"client_ip"`
	Host          string    `json:"host"`
	Method        string    `json:"method"`
	Path          string    `json:"path"`
	Query         string    `json:"query"`
	RouteID       string    `json:"route_id"`
	Action        string    `json:"action"`
	Steps         []string  `json:"steps,omitempty"`
	BlacklistRule string    `json:"blacklist_rule,omitempty"`
	Location      string    `json:"location,omitempty"`
	StatusCode    int       `json:"status_code"`
	DurationMS    int64     `json:"duration_ms"`
	UpstreamMS    int64     `json:"upstream_ms"`
}

const (
	ActionRedirect = "redirect"
	ActionPass     = "pass"
	ActionNotFound = "not_found"
)

type DecisionLogger struct {
	mu sync.Mutex
	w  io.Writer
}

func NewDecisionLogger(w io.Writer) *DecisionLogger {
	return &DecisionLogger{w: w}
}

func OpenDecisionLog(path string) (*DecisionLogger, func() error, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, nil, err
	}
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, nil, err
	}
	return NewDecisionLogger(file), file.Close, nil
}

// NewRequestID returns a random identifier for a decision entry.
func NewRequestID() string {
	return uuid.NewString()
}

func (l *DecisionLogger) Write(decision Decision) error {
	decision.Path = truncate(decision.Path)
	decision.Query = truncate(decision.Query)
	decision.Location = truncate(decision.Location)

	data, err := json.Marshal(decision)
	if err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	_, err = l.w.Write(append(data, '\n'))
	return err
}

// truncate cuts value to at most maxFieldBytes without splitting a rune.
func truncate(value string) string {
	if len(value) <= maxFieldBytes {
		return value
	}
	cut := maxFieldBytes
	for cut > 0 && !utf8.RuneStart(value[cut]) {
		cut--
	}
	return value[:cut]
}
