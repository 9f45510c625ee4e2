package logging

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"time"
)

// Access is written as a single JSON object per served request.
type Access struct {
	Timestamp  time.Time `json:"ts"`
	RequestID  string    `json:"request_id"`
	SessionID  string    `json:"session_id,omitempty"`
	ClientIP   string    `json:"client_ip"`
	Method     string    `json:"method"`
	Path       string    `json:"path"`
	Mount      string    `json:"mount"`
	StatusCode int       `json:"status_code"`
	Bytes      int64     `json:"bytes"`
	Rewrites   int       `json:"rewrites"`
	DurationMS int64     `json:"duration_ms"`
}

type AccessLogger struct {
	w io.Writer
}

func NewAccessLogger(w io.Writer) *AccessLogger {
	return &AccessLogger{w: w}
}

func OpenAccessLog(path string) (*AccessLogger, func() error, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, nil, err
	}
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, nil, err
	}
	return NewAccessLogger(file), file.Close, nil
}

func (l *AccessLogger) Write(entry Access) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	_, err = l.w.Write(append(data, '\n'))
	return err
}
