package logging

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"
)

func TestAccessLoggerWritesJSONL(t *testing.T) {
	var buf bytes.Buffer
	logger := NewAccessLogger(&buf)

	entries := []Access{
		{Timestamp: time.Unix(0, 0).UTC(), Method: "GET", Path: "/a", StatusCode: 200},
		{Timestamp: time.Unix(1, 0).UTC(), Method: "GET", Path: "/b", StatusCode: 404, Rewrites: 3},
	}
	for _, entry := range entries {
		if err := logger.Write(entry); err != nil {
			t.Fatalf("Write error: %v", err)
		}
	}

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}

	var decoded Access
	if err := json.Unmarshal(lines[1], &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded.Path != "/b" || decoded.Rewrites != 3 {
		t.Fatalf("unexpected entry %+v", decoded)
	}
}

func TestAccessSessionOmitted(t *testing.T) {
	var buf bytes.Buffer
	logger := NewAccessLogger(&buf)

	if err := logger.Write(Access{Path: "/"}); err != nil {
		t.Fatalf("Write error: %v", err)
	}
	if bytes.Contains(buf.Bytes(), []byte("session_id")) {
		t.Fatalf("empty session id should be omitted: %s", buf.String())
	}
}
