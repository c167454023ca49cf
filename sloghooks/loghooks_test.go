package sloghooks

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func newJSONLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewJSONHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func records(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]any
		if err := json.Unmarshal([]byte(line), &m); err != nil {
			t.Fatalf("bad log line %q: %v", line, err)
		}
		out = append(out, m)
	}
	return out
}

func TestRedactsKeysByDefault(t *testing.T) {
	var buf bytes.Buffer
	h := New(newJSONLogger(&buf), Options{})

	h.DiskFailure("set", "s:5:users:u:1", errors.New("disk full"))

	recs := records(t, &buf)
	if len(recs) != 1 {
		t.Fatalf("got %d records", len(recs))
	}
	r := recs[0]
	if r["msg"] != "spacecache.disk_failure" || r["level"] != "WARN" || r["op"] != "set" {
		t.Fatalf("unexpected record %v", r)
	}
	if key, _ := r["key"].(string); key == "" || strings.Contains(key, "users") || len(key) != 16 {
		t.Fatalf("key not redacted: %q", key)
	}
}

func TestCustomRedactor(t *testing.T) {
	var buf bytes.Buffer
	h := New(newJSONLogger(&buf), Options{Redact: func(k string) string { return "<" + k + ">" }})

	h.EncodeFailure("s:1:a:k", "object", errors.New("too large"))

	recs := records(t, &buf)
	if len(recs) != 1 || recs[0]["key"] != "<s:1:a:k>" || recs[0]["kind"] != "object" {
		t.Fatalf("unexpected records %v", recs)
	}
}

func TestSelfHealLevelAndSampling(t *testing.T) {
	var buf bytes.Buffer
	h := New(newJSONLogger(&buf), Options{SelfHealEvery: 3})

	for i := 0; i < 9; i++ {
		h.SelfHeal("k", "kind_mismatch")
	}
	recs := records(t, &buf)
	if len(recs) != 3 {
		t.Fatalf("sampled records = %d, want 3", len(recs))
	}
	if recs[0]["level"] != "DEBUG" {
		t.Fatalf("kind_mismatch should log at debug, got %v", recs[0]["level"])
	}

	buf.Reset()
	h = New(newJSONLogger(&buf), Options{})
	h.SelfHeal("k", "corrupt")
	if recs := records(t, &buf); len(recs) != 1 || recs[0]["level"] != "WARN" {
		t.Fatalf("corrupt should log at warn, got %v", recs)
	}
}

func TestNilLoggerIsNoop(t *testing.T) {
	h := New(nil, Options{})
	h.SelfHeal("k", "corrupt")
	h.DiskFailure("get", "k", errors.New("x"))
	h.EncodeFailure("k", "bool", errors.New("x"))
	h.MemoryRejected("k")
	h.Evicted("memory", "k")
}
