package spacecache

import "github.com/unkn0wn-root/spacecache/internal/util"

// Fields is a minimal structured field map for logs. Entry-related messages
// carry "space" and "key"; failures carry "err".
type Fields map[string]any

// Logger is a tiny leveled logger. Adapters for zap, logrus and slog live
// under log/. If Logger is nil in Options, logging is disabled.
//
// The cache logs disk tier failures and purged records at Warn, and misses
// caused by type mismatches or failed promotions at Debug. It never logs at
// Error: no cache fault is fatal to the caller.
type Logger interface {
	Debug(msg string, f Fields)
	Info(msg string, f Fields)
	Warn(msg string, f Fields)
	Error(msg string, f Fields)
}

type NopLogger struct{}

func (NopLogger) Debug(string, Fields) {}
func (NopLogger) Info(string, Fields)  {}
func (NopLogger) Warn(string, Fields)  {}
func (NopLogger) Error(string, Fields) {}

// entryFields adds the space and key behind storage key sk to f.
func entryFields(sk string, f Fields) Fields {
	if f == nil {
		f = make(Fields, 2)
	}
	if space, key, ok := util.SplitStorageKey(sk); ok {
		f["space"], f["key"] = space, key
	} else {
		f["key"] = sk
	}
	return f
}
