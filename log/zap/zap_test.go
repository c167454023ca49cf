package zap

import (
	"errors"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/unkn0wn-root/spacecache"
)

func TestLevelsAndFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := ZapLogger{L: zap.New(core)}

	l.Debug("d", nil)
	l.Info("i", spacecache.Fields{"space": "users"})
	l.Warn("w", spacecache.Fields{"err": errors.New("disk full"), "key": "k"})
	l.Error("e", spacecache.Fields{})

	entries := logs.AllUntimed()
	if len(entries) != 4 {
		t.Fatalf("got %d entries", len(entries))
	}
	wantLevels := []zapcore.Level{zapcore.DebugLevel, zapcore.InfoLevel, zapcore.WarnLevel, zapcore.ErrorLevel}
	for i, e := range entries {
		if e.Level != wantLevels[i] {
			t.Fatalf("entry %d level = %v", i, e.Level)
		}
	}

	ctx := entries[2].ContextMap()
	if ctx["err"] != "disk full" || ctx["key"] != "k" {
		t.Fatalf("warn fields = %v", ctx)
	}
	if entries[1].ContextMap()["space"] != "users" {
		t.Fatalf("info fields = %v", entries[1].ContextMap())
	}
}
