package logrus

import (
	"errors"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"

	"github.com/unkn0wn-root/spacecache"
)

func TestForwardsLevelsAndFields(t *testing.T) {
	base, hook := test.NewNullLogger()
	base.SetLevel(logrus.DebugLevel)
	l := LogrusLogger{E: logrus.NewEntry(base).WithField("component", "cache")}

	l.Debug("promotion failed", spacecache.Fields{"space": "a", "key": "k"})
	l.Warn("disk tier set failed", spacecache.Fields{"space": "a", "key": "k", "op": "set"})

	entries := hook.AllEntries()
	if len(entries) != 2 {
		t.Fatalf("got %d entries", len(entries))
	}
	if entries[0].Level != logrus.DebugLevel || entries[1].Level != logrus.WarnLevel {
		t.Fatalf("levels = %v, %v", entries[0].Level, entries[1].Level)
	}
	last := hook.LastEntry()
	if last.Message != "disk tier set failed" || last.Data["op"] != "set" || last.Data["component"] != "cache" {
		t.Fatalf("unexpected entry %+v", last)
	}
}

func TestLevelFiltering(t *testing.T) {
	base, hook := test.NewNullLogger()
	base.SetLevel(logrus.WarnLevel)
	l := LogrusLogger{E: logrus.NewEntry(base)}

	l.Debug("hidden", nil)
	l.Info("hidden", nil)
	l.Error("shown", spacecache.Fields{"n": 1})

	if len(hook.AllEntries()) != 1 || hook.LastEntry().Level != logrus.ErrorLevel {
		t.Fatalf("expected only the error entry, got %d", len(hook.AllEntries()))
	}
}

func TestErrFieldUsesErrorKey(t *testing.T) {
	base, hook := test.NewNullLogger()
	l := LogrusLogger{E: logrus.NewEntry(base)}

	cause := errors.New("read-only file system")
	l.Warn("disk tier set failed", spacecache.Fields{"space": "users", "key": "u:1", "err": cause})

	last := hook.LastEntry()
	if last == nil {
		t.Fatal("no entry")
	}
	if got, _ := last.Data[logrus.ErrorKey].(error); !errors.Is(got, cause) {
		t.Fatalf("error field = %#v", last.Data[logrus.ErrorKey])
	}
	if _, ok := last.Data["err"]; ok {
		t.Fatalf("err duplicated: %v", last.Data)
	}
	if last.Data["space"] != "users" || last.Data["key"] != "u:1" {
		t.Fatalf("entry fields missing: %v", last.Data)
	}
}
