// Package logrus adapts a *logrus.Entry to spacecache.Logger.
package logrus

import (
	"github.com/sirupsen/logrus"

	"github.com/unkn0wn-root/spacecache"
)

var _ spacecache.Logger = LogrusLogger{}

// LogrusLogger writes through E. The "err" field is attached with
// Entry.WithError so hooks and formatters see it under logrus.ErrorKey.
type LogrusLogger struct{ E *logrus.Entry }

func (l LogrusLogger) Debug(msg string, f spacecache.Fields) { l.entry(logrus.DebugLevel, f).Debug(msg) }
func (l LogrusLogger) Info(msg string, f spacecache.Fields)  { l.entry(logrus.InfoLevel, f).Info(msg) }
func (l LogrusLogger) Warn(msg string, f spacecache.Fields)  { l.entry(logrus.WarnLevel, f).Warn(msg) }
func (l LogrusLogger) Error(msg string, f spacecache.Fields) { l.entry(logrus.ErrorLevel, f).Error(msg) }

func (l LogrusLogger) entry(level logrus.Level, f spacecache.Fields) *logrus.Entry {
	if len(f) == 0 || !l.E.Logger.IsLevelEnabled(level) {
		return l.E
	}
	data := make(logrus.Fields, len(f))
	for k, v := range f {
		if err, ok := v.(error); ok && k == "err" {
			data[logrus.ErrorKey] = err
			continue
		}
		data[k] = v
	}
	return l.E.WithFields(data)
}
