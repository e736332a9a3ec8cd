// Package logging adapts logrus and zap loggers to marketchat.Logger.
package logging

import (
	"github.com/vovakirdan/marketchat-sdk-go/marketchat"

	"github.com/sirupsen/logrus"
	"go.uber.org/zap"
)

// Logrus forwards SDK logs to a logrus logger.
type Logrus struct {
	entry *logrus.Entry
}

// NewLogrus wraps l. A nil l uses the logrus standard logger.
func NewLogrus(l *logrus.Logger) *Logrus {
	if l == nil {
		l = logrus.StandardLogger()
	}
	return &Logrus{entry: logrus.NewEntry(l).WithField("component", "marketchat")}
}

func (l *Logrus) Debug(msg string, f marketchat.Fields) { l.with(f).Debug(msg) }
func (l *Logrus) Info(msg string, f marketchat.Fields)  { l.with(f).Info(msg) }
func (l *Logrus) Warn(msg string, f marketchat.Fields)  { l.with(f).Warn(msg) }
func (l *Logrus) Error(msg string, f marketchat.Fields) { l.with(f).Error(msg) }

func (l *Logrus) with(f marketchat.Fields) *logrus.Entry {
	if len(f) == 0 {
		return l.entry
	}
	return l.entry.WithFields(logrus.Fields(f))
}

// Zap forwards SDK logs to a zap logger.
type Zap struct {
	log *zap.Logger
}

// NewZap wraps l. A nil l discards everything.
func NewZap(l *zap.Logger) *Zap {
	if l == nil {
		l = zap.NewNop()
	}
	return &Zap{log: l.Named("marketchat")}
}

func (z *Zap) Debug(msg string, f marketchat.Fields) { z.log.Debug(msg, zapFields(f)...) }
func (z *Zap) Info(msg string, f marketchat.Fields)  { z.log.Info(msg, zapFields(f)...) }
func (z *Zap) Warn(msg string, f marketchat.Fields)  { z.log.Warn(msg, zapFields(f)...) }
func (z *Zap) Error(msg string, f marketchat.Fields) { z.log.Error(msg, zapFields(f)...) }

func zapFields(f marketchat.Fields) []zap.Field {
	if len(f) == 0 {
		return nil
	}
	out := make([]zap.Field, 0, len(f))
	for k, v := range f {
		out = append(out, zap.Any(k, v))
	}
	return out
}
