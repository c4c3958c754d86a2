//go:build go1.21

// Package slog adapts a *slog.Logger to memocache.Logger.
package slog

import (
	"context"
	stdslog "log/slog"

	"github.com/unkn0wn-root/memocache"
)

var _ memocache.Logger = Logger{}

type Logger struct{ L *stdslog.Logger }

// New groups every attribute under "memocache". A nil l uses slog.Default().
func New(l *stdslog.Logger) Logger {
	if l == nil {
		l = stdslog.Default()
	}
	return Logger{L: l.WithGroup("memocache")}
}

func (s Logger) Debug(msg string, f memocache.Fields) { s.log(stdslog.LevelDebug, msg, f) }
func (s Logger) Info(msg string, f memocache.Fields)  { s.log(stdslog.LevelInfo, msg, f) }
func (s Logger) Warn(msg string, f memocache.Fields)  { s.log(stdslog.LevelWarn, msg, f) }
func (s Logger) Error(msg string, f memocache.Fields) { s.log(stdslog.LevelError, msg, f) }

func (s Logger) log(level stdslog.Level, msg string, f memocache.Fields) {
	ctx := context.Background()
	if !s.L.Enabled(ctx, level) {
		return
	}
	s.L.LogAttrs(ctx, level, msg, attrs(f)...)
}

func attrs(f memocache.Fields) []stdslog.Attr {
	if len(f) == 0 {
		return nil
	}
	out := make([]stdslog.Attr, 0, len(f))
	for k, v := range f {
		out = append(out, stdslog.Any(k, v))
	}
	return out
}
