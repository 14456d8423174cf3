package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type captureSink struct {
	entries []LogEntry
}

func (s *captureSink) AddLog(entry LogEntry) {
	s.entries = append(s.entries, entry)
}

func TestDBCoreForwardsOnlyAboveMinLevel(t *testing.T) {
	base, observed := observer.New(zapcore.DebugLevel)
	sink := &captureSink{}
	log := zap.New(NewDBCore(base, sink, zapcore.WarnLevel))

	log.Info("decision recorded")
	log.With(zap.String("request_id", "req-1")).Warn("notification dispatch failed")

	assert.Equal(t, 2, observed.Len(), "console core still receives every entry")
	if assert.Len(t, sink.entries, 1) {
		assert.Equal(t, "notification dispatch failed", sink.entries[0].Message)
		assert.Equal(t, "req-1", sink.entries[0].RequestID)
		assert.Equal(t, zapcore.WarnLevel, sink.entries[0].Level)
	}
}

func TestMapLevelToInt(t *testing.T) {
	assert.Equal(t, 30, mapLevelToInt(zapcore.WarnLevel))
	assert.Equal(t, 20, mapLevelToInt(zapcore.DPanicLevel))
}
