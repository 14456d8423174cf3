package logger

import (
	"go.uber.org/zap/zapcore"
)

// DBCore wraps the console core and forwards entries at or above minLevel to the DB writer.
type DBCore struct {
	zapcore.Core
	writer   LogSink
	minLevel zapcore.Level
	fields   []zapcore.Field
}

// LogSink receives entries captured by DBCore.
type LogSink interface {
	AddLog(entry LogEntry)
}

func NewDBCore(baseCore zapcore.Core, writer LogSink, minLevel zapcore.Level) zapcore.Core {
	return &DBCore{
		Core:     baseCore,
		writer:   writer,
		minLevel: minLevel,
	}
}

// With keeps the DB tee when child loggers are created.
func (c *DBCore) With(fields []zapcore.Field) zapcore.Core {
	return &DBCore{
		Core:     c.Core.With(fields),
		writer:   c.writer,
		minLevel: c.minLevel,
		fields:   append(append([]zapcore.Field{}, c.fields...), fields...),
	}
}

func (c *DBCore) Write(entry zapcore.Entry, fields []zapcore.Field) error {
	if entry.Level >= c.minLevel {
		requestID := findString(c.fields, "request_id")
		if id := findString(fields, "request_id"); id != "" {
			requestID = id
		}

		c.writer.AddLog(LogEntry{
			Level:     entry.Level,
			Message:   entry.Message,
			RequestID: requestID,
			Caller:    entry.Caller.Function,
		})
	}

	return c.Core.Write(entry, fields)
}

func findString(fields []zapcore.Field, key string) string {
	for _, f := range fields {
		if f.Key == key && f.Type == zapcore.StringType {
			return f.String
		}
	}
	return ""
}

func (c *DBCore) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(ent.Level) {
		return ce.AddCore(ent, c)
	}
	return ce
}
