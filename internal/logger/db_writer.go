package logger

import (
	"context"
	"fmt"
	"os"
	"time"

	common_models "go-approvals/internal/common/models"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap/zapcore"
)

// LogEntry holds the data passed from Zap to the worker
type LogEntry struct {
	Level     zapcore.Level
	Message   string
	RequestID string
	Caller    string
}

// DBLogWriter persists captured entries from a background goroutine.
type DBLogWriter struct {
	collection *mongo.Collection
	logChan    chan LogEntry
	appId      string
}

func NewDBLogWriter(collection *mongo.Collection, appId string) *DBLogWriter {
	writer := &DBLogWriter{
		collection: collection,
		logChan:    make(chan LogEntry, 1000),
		appId:      appId,
	}

	go writer.processLogs()

	return writer
}

// AddLog never blocks; entries are dropped when the buffer is full.
func (w *DBLogWriter) AddLog(entry LogEntry) {
	select {
	case w.logChan <- entry:
	default:
		fmt.Fprintln(os.Stderr, "DB log channel full, dropping log:", entry.Message)
	}
}

func (w *DBLogWriter) processLogs() {
	for entry := range w.logChan {
		record := common_models.Log{
			AppID:        w.appId,
			Message:      entry.Message,
			RequestID:    entry.RequestID,
			Caller:       entry.Caller,
			LogLevelId:   mapLevelToInt(entry.Level),
			CreatedOnUtc: time.Now().UTC(),
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		_, _ = w.collection.InsertOne(ctx, record)
		cancel()
	}
}

func mapLevelToInt(l zapcore.Level) int {
	switch l {
	case zapcore.DebugLevel:
		return 10
	case zapcore.InfoLevel:
		return 20
	case zapcore.WarnLevel:
		return 30
	case zapcore.ErrorLevel:
		return 40
	case zapcore.FatalLevel:
		return 50
	default:
		return 20
	}
}
