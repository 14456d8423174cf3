package logger

import (
	"go-approvals/internal/config"
	"go-approvals/internal/database"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger builds the console logger and tees warn-and-above entries into the
// system_logs collection.
func NewLogger(cfg *config.Config, mongodb *database.MongodbDB) (*zap.Logger, error) {
	var zapConfig zap.Config
	if cfg.IsProduction() {
		zapConfig = zap.NewProductionConfig()
	} else {
		zapConfig = zap.NewDevelopmentConfig()
	}

	if level, err := zapcore.ParseLevel(cfg.LogLevel); err == nil {
		zapConfig.Level = zap.NewAtomicLevelAt(level)
	}

	// Enable Caller to get Function Name
	zapConfig.EncoderConfig.FunctionKey = "func"

	baseLogger, err := zapConfig.Build()
	if err != nil {
		return nil, err
	}

	dbWriter := NewDBLogWriter(mongodb.DB.Collection("system_logs"), cfg.AppId)
	finalCore := NewDBCore(baseLogger.Core(), dbWriter, zapcore.WarnLevel)

	return zap.New(finalCore, zap.AddCaller()), nil
}
