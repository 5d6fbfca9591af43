// Package logger implements the ports.Logger contract on top of zap.
package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/doeshing/termflow/internal/ports"
)

// ZapLogger routes structured logs through a zap core.
type ZapLogger struct {
	log *zap.Logger
}

// New builds a production logger; verbose lowers the level to debug.
func New(verbose bool) *ZapLogger {
	config := zap.NewProductionConfig()
	config.OutputPaths = []string{"stderr"}
	if verbose {
		config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	log, err := config.Build()
	if err != nil {
		return &ZapLogger{log: zap.NewNop()}
	}
	return &ZapLogger{log: log}
}

// NewNop returns a logger that discards everything. Used in tests.
func NewNop() *ZapLogger {
	return &ZapLogger{log: zap.NewNop()}
}

func (l *ZapLogger) Debug(msg string, fields map[string]interface{}) {
	l.log.Debug(msg, toZapFields(fields)...)
}

func (l *ZapLogger) Info(msg string, fields map[string]interface{}) {
	l.log.Info(msg, toZapFields(fields)...)
}

func (l *ZapLogger) Warn(msg string, fields map[string]interface{}) {
	l.log.Warn(msg, toZapFields(fields)...)
}

func (l *ZapLogger) Error(msg string, err error, fields map[string]interface{}) {
	zfields := toZapFields(fields)
	if err != nil {
		zfields = append(zfields, zap.Error(err))
	}
	l.log.Error(msg, zfields...)
}

// Sync flushes buffered log entries.
func (l *ZapLogger) Sync() {
	_ = l.log.Sync()
}

var _ ports.Logger = (*ZapLogger)(nil)

func toZapFields(fields map[string]interface{}) []zap.Field {
	if len(fields) == 0 {
		return nil
	}
	zfields := make([]zap.Field, 0, len(fields))
	for key, value := range fields {
		zfields = append(zfields, zap.Any(key, value))
	}
	return zfields
}
