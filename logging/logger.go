package logging

import (
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// CronLogger adapts a sugared zap logger to the cron.Logger interface so job
// skips and panics recovered by cron end up in the same log stream.
type CronLogger struct {
	S *zap.SugaredLogger
}

var _ cron.Logger = CronLogger{}

// NewCronLogger wraps the global zap logger
func NewCronLogger() CronLogger {
	return CronLogger{S: zap.S()}
}

// Info logs routine messages about cron operation
func (l CronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.S.Debugw(msg, keysAndValues...)
}

// Error logs an error condition
func (l CronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.S.Errorw(msg, append(keysAndValues, "error", err)...)
}
