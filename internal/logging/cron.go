package logging

import "github.com/robfig/cron/v3"

type cronLogger struct {
	l Logger
}

// CronLogger adapts l to the logger robfig/cron expects. cron's Info chatter
// is demoted to debug.
func CronLogger(l Logger) cron.Logger {
	return cronLogger{l: l}
}

func (c cronLogger) Info(msg string, keysAndValues ...any) {
	c.l.Debug("cron: "+msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...any) {
	c.l.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
