package logger

import (
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// CronLogger 는 cron.Logger 인터페이스를 zap 으로 구현합니다.
type CronLogger struct {
	log *zap.SugaredLogger
}

var _ cron.Logger = (*CronLogger)(nil)

// NewCronLogger 는 cron 스케줄러용 로거를 생성합니다.
func NewCronLogger(log *zap.Logger) *CronLogger {
	return &CronLogger{log: log.Named("cron").Sugar()}
}

func (l *CronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debugw(msg, keysAndValues...)
}

func (l *CronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Errorw(msg, append(keysAndValues, "error", err)...)
}
