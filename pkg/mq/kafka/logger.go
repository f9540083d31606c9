package kafka

import (
	"fmt"
	"strings"

	"github.com/ninja0404/token-radar/pkg/logger"
)

// saramaLogger 把sarama内部日志桥接到统一日志
type saramaLogger struct {
	log *logger.Logger
}

func newSaramaLogger(log *logger.Logger) *saramaLogger {
	return &saramaLogger{log: log}
}

func (l *saramaLogger) Print(v ...interface{}) {
	l.log.Debug(strings.TrimSpace(fmt.Sprint(v...)))
}

func (l *saramaLogger) Printf(format string, v ...interface{}) {
	l.log.Debug(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

func (l *saramaLogger) Println(v ...interface{}) {
	l.log.Debug(strings.TrimSpace(fmt.Sprintln(v...)))
}
