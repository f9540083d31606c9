package mysql

import (
	"context"
	"fmt"
	"time"

	gormlogger "gorm.io/gorm/logger"

	"github.com/ninja0404/token-radar/pkg/logger"
)

// gormLogger 把gorm日志桥接到统一日志
type gormLogger struct {
	log   *logger.Logger
	level gormlogger.LogLevel
	// 慢查询阈值
	slowThreshold time.Duration
}

func NewGormLogger(log *logger.Logger, level gormlogger.LogLevel) gormlogger.Interface {
	return &gormLogger{
		log:           log,
		level:         level,
		slowThreshold: 200 * time.Millisecond,
	}
}

func mappingLoggerLevel(level string, openDebug bool) gormlogger.LogLevel {
	if openDebug {
		return gormlogger.Info
	}
	switch level {
	case "silent":
		return gormlogger.Silent
	case "info":
		return gormlogger.Info
	case "warn":
		return gormlogger.Warn
	case "error", "":
		return gormlogger.Error
	default:
		return gormlogger.Error
	}
}

func (l *gormLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	clone := *l
	clone.level = level
	return &clone
}

func (l *gormLogger) Info(ctx context.Context, msg string, data ...interface{}) {
	if l.level >= gormlogger.Info {
		l.log.Info(fmt.Sprintf(msg, data...))
	}
}

func (l *gormLogger) Warn(ctx context.Context, msg string, data ...interface{}) {
	if l.level >= gormlogger.Warn {
		l.log.Warn(fmt.Sprintf(msg, data...))
	}
}

func (l *gormLogger) Error(ctx context.Context, msg string, data ...interface{}) {
	if l.level >= gormlogger.Error {
		l.log.Error(fmt.Sprintf(msg, data...))
	}
}

func (l *gormLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.level <= gormlogger.Silent {
		return
	}

	elapsed := time.Since(begin)
	sql, rows := fc()

	switch {
	case err != nil && l.level >= gormlogger.Error:
		l.log.Error("sql error",
			logger.FieldErr(err),
			logger.String("sql", sql),
			logger.Int64("rows", rows),
			logger.FieldCost(elapsed))
	case elapsed > l.slowThreshold && l.level >= gormlogger.Warn:
		l.log.Warn("slow sql",
			logger.String("sql", sql),
			logger.Int64("rows", rows),
			logger.FieldCost(elapsed))
	case l.level >= gormlogger.Info:
		l.log.Debug("sql trace",
			logger.String("sql", sql),
			logger.Int64("rows", rows),
			logger.FieldCost(elapsed))
	}
}
