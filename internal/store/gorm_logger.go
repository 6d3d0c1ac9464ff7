package store

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/skillsenselab/skillloop/internal/logger"
)

// gormLogger bridges GORM's logger interface to the skillloop logger.
type gormLogger struct {
	log           *logger.Logger
	slowThreshold time.Duration
}

func newGormLogger(log *logger.Logger) *gormLogger {
	return &gormLogger{
		log:           log.WithComponent("gorm"),
		slowThreshold: 200 * time.Millisecond,
	}
}

// LogMode is a no-op; log level is controlled by the skillloop logger.
func (l *gormLogger) LogMode(gormlogger.LogLevel) gormlogger.Interface {
	return l
}

func (l *gormLogger) Info(ctx context.Context, msg string, args ...interface{}) {
	l.log.Info(msg, map[string]interface{}{"args": args})
}

func (l *gormLogger) Warn(ctx context.Context, msg string, args ...interface{}) {
	l.log.Warn(msg, map[string]interface{}{"args": args})
}

func (l *gormLogger) Error(ctx context.Context, msg string, args ...interface{}) {
	l.log.Error(msg, map[string]interface{}{"args": args})
}

func (l *gormLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	elapsed := time.Since(begin)
	sql, rows := fc()

	fields := map[string]interface{}{
		"elapsed_ms": elapsed.Milliseconds(),
		"rows":       rows,
		"sql":        sql,
	}

	switch {
	case err != nil && !errors.Is(err, gorm.ErrRecordNotFound):
		l.log.WithError(err).Error("Query failed", fields)
	case elapsed > l.slowThreshold:
		l.log.Warn("Slow query", fields)
	default:
		l.log.Debug("Query executed", fields)
	}
}
