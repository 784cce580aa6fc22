package logger

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	gormlogger "gorm.io/gorm/logger"
)

// GormConfig tunes the GORM adapter
type GormConfig struct {
	Level         gormlogger.LogLevel
	SlowThreshold time.Duration // zero disables slow query warnings
	LogNotFound   bool          // log gorm.ErrRecordNotFound as an error
}

type gormZap struct {
	log *zap.Logger
	cfg GormConfig
}

// NewGormLogger returns a GORM logger writing through zap. Query entries carry
// the request and trace ids found on the query context.
func NewGormLogger(base *zap.Logger, cfg GormConfig) gormlogger.Interface {
	return &gormZap{log: base.Named("gorm"), cfg: cfg}
}

func (g *gormZap) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	cp := *g
	cp.cfg.Level = level
	return &cp
}

func (g *gormZap) Info(ctx context.Context, msg string, data ...any) {
	if g.cfg.Level >= gormlogger.Info {
		For(ctx, g.log).Sugar().Infof(msg, data...)
	}
}

func (g *gormZap) Warn(ctx context.Context, msg string, data ...any) {
	if g.cfg.Level >= gormlogger.Warn {
		For(ctx, g.log).Sugar().Warnf(msg, data...)
	}
}

func (g *gormZap) Error(ctx context.Context, msg string, data ...any) {
	if g.cfg.Level >= gormlogger.Error {
		For(ctx, g.log).Sugar().Errorf(msg, data...)
	}
}

func (g *gormZap) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if g.cfg.Level <= gormlogger.Silent {
		return
	}
	if err != nil && !g.cfg.LogNotFound && errors.Is(err, gormlogger.ErrRecordNotFound) {
		err = nil
	}

	elapsed := time.Since(begin)
	slow := g.cfg.SlowThreshold > 0 && elapsed > g.cfg.SlowThreshold
	var level gormlogger.LogLevel
	switch {
	case err != nil:
		level = gormlogger.Error
	case slow:
		level = gormlogger.Warn
	default:
		level = gormlogger.Info
	}
	if g.cfg.Level < level {
		return
	}

	sql, rows := fc()
	fields := []zap.Field{
		zap.String("statement", statementKind(sql)),
		zap.Duration("elapsed", elapsed),
		zap.Int64("rows", rows),
		zap.String("sql", sql),
	}
	log := For(ctx, g.log)
	switch level {
	case gormlogger.Error:
		log.Error("Query failed", append(fields, zap.Error(err))...)
	case gormlogger.Warn:
		log.Warn("Slow query", append(fields, zap.Duration("threshold", g.cfg.SlowThreshold))...)
	default:
		log.Debug("Query", fields...)
	}
}

// statementKind returns the leading SQL keyword, e.g. SELECT or UPDATE
func statementKind(sql string) string {
	verb, _, _ := strings.Cut(strings.TrimSpace(sql), " ")
	return strings.ToUpper(verb)
}

// ParseGormLevel maps the application log level onto GORM's. Debug logs
// every statement; unknown values fall back to warnings only.
func ParseGormLevel(level string) gormlogger.LogLevel {
	switch strings.ToLower(level) {
	case "silent":
		return gormlogger.Silent
	case "error", "fatal":
		return gormlogger.Error
	case "debug":
		return gormlogger.Info
	default:
		return gormlogger.Warn
	}
}
