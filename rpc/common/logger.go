package common

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/lni/dragonboat/v4/logger"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// --------------------------------------------------------------------------
// Custom Logger (implements dragonboats logger.ILogger on top of zap)
// --------------------------------------------------------------------------

// hkvLogger implements the ILogger interface. Every package logger has its own
// level but all of them write to the shared sink.
type hkvLogger struct {
	name  string
	level zap.AtomicLevel
	sugar atomic.Pointer[zap.SugaredLogger]
}

func (l *hkvLogger) SetLevel(level logger.LogLevel) {
	l.level.SetLevel(toZapLevel(level))
}

func (l *hkvLogger) Debugf(format string, args ...interface{}) {
	l.sugar.Load().Debugf(format, args...)
}

func (l *hkvLogger) Infof(format string, args ...interface{}) {
	l.sugar.Load().Infof(format, args...)
}

func (l *hkvLogger) Warningf(format string, args ...interface{}) {
	l.sugar.Load().Warnf(format, args...)
}

func (l *hkvLogger) Errorf(format string, args ...interface{}) {
	l.sugar.Load().Errorf(format, args...)
}

func (l *hkvLogger) Panicf(format string, args ...interface{}) {
	l.sugar.Load().Panicf(format, args...)
}

// --------------------------------------------------------------------------
// Logger Factory
// --------------------------------------------------------------------------

// sink is the encoder and output shared by all loggers. loggers holds every logger
// created so far, they are rebuilt when the sink changes.
var sink = struct {
	mu      sync.Mutex
	encoder zapcore.Encoder
	out     zapcore.WriteSyncer
	level   zapcore.Level
	loggers []*hkvLogger
}{
	encoder: newEncoder("console"),
	out:     zapcore.Lock(os.Stderr),
	level:   zapcore.InfoLevel,
}

// factoryOnce guards logger.SetLoggerFactory, dragonboat panics when it is called twice
var factoryOnce sync.Once

// CreateLogger implements the logger.Factory interface
func CreateLogger(pkgName string) logger.ILogger {
	sink.mu.Lock()
	defer sink.mu.Unlock()

	l := &hkvLogger{
		name:  pkgName,
		level: zap.NewAtomicLevelAt(sink.level),
	}
	buildLogger(l)
	sink.loggers = append(sink.loggers, l)
	return l
}

// buildLogger attaches l to the current sink. sink.mu must be held.
func buildLogger(l *hkvLogger) {
	core := zapcore.NewCore(sink.encoder.Clone(), sink.out, l.level)
	base := zap.New(core, zap.AddCaller(), zap.AddCallerSkip(2), zap.AddStacktrace(zap.ErrorLevel))
	l.sugar.Store(base.Named(l.name).Sugar())
}

// newEncoder returns a console or json encoder
func newEncoder(encoding string) zapcore.Encoder {
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "ts"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encCfg.EncodeLevel = zapcore.LowercaseLevelEncoder
	encCfg.NameKey = "component"
	if encoding == "json" {
		return zapcore.NewJSONEncoder(encCfg)
	}
	encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
	return zapcore.NewConsoleEncoder(encCfg)
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

// ParseLogLevel converts a string level to logger.LogLevel
func ParseLogLevel(level string) (logger.LogLevel, error) {
	switch strings.ToLower(level) {
	case "debug":
		return logger.DEBUG, nil
	case "info", "":
		return logger.INFO, nil
	case "warning", "warn":
		return logger.WARNING, nil
	case "error":
		return logger.ERROR, nil
	default:
		return logger.INFO, fmt.Errorf("invalid log level: %s. must be one of debug, info, warn, error", level)
	}
}

func toZapLevel(level logger.LogLevel) zapcore.Level {
	switch level {
	case logger.DEBUG:
		return zapcore.DebugLevel
	case logger.INFO:
		return zapcore.InfoLevel
	case logger.WARNING:
		return zapcore.WarnLevel
	case logger.ERROR:
		return zapcore.ErrorLevel
	case logger.CRITICAL:
		return zapcore.DPanicLevel
	default:
		return zapcore.InfoLevel
	}
}

// --------------------------------------------------------------------------
// Logger initialization
// --------------------------------------------------------------------------

// loggerNames are all package loggers of hKV
var loggerNames = []string{
	"rpc",
	"rpc/server",
	"rpc/client",
	"transport/rpc",
	"transport/http",
	"transport/grpc",
	"store/sorted",
	"db/pebble",
	"db/bolt",
	"cli",
}

// InitLoggers installs the zap backed logger factory and sets the level of all loggers.
func InitLoggers(config LogConfig) error {
	level, err := ParseLogLevel(config.Level)
	if err != nil {
		return err
	}
	switch config.Encoding {
	case "", "console", "json":
	default:
		return fmt.Errorf("invalid log encoding: %s. must be one of console, json", config.Encoding)
	}

	sink.mu.Lock()
	sink.encoder = newEncoder(config.Encoding)
	sink.level = toZapLevel(level)
	if config.File != "" {
		sink.out = zapcore.AddSync(&lumberjack.Logger{
			Filename:   config.File,
			MaxSize:    config.MaxSizeMB,
			MaxBackups: config.MaxBackups,
			MaxAge:     config.MaxAgeDays,
			Compress:   config.Compress,
		})
	} else {
		sink.out = zapcore.Lock(os.Stderr)
	}
	for _, l := range sink.loggers {
		l.level.SetLevel(sink.level)
		buildLogger(l)
	}
	sink.mu.Unlock()

	// Set as the global logger factory, this replaces the loggers dragonboat created so far
	factoryOnce.Do(func() {
		logger.SetLoggerFactory(CreateLogger)
	})

	for _, name := range loggerNames {
		logger.GetLogger(name).SetLevel(level)
	}
	return nil
}
