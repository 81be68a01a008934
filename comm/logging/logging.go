// Package logging 全局日志组件，基于 zap，文件输出时使用 lumberjack 滚动切割。
//
// 环境变量:
//
//	GOPARCEL_LOGGING_LEVEL  日志级别，zapcore.Level 的整数值，-1 为 debug
//	GOPARCEL_LOGGING_FILE   日志文件路径，为空时输出到控制台
package logging

import (
	"os"
	"strconv"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Flusher 刷新缓冲区的日志
type Flusher = func() error

// Level 日志级别
type Level = zapcore.Level

const (
	DebugLevel = zapcore.DebugLevel
	InfoLevel  = zapcore.InfoLevel
	WarnLevel  = zapcore.WarnLevel
	ErrorLevel = zapcore.ErrorLevel
	FatalLevel = zapcore.FatalLevel
)

// Logger 项目内统一使用的日志接口
type Logger interface {
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
	Fatalf(format string, args ...interface{})
}

// Options 文件日志参数
type Options struct {
	Level      Level
	File       string // 为空则输出到控制台
	MaxSize    int    // 单个文件最大 MB
	MaxBackups int
	MaxAge     int // 天
	Compress   bool
}

var (
	mu             sync.RWMutex
	defaultLogger  Logger
	defaultFlusher Flusher
	defaultLevel   Level
)

func init() {
	lvl := os.Getenv("GOPARCEL_LOGGING_LEVEL")
	if len(lvl) > 0 {
		loggingLevel, err := strconv.ParseInt(lvl, 10, 8)
		if err != nil {
			panic("invalid GOPARCEL_LOGGING_LEVEL, " + err.Error())
		}
		defaultLevel = Level(loggingLevel)
	}

	opts := Options{Level: defaultLevel, File: os.Getenv("GOPARCEL_LOGGING_FILE")}
	if err := Setup(opts); err != nil {
		panic("logging initialization failed: " + err.Error())
	}
}

// Setup 按参数重建默认日志，已通过 GetDefaultLogger 取得的 Logger 同样生效
func Setup(opts Options) error {
	var (
		logger  Logger
		flusher Flusher
		err     error
	)
	if len(opts.File) > 0 {
		logger, flusher = CreateLoggerAsLocalFile(opts)
	} else {
		logger, flusher, err = createConsoleLogger(opts.Level)
		if err != nil {
			return err
		}
	}

	mu.Lock()
	old := defaultFlusher
	defaultLogger, defaultFlusher, defaultLevel = logger, flusher, opts.Level
	mu.Unlock()
	if old != nil {
		_ = old()
	}
	return nil
}

// CreateLoggerAsLocalFile 创建输出到本地文件的日志
func CreateLoggerAsLocalFile(opts Options) (Logger, Flusher) {
	lumberJackLogger := &lumberjack.Logger{
		Filename:   opts.File,
		MaxSize:    orDefault(opts.MaxSize, 100),
		MaxBackups: orDefault(opts.MaxBackups, 2),
		MaxAge:     orDefault(opts.MaxAge, 15),
		LocalTime:  true,
		Compress:   opts.Compress,
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	encoder := zapcore.NewConsoleEncoder(encoderConfig)
	ws := zapcore.Lock(zapcore.AddSync(lumberJackLogger))

	levelEnabler := zap.LevelEnablerFunc(func(level Level) bool {
		return level >= opts.Level
	})
	core := zapcore.NewCore(encoder, ws, levelEnabler)
	zapLogger := zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1))
	return zapLogger.Sugar(), zapLogger.Sync
}

func createConsoleLogger(level Level) (Logger, Flusher, error) {
	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(level)
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	zapLogger, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		return nil, nil, err
	}
	return zapLogger.Sugar(), zapLogger.Sync, nil
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

// GetDefaultLogger 返回默认日志，包级变量持有它也能感知 Setup 的变更
func GetDefaultLogger() Logger {
	return delegate{}
}

// GetDefaultLevel 当前默认日志级别
func GetDefaultLevel() Level {
	mu.RLock()
	defer mu.RUnlock()
	return defaultLevel
}

// Cleanup 刷新默认日志的缓冲区
func Cleanup() {
	mu.RLock()
	flusher := defaultFlusher
	mu.RUnlock()
	if flusher != nil {
		_ = flusher()
	}
}

func current() Logger {
	mu.RLock()
	defer mu.RUnlock()
	return defaultLogger
}

type delegate struct{}

func (delegate) Debugf(format string, args ...interface{}) { current().Debugf(format, args...) }
func (delegate) Infof(format string, args ...interface{})  { current().Infof(format, args...) }
func (delegate) Warnf(format string, args ...interface{})  { current().Warnf(format, args...) }
func (delegate) Errorf(format string, args ...interface{}) { current().Errorf(format, args...) }
func (delegate) Fatalf(format string, args ...interface{}) { current().Fatalf(format, args...) }
