package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	config "github.com/sing3demons/go-order-admin/configs"
)

type ILogger interface {
	Debugf(format string, args ...any)
	Debug(args ...any)
	Logf(format string, args ...any)
	Log(data string)
	Info(msg string)
	Errorf(format string, args ...any)
	Error(args ...any)
	Sync() error
}

type zLogger struct {
	*zap.Logger
}

func (k *zLogger) Debugf(format string, args ...any) {
	k.Logger.Sugar().Debugf(format, args...)
}

func (k *zLogger) Debug(args ...any) {
	k.Logger.Sugar().Debug(args...)
}

func (k *zLogger) Info(msg string) {
	k.Logger.Info(msg)
}

func (k *zLogger) Logf(format string, args ...any) {
	k.Logger.Sugar().Infof(format, args...)
}

func (k *zLogger) Log(data string) {
	k.Logger.Info(data)
}

func (k *zLogger) Errorf(format string, args ...any) {
	k.Logger.Sugar().Errorf(format, args...)
}

func (k *zLogger) Error(args ...any) {
	k.Logger.Sugar().Error(args...)
}

func (k *zLogger) Sync() error {
	return k.Logger.Sync()
}

// NewLogger builds a console-encoded zap logger. When cfg.Path is set the output
// also goes to a rotated file under that path. MODE=test yields a no-op logger.
func NewLogger(cfg config.LogFile) ILogger {
	if os.Getenv("MODE") == "test" {
		return NewNop()
	}

	level := zapcore.InfoLevel
	if cfg.Level != "" {
		if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
			level = zapcore.InfoLevel
		}
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.MessageKey = "msg"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encoder := zapcore.NewConsoleEncoder(encCfg)

	var cores []zapcore.Core
	if cfg.Console || cfg.Path == "" {
		cores = append(cores, zapcore.NewCore(encoder, zapcore.AddSync(os.Stdout), level))
	}

	if cfg.Path != "" {
		if err := os.MkdirAll(cfg.Path, 0o755); err != nil {
			fmt.Printf("Failed to create log directory: %v\n", err)
		} else {
			cores = append(cores, zapcore.NewCore(encoder, zapcore.AddSync(&lumberjack.Logger{
				Filename:   filepath.Join(cfg.Path, getLogFileName(cfg.Name, time.Now())),
				MaxSize:    500, // megabytes
				MaxBackups: 3,
				MaxAge:     1, // days
				LocalTime:  true,
				Compress:   true,
			}), level))
		}
	}

	logger := zap.New(zapcore.NewTee(cores...), zap.AddCaller(), zap.AddCallerSkip(1), zap.AddStacktrace(zap.ErrorLevel)).
		With(zap.Int("pid", os.Getpid()))

	return &zLogger{Logger: logger}
}

// NewNop discards everything.
func NewNop() ILogger {
	return &zLogger{Logger: zap.NewNop()}
}

func getLogFileName(name string, t time.Time) string {
	year, month, day := t.Date()
	hour, minute, second := t.Clock()

	return fmt.Sprintf("%s_%04d%02d%02d_%02d%02d%02d.log", name, year, month, day, hour, minute, second)
}
