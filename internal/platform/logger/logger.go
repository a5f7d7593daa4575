package logger

import (
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger is the structured logger shared by every module.
type Logger interface {
	Debug(module, message string, details map[string]any)
	Info(module, message string, details map[string]any)
	Warn(module, message string, details map[string]any)
	Error(module, message string, details map[string]any)
	Sync() error
}

type Options struct {
	FilePath string
	Level    string
	// Console adds a stderr core at warn level and above. The TUI leaves it off.
	Console bool
}

type ZapLogger struct {
	logger *zap.Logger
}

func New(opts Options) (*ZapLogger, error) {
	level := zap.InfoLevel
	if opts.Level != "" {
		parsed, err := zapcore.ParseLevel(opts.Level)
		if err != nil {
			return nil, err
		}
		level = parsed
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "timestamp"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.MessageKey = "message"
	encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder

	var cores []zapcore.Core
	if opts.FilePath != "" {
		if err := os.MkdirAll(filepath.Dir(opts.FilePath), 0o755); err != nil {
			return nil, err
		}
		rotator := &lumberjack.Logger{
			Filename:   opts.FilePath,
			MaxSize:    10,
			MaxBackups: 5,
			MaxAge:     30,
			Compress:   true,
		}
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig), zapcore.AddSync(rotator), level))
	}
	if opts.Console {
		consoleLevel := level
		if consoleLevel < zap.WarnLevel {
			consoleLevel = zap.WarnLevel
		}
		cores = append(cores, zapcore.NewCore(
			zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig()),
			zapcore.Lock(os.Stderr),
			consoleLevel,
		))
	}

	l := zap.New(zapcore.NewTee(cores...), zap.AddCaller(), zap.AddCallerSkip(1))
	return &ZapLogger{logger: l}, nil
}

func (l *ZapLogger) Debug(module, message string, details map[string]any) {
	l.logger.Debug(message, fields(module, details)...)
}

func (l *ZapLogger) Info(module, message string, details map[string]any) {
	l.logger.Info(message, fields(module, details)...)
}

func (l *ZapLogger) Warn(module, message string, details map[string]any) {
	l.logger.Warn(message, fields(module, details)...)
}

func (l *ZapLogger) Error(module, message string, details map[string]any) {
	fs := fields(module, details)
	if err, ok := details["error"].(error); ok {
		fs = append(fs, zap.Error(err))
	}
	l.logger.Error(message, fs...)
}

func (l *ZapLogger) Sync() error {
	return l.logger.Sync()
}

func fields(module string, details map[string]any) []zap.Field {
	if details == nil {
		details = map[string]any{}
	}
	return []zap.Field{zap.String("module", module), zap.Any("details", details)}
}

// Nop discards everything.
type Nop struct{}

func (Nop) Debug(string, string, map[string]any) {}
func (Nop) Info(string, string, map[string]any)  {}
func (Nop) Warn(string, string, map[string]any)  {}
func (Nop) Error(string, string, map[string]any) {}
func (Nop) Sync() error                          { return nil }
