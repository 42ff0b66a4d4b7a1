// Package logger holds the process-wide zap logger. Console output is
// coloured; an optional file copy is rotated by lumberjack.
package logger

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Log is the global logger. It discards everything until Init or Use is called.
var Log = zap.NewNop()

// Sugar is the sugared form of Log.
var Sugar = Log.Sugar()

// Rotation controls the rotated log file.
type Rotation struct {
	Path       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// DefaultRotation returns the rotation used for -log_file.
func DefaultRotation(path string) Rotation {
	return Rotation{
		Path:       path,
		MaxSizeMB:  50,
		MaxBackups: 3,
		MaxAgeDays: 7,
		Compress:   true,
	}
}

// Init installs a console logger at level, plus a rotated file copy when
// logFile is set.
func Init(level string, logFile string) error {
	var file Rotation
	if logFile != "" {
		file = DefaultRotation(logFile)
	}
	return InitWith(level, file, true)
}

// InitWith installs a logger writing to the console and/or a rotated file.
// Tests pass console=false to keep output quiet.
func InitWith(level string, file Rotation, console bool) error {
	lvl := ParseLevel(level)

	var cores []zapcore.Core
	if console {
		enc := encoderConfig(zapcore.TimeEncoderOfLayout("15:04:05"), zapcore.CapitalColorLevelEncoder)
		cores = append(cores, zapcore.NewCore(zapcore.NewConsoleEncoder(enc), zapcore.AddSync(os.Stdout), lvl))
	}
	if file.Path != "" {
		w := &lumberjack.Logger{
			Filename:   file.Path,
			MaxSize:    file.MaxSizeMB,
			MaxBackups: file.MaxBackups,
			MaxAge:     file.MaxAgeDays,
			Compress:   file.Compress,
			LocalTime:  true,
		}
		enc := encoderConfig(zapcore.ISO8601TimeEncoder, zapcore.CapitalLevelEncoder)
		cores = append(cores, zapcore.NewCore(zapcore.NewConsoleEncoder(enc), zapcore.AddSync(w), lvl))
	}

	Use(zap.New(zapcore.NewTee(cores...), zap.AddCaller()))
	return nil
}

// Use installs l as the global logger.
func Use(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	Log = l
	Sugar = l.Sugar()
}

func encoderConfig(timeEnc zapcore.TimeEncoder, levelEnc zapcore.LevelEncoder) zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		TimeKey:          "time",
		LevelKey:         "level",
		NameKey:          "logger",
		MessageKey:       "msg",
		CallerKey:        "caller",
		EncodeTime:       timeEnc,
		EncodeLevel:      levelEnc,
		EncodeName:       zapcore.FullNameEncoder,
		EncodeCaller:     zapcore.ShortCallerEncoder,
		ConsoleSeparator: " ",
	}
}

// Named returns a child logger tagged with a component name. Components
// call it at construction time; a logger taken at package init stays no-op.
func Named(component string) *zap.Logger {
	return Log.Named(component)
}

// ParseLevel maps a config level name to a zap level. Unknown names are info.
func ParseLevel(level string) zapcore.Level {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil || lvl > zapcore.ErrorLevel {
		return zapcore.InfoLevel
	}
	return lvl
}

// Sync flushes buffered entries.
func Sync() {
	_ = Log.Sync()
}

// Debug logs at debug level on the global logger.
func Debug(msg string, fields ...zap.Field) {
	Log.Debug(msg, fields...)
}

// Info logs at info level on the global logger.
func Info(msg string, fields ...zap.Field) {
	Log.Info(msg, fields...)
}

// Warn logs at warn level on the global logger.
func Warn(msg string, fields ...zap.Field) {
	Log.Warn(msg, fields...)
}

// Error logs at error level on the global logger.
func Error(msg string, fields ...zap.Field) {
	Log.Error(msg, fields...)
}
