package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync/atomic"
)

var (
	level      = new(slog.LevelVar)
	hostLogger atomic.Pointer[HostLogger]
)

func init() {
	hostLogger.Store(NewHostLogger(os.Stderr))
}

// HostLogger is the imgproc host logger. It writes text records through
// slog at the process-wide level set with SetLogLevel.
type HostLogger struct {
	slogger *slog.Logger
}

func NewHostLogger(w io.Writer) *HostLogger {
	return &HostLogger{
		slogger: slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})),
	}
}

func Default() *HostLogger {
	return hostLogger.Load()
}

// SetDefault replaces the logger behind the package-level helpers.
func SetDefault(l *HostLogger) {
	hostLogger.Store(l)
}

func SetLogLevel(l slog.Level) {
	level.Set(l)
}

func Level() slog.Level {
	return level.Level()
}

// slog wrapper

func Debug(msg string, args ...any) {
	hostLogger.Load().Debug(msg, args...)
}

func Info(msg string, args ...any) {
	hostLogger.Load().Info(msg, args...)
}

func Warn(msg string, args ...any) {
	hostLogger.Load().Warn(msg, args...)
}

func Error(msg string, args ...any) {
	hostLogger.Load().Error(msg, args...)
}

func (l *HostLogger) Debug(msg string, args ...any) {
	l.slogger.Debug(msg, args...)
}

func (l *HostLogger) Info(msg string, args ...any) {
	l.slogger.Info(msg, args...)
}

func (l *HostLogger) Warn(msg string, args ...any) {
	l.slogger.Warn(msg, args...)
}

func (l *HostLogger) Error(msg string, args ...any) {
	l.slogger.Error(msg, args...)
}

// badger.Logger

func (l *HostLogger) Errorf(format string, args ...interface{}) {
	l.slogger.Error(sprintf(format, args...))
}

func (l *HostLogger) Warningf(format string, args ...interface{}) {
	l.slogger.Warn(sprintf(format, args...))
}

func (l *HostLogger) Infof(format string, args ...interface{}) {
	l.slogger.Info(sprintf(format, args...))
}

func (l *HostLogger) Debugf(format string, args ...interface{}) {
	l.slogger.Debug(sprintf(format, args...))
}

// badger terminates its messages with a newline of its own.
func sprintf(format string, args ...any) string {
	return strings.TrimRight(fmt.Sprintf(format, args...), "\n")
}
