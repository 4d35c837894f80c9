package logger

import (
	"io"
	"log"
	"log/slog"

	"github.com/hashicorp/go-hclog"
)

// HCLogAdapter adapts HostLogger to the hashicorp/go-hclog.Logger interface
// so that go-plugin client output ends up in the host log.
type HCLogAdapter struct {
	logger *HostLogger
	name   string
	args   []interface{}
}

// NewHCLogAdapter creates a new HCLog adapter wrapping the default host logger.
func NewHCLogAdapter() hclog.Logger {
	return &HCLogAdapter{
		logger: Default(),
		name:   "plugin",
	}
}

func (h *HCLogAdapter) attrs(args []interface{}) []any {
	out := make([]any, 0, len(h.args)+len(args)+2)
	out = append(out, slog.String("logger", h.name))
	out = append(out, h.args...)
	return append(out, args...)
}

func (h *HCLogAdapter) Log(level hclog.Level, msg string, args ...interface{}) {
	switch level {
	case hclog.Trace, hclog.Debug:
		h.Debug(msg, args...)
	case hclog.Info, hclog.NoLevel:
		h.Info(msg, args...)
	case hclog.Warn:
		h.Warn(msg, args...)
	case hclog.Error:
		h.Error(msg, args...)
	}
}

func (h *HCLogAdapter) Trace(msg string, args ...interface{}) {
	h.logger.Debug(msg, h.attrs(args)...)
}

func (h *HCLogAdapter) Debug(msg string, args ...interface{}) {
	h.logger.Debug(msg, h.attrs(args)...)
}

func (h *HCLogAdapter) Info(msg string, args ...interface{}) {
	h.logger.Info(msg, h.attrs(args)...)
}

func (h *HCLogAdapter) Warn(msg string, args ...interface{}) {
	h.logger.Warn(msg, h.attrs(args)...)
}

func (h *HCLogAdapter) Error(msg string, args ...interface{}) {
	h.logger.Error(msg, h.attrs(args)...)
}

func (h *HCLogAdapter) IsTrace() bool { return false }
func (h *HCLogAdapter) IsDebug() bool { return Level() <= slog.LevelDebug }
func (h *HCLogAdapter) IsInfo() bool  { return Level() <= slog.LevelInfo }
func (h *HCLogAdapter) IsWarn() bool  { return Level() <= slog.LevelWarn }
func (h *HCLogAdapter) IsError() bool { return Level() <= slog.LevelError }

func (h *HCLogAdapter) ImpliedArgs() []interface{} {
	return h.args
}

func (h *HCLogAdapter) With(args ...interface{}) hclog.Logger {
	implied := make([]interface{}, 0, len(h.args)+len(args))
	implied = append(implied, h.args...)
	return &HCLogAdapter{
		logger: h.logger,
		name:   h.name,
		args:   append(implied, args...),
	}
}

func (h *HCLogAdapter) Name() string {
	return h.name
}

func (h *HCLogAdapter) Named(name string) hclog.Logger {
	return &HCLogAdapter{
		logger: h.logger,
		name:   h.name + "." + name,
		args:   h.args,
	}
}

func (h *HCLogAdapter) ResetNamed(name string) hclog.Logger {
	return &HCLogAdapter{
		logger: h.logger,
		name:   name,
		args:   h.args,
	}
}

// SetLevel is a no-op; the host level is owned by SetLogLevel.
func (h *HCLogAdapter) SetLevel(level hclog.Level) {}

func (h *HCLogAdapter) GetLevel() hclog.Level {
	switch l := Level(); {
	case l <= slog.LevelDebug:
		return hclog.Debug
	case l <= slog.LevelInfo:
		return hclog.Info
	case l <= slog.LevelWarn:
		return hclog.Warn
	default:
		return hclog.Error
	}
}

func (h *HCLogAdapter) StandardLogger(opts *hclog.StandardLoggerOptions) *log.Logger {
	return log.New(h.StandardWriter(opts), "", 0)
}

func (h *HCLogAdapter) StandardWriter(opts *hclog.StandardLoggerOptions) io.Writer {
	return io.Discard
}
