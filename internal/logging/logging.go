// Package logging wraps zap the way this project's CPU-emulation
// ancestor wrapped slog: a single package-level handler, a debug flag
// that widens what also goes to stderr, and plain leveled methods
// instead of a context-threaded logger. zap replaces slog here because
// it is the structured logger actually linked elsewhere in this
// project's dependency graph, not a hand-rolled substitute for one.
package logging

import (
	"io"
	"os"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	mu  sync.Mutex
	log *zap.SugaredLogger
)

// Init configures the package logger. out receives every log entry at
// or above level; when debug is true, entries are additionally
// duplicated to stderr regardless of level, matching the ancestor
// wrapper's SetDebug behavior.
func Init(out io.Writer, debug bool) {
	mu.Lock()
	defer mu.Unlock()

	level := zapcore.InfoLevel
	if debug {
		level = zapcore.DebugLevel
	}

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "time"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encoder := zapcore.NewConsoleEncoder(encoderCfg)

	cores := []zapcore.Core{zapcore.NewCore(encoder, zapcore.AddSync(out), level)}
	if debug {
		cores = append(cores, zapcore.NewCore(encoder, zapcore.Lock(zapcore.AddSync(os.Stderr)), zapcore.DebugLevel))
	}

	log = zap.New(zapcore.NewTee(cores...)).Sugar()
}

func init() {
	Init(io.Discard, false)
}

// L returns the current package logger. Safe to call before Init; a
// discarding logger is installed by this package's init().
func L() *zap.SugaredLogger {
	mu.Lock()
	defer mu.Unlock()
	return log
}

func Debugf(format string, args ...interface{}) { L().Debugf(format, args...) }
func Infof(format string, args ...interface{})  { L().Infof(format, args...) }
func Warnf(format string, args ...interface{})  { L().Warnf(format, args...) }
func Errorf(format string, args ...interface{}) { L().Errorf(format, args...) }
