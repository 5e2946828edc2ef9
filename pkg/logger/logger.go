package logger

import (
	"os"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	mu    sync.RWMutex
	sugar = zap.NewNop().Sugar()
)

// Init builds the process logger. "development" and "local" log at debug level
// with a console encoder, everything else gets the JSON production config.
func Init(environment string) {
	var cfg zap.Config
	switch environment {
	case "development", "local":
		cfg = zap.NewDevelopmentConfig()
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	default:
		cfg = zap.NewProductionConfig()
	}
	cfg.DisableStacktrace = true

	l, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		l = zap.NewExample()
	}
	Set(l)
}

// Set replaces the process logger. Tests use it with zaptest/observer loggers.
func Set(l *zap.Logger) {
	mu.Lock()
	defer mu.Unlock()
	sugar = l.Sugar()
}

func get() *zap.SugaredLogger {
	mu.RLock()
	defer mu.RUnlock()
	return sugar
}

func Sync() {
	_ = get().Sync()
}

func Debug(msg string, args ...any) {
	get().Debugw(msg, keyvals(args)...)
}

func Info(msg string, args ...any) {
	get().Infow(msg, keyvals(args)...)
}

func Warn(msg string, args ...any) {
	get().Warnw(msg, keyvals(args)...)
}

func Error(msg string, args ...any) {
	get().Errorw(msg, keyvals(args)...)
}

func Fatal(msg string, args ...any) {
	get().Errorw(msg, keyvals(args)...)
	Sync()
	os.Exit(1)
}

// keyvals accepts both key/value pairs and a bare error, e.g. Error("failed", err).
func keyvals(args []any) []any {
	out := make([]any, 0, len(args)+1)
	for i := 0; i < len(args); i++ {
		switch v := args[i].(type) {
		case error:
			out = append(out, "error", v.Error())
		case string:
			if i+1 < len(args) {
				out = append(out, v, args[i+1])
				i++
			} else {
				out = append(out, "detail", v)
			}
		default:
			out = append(out, "arg", v)
		}
	}
	return out
}
