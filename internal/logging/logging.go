package logging

import (
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Output formats.
const (
	FormatJSON    = "json"
	FormatConsole = "console"
)

// New builds a logger writing to stderr. Stdout is left to command output
// such as the cluster subcommand's JSON.
func New(level, format string) (*zap.Logger, error) {
	return build(zapcore.Lock(os.Stderr), ParseLevel(level), format)
}

func build(ws zapcore.WriteSyncer, level zapcore.Level, format string) (*zap.Logger, error) {
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "ts"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	var enc zapcore.Encoder
	switch strings.ToLower(format) {
	case FormatJSON, "":
		enc = zapcore.NewJSONEncoder(encCfg)
	case FormatConsole, "text":
		encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
		enc = zapcore.NewConsoleEncoder(encCfg)
	default:
		return nil, fmt.Errorf("unknown log format %q", format)
	}

	core := zapcore.NewCore(enc, ws, zap.NewAtomicLevelAt(level))
	return zap.New(core, zap.AddCaller()), nil
}

// ParseLevel converts a string ("debug", "info", "warn", "error") to a zap level.
// Unknown strings default to info.
func ParseLevel(s string) zapcore.Level {
	switch strings.ToLower(s) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}
