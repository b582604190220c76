package config

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

var Debug = false

// DebugLog is the process-wide debug logger. It discards everything until
// InitDebugLog enables it.
var DebugLog = zap.NewNop()

var debugWriter *lumberjack.Logger

func CheckDebug() bool {
	debug := os.Getenv("PHARMASCRIBE_DEBUG")
	return debug == "true" || debug == "1"
}

// InitDebugLog routes DebugLog to <dataDir>/debug.log when PHARMASCRIBE_DEBUG
// is set. The file is rotated by size.
func InitDebugLog(dataDir string) {
	if !CheckDebug() {
		return
	}

	logPath := filepath.Join(dataDir, "debug.log")
	if err := EnsureDir(dataDir); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Could not open debug log at %s: %v\n", logPath, err)
		return
	}

	debugWriter = &lumberjack.Logger{
		Filename:   logPath,
		MaxSize:    10, // megabytes
		MaxBackups: 3,
		MaxAge:     28, // days
		Compress:   true,
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	core := zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), zapcore.AddSync(debugWriter), zapcore.DebugLevel)

	Debug = true
	DebugLog = zap.New(core, zap.AddCaller())
	DebugLog.Info("=== Debug logging started ===",
		zap.String("PHARMASCRIBE_DEBUG", os.Getenv("PHARMASCRIBE_DEBUG")),
		zap.String("path", logPath))
}

// CloseDebugLog flushes and closes the debug log file if one is open.
func CloseDebugLog() {
	_ = DebugLog.Sync()
	if debugWriter != nil {
		_ = debugWriter.Close()
		debugWriter = nil
	}
}
