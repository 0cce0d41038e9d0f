package logger

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ThemeEnv overrides the console color theme.
const ThemeEnv = "TYPEAHEAD_LOG_THEME"

var (
	// Logger is the process-wide logger. It is a no-op until Initialize.
	Logger = zap.NewNop().Sugar()
	// JSONOutput reports whether Initialize selected JSON lines
	JSONOutput bool

	level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
)

// Initialize replaces the global logger. Output always goes to stderr so
// command results on stdout, and the MCP stdio stream, stay clean.
func Initialize(jsonOutput bool) error {
	JSONOutput = jsonOutput
	if theme := os.Getenv(ThemeEnv); theme != "" {
		SetTheme(theme)
	}

	core := zapcore.NewCore(newEncoder(jsonOutput), zapcore.Lock(os.Stderr), level)
	Logger = zap.New(core).Sugar()
	return nil
}

func newEncoder(jsonOutput bool) zapcore.Encoder {
	if !jsonOutput {
		return newMinimalEncoder()
	}
	cfg := zap.NewProductionEncoderConfig()
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder
	return zapcore.NewJSONEncoder(cfg)
}

// SetLevel adjusts the level of the global logger at runtime.
func SetLevel(l zapcore.Level) {
	level.SetLevel(l)
}

// Level returns the current level of the global logger.
func Level() zapcore.Level {
	return level.Level()
}

// Cleanup flushes any buffered log entries
func Cleanup() {
	if Logger != nil {
		_ = Logger.Sync()
	}
}
