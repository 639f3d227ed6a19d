// Package hammerlog provides the structured logger threaded through the
// engine: a zap console core on stderr, plus a second core that
// best-effort mirrors the same records as JSON to the append-only log
// file.
package hammerlog

import (
	"fmt"
	"os"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds a console+optional-file logger. verbose raises the console
// level to Debug. If logPath can't be opened, the failure is reported
// on stderr and logging continues console-only.
func New(verbose bool, logPath string) *zap.Logger {
	consoleLevel := zap.InfoLevel
	if verbose {
		consoleLevel = zap.DebugLevel
	}

	encoderCfg := zap.NewDevelopmentEncoderConfig()
	consoleCore := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderCfg),
		zapcore.AddSync(os.Stderr),
		consoleLevel,
	)

	cores := []zapcore.Core{consoleCore}

	if logPath != "" {
		if f, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644); err != nil {
			fmt.Fprintf(os.Stderr, "hammer: cannot open log file %q: %v\n", logPath, err)
		} else {
			fileCore := zapcore.NewCore(
				zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
				zapcore.AddSync(f),
				zap.InfoLevel,
			)
			cores = append(cores, fileCore)
		}
	}

	return zap.New(zapcore.NewTee(cores...))
}

// NewOperationID mints a random correlation ID (a UUID v4 string). The
// engine does not attach it to its log lines.
func NewOperationID() string {
	return uuid.NewString()
}
