// Copyright 2024 The spot Authors. All rights reserved.
// Use of this source code is governed by a MIT
// license that can be found in the LICENSE file.

package logger

import (
	"os"
	"sync"

	"github.com/saucelabs/sypl"
	"github.com/saucelabs/sypl/formatter"
	"github.com/saucelabs/sypl/level"
	"github.com/saucelabs/sypl/output"
	"github.com/saucelabs/sypl/processor"
	"github.com/saucelabs/sypl/status"
)

// LevelEnvVar controls the default log level. Default: "debug".
const LevelEnvVar = "SPOT_LOG_LEVEL"

const defaultLevel = "debug"

// Global, singleton, cached logger. It's safe to be retrieved via `Get`.
var (
	l  *sypl.Sypl
	mu sync.Mutex
)

// Get safely returns the global application logger. If `Setup` wasn't called,
// a default logger is created. It never fails: the OpenTelemetry error
// handler logs through here, and that path must not crash the service.
func Get() *sypl.Sypl {
	mu.Lock()
	defer mu.Unlock()

	if l == nil {
		l = setup("spot", DefaultLevel(), "")
	}

	return l
}

// DefaultLevel returns the level set via `SPOT_LOG_LEVEL`, or "debug".
func DefaultLevel() string {
	if lvl := os.Getenv(LevelEnvVar); lvl != "" {
		return lvl
	}

	return defaultLevel
}

// Setup the global logger. Output is structured (JSON), level-controlled.
func Setup(name, logLevel, logFilePath string) *sypl.Sypl {
	mu.Lock()
	defer mu.Unlock()

	l = setup(name, logLevel, logFilePath)

	return l
}

func setup(name, logLevel, logFilePath string) *sypl.Sypl {
	logLevelAsLevel := level.MustFromString(logLevel)

	logger := sypl.NewDefault(
		name,
		logLevelAsLevel,
		processor.ChangeFirstCharCase(processor.Lowercase),
	)

	// Structured output: machine-parseable lines, not free text.
	logger.GetOutput("Console").SetFormatter(formatter.JSON())

	// Only enable File output if path is set.
	if logFilePath != "" {
		fileOutput := output.File(
			logFilePath,
			logLevelAsLevel,
			processor.ChangeFirstCharCase(processor.Lowercase),
		)

		fileOutput.SetFormatter(formatter.JSON())

		logger.AddOutputs(fileOutput)

		// "-" special case makes the File Output behave as Console, also
		// writing to `stdout` causing duplicated messages.
		if logFilePath == "-" {
			logger.GetOutput("Console").SetStatus(status.Disabled)
		}
	}

	return logger
}
