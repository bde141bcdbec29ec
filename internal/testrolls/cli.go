package testrolls

import (
	"fmt"
	"io"
	"os"

	"github.com/okian/dice/pkg/logger"
)

// File permission constants.
const (
	logFilePermission = 0600
)

// SetupLogging configures logging to the console and, when logFile is set,
// to that file as well.
func SetupLogging(logFile string) (io.Closer, error) {
	if logFile == "" {
		if err := logger.Init(); err != nil {
			return nil, fmt.Errorf("failed to initialize logger: %w", err)
		}
		return io.NopCloser(nil), nil
	}

	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermission)
	if err != nil {
		return nil, fmt.Errorf("failed to create log file: %w", err)
	}
	if err := logger.InitWithWriter(io.MultiWriter(os.Stdout, file)); err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return file, nil
}

// ShowHelp prints usage information for the roll test tool.
func ShowHelp(w io.Writer) {
	_, _ = io.WriteString(w, `Dice Roll Test Tool
===================

A concurrent tool that exercises the dice API and checks its answers.

Usage:
  go run ./cmd/test-rolls [options]

Options:
  -url string
        Base URL of the service (default "http://localhost:3000")
  -requests int
        Number of roll requests to send (default 1000)
  -workers int
        Number of concurrent workers (default CPU cores * 2)
  -timeout duration
        HTTP request timeout (default 30s)
  -origin string
        Allowed origin used for the cross-origin checks (default "http://localhost:3000")
  -output string
        Output file for the JSON report (default: none)
  -log string
        Log file for test output (default: console only)
  -verbose
        Enable verbose logging
  -help
        Show this help message

Checks:
  - every face is in [1, 6] and every total is the sum of its faces
  - counts outside [1, 100] are rejected with 400
  - /api/roll-dice never carries Access-Control-Allow-Origin
  - the faces pass a chi-square uniformity test at p = 0.001
`)
}
