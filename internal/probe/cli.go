package probe

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/okian/tradeflow/pkg/logger"
)

const logFilePermission = 0o600

// SetupLogging sends log output to stdout and to logFile. An empty logFile
// gets a timestamped name. The returned func closes the file.
func SetupLogging(logFile string) (func() error, error) {
	if logFile == "" {
		logFile = "probe_" + time.Now().Format("20060102_150405") + ".log"
	}

	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermission)
	if err != nil {
		return nil, fmt.Errorf("failed to create log file: %w", err)
	}
	if err := logger.InitWithWriter(io.MultiWriter(os.Stdout, file)); err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return file.Close, nil
}

// ShowHelp prints usage information for the probe tool.
func ShowHelp() {
	os.Stdout.WriteString(`Tradeflow Probe
===============

Requests random dashboard selections from a running tradeflow server and
verifies every answer.

Usage:
  go run ./cmd/probe [options]

Options:
  -url string
        Base URL of the service (default "http://localhost:9080")
  -selections int
        Number of random selections to request (default 20)
  -years string
        Comma separated candidate years (default: last year)
  -workers int
        Number of concurrent workers (default 4)
  -timeout duration
        HTTP request timeout (default 2m)
  -seed uint
        Seed of the selection generator (default: random)
  -log string
        Log file (default: probe_TIMESTAMP.log)
  -verbose
        Log every failed request
  -help
        Show this help message

Examples:
  go run ./cmd/probe -selections 50 -years 2010,2011,2012
  go run ./cmd/probe -seed 42 -verbose
`)
}
