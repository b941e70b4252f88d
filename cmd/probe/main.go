package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/okian/tradeflow/internal/probe"
	"github.com/okian/tradeflow/pkg/logger"
)

// Default configuration constants.
const (
	defaultSelections = 20
	defaultWorkers    = 4
	defaultTimeout    = 2 * time.Minute
	defaultRunTimeout = 30 * time.Minute
)

func main() {
	var (
		baseURL    = flag.String("url", "http://localhost:9080", "Base URL of the service")
		selections = flag.Int("selections", defaultSelections, "Number of random selections to request")
		years      = flag.String("years", "", "Comma separated candidate years")
		workers    = flag.Int("workers", defaultWorkers, "Number of concurrent workers")
		timeout    = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		seed       = flag.Uint64("seed", 0, "Seed of the selection generator")
		logFile    = flag.String("log", "", "Log file (default: probe_TIMESTAMP.log)")
		verbose    = flag.Bool("verbose", false, "Log every failed request")
		help       = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		probe.ShowHelp()
		return
	}

	candidates, err := parseYears(*years)
	if err != nil {
		os.Stderr.WriteString("invalid -years: " + err.Error() + "\n")
		os.Exit(2)
	}

	closeLog, err := probe.SetupLogging(*logFile)
	if err != nil {
		os.Stderr.WriteString("failed to setup logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	ctx, cancel := context.WithTimeout(ctx, defaultRunTimeout)

	_, err = probe.Run(ctx, &probe.Config{
		BaseURL:    strings.TrimRight(*baseURL, "/"),
		Selections: *selections,
		Workers:    max(*workers, 1),
		Timeout:    *timeout,
		Years:      candidates,
		Seed:       *seed,
		Verbose:    *verbose,
	})
	cancel()
	stop()

	if err != nil {
		logger.Get().Error(context.Background(), "probe failed", logger.Error(err))
	}
	_ = closeLog()
	if err != nil {
		os.Exit(1)
	}
}

func parseYears(s string) ([]int, error) {
	var out []int
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		y, err := strconv.Atoi(part)
		if err != nil {
			return nil, err
		}
		out = append(out, y)
	}
	return out, nil
}
