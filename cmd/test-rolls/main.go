package main

import (
	"context"
	"flag"
	"os"
	"runtime"
	"time"

	"github.com/okian/dice/internal/config"
	"github.com/okian/dice/internal/testrolls"
)

// Default configuration constants.
const (
	defaultRequests    = 1000
	defaultWorkers     = 2 // multiplier for runtime.NumCPU()
	defaultTimeout     = 30 * time.Second
	defaultTestTimeout = 10 * time.Minute
)

func main() {
	os.Exit(run())
}

func run() int {
	var (
		baseURL    = flag.String("url", "http://localhost:3000", "Base URL of the service")
		requests   = flag.Int("requests", defaultRequests, "Number of roll requests to send")
		workers    = flag.Int("workers", runtime.NumCPU()*defaultWorkers, "Number of concurrent workers")
		timeout    = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		origin     = flag.String("origin", config.OriginLocalDev, "Allowed origin used for the cross-origin checks")
		outputFile = flag.String("output", "", "Output file for the JSON report")
		logFile    = flag.String("log", "", "Log file for test output")
		verbose    = flag.Bool("verbose", false, "Enable verbose logging")
		help       = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		testrolls.ShowHelp(os.Stdout)
		return 0
	}

	closer, err := testrolls.SetupLogging(*logFile)
	if err != nil {
		_, _ = os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		return 1
	}
	defer func() { _ = closer.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), defaultTestTimeout)
	defer cancel()

	cfg := &testrolls.Config{
		BaseURL:    *baseURL,
		Requests:   *requests,
		Workers:    *workers,
		Timeout:    *timeout,
		Origin:     *origin,
		OutputFile: *outputFile,
		LogFile:    *logFile,
		Verbose:    *verbose,
	}

	if _, err := testrolls.Run(ctx, cfg); err != nil {
		_, _ = os.Stderr.WriteString("Test failed: " + err.Error() + "\n")
		return 1
	}
	return 0
}
