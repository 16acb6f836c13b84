// FILE: logsproxy/src/cmd/logsproxy/main.go
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"logsproxy/src/internal/config"
	"logsproxy/src/internal/version"

	"github.com/lixenwraith/log"
)

var logger *log.Logger

func main() {
	// Parse flags first to get quiet mode early
	flagCfg, cliArgs, err := parseArgs(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		customUsage()
		os.Exit(1)
	}

	if flagCfg.ShowHelp {
		customUsage()
		os.Exit(0)
	}

	InitOutputHandler(flagCfg.Quiet)

	if flagCfg.ShowVersion {
		fmt.Println(version.String())
		os.Exit(0)
	}

	if flagCfg.ConfigFile != "" {
		os.Setenv("LOGSPROXY_CONFIG_FILE", flagCfg.ConfigFile)
	}

	cfg, err := config.LoadWithCLI(cliArgs)
	if err != nil {
		if flagCfg.ConfigFile != "" && strings.Contains(err.Error(), "not found") {
			FatalError(2, "Config file not found: %s\n", flagCfg.ConfigFile)
		}
		FatalError(1, "Failed to load config: %v\n", err)
	}
	if flagCfg.Quiet {
		cfg.Quiet = true
	}

	if err := initializeLogger(cfg); err != nil {
		FatalError(1, "Failed to initialize logger: %v\n", err)
	}
	defer shutdownLogger()

	logger.Info("msg", "logsproxy starting",
		"version", version.String(),
		"config_file", config.GetConfigPath(),
		"log_output", cfg.Logging.Output)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	gw, err := bootstrapGateway(cfg)
	if err != nil {
		logger.Error("msg", "Failed to bootstrap gateway", "error", err)
		Error("Failed to start: %v\n", err)
		shutdownLogger()
		os.Exit(1)
	}

	Print("logsproxy %s listening on %s\n", version.Short(), gw.Addr())

	if enableStatusReporter() {
		go statusReporter(ctx, gw)
	}

	sig := <-sigChan
	logger.Info("msg", "Shutdown signal received, starting graceful shutdown...",
		"signal", sig.String())
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	done := make(chan struct{})
	go func() {
		gw.Stop()
		close(done)
	}()

	select {
	case <-done:
		logger.Info("msg", "Shutdown complete")
	case <-shutdownCtx.Done():
		logger.Error("msg", "Shutdown timeout exceeded - forcing exit")
		shutdownLogger()
		os.Exit(1)
	}
}

func shutdownLogger() {
	if logger != nil {
		if err := logger.Shutdown(2 * time.Second); err != nil {
			// Best effort - can't log the shutdown error
			Error("Logger shutdown error: %v\n", err)
		}
	}
}

func enableStatusReporter() bool {
	// Status reporter can be disabled via environment variable
	return os.Getenv("LOGSPROXY_DISABLE_STATUS_REPORTER") != "1"
}
