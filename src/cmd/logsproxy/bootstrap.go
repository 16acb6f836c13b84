// FILE: logsproxy/src/cmd/logsproxy/bootstrap.go
package main

import (
	"fmt"
	"strings"

	"logsproxy/src/internal/config"
	"logsproxy/src/internal/gateway"
	"logsproxy/src/internal/version"

	"github.com/lixenwraith/log"
)

// bootstrapGateway creates and starts the forwarding gateway
func bootstrapGateway(cfg *config.Config) (*gateway.Gateway, error) {
	gw, err := gateway.New(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create gateway: %w", err)
	}

	if err := gw.Start(); err != nil {
		return nil, fmt.Errorf("failed to start gateway: %w", err)
	}

	logger.Info("msg", "logsproxy started",
		"version", version.Short(),
		"address", gw.Addr(),
		"upstream", cfg.Upstream.URLTemplate,
		"default_region", cfg.Upstream.DefaultRegion,
		"net_limit", cfg.NetLimit.Enabled)

	return gw, nil
}

// initializeLogger sets up the logger based on configuration
func initializeLogger(cfg *config.Config) error {
	configArgs, err := loggerArgs(cfg)
	if err != nil {
		return err
	}

	logger = log.NewLogger()
	return logger.InitWithDefaults(configArgs...)
}

// loggerArgs translates the logging section into log package overrides
func loggerArgs(cfg *config.Config) ([]string, error) {
	var configArgs []string

	if cfg.Quiet {
		// In quiet mode, disable ALL logging output
		return append(configArgs,
			"disable_file=true",
			"enable_stdout=false",
			"level=255"), nil
	}

	if cfg.Logging == nil {
		cfg.Logging = config.DefaultLogConfig()
	}

	levelValue, err := parseLogLevel(cfg.Logging.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}
	configArgs = append(configArgs, fmt.Sprintf("level=%d", levelValue))

	switch cfg.Logging.Output {
	case "none":
		configArgs = append(configArgs, "disable_file=true", "enable_stdout=false")

	case "stdout":
		configArgs = append(configArgs,
			"disable_file=true",
			"enable_stdout=true",
			"stdout_target=stdout")

	case "stderr":
		configArgs = append(configArgs,
			"disable_file=true",
			"enable_stdout=true",
			"stdout_target=stderr")

	case "file":
		configArgs = append(configArgs, "enable_stdout=false")
		configureFileLogging(&configArgs, cfg)

	case "both":
		configArgs = append(configArgs, "enable_stdout=true")
		configureFileLogging(&configArgs, cfg)
		configureConsoleTarget(&configArgs, cfg)

	default:
		return nil, fmt.Errorf("invalid log output mode: %s", cfg.Logging.Output)
	}

	if cfg.Logging.Console != nil && cfg.Logging.Console.Format != "" {
		configArgs = append(configArgs, fmt.Sprintf("format=%s", cfg.Logging.Console.Format))
	}

	return configArgs, nil
}

// configureFileLogging sets up file-based logging parameters
func configureFileLogging(configArgs *[]string, cfg *config.Config) {
	if cfg.Logging.File != nil {
		*configArgs = append(*configArgs,
			fmt.Sprintf("directory=%s", cfg.Logging.File.Directory),
			fmt.Sprintf("name=%s", cfg.Logging.File.Name),
			fmt.Sprintf("max_size_mb=%d", cfg.Logging.File.MaxSizeMB),
			fmt.Sprintf("max_total_size_mb=%d", cfg.Logging.File.MaxTotalSizeMB))

		if cfg.Logging.File.RetentionHours > 0 {
			*configArgs = append(*configArgs,
				fmt.Sprintf("retention_period_hrs=%.1f", cfg.Logging.File.RetentionHours))
		}
	}
}

// configureConsoleTarget sets up console output parameters
func configureConsoleTarget(configArgs *[]string, cfg *config.Config) {
	target := "stderr"

	if cfg.Logging.Console != nil && cfg.Logging.Console.Target != "" {
		target = cfg.Logging.Console.Target
	}

	// Split mode routes info/debug to stdout and warn/error to stderr
	if target == "split" {
		*configArgs = append(*configArgs, "stdout_split_mode=true")
		*configArgs = append(*configArgs, "stdout_target=split")
	} else {
		*configArgs = append(*configArgs, fmt.Sprintf("stdout_target=%s", target))
	}
}

func parseLogLevel(level string) (int, error) {
	switch strings.ToLower(level) {
	case "debug":
		return int(log.LevelDebug), nil
	case "info":
		return int(log.LevelInfo), nil
	case "warn", "warning":
		return int(log.LevelWarn), nil
	case "error":
		return int(log.LevelError), nil
	default:
		return 0, fmt.Errorf("unknown log level: %s", level)
	}
}
