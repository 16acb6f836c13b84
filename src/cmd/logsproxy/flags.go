// FILE: logsproxy/src/cmd/logsproxy/flags.go
package main

import (
	"fmt"
	"os"
	"strings"
)

// FlagConfig holds the flags consumed before configuration loading
type FlagConfig struct {
	ConfigFile  string
	ShowVersion bool
	ShowHelp    bool
	Quiet       bool
}

func customUsage() {
	fmt.Fprintf(os.Stderr, "logsproxy - OTLP log to trace translating proxy for Logfire\n\n")
	fmt.Fprintf(os.Stderr, "Usage: %s [options] [--section.key=value ...]\n\n", os.Args[0])

	fmt.Fprintf(os.Stderr, "Options:\n")
	fmt.Fprintf(os.Stderr, "  -config string\n\tConfig file path\n")
	fmt.Fprintf(os.Stderr, "  -quiet\n\tSuppress all console output\n")
	fmt.Fprintf(os.Stderr, "  -version\n\tShow version information\n")

	fmt.Fprintf(os.Stderr, "\nAny configuration key can be overridden on the command line:\n")
	fmt.Fprintf(os.Stderr, "  %s --server.port=9000 --upstream.default_region=eu\n", os.Args[0])
	fmt.Fprintf(os.Stderr, "  %s --logging.level=debug --net_limit.enabled=true\n\n", os.Args[0])

	fmt.Fprintf(os.Stderr, "Environment Variables:\n")
	fmt.Fprintf(os.Stderr, "  LOGSPROXY_CONFIG_FILE              Config file path\n")
	fmt.Fprintf(os.Stderr, "  LOGSPROXY_CONFIG_DIR               Config directory\n")
	fmt.Fprintf(os.Stderr, "  LOGSPROXY_<SECTION>_<KEY>          Override any config key, e.g. LOGSPROXY_SERVER_PORT\n")
	fmt.Fprintf(os.Stderr, "  LOGSPROXY_DISABLE_STATUS_REPORTER  Disable periodic status reports (set to 1)\n")
}

// parseArgs extracts the process flags and returns the remaining arguments
// untouched for the config builder
func parseArgs(args []string) (*FlagConfig, []string, error) {
	fc := &FlagConfig{}
	var rest []string

	for i := 0; i < len(args); i++ {
		arg := args[i]
		name, value, hasValue := strings.Cut(strings.TrimLeft(arg, "-"), "=")
		if !strings.HasPrefix(arg, "-") || arg == "-" || arg == "--" {
			rest = append(rest, arg)
			continue
		}

		switch name {
		case "config":
			if !hasValue {
				if i+1 >= len(args) {
					return nil, nil, fmt.Errorf("flag -config requires a value")
				}
				i++
				value = args[i]
			}
			if value == "" {
				return nil, nil, fmt.Errorf("flag -config requires a value")
			}
			fc.ConfigFile = value

		case "version":
			b, err := boolFlag(name, value, hasValue)
			if err != nil {
				return nil, nil, err
			}
			fc.ShowVersion = b

		case "quiet":
			b, err := boolFlag(name, value, hasValue)
			if err != nil {
				return nil, nil, err
			}
			fc.Quiet = b

		case "h", "help":
			fc.ShowHelp = true

		default:
			rest = append(rest, arg)
		}
	}

	return fc, rest, nil
}

func boolFlag(name, value string, hasValue bool) (bool, error) {
	if !hasValue {
		return true, nil
	}
	switch strings.ToLower(value) {
	case "true", "1":
		return true, nil
	case "false", "0":
		return false, nil
	default:
		return false, fmt.Errorf("invalid value %q for flag -%s", value, name)
	}
}
