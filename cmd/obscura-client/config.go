package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"
)

type appConfig struct {
	exit            string
	useBridges      bool
	cacheFile       string
	logFormat       string
	logLevel        string
	metricsAddr     string
	logMetricsEvery time.Duration
}

func parseFlags() (*appConfig, bool) {
	cfg := &appConfig{}
	exit := flag.String("exit", "", "Requested exit hostname (fuzzy-matched against the cache's exit list)")
	useBridges := flag.Bool("use-bridges", false, "Connect only through bridges, skipping the direct attempt")
	cacheFile := flag.String("cache-file", "", "Path to a JSON file describing exits, bridges, and the auth token")
	logFormat := flag.String("log-format", "text", "Log format: text|json")
	logLevel := flag.String("log-level", "info", "Log level: debug|info|warn|error")
	metricsAddr := flag.String("metrics-addr", "", "Metrics HTTP listen address (e.g., :9100); empty disables")
	logMetricsEvery := flag.Duration("log-metrics-interval", 0, "If >0, periodically log metrics counters (for non-Prometheus setups)")
	showVersion := flag.Bool("version", false, "Print version and exit")
	flag.Parse()

	// Track which flags were explicitly set to give them precedence over env.
	setFlags := map[string]struct{}{}
	flag.Visit(func(f *flag.Flag) { setFlags[f.Name] = struct{}{} })
	cfg.exit = *exit
	cfg.useBridges = *useBridges
	cfg.cacheFile = *cacheFile
	cfg.logFormat = *logFormat
	cfg.logLevel = *logLevel
	cfg.metricsAddr = *metricsAddr
	cfg.logMetricsEvery = *logMetricsEvery

	if err := applyEnvOverrides(cfg, setFlags); err != nil {
		fmt.Printf("environment override error: %v\n", err)
		return nil, *showVersion
	}
	if err := cfg.validate(); err != nil {
		fmt.Printf("configuration error: %v\n", err)
		return nil, *showVersion
	}
	return cfg, *showVersion
}

// validate performs basic semantic validation of the parsed configuration.
// It does not open the cache file or dial anything — only checks values.
func (c *appConfig) validate() error {
	if c == nil {
		return errors.New("nil config")
	}
	switch c.logFormat {
	case "text", "json":
	default:
		return fmt.Errorf("invalid log-format: %s", c.logFormat)
	}
	switch c.logLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log-level: %s", c.logLevel)
	}
	if c.exit == "" {
		return errors.New("-exit is required")
	}
	if c.cacheFile == "" {
		return errors.New("-cache-file is required")
	}
	return nil
}

// applyEnvOverrides maps OBSCURA_CLIENT_* environment variables to config
// fields unless a corresponding flag was explicitly set (flag wins).
func applyEnvOverrides(c *appConfig, set map[string]struct{}) error {
	var firstErr error
	get := func(k string) (string, bool) { v, ok := os.LookupEnv(k); return strings.TrimSpace(v), ok }
	if _, ok := set["exit"]; !ok {
		if v, ok := get("OBSCURA_CLIENT_EXIT"); ok && v != "" {
			c.exit = v
		}
	}
	if _, ok := set["cache-file"]; !ok {
		if v, ok := get("OBSCURA_CLIENT_CACHE_FILE"); ok && v != "" {
			c.cacheFile = v
		}
	}
	if _, ok := set["use-bridges"]; !ok {
		if v, ok := get("OBSCURA_CLIENT_USE_BRIDGES"); ok && v != "" {
			switch strings.ToLower(v) {
			case "1", "true", "yes", "on":
				c.useBridges = true
			case "0", "false", "no", "off":
				c.useBridges = false
			}
		}
	}
	if _, ok := set["log-format"]; !ok {
		if v, ok := get("OBSCURA_CLIENT_LOG_FORMAT"); ok && v != "" {
			c.logFormat = v
		}
	}
	if _, ok := set["log-level"]; !ok {
		if v, ok := get("OBSCURA_CLIENT_LOG_LEVEL"); ok && v != "" {
			c.logLevel = v
		}
	}
	if _, ok := set["metrics-addr"]; !ok {
		if v, ok := get("OBSCURA_CLIENT_METRICS"); ok {
			c.metricsAddr = v
		}
	}
	if _, ok := set["log-metrics-interval"]; !ok {
		if v, ok := get("OBSCURA_CLIENT_LOG_METRICS_INTERVAL"); ok && v != "" {
			if d, err := time.ParseDuration(v); err == nil && d >= 0 {
				c.logMetricsEvery = d
			} else if err != nil && firstErr == nil {
				firstErr = fmt.Errorf("invalid OBSCURA_CLIENT_LOG_METRICS_INTERVAL: %w", err)
			}
		}
	}
	return firstErr
}
