package main

import (
	"os"
	"testing"
	"time"
)

func TestApplyEnvOverridesBasic(t *testing.T) {
	base := &appConfig{
		exit:            "nyc-exit-01",
		cacheFile:       "cache.json",
		logFormat:       "text",
		logLevel:        "info",
		metricsAddr:     "",
		logMetricsEvery: 0,
		useBridges:      false,
	}

	os.Setenv("OBSCURA_CLIENT_EXIT", "sfo-exit-02")
	os.Setenv("OBSCURA_CLIENT_USE_BRIDGES", "true")
	os.Setenv("OBSCURA_CLIENT_LOG_METRICS_INTERVAL", "5s")
	t.Cleanup(func() {
		os.Unsetenv("OBSCURA_CLIENT_EXIT")
		os.Unsetenv("OBSCURA_CLIENT_USE_BRIDGES")
		os.Unsetenv("OBSCURA_CLIENT_LOG_METRICS_INTERVAL")
	})
	if err := applyEnvOverrides(base, map[string]struct{}{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if base.exit != "sfo-exit-02" {
		t.Fatalf("expected exit override, got %q", base.exit)
	}
	if !base.useBridges {
		t.Fatal("expected useBridges true")
	}
	if base.logMetricsEvery != 5*time.Second {
		t.Fatalf("expected logMetricsEvery 5s got %v", base.logMetricsEvery)
	}
}

func TestApplyEnvOverridesFlagPrecedence(t *testing.T) {
	base := &appConfig{exit: "nyc-exit-01"}
	os.Setenv("OBSCURA_CLIENT_EXIT", "sfo-exit-02")
	t.Cleanup(func() { os.Unsetenv("OBSCURA_CLIENT_EXIT") })
	if err := applyEnvOverrides(base, map[string]struct{}{"exit": {}}); err != nil {
		t.Fatalf("err: %v", err)
	}
	if base.exit != "nyc-exit-01" {
		t.Fatalf("expected exit unchanged, got %q", base.exit)
	}
}

func TestApplyEnvOverridesBadDuration(t *testing.T) {
	base := &appConfig{}
	os.Setenv("OBSCURA_CLIENT_LOG_METRICS_INTERVAL", "notaduration")
	t.Cleanup(func() { os.Unsetenv("OBSCURA_CLIENT_LOG_METRICS_INTERVAL") })
	if err := applyEnvOverrides(base, map[string]struct{}{}); err == nil {
		t.Fatal("expected error for bad duration")
	}
}
