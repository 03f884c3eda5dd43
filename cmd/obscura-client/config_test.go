package main

import "testing"

func TestValidateRejectsBadLogFormat(t *testing.T) {
	c := &appConfig{exit: "nyc", cacheFile: "cache.json", logFormat: "xml", logLevel: "info"}
	if err := c.validate(); err == nil {
		t.Fatal("expected error for invalid log-format")
	}
}

func TestValidateRejectsMissingExit(t *testing.T) {
	c := &appConfig{cacheFile: "cache.json", logFormat: "text", logLevel: "info"}
	if err := c.validate(); err == nil {
		t.Fatal("expected error for missing exit")
	}
}

func TestValidateRejectsMissingCacheFile(t *testing.T) {
	c := &appConfig{exit: "nyc", logFormat: "text", logLevel: "info"}
	if err := c.validate(); err == nil {
		t.Fatal("expected error for missing cache-file")
	}
}

func TestValidateAcceptsMinimalConfig(t *testing.T) {
	c := &appConfig{exit: "nyc", cacheFile: "cache.json", logFormat: "json", logLevel: "debug"}
	if err := c.validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
