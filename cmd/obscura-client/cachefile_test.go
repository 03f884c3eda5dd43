package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadCacheFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cache.json")
	pk := strings.Repeat("ab", 32)
	doc := `{
		"exits": [{"hostname": "nyc-exit-01", "server_pubkey": "` + pk + `"}],
		"bridges": {"nyc-exit-01": [{"endpoint": "1.2.3.4:443", "server_pubkey": "` + pk + `"}]},
		"token": {"unblinded_digest_hex": "ff00", "unblinded_signature_hex": "00ff", "level": 2}
	}`
	if err := os.WriteFile(path, []byte(doc), 0o600); err != nil {
		t.Fatal(err)
	}

	c, err := loadCacheFile(path)
	if err != nil {
		t.Fatalf("loadCacheFile: %v", err)
	}
	exits, err := c.GetExits(context.Background())
	if err != nil || len(exits) != 1 || exits[0].Hostname != "nyc-exit-01" {
		t.Fatalf("got %v, %v", exits, err)
	}
	bridges, err := c.GetBridges(context.Background(), "nyc-exit-01")
	if err != nil || len(bridges) != 1 || bridges[0].Endpoint != "1.2.3.4:443" {
		t.Fatalf("got %v, %v", bridges, err)
	}
	token, err := c.GetAuthToken(context.Background())
	if err != nil || token.Level != 2 {
		t.Fatalf("got %v, %v", token, err)
	}
}

func TestLoadCacheFileBadPubkey(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cache.json")
	doc := `{"exits": [{"hostname": "nyc-exit-01", "server_pubkey": "nothex"}]}`
	if err := os.WriteFile(path, []byte(doc), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := loadCacheFile(path); err == nil {
		t.Fatal("expected error for bad pubkey")
	}
}
