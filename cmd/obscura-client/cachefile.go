package main

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"

	"github.com/nullbound/obscura-client/internal/cache"
)

func decodeHex(s string) ([]byte, error) {
	return hex.DecodeString(s)
}

// cacheFileExit and cacheFileBridge mirror cache.ExitDescriptor and
// cache.BridgeDescriptor, but with the server pubkey as hex text so the
// cache file round-trips through JSON without an opaque byte array.
type cacheFileExit struct {
	Hostname     string `json:"hostname"`
	ServerPubKey string `json:"server_pubkey"`
}

type cacheFileBridge struct {
	Endpoint     string `json:"endpoint"`
	ServerPubKey string `json:"server_pubkey"`
}

type cacheFileToken struct {
	UnblindedDigestHex    string `json:"unblinded_digest_hex"`
	UnblindedSignatureHex string `json:"unblinded_signature_hex"`
	Level                 uint8  `json:"level"`
}

// cacheFileDoc is the on-disk shape loaded via -cache-file: a fixed
// snapshot of exits, per-exit bridges, and the auth token, standing in for
// the directory service a full client would poll over the network.
type cacheFileDoc struct {
	Exits   []cacheFileExit              `json:"exits"`
	Bridges map[string][]cacheFileBridge `json:"bridges"`
	Token   cacheFileToken               `json:"token"`
}

func loadCacheFile(path string) (*cache.Static, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading cache file: %w", err)
	}
	var doc cacheFileDoc
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parsing cache file: %w", err)
	}

	exits := make([]cache.ExitDescriptor, len(doc.Exits))
	for i, e := range doc.Exits {
		pk, err := cache.ParsePubKeyHex(e.ServerPubKey)
		if err != nil {
			return nil, fmt.Errorf("exit %q: %w", e.Hostname, err)
		}
		exits[i] = cache.ExitDescriptor{Hostname: e.Hostname, ServerPubKey: pk}
	}

	bridges := make(map[string][]cache.BridgeDescriptor, len(doc.Bridges))
	for hostname, list := range doc.Bridges {
		out := make([]cache.BridgeDescriptor, len(list))
		for i, b := range list {
			pk, err := cache.ParsePubKeyHex(b.ServerPubKey)
			if err != nil {
				return nil, fmt.Errorf("bridge %q for %q: %w", b.Endpoint, hostname, err)
			}
			out[i] = cache.BridgeDescriptor{Endpoint: b.Endpoint, ServerPubKey: pk}
		}
		bridges[hostname] = out
	}

	token := cache.AuthToken{Level: doc.Token.Level}
	if doc.Token.UnblindedDigestHex != "" {
		b, err := decodeHex(doc.Token.UnblindedDigestHex)
		if err != nil {
			return nil, fmt.Errorf("token digest: %w", err)
		}
		token.UnblindedDigest = b
	}
	if doc.Token.UnblindedSignatureHex != "" {
		b, err := decodeHex(doc.Token.UnblindedSignatureHex)
		if err != nil {
			return nil, fmt.Errorf("token signature: %w", err)
		}
		token.UnblindedSignature = b
	}

	return cache.NewStatic(exits, bridges, token), nil
}
