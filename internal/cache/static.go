package cache

import (
	"context"
	"encoding/hex"
	"fmt"
)

// Static is a ClientCache backed by a fixed, in-memory set of exits,
// bridges and an auth token, configured up front (from a config file or
// flags, or hand-built in a test). It never makes network calls.
type Static struct {
	Exits   []ExitDescriptor
	Bridges map[string][]BridgeDescriptor
	Token   AuthToken
}

// NewStatic builds a Static cache from a list of exits, a per-exit bridge
// map, and an auth token.
func NewStatic(exits []ExitDescriptor, bridges map[string][]BridgeDescriptor, token AuthToken) *Static {
	if bridges == nil {
		bridges = map[string][]BridgeDescriptor{}
	}
	return &Static{Exits: exits, Bridges: bridges, Token: token}
}

func (s *Static) GetExits(ctx context.Context) ([]ExitDescriptor, error) {
	out := make([]ExitDescriptor, len(s.Exits))
	copy(out, s.Exits)
	return out, nil
}

func (s *Static) GetBridges(ctx context.Context, exitHostname string) ([]BridgeDescriptor, error) {
	bridges := s.Bridges[exitHostname]
	out := make([]BridgeDescriptor, len(bridges))
	copy(out, bridges)
	return out, nil
}

func (s *Static) GetAuthToken(ctx context.Context) (AuthToken, error) {
	return s.Token, nil
}

// ParsePubKeyHex decodes a 32-byte hex-encoded X25519 public key, the form
// exits/bridges are expected to carry in a config file.
func ParsePubKeyHex(s string) ([32]byte, error) {
	var out [32]byte
	b, err := hex.DecodeString(s)
	if err != nil {
		return out, fmt.Errorf("cache: invalid hex pubkey: %w", err)
	}
	if len(b) != 32 {
		return out, fmt.Errorf("cache: pubkey must be 32 bytes, got %d", len(b))
	}
	copy(out[:], b)
	return out, nil
}
