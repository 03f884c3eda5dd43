package cache

import (
	"context"
	"testing"
)

func TestStaticGetExits(t *testing.T) {
	c := NewStatic([]ExitDescriptor{{Hostname: "sfo-01"}, {Hostname: "nyc-02"}}, nil, AuthToken{})
	exits, err := c.GetExits(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(exits) != 2 {
		t.Fatalf("got %d exits, want 2", len(exits))
	}
}

func TestStaticGetBridgesUnknownExit(t *testing.T) {
	c := NewStatic(nil, nil, AuthToken{})
	bridges, err := c.GetBridges(context.Background(), "missing")
	if err != nil {
		t.Fatal(err)
	}
	if len(bridges) != 0 {
		t.Fatalf("got %d bridges, want 0", len(bridges))
	}
}

func TestStaticGetAuthToken(t *testing.T) {
	tok := AuthToken{UnblindedDigest: []byte{1, 2, 3}, Level: 5}
	c := NewStatic(nil, nil, tok)
	got, err := c.GetAuthToken(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if got.Level != 5 {
		t.Fatalf("got level %d, want 5", got.Level)
	}
}

func TestParsePubKeyHexRoundTrip(t *testing.T) {
	hexKey := "00000000" + "00000000" + "00000000" + "00000000" + "00000000" + "00000000" + "00000000" + "000000ff"
	got, err := ParsePubKeyHex(hexKey)
	if err != nil {
		t.Fatal(err)
	}
	if got[31] != 0xff {
		t.Fatalf("got last byte %x, want ff", got[31])
	}
}

func TestParsePubKeyHexWrongLength(t *testing.T) {
	if _, err := ParsePubKeyHex("abcd"); err == nil {
		t.Fatal("expected an error for a too-short key")
	}
}
