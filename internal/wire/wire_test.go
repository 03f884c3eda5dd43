package wire

import (
	"bytes"
	"testing"
)

func TestHandshakeClientHelloRoundTrip(t *testing.T) {
	var long, eph [32]byte
	copy(long[:], []byte("client-long-term-public-key-demo"))
	copy(eph[:], []byte("client-ephemeral-public-key-demo"))
	hf := HandshakeFrame{ClientHello: &ClientHello{LongPK: long, EphPK: eph, Version: 1}}
	enc, err := EncodeHandshake(hf)
	if err != nil {
		t.Fatal(err)
	}
	got, err := DecodeHandshake(enc)
	if err != nil {
		t.Fatal(err)
	}
	if got.ClientHello == nil || got.ClientHello.LongPK != long || got.ClientHello.EphPK != eph || got.ClientHello.Version != 1 {
		t.Fatalf("round trip mismatch: %+v", got.ClientHello)
	}
}

func TestHandshakeServerHelloRoundTrip(t *testing.T) {
	var long, eph [32]byte
	copy(long[:], []byte("server-long-term-public-key-demo"))
	copy(eph[:], []byte("server-ephemeral-public-key-dem2"))
	hf := HandshakeFrame{ServerHello: &ServerHello{LongPK: long, EphPK: eph, ResumeToken: []byte("resume-token-bytes")}}
	enc, err := EncodeHandshake(hf)
	if err != nil {
		t.Fatal(err)
	}
	got, err := DecodeHandshake(enc)
	if err != nil {
		t.Fatal(err)
	}
	if got.ServerHello == nil || !bytes.Equal(got.ServerHello.ResumeToken, []byte("resume-token-bytes")) {
		t.Fatalf("round trip mismatch: %+v", got.ServerHello)
	}
}

func TestHandshakeClientResumeRoundTrip(t *testing.T) {
	hf := HandshakeFrame{ClientResume: &ClientResume{ResumeToken: []byte("abc"), ShardID: 1}}
	enc, err := EncodeHandshake(hf)
	if err != nil {
		t.Fatal(err)
	}
	got, err := DecodeHandshake(enc)
	if err != nil {
		t.Fatal(err)
	}
	if got.ClientResume == nil || got.ClientResume.ShardID != 1 || !bytes.Equal(got.ClientResume.ResumeToken, []byte("abc")) {
		t.Fatalf("round trip mismatch: %+v", got.ClientResume)
	}
}

func TestDecodeHandshakeUnknownTag(t *testing.T) {
	if _, err := DecodeHandshake([]byte{0xFF}); err == nil {
		t.Fatal("expected error for unknown tag")
	}
}

func TestDecodeHandshakeTruncated(t *testing.T) {
	if _, err := DecodeHandshake([]byte{tagClientHello, 1, 2, 3}); err == nil {
		t.Fatal("expected truncation error")
	}
}

func TestDataFrameRoundTrip(t *testing.T) {
	df := DataFrame{
		FrameNo:         42,
		RunNo:           7,
		RunIdx:          2,
		DataShards:      4,
		ParityShards:    2,
		HighRecvFrameNo: 1000,
		TotalRecvFrames: 950,
		Body:            []byte("shard payload bytes"),
	}
	enc := EncodeDataFrame(df)
	got, err := DecodeDataFrame(enc)
	if err != nil {
		t.Fatal(err)
	}
	if got.FrameNo != df.FrameNo || got.RunNo != df.RunNo || got.RunIdx != df.RunIdx ||
		got.DataShards != df.DataShards || got.ParityShards != df.ParityShards ||
		got.HighRecvFrameNo != df.HighRecvFrameNo || got.TotalRecvFrames != df.TotalRecvFrames ||
		!bytes.Equal(got.Body, df.Body) {
		t.Fatalf("round trip mismatch: got %+v want %+v", got, df)
	}
}

func TestPascalRejectsOversized(t *testing.T) {
	var buf bytes.Buffer
	if err := WritePascal(&buf, bytes.Repeat([]byte{1}, 10)); err != nil {
		t.Fatal(err)
	}
	if _, err := ReadPascal(&buf, 5); err != ErrTooLarge {
		t.Fatalf("expected ErrTooLarge, got %v", err)
	}
}

// FuzzDecodeHandshake ensures the handshake decoder never panics on
// arbitrary input.
func FuzzDecodeHandshake(f *testing.F) {
	var long, eph [32]byte
	seed, _ := EncodeHandshake(HandshakeFrame{ClientHello: &ClientHello{LongPK: long, EphPK: eph, Version: 1}})
	f.Add(seed)
	f.Add([]byte{tagServerHello})
	f.Add([]byte{tagClientResume})
	f.Fuzz(func(t *testing.T, data []byte) {
		_, _ = DecodeHandshake(data)
	})
}

// FuzzDecodeDataFrame ensures the data frame decoder never panics on
// arbitrary input.
func FuzzDecodeDataFrame(f *testing.F) {
	seed := EncodeDataFrame(DataFrame{FrameNo: 1, Body: []byte("seed")})
	f.Add(seed)
	f.Fuzz(func(t *testing.T, data []byte) {
		_, _ = DecodeDataFrame(data)
	})
}
