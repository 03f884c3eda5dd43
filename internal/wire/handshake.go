package wire

import (
	"bytes"
	"fmt"
	"io"
)

// Handshake frame tags. These are the first byte of every encoded
// HandshakeFrame and select which variant follows.
const (
	tagClientHello  byte = 1
	tagServerHello  byte = 2
	tagClientResume byte = 3
)

// HandshakeFrame is a tagged union of the three messages exchanged before a
// session's data plane starts flowing. Exactly one of ClientHello,
// ServerHello or ClientResume is non-nil.
type HandshakeFrame struct {
	ClientHello  *ClientHello
	ServerHello  *ServerHello
	ClientResume *ClientResume
}

// ClientHello is the first message a client sends: its long-term and
// ephemeral X25519 public keys.
type ClientHello struct {
	LongPK  [32]byte
	EphPK   [32]byte
	Version uint8
}

// ServerHello answers a ClientHello with the server's own keys plus an
// opaque resume token the client can use later to rebind a backhaul shard
// without repeating the full handshake.
type ServerHello struct {
	LongPK      [32]byte
	EphPK       [32]byte
	ResumeToken []byte
}

// ClientResume is sent on a freshly rebound backhaul socket to tell the
// server which existing session (and which shard of it) this socket now
// carries.
type ClientResume struct {
	ResumeToken []byte
	ShardID     uint8
}

// EncodeHandshake serializes a HandshakeFrame to its wire form.
func EncodeHandshake(hf HandshakeFrame) ([]byte, error) {
	var buf bytes.Buffer
	switch {
	case hf.ClientHello != nil:
		buf.WriteByte(tagClientHello)
		buf.Write(hf.ClientHello.LongPK[:])
		buf.Write(hf.ClientHello.EphPK[:])
		buf.WriteByte(hf.ClientHello.Version)
	case hf.ServerHello != nil:
		buf.WriteByte(tagServerHello)
		buf.Write(hf.ServerHello.LongPK[:])
		buf.Write(hf.ServerHello.EphPK[:])
		if err := WritePascal(&buf, hf.ServerHello.ResumeToken); err != nil {
			return nil, err
		}
	case hf.ClientResume != nil:
		buf.WriteByte(tagClientResume)
		if err := WritePascal(&buf, hf.ClientResume.ResumeToken); err != nil {
			return nil, err
		}
		buf.WriteByte(hf.ClientResume.ShardID)
	default:
		return nil, fmt.Errorf("wire: empty HandshakeFrame")
	}
	return buf.Bytes(), nil
}

// DecodeHandshake parses a HandshakeFrame from its wire form.
func DecodeHandshake(data []byte) (HandshakeFrame, error) {
	r := bytes.NewReader(data)
	tag, err := r.ReadByte()
	if err != nil {
		return HandshakeFrame{}, ErrTruncated
	}
	switch tag {
	case tagClientHello:
		ch := &ClientHello{}
		if err := readFull(r, ch.LongPK[:]); err != nil {
			return HandshakeFrame{}, err
		}
		if err := readFull(r, ch.EphPK[:]); err != nil {
			return HandshakeFrame{}, err
		}
		v, err := r.ReadByte()
		if err != nil {
			return HandshakeFrame{}, ErrTruncated
		}
		ch.Version = v
		return HandshakeFrame{ClientHello: ch}, nil
	case tagServerHello:
		sh := &ServerHello{}
		if err := readFull(r, sh.LongPK[:]); err != nil {
			return HandshakeFrame{}, err
		}
		if err := readFull(r, sh.EphPK[:]); err != nil {
			return HandshakeFrame{}, err
		}
		tok, err := ReadPascal(r, 4096)
		if err != nil {
			return HandshakeFrame{}, err
		}
		sh.ResumeToken = tok
		return HandshakeFrame{ServerHello: sh}, nil
	case tagClientResume:
		cr := &ClientResume{}
		tok, err := ReadPascal(r, 4096)
		if err != nil {
			return HandshakeFrame{}, err
		}
		cr.ResumeToken = tok
		shard, err := r.ReadByte()
		if err != nil {
			return HandshakeFrame{}, ErrTruncated
		}
		cr.ShardID = shard
		return HandshakeFrame{ClientResume: cr}, nil
	default:
		return HandshakeFrame{}, fmt.Errorf("%w: %d", ErrUnknownTag, tag)
	}
}

func readFull(r io.Reader, buf []byte) error {
	if _, err := io.ReadFull(r, buf); err != nil {
		return ErrTruncated
	}
	return nil
}
