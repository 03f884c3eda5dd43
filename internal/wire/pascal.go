package wire

import (
	"encoding/binary"
	"io"
)

// WritePascal writes b to w prefixed with its length as a 2-byte
// big-endian integer, the length-prefixed ("pascal string") framing used
// throughout the handshake and authentication exchange.
func WritePascal(w io.Writer, b []byte) error {
	if len(b) > 0xFFFF {
		return ErrTooLarge
	}
	var lenBuf [2]byte
	binary.BigEndian.PutUint16(lenBuf[:], uint16(len(b)))
	if _, err := w.Write(lenBuf[:]); err != nil {
		return err
	}
	if len(b) == 0 {
		return nil
	}
	_, err := w.Write(b)
	return err
}

// ReadPascal reads a pascal-framed byte string from r, rejecting lengths
// above max.
func ReadPascal(r io.Reader, max int) ([]byte, error) {
	var lenBuf [2]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return nil, ErrTruncated
	}
	n := int(binary.BigEndian.Uint16(lenBuf[:]))
	if n > max {
		return nil, ErrTooLarge
	}
	if n == 0 {
		return nil, nil
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, ErrTruncated
	}
	return buf, nil
}
