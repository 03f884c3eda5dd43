package wire

import "errors"

// ErrTruncated is returned when a reader or buffer ends before a complete
// frame could be decoded.
var ErrTruncated = errors.New("wire: truncated frame")

// ErrUnknownTag is returned when a handshake frame's tag byte does not
// match any known variant.
var ErrUnknownTag = errors.New("wire: unknown handshake frame tag")

// ErrTooLarge is returned when a pascal-style length prefix exceeds the
// caller-supplied maximum.
var ErrTooLarge = errors.New("wire: length-prefixed field exceeds maximum")
