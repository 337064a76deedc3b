package layers

import "github.com/pkg/errors"

// Decode errors. Decoders wrap these with offsets and byte counts, callers
// classify with errors.Is. No decoder panics on malformed input.
var (
	ErrTruncatedFrame     = errors.New("truncated ethernet frame")
	ErrTruncatedPacket    = errors.New("truncated ipv4 packet")
	ErrUnsupportedVersion = errors.New("unsupported ip version")
	ErrMalformedHeader    = errors.New("malformed ipv4 header")
	ErrChecksumMismatch   = errors.New("header checksum mismatch")
	ErrFCSMismatch        = errors.New("frame check sequence mismatch")
	ErrFrameTooLarge      = errors.New("frame exceeds mtu")
)
