package netutil

import "encoding/binary"

// Byte-order helpers for socket-level fields. The codecs read wire bytes
// with encoding/binary directly; these exist for AF_PACKET socket arguments,
// which the kernel expects in network order regardless of host endianness.

func Htons(v uint16) uint16 {
	b := [2]byte{byte(v >> 8), byte(v)}
	return binary.NativeEndian.Uint16(b[:])
}

func Ntohs(v uint16) uint16 { return Htons(v) }

func Htonl(v uint32) uint32 {
	b := [4]byte{byte(v >> 24), byte(v >> 16), byte(v >> 8), byte(v)}
	return binary.NativeEndian.Uint32(b[:])
}

func Ntohl(v uint32) uint32 { return Htonl(v) }
