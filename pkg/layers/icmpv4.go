package layers

import (
	"encoding/binary"

	"github.com/pkg/errors"
)

const ICMPv4HeaderLen = 4

const (
	ICMPv4TypeEchoReply   uint8 = 0
	ICMPv4TypeEchoRequest uint8 = 8
)

// ICMPv4 is one control message: fixed type/code/checksum header followed by
// the rest-of-header and payload bytes, carried opaquely in Data. The
// checksum covers the whole message.
type ICMPv4 struct {
	Type     uint8
	Code     uint8
	Checksum uint16
	Data     []byte
}

// DecodeICMPv4 parses one message, typically the payload of an IPv4 packet
// whose protocol is ICMP.
func DecodeICMPv4(data []byte) (*ICMPv4, error) {
	if len(data) < ICMPv4HeaderLen {
		return nil, errors.Wrapf(ErrTruncatedPacket, "have %d bytes, need %d", len(data), ICMPv4HeaderLen)
	}

	m := &ICMPv4{
		Type:     data[0],
		Code:     data[1],
		Checksum: binary.BigEndian.Uint16(data[2:4]),
		Data:     append([]byte(nil), data[4:]...),
	}

	computed := messageChecksum(m.Type, m.Code, m.Data)
	if computed != m.Checksum {
		return nil, errors.Wrapf(ErrChecksumMismatch, "computed 0x%04x, stored 0x%04x", computed, m.Checksum)
	}
	return m, nil
}

// Encode serializes the message, recomputing the checksum.
func (m *ICMPv4) Encode() []byte {
	b := make([]byte, ICMPv4HeaderLen+len(m.Data))
	b[0] = m.Type
	b[1] = m.Code
	copy(b[ICMPv4HeaderLen:], m.Data)
	binary.BigEndian.PutUint16(b[2:4], Checksum(b))
	return b
}

func messageChecksum(typ, code uint8, data []byte) uint16 {
	b := make([]byte, ICMPv4HeaderLen+len(data))
	b[0] = typ
	b[1] = code
	copy(b[ICMPv4HeaderLen:], data)
	return Checksum(b)
}
