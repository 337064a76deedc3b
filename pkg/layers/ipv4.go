package layers

import (
	"encoding/binary"
	"fmt"

	"github.com/ministack/ministack/pkg/netaddr"
	"github.com/pkg/errors"
)

const (
	IPv4MinHeaderLen = 20
	IPv4MaxHeaderLen = 60 // IHL is 4 bits, 15 words
)

// IP protocol numbers. Opaque tags from the codec's point of view; only
// ICMP is decoded further.
const (
	IPProtoICMP uint8 = 1
	IPProtoTCP  uint8 = 6
	IPProtoUDP  uint8 = 17
)

var ipProto2str = map[uint8]string{
	IPProtoICMP: "ICMP",
	IPProtoTCP:  "TCP",
	IPProtoUDP:  "UDP",
}

// IPProtoString names a protocol number, falling back to the raw value.
func IPProtoString(proto uint8) string {
	s, ok := ipProto2str[proto]
	if !ok {
		return fmt.Sprintf("%d", proto)
	}
	return s
}

// Flags field bits (3-bit field, byte 6 bits 7..5).
const (
	IPv4FlagMF uint8 = 1 << 0 // more fragments
	IPv4FlagDF uint8 = 1 << 1 // don't fragment
)

// IPv4Header holds the unpacked header fields.
//
// Wire layout: byte 0 version(4)|IHL(4), byte 1 TOS, bytes 2-3 total length,
// bytes 4-5 identification, byte 6 flags(3)|fragment offset high(5),
// byte 7 fragment offset low, byte 8 TTL, byte 9 protocol, bytes 10-11
// checksum, bytes 12-15 source, bytes 16-19 destination, bytes 20..IHL*4
// options. All multi-byte fields big-endian.
type IPv4Header struct {
	Version  uint8
	IHL      uint8 // header length in 4-byte words, >= 5
	TOS      uint8
	TotalLen uint16
	ID       uint16
	Flags    uint8  // 3 bits
	FragOff  uint16 // 13 bits, in 8-byte units
	TTL      uint8
	Protocol uint8
	Checksum uint16
	SrcIP    netaddr.IPv4Addr
	DstIP    netaddr.IPv4Addr
	Options  []byte // raw, present when IHL > 5
}

// HeaderLen returns the header length in bytes.
func (h *IPv4Header) HeaderLen() int { return int(h.IHL) * 4 }

// IPv4Packet is one decoded network-layer packet.
type IPv4Packet struct {
	Header  IPv4Header
	Payload []byte
}

type ipv4Opts struct {
	ignoreChecksum bool
}

type IPv4Opt func(*ipv4Opts)

// WithIPv4IgnoreChecksum skips header checksum validation on decode. The
// stored value is still reported in the header. Decode is strict by default.
func WithIPv4IgnoreChecksum() IPv4Opt {
	return func(o *ipv4Opts) { o.ignoreChecksum = true }
}

// DecodeIPv4 parses one packet, typically the payload of an Ethernet frame
// whose EtherType is IPv4. The returned packet owns its options and payload.
func DecodeIPv4(data []byte, opts ...IPv4Opt) (*IPv4Packet, error) {
	var o ipv4Opts
	for _, opt := range opts {
		opt(&o)
	}

	if len(data) < IPv4MinHeaderLen {
		return nil, errors.Wrapf(ErrTruncatedPacket, "have %d bytes, need %d", len(data), IPv4MinHeaderLen)
	}

	version := data[0] >> 4
	if version != 4 {
		return nil, errors.Wrapf(ErrUnsupportedVersion, "version %d", version)
	}

	h := IPv4Header{
		Version:  version,
		IHL:      data[0] & 0x0f,
		TOS:      data[1],
		TotalLen: binary.BigEndian.Uint16(data[2:4]),
		ID:       binary.BigEndian.Uint16(data[4:6]),
		Flags:    data[6] >> 5,
		FragOff:  uint16(data[6]&0x1f)<<8 | uint16(data[7]),
		TTL:      data[8],
		Protocol: data[9],
		Checksum: binary.BigEndian.Uint16(data[10:12]),
		SrcIP:    netaddr.IPv4Addr(binary.BigEndian.Uint32(data[12:16])),
		DstIP:    netaddr.IPv4Addr(binary.BigEndian.Uint32(data[16:20])),
	}

	hdrLen := h.HeaderLen()
	if hdrLen < IPv4MinHeaderLen || hdrLen > len(data) {
		return nil, errors.Wrapf(ErrMalformedHeader, "header length %d, buffer %d", hdrLen, len(data))
	}
	if hdrLen > IPv4MinHeaderLen {
		h.Options = append([]byte(nil), data[IPv4MinHeaderLen:hdrLen]...)
	}

	if !o.ignoreChecksum {
		computed := headerChecksum(data[:hdrLen])
		if computed != h.Checksum {
			return nil, errors.Wrapf(ErrChecksumMismatch, "computed 0x%04x, stored 0x%04x", computed, h.Checksum)
		}
	}

	if int(h.TotalLen) < hdrLen {
		return nil, errors.Wrapf(ErrMalformedHeader, "total length %d < header length %d", h.TotalLen, hdrLen)
	}
	if int(h.TotalLen) > len(data) {
		return nil, errors.Wrapf(ErrTruncatedPacket, "total length %d, buffer %d", h.TotalLen, len(data))
	}

	return &IPv4Packet{
		Header:  h,
		Payload: append([]byte(nil), data[hdrLen:h.TotalLen]...),
	}, nil
}

// Encode serializes the packet. It is canonicalizing: header length, total
// length and checksum are always recomputed from the actual options and
// payload, never trusted from the struct, so emitted bytes are
// self-consistent even when the input carries stale values.
func (p *IPv4Packet) Encode() ([]byte, error) {
	if len(p.Header.Options)%4 != 0 {
		return nil, errors.Wrapf(ErrMalformedHeader, "options length %d not a multiple of 4", len(p.Header.Options))
	}

	hdrLen := IPv4MinHeaderLen + len(p.Header.Options)
	if hdrLen > IPv4MaxHeaderLen {
		return nil, errors.Wrapf(ErrMalformedHeader, "header length %d exceeds %d", hdrLen, IPv4MaxHeaderLen)
	}
	totalLen := hdrLen + len(p.Payload)
	if totalLen > 0xffff {
		return nil, errors.Wrapf(ErrMalformedHeader, "total length %d overflows 16 bits", totalLen)
	}

	h := &p.Header
	b := make([]byte, totalLen)
	b[0] = 4<<4 | uint8(hdrLen/4)
	b[1] = h.TOS
	binary.BigEndian.PutUint16(b[2:4], uint16(totalLen))
	binary.BigEndian.PutUint16(b[4:6], h.ID)
	b[6] = (h.Flags&0x07)<<5 | uint8(h.FragOff>>8)&0x1f
	b[7] = uint8(h.FragOff)
	b[8] = h.TTL
	b[9] = h.Protocol
	// bytes 10-11 stay zero until the checksum is computed
	binary.BigEndian.PutUint32(b[12:16], uint32(h.SrcIP))
	binary.BigEndian.PutUint32(b[16:20], uint32(h.DstIP))
	copy(b[IPv4MinHeaderLen:hdrLen], h.Options)
	binary.BigEndian.PutUint16(b[10:12], Checksum(b[:hdrLen]))
	copy(b[hdrLen:], p.Payload)

	return b, nil
}

// headerChecksum recomputes the header checksum with the checksum field
// treated as zero.
func headerChecksum(hdr []byte) uint16 {
	var scratch [IPv4MaxHeaderLen]byte
	n := copy(scratch[:], hdr)
	scratch[10], scratch[11] = 0, 0
	return Checksum(scratch[:n])
}
