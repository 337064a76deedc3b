// Package layers implements encode/decode for the two lowest layers of a
// minimal protocol stack: Ethernet framing and IPv4 packet headers, plus the
// ICMPv4 message format. All codecs are pure functions over their input
// buffer and return freshly allocated results.
package layers

import (
	"encoding/binary"
	"fmt"

	"github.com/ministack/ministack/pkg/netaddr"
	"github.com/pkg/errors"
)

const (
	// EthernetHeaderLen is dst MAC (6) + src MAC (6) + EtherType (2).
	EthernetHeaderLen = 14

	// EthernetMTU is the conventional maximum payload of one frame.
	EthernetMTU = 1500

	// EthernetFCSLen is the length of the trailing frame check sequence.
	EthernetFCSLen = 4
)

// EtherType identifies the protocol encapsulated in an Ethernet frame.
// Unrecognized values are carried through as raw numeric tags.
type EtherType uint16

const (
	EtherTypeIPv4 EtherType = 0x0800
	EtherTypeARP  EtherType = 0x0806
	EtherTypeVLAN EtherType = 0x8100
	EtherTypeIPv6 EtherType = 0x86DD
)

var etherType2str = map[EtherType]string{
	EtherTypeIPv4: "IPv4",
	EtherTypeARP:  "ARP",
	EtherTypeVLAN: "802.1Q",
	EtherTypeIPv6: "IPv6",
}

func (t EtherType) String() string {
	s, ok := etherType2str[t]
	if !ok {
		return fmt.Sprintf("0x%04x", uint16(t))
	}
	return s
}

// EthernetFrame is one decoded link-layer frame.
//
// Wire layout: [0:6) dst MAC, [6:12) src MAC, [12:14) big-endian EtherType,
// [14:) payload.
type EthernetFrame struct {
	DstMAC    netaddr.HwAddr
	SrcMAC    netaddr.HwAddr
	EtherType EtherType
	Payload   []byte
}

type ethernetOpts struct {
	fcs bool
	mtu int
}

type EthernetOpt func(*ethernetOpts)

// WithEthernetFCS enables the trailing CRC-32 frame check sequence: Encode
// appends it, DecodeEthernet requires, verifies and strips it.
func WithEthernetFCS() EthernetOpt {
	return func(o *ethernetOpts) { o.fcs = true }
}

// WithEthernetMTU makes Encode fail with ErrFrameTooLarge when the payload
// exceeds mtu bytes. Decode ignores it.
func WithEthernetMTU(mtu int) EthernetOpt {
	return func(o *ethernetOpts) { o.mtu = mtu }
}

// DecodeEthernet parses one raw frame. It never retains data; the returned
// frame owns its payload.
func DecodeEthernet(data []byte, opts ...EthernetOpt) (*EthernetFrame, error) {
	var o ethernetOpts
	for _, opt := range opts {
		opt(&o)
	}

	need := EthernetHeaderLen
	if o.fcs {
		need += EthernetFCSLen
	}
	if len(data) < need {
		return nil, errors.Wrapf(ErrTruncatedFrame, "have %d bytes, need %d", len(data), need)
	}

	frame := &EthernetFrame{
		EtherType: EtherType(binary.BigEndian.Uint16(data[12:14])),
	}
	copy(frame.DstMAC[:], data[0:6])
	copy(frame.SrcMAC[:], data[6:12])

	payload := data[EthernetHeaderLen:]
	if o.fcs {
		stored := binary.BigEndian.Uint32(data[len(data)-EthernetFCSLen:])
		computed := FrameCheckSequence(data[:len(data)-EthernetFCSLen])
		if stored != computed {
			return nil, errors.Wrapf(ErrFCSMismatch, "computed 0x%08x, stored 0x%08x", computed, stored)
		}
		payload = payload[:len(payload)-EthernetFCSLen]
	}
	frame.Payload = append([]byte(nil), payload...)

	return frame, nil
}

// Encode serializes the frame. The checks are opt-in; with no options the
// output is header + payload, byte for byte.
func (f *EthernetFrame) Encode(opts ...EthernetOpt) ([]byte, error) {
	var o ethernetOpts
	for _, opt := range opts {
		opt(&o)
	}

	if o.mtu > 0 && len(f.Payload) > o.mtu {
		return nil, errors.Wrapf(ErrFrameTooLarge, "payload %d bytes, mtu %d", len(f.Payload), o.mtu)
	}

	size := EthernetHeaderLen + len(f.Payload)
	if o.fcs {
		size += EthernetFCSLen
	}

	b := make([]byte, size)
	copy(b[0:6], f.DstMAC[:])
	copy(b[6:12], f.SrcMAC[:])
	binary.BigEndian.PutUint16(b[12:14], uint16(f.EtherType))
	copy(b[EthernetHeaderLen:], f.Payload)
	if o.fcs {
		binary.BigEndian.PutUint32(b[size-EthernetFCSLen:], FrameCheckSequence(b[:size-EthernetFCSLen]))
	}
	return b, nil
}
