package layers

import (
	"encoding/binary"
	"fmt"
	"strings"
	"time"
)

func FormatDumpTime(t time.Time) string {
	return t.Local().Format("15:04:05.000000")
}

// 02:42:6d:09:05:c4 > 02:42:ac:11:00:0a, ethertype IPv4 (0x0800), length 98
func FormatFrame(f *EthernetFrame) string {
	return fmt.Sprintf("%s > %s, ethertype %s (0x%04x), length %d",
		f.SrcMAC, f.DstMAC, f.EtherType, uint16(f.EtherType), EthernetHeaderLen+len(f.Payload))
}

// 172.16.23.2 > 172.16.23.1: proto TCP (6), ttl 64, id 7270, flags [DF], length 60
func FormatIPv4(p *IPv4Packet) string {
	h := &p.Header

	b := strings.Builder{}
	b.WriteString(fmt.Sprintf("%s > %s: proto %s (%d), ttl %d, id %d",
		h.SrcIP, h.DstIP, IPProtoString(h.Protocol), h.Protocol, h.TTL, h.ID))

	var flags []byte
	if h.Flags&IPv4FlagDF != 0 {
		flags = append(flags, 'D', 'F')
	}
	if h.Flags&IPv4FlagMF != 0 {
		flags = append(flags, 'M', 'F')
	}
	if len(flags) > 0 {
		b.WriteString(fmt.Sprintf(", flags [%s]", flags))
	}
	if h.FragOff != 0 {
		b.WriteString(fmt.Sprintf(", frag offset %d", h.FragOff))
	}
	b.WriteString(fmt.Sprintf(", length %d", h.TotalLen))
	return b.String()
}

// ICMP echo request, id 62002, seq 3, length 64
func FormatICMPv4(m *ICMPv4) string {
	b := strings.Builder{}
	b.WriteString("ICMP ")

	echo := (m.Type == ICMPv4TypeEchoRequest || m.Type == ICMPv4TypeEchoReply) && len(m.Data) >= 4
	switch {
	case echo && m.Type == ICMPv4TypeEchoRequest:
		b.WriteString(fmt.Sprintf("echo request, id %d, seq %d",
			binary.BigEndian.Uint16(m.Data[0:2]), binary.BigEndian.Uint16(m.Data[2:4])))
	case echo && m.Type == ICMPv4TypeEchoReply:
		b.WriteString(fmt.Sprintf("echo reply, id %d, seq %d",
			binary.BigEndian.Uint16(m.Data[0:2]), binary.BigEndian.Uint16(m.Data[2:4])))
	default:
		b.WriteString(fmt.Sprintf("type %d code %d", m.Type, m.Code))
	}
	b.WriteString(fmt.Sprintf(", length %d", ICMPv4HeaderLen+len(m.Data)))
	return b.String()
}

// Format renders one raw frame as a tcpdump-like line, decoding as deep as
// the buffer allows. IPv4 checksums are not enforced here so frames from
// NICs with tx checksum offload still print; strict validation is the
// dispatcher's job.
func Format(data []byte) string {
	b := strings.Builder{}

	frame, err := DecodeEthernet(data)
	if err != nil {
		return fmt.Sprintf("[%v]", err)
	}
	b.WriteString(FormatFrame(frame))

	if frame.EtherType != EtherTypeIPv4 {
		return b.String()
	}
	pkt, err := DecodeIPv4(frame.Payload, WithIPv4IgnoreChecksum())
	if err != nil {
		b.WriteString(fmt.Sprintf(": [%v]", err))
		return b.String()
	}
	b.WriteString(": ")
	b.WriteString(FormatIPv4(pkt))

	// later fragments carry no ICMP header
	if pkt.Header.Protocol == IPProtoICMP && pkt.Header.FragOff == 0 {
		m, err := DecodeICMPv4(pkt.Payload)
		if err == nil {
			b.WriteString(": ")
			b.WriteString(FormatICMPv4(m))
		}
	}
	return b.String()
}
