package layers

import (
	"net"
	"strings"
	"testing"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/stretchr/testify/assert"
)

func testEchoFrame(t *testing.T) []byte {
	t.Helper()

	layerIPv4 := layers.IPv4{
		Version:  4,
		TTL:      64,
		Protocol: layers.IPProtocolICMPv4,
		SrcIP:    net.IPv4(172, 17, 0, 10),
		DstIP:    net.IPv4(172, 17, 0, 1),
	}
	data, err := serialize(&layers.Ethernet{
		DstMAC:       net.HardwareAddr(testDstMAC[:]),
		SrcMAC:       net.HardwareAddr(testSrcMAC[:]),
		EthernetType: layers.EthernetTypeIPv4,
	}, &layerIPv4, &layers.ICMPv4{
		TypeCode: layers.CreateICMPv4TypeCode(layers.ICMPv4TypeEchoRequest, 0),
		Id:       62002,
		Seq:      3,
	}, gopacket.Payload(make([]byte, 48)))
	if err != nil {
		t.Fatal(err)
	}
	return data
}

func TestFormatEchoRequest(t *testing.T) {
	s := Format(testEchoFrame(t))
	assert.Contains(t, s, "56:66:60:0f:eb:3a > 16:46:b1:3a:af:03")
	assert.Contains(t, s, "ethertype IPv4 (0x0800)")
	assert.Contains(t, s, "172.17.0.10 > 172.17.0.1")
	assert.Contains(t, s, "proto ICMP (1)")
	assert.Contains(t, s, "ICMP echo request, id 62002, seq 3")
}

func TestFormatNonIPv4(t *testing.T) {
	frame := &EthernetFrame{
		DstMAC:    testDstMAC,
		SrcMAC:    testSrcMAC,
		EtherType: EtherTypeARP,
		Payload:   make([]byte, 46),
	}
	data, err := frame.Encode()
	if err != nil {
		t.Fatal(err)
	}

	s := Format(data)
	assert.Contains(t, s, "ethertype ARP (0x0806)")
	// formatting stops at the link layer
	assert.True(t, strings.HasSuffix(s, "length 60"), s)
}

func TestFormatTruncated(t *testing.T) {
	s := Format(make([]byte, 5))
	assert.Contains(t, s, "truncated ethernet frame")
}
