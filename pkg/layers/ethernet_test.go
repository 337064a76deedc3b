package layers

import (
	"net"
	"testing"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/ministack/ministack/pkg/netaddr"
	"github.com/stretchr/testify/assert"
)

var (
	testDstMAC = netaddr.HwAddr{0x16, 0x46, 0xb1, 0x3a, 0xaf, 0x03}
	testSrcMAC = netaddr.HwAddr{0x56, 0x66, 0x60, 0x0f, 0xeb, 0x3a}
)

func serialize(ls ...gopacket.SerializableLayer) ([]byte, error) {
	buf := gopacket.NewSerializeBuffer()
	opts := gopacket.SerializeOptions{FixLengths: true, ComputeChecksums: true}
	err := gopacket.SerializeLayers(buf, opts, ls...)
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func TestDecodeEthernet(t *testing.T) {
	payload := make([]byte, 46)
	for i := range payload {
		payload[i] = byte(i)
	}

	data, err := serialize(&layers.Ethernet{
		DstMAC:       net.HardwareAddr(testDstMAC[:]),
		SrcMAC:       net.HardwareAddr(testSrcMAC[:]),
		EthernetType: layers.EthernetTypeIPv4,
	}, gopacket.Payload(payload))
	if err != nil {
		t.Fatal(err)
	}

	frame, err := DecodeEthernet(data)
	if err != nil {
		t.Fatal(err)
	}
	assert.Equal(t, testDstMAC, frame.DstMAC)
	assert.Equal(t, testSrcMAC, frame.SrcMAC)
	assert.Equal(t, EtherTypeIPv4, frame.EtherType)
	assert.Equal(t, data[EthernetHeaderLen:], frame.Payload)
}

func TestDecodeEthernetTruncated(t *testing.T) {
	_, err := DecodeEthernet(make([]byte, 13))
	assert.ErrorIs(t, err, ErrTruncatedFrame)

	// 14 bytes is a valid frame with an empty payload
	frame, err := DecodeEthernet(make([]byte, 14))
	assert.NoError(t, err)
	assert.Empty(t, frame.Payload)
}

func TestEncodeEthernetRoundTrip(t *testing.T) {
	frame := &EthernetFrame{
		DstMAC:    testDstMAC,
		SrcMAC:    testSrcMAC,
		EtherType: 0x1313, // unrecognized values pass through
		Payload:   []byte("Hello! I am a test message."),
	}

	data, err := frame.Encode()
	if err != nil {
		t.Fatal(err)
	}
	assert.Equal(t, EthernetHeaderLen+len(frame.Payload), len(data))

	decoded, err := DecodeEthernet(data)
	if err != nil {
		t.Fatal(err)
	}
	assert.Equal(t, frame, decoded)
}

func TestEncodeEthernetMTU(t *testing.T) {
	frame := &EthernetFrame{
		DstMAC:    testDstMAC,
		SrcMAC:    testSrcMAC,
		EtherType: EtherTypeIPv4,
		Payload:   make([]byte, EthernetMTU+1),
	}

	_, err := frame.Encode(WithEthernetMTU(EthernetMTU))
	assert.ErrorIs(t, err, ErrFrameTooLarge)

	// no limit by default
	_, err = frame.Encode()
	assert.NoError(t, err)
}

func TestEthernetFCS(t *testing.T) {
	frame := &EthernetFrame{
		DstMAC:    testDstMAC,
		SrcMAC:    testSrcMAC,
		EtherType: EtherTypeIPv4,
		Payload:   make([]byte, 46),
	}

	data, err := frame.Encode(WithEthernetFCS())
	if err != nil {
		t.Fatal(err)
	}
	assert.Equal(t, EthernetHeaderLen+len(frame.Payload)+EthernetFCSLen, len(data))

	decoded, err := DecodeEthernet(data, WithEthernetFCS())
	if err != nil {
		t.Fatal(err)
	}
	assert.Equal(t, frame, decoded)

	// without the option the trailer stays in the payload
	plain, err := DecodeEthernet(data)
	assert.NoError(t, err)
	assert.Equal(t, len(frame.Payload)+EthernetFCSLen, len(plain.Payload))

	// corruption anywhere under the trailer is caught
	data[20] ^= 0x01
	_, err = DecodeEthernet(data, WithEthernetFCS())
	assert.ErrorIs(t, err, ErrFCSMismatch)
}

func TestEtherTypeString(t *testing.T) {
	assert.Equal(t, "IPv4", EtherTypeIPv4.String())
	assert.Equal(t, "ARP", EtherTypeARP.String())
	assert.Equal(t, "0x1313", EtherType(0x1313).String())
}
