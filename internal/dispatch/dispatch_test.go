package dispatch

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ministack/ministack/pkg/layers"
	"github.com/ministack/ministack/pkg/netaddr"
)

func testEchoFrame(t *testing.T) []byte {
	icmp := &layers.ICMPv4{
		Type: layers.ICMPv4TypeEchoRequest,
		Data: []byte{0x12, 0x34, 0x00, 0x01, 'p', 'i', 'n', 'g'},
	}
	pkt := &layers.IPv4Packet{
		Header: layers.IPv4Header{
			TTL:      64,
			Protocol: layers.IPProtoICMP,
			SrcIP:    netaddr.IPv4Addr(0xac100a63),
			DstIP:    netaddr.IPv4Addr(0xac100a0c),
		},
		Payload: icmp.Encode(),
	}
	payload, err := pkt.Encode()
	assert.NoError(t, err)

	frame := &layers.EthernetFrame{
		DstMAC:    netaddr.HwAddr{0x02, 0x42, 0x6d, 0x09, 0x05, 0xc4},
		SrcMAC:    netaddr.HwAddr{0x02, 0x42, 0x6d, 0x09, 0x05, 0xc5},
		EtherType: layers.EtherTypeIPv4,
		Payload:   payload,
	}
	data, err := frame.Encode()
	assert.NoError(t, err)
	return data
}

func TestDispatchEcho(t *testing.T) {
	d := NewDispatcher("eth0")

	res, err := d.Dispatch(testEchoFrame(t))
	assert.NoError(t, err)
	assert.NotNil(t, res.Frame)
	assert.NotNil(t, res.IPv4)
	assert.NotNil(t, res.ICMPv4)
	assert.Equal(t, layers.ICMPv4TypeEchoRequest, res.ICMPv4.Type)

	stats := d.Stats()
	assert.Equal(t, uint64(1), stats.Frames)
	assert.Equal(t, uint64(1), stats.IPv4Packets)
	assert.Equal(t, uint64(1), stats.ICMPv4Messages)
}

func TestDispatchNonIPv4(t *testing.T) {
	d := NewDispatcher("eth0")

	frame := &layers.EthernetFrame{
		DstMAC:    netaddr.Broadcast,
		SrcMAC:    netaddr.HwAddr{0x02, 0x42, 0x6d, 0x09, 0x05, 0xc5},
		EtherType: layers.EtherTypeARP,
		Payload:   make([]byte, 28),
	}
	data, err := frame.Encode()
	assert.NoError(t, err)

	res, err := d.Dispatch(data)
	assert.NoError(t, err)
	assert.NotNil(t, res.Frame)
	assert.Nil(t, res.IPv4)
	assert.Equal(t, uint64(1), d.Stats().NonIPv4Frames)
}

func TestDispatchCounters(t *testing.T) {
	d := NewDispatcher("eth0")
	data := testEchoFrame(t)

	_, err := d.Dispatch(data[:13])
	assert.ErrorIs(t, err, layers.ErrTruncatedFrame)

	truncated := append([]byte{}, data[:layers.EthernetHeaderLen+19]...)
	_, err = d.Dispatch(truncated)
	assert.ErrorIs(t, err, layers.ErrTruncatedPacket)

	badVersion := append([]byte{}, data...)
	badVersion[layers.EthernetHeaderLen] = 0x65
	_, err = d.Dispatch(badVersion)
	assert.ErrorIs(t, err, layers.ErrUnsupportedVersion)

	badTTL := append([]byte{}, data...)
	badTTL[layers.EthernetHeaderLen+8] ^= 0xff
	_, err = d.Dispatch(badTTL)
	assert.ErrorIs(t, err, layers.ErrChecksumMismatch)

	stats := d.Stats()
	assert.Equal(t, uint64(1), stats.TruncatedFrames)
	assert.Equal(t, uint64(1), stats.TruncatedPackets)
	assert.Equal(t, uint64(1), stats.UnsupportedVersions)
	assert.Equal(t, uint64(1), stats.ChecksumMismatches)
	// every frame but the 13-byte one got past the ethernet layer
	assert.Equal(t, uint64(3), stats.Frames)
	assert.Equal(t, uint64(0), stats.IPv4Packets)
}

type sliceReader struct {
	frames [][]byte
	next   int
	cancel context.CancelFunc
}

func (r *sliceReader) ReadFrame(buf []byte) (int, error) {
	if r.next >= len(r.frames) {
		r.cancel()
		return 0, nil
	}
	n := copy(buf, r.frames[r.next])
	r.next++
	return n, nil
}

func TestDispatchRun(t *testing.T) {
	var got []*Result
	d := NewDispatcher("eth0", WithHandler(func(iface string, res *Result) {
		assert.Equal(t, "eth0", iface)
		got = append(got, res)
	}))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	r := &sliceReader{
		frames: [][]byte{testEchoFrame(t), testEchoFrame(t)},
		cancel: cancel,
	}
	assert.NoError(t, d.Run(ctx, r))
	assert.Len(t, got, 2)
	assert.Equal(t, uint64(2), d.Stats().Frames)
}
