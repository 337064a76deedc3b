package layers

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChecksumReferenceVector(t *testing.T) {
	// Classic 20-byte TCP/IPv4 header example, checksum field zeroed.
	hdr := []byte{
		0x45, 0x00, 0x00, 0x3c,
		0x1c, 0x46, 0x40, 0x00,
		0x40, 0x06, 0x00, 0x00,
		0xac, 0x10, 0x0a, 0x63,
		0xac, 0x10, 0x0a, 0x0c,
	}
	assert.Equal(t, uint16(0xb1e6), Checksum(hdr))

	// Summing the header with the valid checksum in place yields zero.
	hdr[10], hdr[11] = 0xb1, 0xe6
	assert.Equal(t, uint16(0), Checksum(hdr))
}

func TestChecksumFoldsCarries(t *testing.T) {
	b := []byte{
		0x50, 0x00, 0xb0, 0x3c, 0x50, 0x00, 0xb0, 0x3c, 0x50, 0x00,
		0xb0, 0x3c, 0x50, 0x00, 0xb0, 0x3c, 0x50, 0x00, 0xb0, 0x3c,
	}
	assert.Equal(t, uint16(0xfece), Checksum(b))
}

func TestChecksumOddLength(t *testing.T) {
	// Trailing byte is padded with zero: sum = 0x0100.
	assert.Equal(t, uint16(0xfeff), Checksum([]byte{0x01}))
	assert.Equal(t, uint16(0xffff), Checksum(nil))
}

func TestFrameCheckSequence(t *testing.T) {
	assert.Equal(t, uint32(0xffffffff), FrameCheckSequence(nil))

	data := []byte("Hello! I am a test message.")
	fcs := FrameCheckSequence(data)

	// Any single byte change must move the CRC.
	for i := range data {
		corrupted := append([]byte(nil), data...)
		corrupted[i] ^= 0x20
		assert.NotEqual(t, fcs, FrameCheckSequence(corrupted), "byte %d", i)
	}
}
