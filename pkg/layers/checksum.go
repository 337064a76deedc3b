package layers

// Checksum computes the RFC 1071 internet checksum over b: one's-complement
// sum of big-endian 16-bit words with end-around carry, complemented.
// An odd trailing byte is treated as padded with a zero byte.
func Checksum(b []byte) uint16 {
	var sum uint32

	i := 0
	for ; i+1 < len(b); i += 2 {
		sum += uint32(b[i])<<8 | uint32(b[i+1])
	}
	if i < len(b) {
		sum += uint32(b[i]) << 8
	}
	for sum > 0xffff {
		sum = (sum >> 16) + (sum & 0xffff)
	}
	return ^uint16(sum)
}

// fcsGenerator is the CRC-32 generator polynomial used for the Ethernet
// frame check sequence.
const fcsGenerator = 0x04C11DB7

// FrameCheckSequence computes the CRC-32 over b in the MSB-first,
// non-reflected form with initial value 0xFFFFFFFF and no final complement.
// Note this is not the bit-reflected IEEE 802.3 representation produced by
// hash/crc32; the two are not interchangeable.
func FrameCheckSequence(b []byte) uint32 {
	fcs := uint32(0xffffffff)
	for _, c := range b {
		fcs ^= uint32(c) << 24
		for i := 0; i < 8; i++ {
			if fcs&0x80000000 != 0 {
				fcs = fcs<<1 ^ fcsGenerator
			} else {
				fcs <<= 1
			}
		}
	}
	return fcs
}
