package netaddr

import (
	"encoding/json"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHwAddr(t *testing.T) {
	var addr HwAddr
	assert.True(t, addr.IsZero())

	err := addr.Set("02:42:6d:09:05:c4")
	assert.NoError(t, err)
	assert.Equal(t, "02:42:6d:09:05:c4", addr.String())
	assert.False(t, addr.IsZero())

	assert.Error(t, addr.Set("not-a-mac"))
	// EUI-64 parses but is not a 6-byte address
	assert.Error(t, addr.Set("02:42:6d:09:05:c4:aa:bb"))

	assert.Equal(t, 0, addr.Compare(addr))
	assert.Equal(t, 1, Broadcast.Compare(addr))
}

func TestHwAddrJSON(t *testing.T) {
	addr := HwAddr{0x02, 0x42, 0x6d, 0x09, 0x05, 0xc4}

	data, err := json.Marshal(addr)
	assert.NoError(t, err)
	assert.Equal(t, `"02:42:6d:09:05:c4"`, string(data))

	var decoded HwAddr
	assert.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, addr, decoded)
}

func TestIPv4Addr(t *testing.T) {
	addr := NewIPv4AddrFromIP(net.IPv4(172, 16, 10, 99))
	assert.Equal(t, IPv4Addr(0xac100a63), addr)
	assert.Equal(t, "172.16.10.99", addr.String())
	assert.Equal(t, net.IPv4(172, 16, 10, 99).To4(), addr.ToIP().To4())

	var parsed IPv4Addr
	assert.NoError(t, parsed.Set("172.16.10.99"))
	assert.Equal(t, addr, parsed)

	assert.Error(t, parsed.Set("fe80::1"))
	assert.Error(t, parsed.Set("garbage"))
}

func TestIPv4AddrJSON(t *testing.T) {
	addr := IPv4Addr(0x0a000001)

	data, err := json.Marshal(addr)
	assert.NoError(t, err)
	assert.Equal(t, `"10.0.0.1"`, string(data))

	var decoded IPv4Addr
	assert.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, addr, decoded)
}
