package netaddr

import (
	"bytes"
	"net"
)

// HwAddr is a 6-byte link-layer address. All values are valid; broadcast and
// all-zero are interpreted by convention only.
type HwAddr [6]byte

// Broadcast is the all-ones address.
var Broadcast = HwAddr{0xff, 0xff, 0xff, 0xff, 0xff, 0xff}

func (HwAddr) Type() string {
	return "HwAddr"
}

func (addr HwAddr) String() string {
	return net.HardwareAddr(addr[:]).String()
}

func (addr *HwAddr) Set(s string) error {
	mac, err := net.ParseMAC(s)
	if err != nil {
		return err
	}
	if len(mac) != 6 {
		return &net.AddrError{Err: "not a 6-byte hardware address", Addr: s}
	}
	*addr = HwAddr(mac)
	return nil
}

func (addr HwAddr) IsZero() bool {
	return addr == HwAddr{}
}

func (addr HwAddr) Compare(other HwAddr) int {
	return bytes.Compare(addr[:], other[:])
}

func (addr HwAddr) MarshalJSON() ([]byte, error) {
	return marshal(addr)
}

func (addr *HwAddr) UnmarshalJSON(data []byte) error {
	return unmarshal(addr, data)
}
