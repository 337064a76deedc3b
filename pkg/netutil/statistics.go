package netutil

import "time"

// Statistics is a point-in-time counter snapshot of one capture handle.
type Statistics struct {
	RxPackets uint64    `json:"rx_packets"`
	RxBytes   uint64    `json:"rx_bytes"`
	RxDropped uint64    `json:"rx_dropped"` // kernel-side drops
	TxPackets uint64    `json:"tx_packets"`
	TxBytes   uint64    `json:"tx_bytes"`
	Timestamp time.Time `json:"timestamp"`
}

type StatisticsRate struct {
	RxPPS float64 // packets per second
	RxBPS float64 // bits per second
	TxPPS float64
	TxBPS float64
}

// Rate computes per-second rates between two snapshots.
func (s Statistics) Rate(prev Statistics) StatisticsRate {
	period := s.Timestamp.Sub(prev.Timestamp).Seconds()
	if period <= 0 {
		return StatisticsRate{}
	}

	perSec := func(prev, curr uint64) float64 { return float64(curr-prev) / period }
	return StatisticsRate{
		RxPPS: perSec(prev.RxPackets, s.RxPackets),
		RxBPS: perSec(prev.RxBytes, s.RxBytes) * 8,
		TxPPS: perSec(prev.TxPackets, s.TxPackets),
		TxBPS: perSec(prev.TxBytes, s.TxBytes) * 8,
	}
}
