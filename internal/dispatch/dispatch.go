// Package dispatch feeds captured frames through the layer codecs and
// keeps per-kind counters for everything the codecs reject.
package dispatch

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/ministack/ministack/pkg/layers"
)

// DecodeStats is a snapshot of the dispatcher counters. Frames counts
// ethernet frames that decoded successfully, whether or not the layers
// above them did.
type DecodeStats struct {
	Frames              uint64 `json:"frames"`
	IPv4Packets         uint64 `json:"ipv4_packets"`
	ICMPv4Messages      uint64 `json:"icmpv4_messages"`
	NonIPv4Frames       uint64 `json:"non_ipv4_frames"`
	TruncatedFrames     uint64 `json:"truncated_frames"`
	TruncatedPackets    uint64 `json:"truncated_packets"`
	UnsupportedVersions uint64 `json:"unsupported_versions"`
	MalformedHeaders    uint64 `json:"malformed_headers"`
	ChecksumMismatches  uint64 `json:"checksum_mismatches"`
	FCSMismatches       uint64 `json:"fcs_mismatches"`
}

// Result holds the decoded layers of one frame. IPv4 is nil for
// non-IPv4 frames, ICMPv4 is nil unless the packet carries a complete
// ICMPv4 message.
type Result struct {
	Frame  *layers.EthernetFrame
	IPv4   *layers.IPv4Packet
	ICMPv4 *layers.ICMPv4
}

type Handler func(iface string, res *Result)

type dispatchOpts struct {
	handler Handler
	ethOpts []layers.EthernetOpt
}

type Opt func(*dispatchOpts)

func WithHandler(h Handler) Opt {
	return func(o *dispatchOpts) { o.handler = h }
}

func WithEthernetOpts(opts ...layers.EthernetOpt) Opt {
	return func(o *dispatchOpts) { o.ethOpts = opts }
}

type Dispatcher struct {
	iface   string
	handler Handler
	ethOpts []layers.EthernetOpt

	// Decode errors are expected under fuzz-like traffic, keep the
	// log volume bounded.
	errLog *rate.Limiter

	frames              atomic.Uint64
	ipv4Packets         atomic.Uint64
	icmpv4Messages      atomic.Uint64
	nonIPv4Frames       atomic.Uint64
	truncatedFrames     atomic.Uint64
	truncatedPackets    atomic.Uint64
	unsupportedVersions atomic.Uint64
	malformedHeaders    atomic.Uint64
	checksumMismatches  atomic.Uint64
	fcsMismatches       atomic.Uint64
}

func NewDispatcher(iface string, opts ...Opt) *Dispatcher {
	var o dispatchOpts
	for _, opt := range opts {
		opt(&o)
	}
	return &Dispatcher{
		iface:   iface,
		handler: o.handler,
		ethOpts: o.ethOpts,
		errLog:  rate.NewLimiter(rate.Every(time.Second), 5),
	}
}

// Dispatch classifies a single frame. The returned error carries the
// codec sentinel for the layer that failed; counters are updated
// either way.
func (d *Dispatcher) Dispatch(data []byte) (*Result, error) {
	frame, err := layers.DecodeEthernet(data, d.ethOpts...)
	if err != nil {
		d.count(err)
		return nil, err
	}
	d.frames.Add(1)

	res := &Result{Frame: frame}
	if frame.EtherType != layers.EtherTypeIPv4 {
		d.nonIPv4Frames.Add(1)
		return res, nil
	}

	pkt, err := layers.DecodeIPv4(frame.Payload)
	if err != nil {
		d.count(err)
		return nil, err
	}
	d.ipv4Packets.Add(1)
	res.IPv4 = pkt

	// Only the first fragment carries the ICMP header.
	if pkt.Header.Protocol != layers.IPProtoICMP || pkt.Header.FragOff != 0 {
		return res, nil
	}
	msg, err := layers.DecodeICMPv4(pkt.Payload)
	if err != nil {
		d.count(err)
		return nil, err
	}
	d.icmpv4Messages.Add(1)
	res.ICMPv4 = msg
	return res, nil
}

func (d *Dispatcher) count(err error) {
	switch {
	case errors.Is(err, layers.ErrTruncatedFrame):
		d.truncatedFrames.Add(1)
	case errors.Is(err, layers.ErrFCSMismatch):
		d.fcsMismatches.Add(1)
	case errors.Is(err, layers.ErrTruncatedPacket):
		d.truncatedPackets.Add(1)
	case errors.Is(err, layers.ErrUnsupportedVersion):
		d.unsupportedVersions.Add(1)
	case errors.Is(err, layers.ErrMalformedHeader):
		d.malformedHeaders.Add(1)
	case errors.Is(err, layers.ErrChecksumMismatch):
		d.checksumMismatches.Add(1)
	}
}

func (d *Dispatcher) Stats() DecodeStats {
	return DecodeStats{
		Frames:              d.frames.Load(),
		IPv4Packets:         d.ipv4Packets.Load(),
		ICMPv4Messages:      d.icmpv4Messages.Load(),
		NonIPv4Frames:       d.nonIPv4Frames.Load(),
		TruncatedFrames:     d.truncatedFrames.Load(),
		TruncatedPackets:    d.truncatedPackets.Load(),
		UnsupportedVersions: d.unsupportedVersions.Load(),
		MalformedHeaders:    d.malformedHeaders.Load(),
		ChecksumMismatches:  d.checksumMismatches.Load(),
		FCSMismatches:       d.fcsMismatches.Load(),
	}
}

// FrameReader is implemented by capture sockets. A return of (0, nil)
// means the read timed out and the caller should retry.
type FrameReader interface {
	ReadFrame(buf []byte) (int, error)
}

// Run reads frames until ctx is done or the reader fails.
func (d *Dispatcher) Run(ctx context.Context, r FrameReader) error {
	buf := make([]byte, layers.EthernetHeaderLen+layers.EthernetMTU+layers.EthernetFCSLen)
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		n, err := r.ReadFrame(buf)
		if err != nil {
			return errors.Wrap(err, "read frame")
		}
		if n == 0 {
			continue
		}

		res, err := d.Dispatch(buf[:n])
		if err != nil {
			if d.errLog.Allow() {
				logrus.WithFields(logrus.Fields{
					"iface": d.iface,
					"len":   n,
				}).WithError(err).Debug("Drop frame")
			}
			continue
		}
		if d.handler != nil {
			d.handler(d.iface, res)
		}
	}
}
