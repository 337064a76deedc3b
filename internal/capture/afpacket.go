// Package capture opens raw AF_PACKET sockets for reading and writing
// ethernet frames on a network interface.
package capture

import (
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/vishvananda/netlink"
	"golang.org/x/sys/unix"

	"github.com/ministack/ministack/pkg/netutil"
)

const defaultPollTimeout = time.Millisecond * 100

type socketOpts struct {
	pollTimeout time.Duration
	promisc     bool
}

type SocketOpt func(*socketOpts)

func WithPollTimeout(d time.Duration) SocketOpt {
	return func(o *socketOpts) { o.pollTimeout = d }
}

func WithPromiscuous() SocketOpt {
	return func(o *socketOpts) { o.promisc = true }
}

// AFPacketSocket is a raw packet socket bound to one interface. It
// receives every frame the interface sees (ETH_P_ALL) and can inject
// frames back onto the wire.
type AFPacketSocket struct {
	name        string
	ifindex     int
	fd          int
	pollTimeout time.Duration

	mu    sync.Mutex
	stats netutil.Statistics
}

func NewAFPacketSocket(name string, opts ...SocketOpt) (*AFPacketSocket, error) {
	o := socketOpts{pollTimeout: defaultPollTimeout}
	for _, opt := range opts {
		opt(&o)
	}

	link, err := netlink.LinkByName(name)
	if err != nil {
		return nil, errors.Wrap(err, "netlink.LinkByName")
	}
	ifindex := link.Attrs().Index

	fd, err := unix.Socket(unix.AF_PACKET, unix.SOCK_RAW, int(netutil.Htons(unix.ETH_P_ALL)))
	if err != nil {
		return nil, errors.Wrap(err, "unix.Socket")
	}

	err = unix.Bind(fd, &unix.SockaddrLinklayer{
		Protocol: netutil.Htons(unix.ETH_P_ALL),
		Ifindex:  ifindex,
	})
	if err != nil {
		unix.Close(fd)
		return nil, errors.Wrap(err, "unix.Bind")
	}

	if o.promisc {
		err = unix.SetsockoptPacketMreq(fd, unix.SOL_PACKET, unix.PACKET_ADD_MEMBERSHIP, &unix.PacketMreq{
			Ifindex: int32(ifindex),
			Type:    unix.PACKET_MR_PROMISC,
		})
		if err != nil {
			unix.Close(fd)
			return nil, errors.Wrap(err, "setsockopt PACKET_MR_PROMISC")
		}
	}

	logrus.WithFields(logrus.Fields{
		"iface":   name,
		"ifindex": ifindex,
		"phy":     netutil.IsPhyNic(name),
		"promisc": o.promisc,
	}).Info("Open packet socket")

	return &AFPacketSocket{
		name:        name,
		ifindex:     ifindex,
		fd:          fd,
		pollTimeout: o.pollTimeout,
	}, nil
}

func (s *AFPacketSocket) Name() string { return s.name }

// ReadFrame reads one frame into buf. Returns (0, nil) when the poll
// timeout expires without traffic.
func (s *AFPacketSocket) ReadFrame(buf []byte) (int, error) {
	pfds := []unix.PollFd{{Fd: int32(s.fd), Events: unix.POLLIN}}
	n, err := unix.Poll(pfds, int(s.pollTimeout.Milliseconds()))
	if err != nil {
		if err == unix.EINTR {
			return 0, nil
		}
		return 0, errors.Wrap(err, "unix.Poll")
	}
	if n == 0 {
		return 0, nil
	}

	n, _, err = unix.Recvfrom(s.fd, buf, 0)
	if err != nil {
		return 0, errors.Wrap(err, "unix.Recvfrom")
	}

	s.mu.Lock()
	s.stats.RxPackets++
	s.stats.RxBytes += uint64(n)
	s.mu.Unlock()
	return n, nil
}

// WriteFrame injects one complete ethernet frame on the interface.
func (s *AFPacketSocket) WriteFrame(data []byte) (int, error) {
	err := unix.Sendto(s.fd, data, 0, &unix.SockaddrLinklayer{
		Protocol: netutil.Htons(unix.ETH_P_ALL),
		Ifindex:  s.ifindex,
	})
	if err != nil {
		return 0, errors.Wrap(err, "unix.Sendto")
	}

	s.mu.Lock()
	s.stats.TxPackets++
	s.stats.TxBytes += uint64(len(data))
	s.mu.Unlock()
	return len(data), nil
}

// Stats returns a snapshot including kernel-side drop counts.
func (s *AFPacketSocket) Stats() netutil.Statistics {
	s.mu.Lock()
	defer s.mu.Unlock()

	// PACKET_STATISTICS resets on read, accumulate here.
	tp, err := unix.GetsockoptTpacketStats(s.fd, unix.SOL_PACKET, unix.PACKET_STATISTICS)
	if err == nil {
		s.stats.RxDropped += uint64(tp.Drops)
	}

	stats := s.stats
	stats.Timestamp = time.Now()
	return stats
}

func (s *AFPacketSocket) Close() error {
	logrus.WithField("iface", s.name).Info("Close packet socket")
	return unix.Close(s.fd)
}
