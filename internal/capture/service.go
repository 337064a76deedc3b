package capture

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/ministack/ministack/internal/api"
	"github.com/ministack/ministack/internal/dispatch"
)

type captureIface struct {
	sock *AFPacketSocket
	disp *dispatch.Dispatcher
}

// Service runs one capture and dispatch loop per interface and serves
// their stats.
type Service struct {
	ifaces map[string]*captureIface
	order  []string
}

func NewService(names []string, handler dispatch.Handler, opts ...SocketOpt) (*Service, error) {
	s := &Service{ifaces: make(map[string]*captureIface)}
	for _, name := range names {
		if _, ok := s.ifaces[name]; ok {
			continue
		}
		sock, err := NewAFPacketSocket(name, opts...)
		if err != nil {
			s.Close()
			return nil, err
		}
		s.ifaces[name] = &captureIface{
			sock: sock,
			disp: dispatch.NewDispatcher(name, dispatch.WithHandler(handler)),
		}
		s.order = append(s.order, name)
	}
	if len(s.ifaces) == 0 {
		return nil, errors.New("no interfaces to capture")
	}
	return s, nil
}

// Run blocks until ctx is done or every capture loop has exited.
func (s *Service) Run(ctx context.Context) error {
	var wg sync.WaitGroup
	errCh := make(chan error, len(s.ifaces))
	for name, ci := range s.ifaces {
		wg.Add(1)
		go func(name string, ci *captureIface) {
			defer wg.Done()
			err := ci.disp.Run(ctx, ci.sock)
			if err != nil {
				logrus.WithField("iface", name).WithError(err).Error("Capture loop exited")
				errCh <- err
			}
		}(name, ci)
	}
	wg.Wait()
	close(errCh)
	return <-errCh
}

func (s *Service) QueryStats(name string) ([]api.InterfaceStats, error) {
	if name != "" {
		ci, ok := s.ifaces[name]
		if !ok {
			return nil, errors.Errorf("no such capture interface: %s", name)
		}
		return []api.InterfaceStats{{Name: name, Link: ci.sock.Stats(), Decode: ci.disp.Stats()}}, nil
	}

	stats := make([]api.InterfaceStats, 0, len(s.order))
	for _, name := range s.order {
		ci := s.ifaces[name]
		stats = append(stats, api.InterfaceStats{Name: name, Link: ci.sock.Stats(), Decode: ci.disp.Stats()})
	}
	return stats, nil
}

func (s *Service) Close() error {
	for _, ci := range s.ifaces {
		ci.sock.Close()
	}
	return nil
}
