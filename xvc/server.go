package xvc

import (
	"context"
	"fmt"
	"net"
	"sync"

	"github.com/anshi233/xvc-server-d2xx/ftdi"
	"github.com/anshi233/xvc-server-d2xx/internal/xvclog"
)

// Whitelist decides whether a client address is allowed to open a
// session, and whether the decision should merely be logged rather than
// enforced. Implemented by whitelist.Policy.
type Whitelist interface {
	Allowed(ip net.IP) (allow bool, logOnly bool)
}

// alwaysAllow is the Whitelist used when a server is configured without
// one (whitelist mode "off").
type alwaysAllow struct{}

func (alwaysAllow) Allowed(net.IP) (bool, bool) { return true, false }

// Server accepts TCP connections for a single configured instance and
// serves the XVC protocol against one physical device, enforcing that at
// most one client session drives the device at a time (C9).
type Server struct {
	Name          string
	Listener      net.Listener
	Dev           ftdi.Dev
	MaxVectorSize int
	Log           *xvclog.Logger
	Whitelist     Whitelist

	mu    sync.Mutex
	inUse bool
}

// Serve accepts connections until ctx is canceled or the listener fails.
// Each connection is served synchronously on its own goroutine; while one
// is active, later connections are rejected immediately so only one
// session ever drives the device.
func (s *Server) Serve(ctx context.Context) error {
	if s.Whitelist == nil {
		s.Whitelist = alwaysAllow{}
	}
	go func() {
		<-ctx.Done()
		s.Listener.Close()
	}()
	for {
		conn, err := s.Listener.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
				return fmt.Errorf("xvc: accept on %s: %w", s.Name, err)
			}
		}
		go s.handle(ctx, conn)
	}
}

func (s *Server) handle(ctx context.Context, conn net.Conn) {
	defer conn.Close()

	host, _, err := net.SplitHostPort(conn.RemoteAddr().String())
	if err != nil {
		host = conn.RemoteAddr().String()
	}
	ip := net.ParseIP(host)

	allow, logOnly := s.Whitelist.Allowed(ip)
	if !allow && !logOnly {
		s.Log.Warnf("rejected connection from %s: not in whitelist", host)
		return
	}
	if logOnly {
		s.Log.Warnf("connection from %s not in whitelist (log-only mode, allowing)", host)
	}

	if !s.acquire() {
		s.Log.Warnf("rejected connection from %s: device %s already in use", host, s.Name)
		return
	}
	defer s.release()

	log := s.Log.WithSession(conn.RemoteAddr().String())
	log.Info("session started")
	defer log.Info("session ended")

	sess := NewSession(conn, s.Dev.Scanner(), s.MaxVectorSize, log)
	err = sess.Serve(ctx)
	if !sess.Resting() {
		log.Warnf("device %s released with chain not parked at rest; next session inherits its TAP state", s.Name)
	}
	if err != nil && err != ErrClientDisconnect {
		log.Errorf("session error: %s", err)
	}
}

func (s *Server) acquire() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inUse {
		return false
	}
	s.inUse = true
	return true
}

func (s *Server) release() {
	s.mu.Lock()
	s.inUse = false
	s.mu.Unlock()
}
