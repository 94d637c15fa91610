// Package supervisor runs one instance's full lifecycle — open the
// configured device, bind its TCP port, serve XVC sessions — and
// restarts that lifecycle with backoff when it fails, without tearing
// down the other instances in the process (C12).
package supervisor

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/anshi233/xvc-server-d2xx/config"
	"github.com/anshi233/xvc-server-d2xx/ftdi"
	"github.com/anshi233/xvc-server-d2xx/internal/xvclog"
	"github.com/anshi233/xvc-server-d2xx/whitelist"
	"github.com/anshi233/xvc-server-d2xx/xvc"
)

const (
	minBackoff = 500 * time.Millisecond
	maxBackoff = 30 * time.Second
)

// Opener abstracts ftdi.Open for testing.
type Opener func(sel ftdi.Selector, hz uint32) (ftdi.Dev, uint32, error)

// Supervisor owns the restart loop for one configured instance.
type Supervisor struct {
	Inst config.Instance
	Open Opener
	Log  *xvclog.Logger
}

// New builds a Supervisor for inst, defaulting Open to ftdi.Open.
func New(inst config.Instance, log *xvclog.Logger) *Supervisor {
	return &Supervisor{Inst: inst, Open: ftdi.Open, Log: log.WithInstance(instanceName(inst))}
}

func instanceName(inst config.Instance) string {
	if inst.Alias != "" {
		return inst.Alias
	}
	return fmt.Sprintf("instance-%d", inst.ID)
}

// Run drives the open-bind-serve cycle until ctx is canceled, restarting
// with exponentially increasing backoff (capped at maxBackoff, reset to
// minBackoff after any run that lasted at least maxBackoff before it
// ended).
func (s *Supervisor) Run(ctx context.Context) {
	backoff := minBackoff
	for {
		if ctx.Err() != nil {
			return
		}
		start := time.Now()
		err := s.runOnce(ctx)
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			s.Log.Errorf("instance failed: %s", err)
		}
		if time.Since(start) >= maxBackoff {
			backoff = minBackoff
		}
		s.Log.Warnf("restarting in %s", backoff)
		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}
		backoff *= 2
		if backoff > maxBackoff {
			backoff = maxBackoff
		}
	}
}

func (s *Supervisor) runOnce(ctx context.Context) error {
	sel := selectorFor(s.Inst.DeviceID)
	dev, actual, err := s.Open(sel, s.Inst.Frequency)
	if err != nil {
		return fmt.Errorf("open device: %w", err)
	}
	defer dev.Halt()
	s.Log.Infof("device opened, TCK=%d Hz", actual)

	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", s.Inst.Port))
	if err != nil {
		return fmt.Errorf("listen on port %d: %w", s.Inst.Port, err)
	}

	var wl xvc.Whitelist
	if s.Inst.WhitelistMode != whitelist.Off {
		pol, err := whitelist.New(s.Inst.WhitelistMode, s.Inst.WhitelistEntries)
		if err != nil {
			ln.Close()
			return fmt.Errorf("whitelist: %w", err)
		}
		wl = pol
	}

	maxVec := s.Inst.MaxVectorSize
	if maxVec <= 0 {
		maxVec = config.DefaultMaxVectorSize
	}

	srv := &xvc.Server{
		Name:          instanceName(s.Inst),
		Listener:      ln,
		Dev:           dev,
		MaxVectorSize: maxVec,
		Log:           s.Log,
		Whitelist:     wl,
	}
	return srv.Serve(ctx)
}

// selectorFor maps a configured device identity to ftdi's selection
// mechanism. ftdi.Selector only distinguishes serial number, discovery
// index, or auto; BUS: identities are mapped onto discovery index when
// the configured value parses as one, and CUSTOM: has no equivalent in
// the d2xx-backed driver, so both fall back to Auto when that fails.
func selectorFor(id config.DeviceID) ftdi.Selector {
	switch id.Type {
	case config.DeviceIDSerial:
		return ftdi.Selector{Serial: id.Value}
	case config.DeviceIDBus:
		if idx, err := strconv.Atoi(id.Value); err == nil {
			return ftdi.Selector{Index: idx}
		}
		return ftdi.Selector{Auto: true}
	default:
		return ftdi.Selector{Auto: true}
	}
}

// RunAll launches one Supervisor goroutine per enabled instance and
// blocks until ctx is canceled.
func RunAll(ctx context.Context, g *config.Global, log *xvclog.Logger) {
	done := make(chan struct{})
	n := 0
	for _, inst := range g.Instances {
		if !inst.Enabled {
			continue
		}
		n++
		go func(inst config.Instance) {
			New(inst, log).Run(ctx)
			done <- struct{}{}
		}(inst)
	}
	for i := 0; i < n; i++ {
		<-done
	}
}
