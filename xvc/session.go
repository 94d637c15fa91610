package xvc

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net"

	"github.com/anshi233/xvc-server-d2xx/ftdi"
	"github.com/anshi233/xvc-server-d2xx/internal/xvclog"
	"github.com/anshi233/xvc-server-d2xx/tap"
)

// Session drives one TCP connection's XVC request loop against a single
// physical device. The caller is responsible for ensuring at most one
// Session runs against a given device at a time (see server.go).
type Session struct {
	conn    net.Conn
	r       *bufio.Reader
	sc      *ftdi.Scanner
	maxVec  int
	log     *xvclog.Logger
	seenTLR bool
}

// NewSession wraps conn and sc into a Session. maxVectorBytes is reported
// verbatim in reply to getinfo: and caps accepted shift: requests.
func NewSession(conn net.Conn, sc *ftdi.Scanner, maxVectorBytes int, log *xvclog.Logger) *Session {
	return &Session{
		conn:   conn,
		r:      bufio.NewReaderSize(conn, 8192),
		sc:     sc,
		maxVec: maxVectorBytes,
		log:    log,
	}
}

// Serve runs the request loop until the client disconnects, sends a
// malformed request, a device I/O error occurs, or ctx is canceled.
//
// It returns ErrClientDisconnect on a clean EOF and an error wrapping
// ErrMalformedRequest for framing errors; device errors from the scanner
// and ctx's error are returned unwrapped.
func (s *Session) Serve(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		tag, err := s.readTag()
		if err != nil {
			if err == io.EOF {
				return ErrClientDisconnect
			}
			return fmt.Errorf("%w: %s", ErrMalformedRequest, err)
		}
		switch tag {
		case "getinfo:":
			if err := s.handleGetInfo(); err != nil {
				return err
			}
		case "settck:":
			if err := s.handleSetTCK(ctx); err != nil {
				return err
			}
		case "shift:":
			if err := s.handleShift(ctx); err != nil {
				return err
			}
		default:
			return fmt.Errorf("%w: unknown command %q", ErrMalformedRequest, tag)
		}
	}
}

// readTag reads one whitespace-free command tag up to and including its
// trailing colon (e.g. "getinfo:", "settck:", "shift:").
func (s *Session) readTag() (string, error) {
	tag, err := s.r.ReadString(':')
	if err != nil {
		return "", err
	}
	return tag, nil
}

func (s *Session) handleGetInfo() error {
	_, err := s.conn.Write(getInfoReply(s.maxVec))
	return err
}

func (s *Session) handleSetTCK(ctx context.Context) error {
	var buf [4]byte
	if _, err := io.ReadFull(s.r, buf[:]); err != nil {
		return fmt.Errorf("%w: settck: period: %s", ErrMalformedRequest, err)
	}
	periodNs := le32(buf[:])
	hz := periodToHz(periodNs)
	actual, err := s.sc.SetSpeed(ctx, hz)
	if err != nil {
		return err
	}
	_, err = s.conn.Write(putLE32(hzToPeriod(actual)))
	return err
}

func (s *Session) handleShift(ctx context.Context) error {
	var hdr [4]byte
	if _, err := io.ReadFull(s.r, hdr[:]); err != nil {
		return fmt.Errorf("%w: shift: length: %s", ErrMalformedRequest, err)
	}
	numBits := int(le32(hdr[:]))
	if numBits < 0 {
		return fmt.Errorf("%w: shift: bit count %d exceeds limit", ErrMalformedRequest, numBits)
	}
	numBytes := (numBits + 7) / 8
	if numBytes > s.maxVec || numBytes > MaxVectorSize {
		return fmt.Errorf("%w: shift: byte count %d exceeds limit", ErrMalformedRequest, numBytes)
	}

	tms := make([]byte, numBytes)
	tdi := make([]byte, numBytes)
	if _, err := io.ReadFull(s.r, tms); err != nil {
		return fmt.Errorf("%w: shift: tms vector: %s", ErrMalformedRequest, err)
	}
	if _, err := io.ReadFull(s.r, tdi); err != nil {
		return fmt.Errorf("%w: shift: tdi vector: %s", ErrMalformedRequest, err)
	}
	tdo := make([]byte, numBytes)

	if s.impactWorkaround(tms, numBits) {
		s.log.Debug("xilinx impact workaround applied, skipping scan")
	} else {
		newState, err := s.sc.Scan(ctx, tms, tdi, tdo, numBits)
		if err != nil {
			return err
		}
		s.updateSeenTLR(newState)
	}

	_, err := s.conn.Write(tdo)
	return err
}

// impactWorkaround reproduces a quirk of Xilinx impact: it issues a 5-bit
// shift out of Exit1-IR whose first TMS byte is 0x17, and a 4-bit shift out
// of Exit1-DR whose first TMS byte is 0x0b, neither of which are valid TAP
// transitions from those states. The original bridge drops these requests
// on the floor rather than forwarding them to the chain.
func (s *Session) impactWorkaround(tms []byte, numBits int) bool {
	state := s.sc.State()
	if state == tap.Exit1IR && numBits == 5 && tms[0] == 0x17 {
		return true
	}
	if state == tap.Exit1DR && numBits == 4 && tms[0] == 0x0b {
		return true
	}
	return false
}

// updateSeenTLR tracks whether the chain has passed through
// Test-Logic-Reset since the last time a shift ended in Capture-DR/IR;
// Resting combines it with the current TAP state.
func (s *Session) updateSeenTLR(state tap.State) {
	s.seenTLR = (s.seenTLR || state == tap.TestLogicReset) &&
		state != tap.CaptureDR && state != tap.CaptureIR
}

// Resting reports whether the TAP is currently parked in its resting
// state: Run-Test/Idle, having passed through Test-Logic-Reset at least
// once since the last capture.
func (s *Session) Resting() bool {
	return s.seenTLR && s.sc.State() == tap.RunTestIdle
}
