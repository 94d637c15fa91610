// Package xvc implements the Xilinx Virtual Cable wire protocol framing
// loop (C7) over a physical JTAG chain driven by an ftdi.Scanner.
package xvc

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// Error taxonomy (spec §7). Session.Serve returns ErrClientDisconnect on a
// clean EOF and wraps ErrMalformedRequest for framing errors; device errors
// from package ftdi are returned as they are. Each of them ends the session
// only: Server logs it and keeps accepting connections.
var (
	// ErrClientDisconnect means the peer closed the connection cleanly.
	ErrClientDisconnect = errors.New("xvc: client disconnected")
	// ErrMalformedRequest means an unknown command tag, or a shift: length
	// exceeding the configured maximum vector size.
	ErrMalformedRequest = errors.New("xvc: malformed request")
	// ErrConfigError flags a bad per-session configuration value, rejected
	// before any device I/O.
	ErrConfigError = errors.New("xvc: invalid session configuration")
)

// MaxVectorSize is the hard ceiling, in bytes, on each vector of a shift:
// request, matching the original implementation's supported range.
const MaxVectorSize = 262144

const infoBanner = "xvcServer_v1.0:"

func getInfoReply(maxVectorBytes int) []byte {
	return []byte(fmt.Sprintf("%s%d\n", infoBanner, maxVectorBytes))
}

func le32(b []byte) uint32 {
	return binary.LittleEndian.Uint32(b)
}

func putLE32(v uint32) []byte {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, v)
	return b
}

// periodToHz converts an XVC settck: period in nanoseconds to a TCK
// frequency in Hz, per spec §4.7 (freq = 1e9 / period_ns).
func periodToHz(periodNs uint32) uint32 {
	if periodNs == 0 {
		return 0
	}
	return uint32(1e9 / periodNs)
}

// hzToPeriod is the inverse of periodToHz, used to report the actually
// achieved period back to the client.
func hzToPeriod(hz uint32) uint32 {
	if hz == 0 {
		return 0
	}
	return uint32(1e9 / hz)
}
