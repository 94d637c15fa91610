// Copyright 2017 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package ftdi

import (
	"context"
	"fmt"

	"github.com/anshi233/xvc-server-d2xx/tap"
)

// Scanner is the scan orchestrator (C6): it walks a TMS/TDI bit vector,
// segments it into shift and non-shift runs, and drives the TAP automaton
// (tap package), the MPSSE command encoder (jtag.go) and the TX/RX buffer
// (buffer.go) to realize it over the device.
//
// A Scanner owns exactly one session's worth of state; it is not safe for
// concurrent use.
type Scanner struct {
	buf     *buffer
	state   tap.State
	lastTDI byte // last driven TDI value, held by subsequent TMS-only commands
}

// NewScanner creates a scan orchestrator over the given transport, with
// the TAP starting in Test-Logic-Reset.
func NewScanner(t transport) *Scanner {
	return &Scanner{buf: newBuffer(t), state: tap.TestLogicReset}
}

// State returns the TAP state as of the last completed Scan.
func (s *Scanner) State() tap.State { return s.state }

// Counters returns cumulative TX bytes, RX bytes and MPSSE commands issued
// over the scanner's lifetime.
func (s *Scanner) Counters() (tx, rx, cmds uint64) {
	return s.buf.txBytes, s.buf.rxBytes, s.buf.commands
}

// SetSpeed reprograms the MPSSE TCK divisor for the requested frequency in
// Hz, flushing any commands queued beforehand. It returns the achieved
// frequency, which may differ from hz since the divisor only takes
// integer values.
func (s *Scanner) SetSpeed(ctx context.Context, hz uint32) (uint32, error) {
	if err := s.buf.flush(ctx); err != nil {
		return 0, err
	}
	div, actual := tckDivisor(hz)
	cmd := append(encodeDisableDiv5(), encodeSetDivisor(div)...)
	if _, err := s.buf.t.Write(cmd); err != nil {
		return 0, fmt.Errorf("%w: %s", ErrDeviceWriteFailed, err)
	}
	return actual, nil
}

// Scan drives bitCount bits of tms/tdi onto the JTAG pins and fills tdo
// with the sampled response, starting from the scanner's current TAP
// state. It returns the resulting TAP state.
func (s *Scanner) Scan(ctx context.Context, tms, tdi, tdo []byte, bitCount int) (tap.State, error) {
	state := s.state
	firstPending := 0
	for i := 0; i < bitCount; i++ {
		tmsI := getBit(tms, i)
		next := tap.Next(state, tmsI != 0)
		isShift := tap.Shifting(state)
		nextShift := tap.Shifting(next)
		isLast := i == bitCount-1
		if isLast || isShift != nextShift {
			nextPending := i + 1
			var err error
			if isShift {
				err = s.emitTDIShiftRun(ctx, tms, tdi, tdo, firstPending, nextPending, tmsI != 0)
			} else {
				err = s.emitTMSOnlyRun(ctx, tms, firstPending, nextPending)
			}
			if err != nil {
				return state, err
			}
			firstPending = nextPending
		}
		state = next
	}
	if err := s.buf.flush(ctx); err != nil {
		return state, err
	}
	s.state = state
	return state, nil
}

// emitTMSOnlyRun emits [a,b) as TMS-only commands, chunked to maxTMSRun
// bits each, holding TDI at its last driven value throughout.
func (s *Scanner) emitTMSOnlyRun(ctx context.Context, tms []byte, a, b int) error {
	for j := a; j < b; {
		k := b - j
		if k > maxTMSRun {
			k = maxTMSRun
		}
		var pattern byte
		for t := 0; t < k; t++ {
			if getBit(tms, j+t) != 0 {
				pattern |= 1 << uint(t)
			}
		}
		if err := s.buf.reserve(ctx, 3, 0); err != nil {
			return err
		}
		s.buf.appendTMSOnly(encodeTMSOnly(pattern, k, s.lastTDI))
		j += k
	}
	return nil
}

// emitTDIShiftRun emits [a,b) as a shift-run: leading bits, whole middle
// bytes, trailing bits, then the TMS-gated exit bit at b-1.
func (s *Scanner) emitTDIShiftRun(ctx context.Context, tms, tdi, tdo []byte, a, b int, lastTMSHigh bool) error {
	l := b - 1 // exit bit
	aPrime := roundUp8(a)
	if aPrime > l {
		aPrime = l
	}
	if a < aPrime {
		k := aPrime - a
		var v byte
		for t := 0; t < k; t++ {
			if getBit(tdi, a+t) != 0 {
				v |= 1 << uint(t)
			}
		}
		if err := s.buf.reserve(ctx, 3, 1); err != nil {
			return err
		}
		s.buf.appendBitRightJustified(encodeBitShift(v, k), tdo, a, k)
	}

	m := l - l%8
	if m < aPrime {
		m = aPrime
	}
	if aPrime < m {
		byteFrom := aPrime / 8
		byteTo := m / 8
		for _, cmd := range encodeByteShift(tdi[byteFrom:byteTo]) {
			n := len(cmd) - 3
			if err := s.buf.reserve(ctx, len(cmd), n); err != nil {
				return err
			}
			s.buf.appendByteBulk(cmd, tdo, byteFrom, n)
			byteFrom += n
		}
	}

	if m < l {
		k := l - m
		var v byte
		for t := 0; t < k; t++ {
			if getBit(tdi, m+t) != 0 {
				v |= 1 << uint(t)
			}
		}
		if err := s.buf.reserve(ctx, 3, 1); err != nil {
			return err
		}
		s.buf.appendBitRightJustified(encodeBitShift(v, k), tdo, m, k)
	}

	tdiBit := getBit(tdi, l)
	tmsBit := 0
	if lastTMSHigh {
		tmsBit = 1
	}
	if err := s.buf.reserve(ctx, 3, 1); err != nil {
		return err
	}
	s.buf.appendBitLeftJustified(encodeExitBit(tdiBit, tmsBit), tdo, l)
	if tdiBit != 0 {
		s.lastTDI = 1
	} else {
		s.lastTDI = 0
	}
	return nil
}

func roundUp8(i int) int {
	return (i + 7) &^ 7
}
