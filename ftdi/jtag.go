// Copyright 2017 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package ftdi

// JTAG-specific MPSSE command encoding (C3). Builds directly on the opcode
// bytes already defined in mpsse.go (tmsOutLSBFFall, tmsIOLSBInFall,
// dataOut/dataIn/dataLSBF/dataOutFall/dataBit, clockSetDivisor, clock30MHz,
// gpioSetD) instead of redefining them.

// maxTMSRun is the widest TMS-only command this encoder emits: MPSSE's
// 0x4B clocks up to 7 TMS transitions per command, but bit 7 of the
// parameter byte is reserved for the held TDI value, leaving 6 usable here
// (one slot is kept free so the final bit of a chunk is never ambiguous
// with the TDI-hold bit).
const maxTMSRun = 6

// jtagByteShiftOp is 0x39: clock n bytes of TDI, LSB first, TDI driven on
// the falling edge, TDO sampled on the rising edge, with readback.
const jtagByteShiftOp = dataOut | dataIn | dataLSBF | dataOutFall

// jtagBitShiftOp is 0x3B: as jtagByteShiftOp but for 1..8 bits.
const jtagBitShiftOp = jtagByteShiftOp | dataBit

// encodeTMSOnly builds a 0x4B command clocking k (1..6) TMS bits held in
// the low k bits of pattern, with tdiHold latched into bit 7 for the
// command's duration.
func encodeTMSOnly(pattern byte, k int, tdiHold byte) []byte {
	b := pattern & (1<<uint(k) - 1)
	if tdiHold != 0 {
		b |= 0x80
	}
	return []byte{tmsOutLSBFFall, byte(k - 1), b}
}

// encodeBitShift builds a 0x3B command clocking k (1..8) bits of tdi (LSB
// first) with TDO readback.
func encodeBitShift(tdi byte, k int) []byte {
	return []byte{jtagBitShiftOp, byte(k - 1), tdi}
}

// encodeByteShift builds one or more 0x39 commands clocking the bytes of
// tdi, splitting at the 65536-byte chip limit.
func encodeByteShift(tdi []byte) [][]byte {
	var cmds [][]byte
	for len(tdi) > 0 {
		n := len(tdi)
		if n > chunk {
			n = chunk
		}
		cmd := make([]byte, 0, 3+n)
		cmd = append(cmd, jtagByteShiftOp, byte(n-1), byte((n-1)>>8))
		cmd = append(cmd, tdi[:n]...)
		cmds = append(cmds, cmd)
		tdi = tdi[n:]
	}
	return cmds
}

// encodeExitBit builds a 0x6B command: clock one bit, TMS-gated, reading
// back the sampled TDO bit. Used for the final bit of every shift-run.
func encodeExitBit(tdiBit, tmsBit int) []byte {
	v := byte(0)
	if tdiBit != 0 {
		v |= 0x80
	}
	if tmsBit != 0 {
		v |= 0x02 | 0x01
	}
	return []byte{tmsIOLSBInFall, 0, v}
}

// encodeSetDivisor builds a 0x86 command selecting the TCK divisor.
func encodeSetDivisor(div uint16) []byte {
	return []byte{clockSetDivisor, byte(div), byte(div >> 8)}
}

// encodeDisableDiv5 builds the single-byte 0x8A command enabling the
// 60 MHz clock domain.
func encodeDisableDiv5() []byte {
	return []byte{clock30MHz}
}

// encodeGPIOLow builds the 0x80 command setting the ADBus (D0..D7) pin
// values and directions.
func encodeGPIOLow(value, direction byte) []byte {
	return []byte{gpioSetD, value, direction}
}

// tckDivisor computes the MPSSE clock divisor for the requested frequency,
// after the ÷5 prescaler has been disabled (60 MHz base), and returns the
// frequency it actually achieves.
func tckDivisor(hz uint32) (uint16, uint32) {
	const base = 60000000
	if hz == 0 || hz >= base/2 {
		return 0, base / 2
	}
	div := base/(2*hz) - 1
	if div > 0xffff {
		div = 0xffff
	}
	actual := base / (2 * (uint32(div) + 1))
	return uint16(div), actual
}
