// Copyright 2017 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package ftdi

import "testing"

func TestEncodeTMSOnly(t *testing.T) {
	cmd := encodeTMSOnly(0b0000101, 3, 1)
	if cmd[0] != tmsOutLSBFFall {
		t.Fatalf("wrong opcode %#x", cmd[0])
	}
	if cmd[1] != 2 {
		t.Fatalf("length byte = %d, want 2 (k-1)", cmd[1])
	}
	if cmd[2]&0x07 != 0b101 {
		t.Fatalf("pattern bits = %03b", cmd[2]&0x07)
	}
	if cmd[2]&0x80 == 0 {
		t.Fatal("TDI hold bit not set")
	}
}

func TestEncodeBitShiftOpcode(t *testing.T) {
	cmd := encodeBitShift(0x55, 5)
	if cmd[0] != jtagBitShiftOp || cmd[0] != 0x3b {
		t.Fatalf("opcode = %#x, want 0x3b", cmd[0])
	}
	if cmd[1] != 4 {
		t.Fatalf("length byte = %d, want 4", cmd[1])
	}
}

func TestEncodeByteShiftOpcode(t *testing.T) {
	cmds := encodeByteShift(make([]byte, 10))
	if len(cmds) != 1 {
		t.Fatalf("expected a single command for 10 bytes, got %d", len(cmds))
	}
	if cmds[0][0] != jtagByteShiftOp || cmds[0][0] != 0x39 {
		t.Fatalf("opcode = %#x, want 0x39", cmds[0][0])
	}
}

func TestEncodeByteShiftSplitsAtChunk(t *testing.T) {
	cmds := encodeByteShift(make([]byte, chunk+10))
	if len(cmds) != 2 {
		t.Fatalf("expected 2 commands, got %d", len(cmds))
	}
	if len(cmds[0]) != 3+chunk {
		t.Fatalf("first command length = %d, want %d", len(cmds[0]), 3+chunk)
	}
	if len(cmds[1]) != 3+10 {
		t.Fatalf("second command length = %d, want %d", len(cmds[1]), 3+10)
	}
}

func TestEncodeExitBitOpcode(t *testing.T) {
	cmd := encodeExitBit(1, 1)
	if cmd[0] != tmsIOLSBInFall || cmd[0] != 0x6b {
		t.Fatalf("opcode = %#x, want 0x6b", cmd[0])
	}
	if cmd[2] != 0x83 {
		t.Fatalf("param byte = %#x, want 0x83", cmd[2])
	}
}

func TestTCKDivisor(t *testing.T) {
	div, actual := tckDivisor(30000000)
	if div != 0 || actual != 30000000 {
		t.Fatalf("30MHz: div=%d actual=%d", div, actual)
	}
	div, actual = tckDivisor(1000000)
	if actual > 1000000 || actual < 900000 {
		t.Fatalf("1MHz: got %d", actual)
	}
	_ = div
}
