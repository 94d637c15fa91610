// Copyright 2017 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package ftdi

import "testing"

func TestGetSetBit(t *testing.T) {
	buf := make([]byte, 2)
	setBit(buf, 0, 1)
	setBit(buf, 8, 1)
	setBit(buf, 15, 1)
	if getBit(buf, 0) != 1 || getBit(buf, 8) != 1 || getBit(buf, 15) != 1 {
		t.Fatalf("unexpected buf %08b %08b", buf[0], buf[1])
	}
	if getBit(buf, 1) != 0 {
		t.Fatal("bit 1 should be clear")
	}
	setBit(buf, 0, 0)
	if getBit(buf, 0) != 0 {
		t.Fatal("bit 0 should have been cleared")
	}
}

func TestCopyBitsByteAligned(t *testing.T) {
	src := []byte{0xaa, 0x55}
	dst := make([]byte, 2)
	copyBits(dst, 0, src, 0, 16)
	if dst[0] != 0xaa || dst[1] != 0x55 {
		t.Fatalf("got %08b %08b", dst[0], dst[1])
	}
}

func TestCopyBitsUnaligned(t *testing.T) {
	src := []byte{0xff}
	dst := make([]byte, 2)
	copyBits(dst, 3, src, 0, 5)
	for i := 0; i < 5; i++ {
		if getBit(dst, 3+i) != 1 {
			t.Fatalf("bit %d not copied", i)
		}
	}
	if getBit(dst, 0) != 0 || getBit(dst, 1) != 0 || getBit(dst, 2) != 0 {
		t.Fatal("bits before offset should remain clear")
	}
}

func TestScatterRightJustified(t *testing.T) {
	dst := make([]byte, 1)
	// 3 captured bits 0b101 placed in the high 3 bits of the reply byte.
	scatterRightJustified(dst, 0, 0b10100000, 3)
	if getBit(dst, 0) != 1 || getBit(dst, 1) != 0 || getBit(dst, 2) != 1 {
		t.Fatalf("got %03b", dst[0]&0x7)
	}
}

func TestScatterLeftJustified(t *testing.T) {
	dst := make([]byte, 1)
	scatterLeftJustified(dst, 0, 0x80)
	if getBit(dst, 0) != 1 {
		t.Fatal("expected bit set")
	}
	dst[0] = 0
	scatterLeftJustified(dst, 0, 0x00)
	if getBit(dst, 0) != 0 {
		t.Fatal("expected bit clear")
	}
}
