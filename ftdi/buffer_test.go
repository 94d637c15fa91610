// Copyright 2017 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package ftdi

import (
	"context"
	"errors"
	"testing"
)

type stubTransport struct {
	written  [][]byte
	reply    []byte
	writeErr error
	readErr  error
}

func (s *stubTransport) Write(p []byte) (int, error) {
	if s.writeErr != nil {
		return 0, s.writeErr
	}
	cp := append([]byte(nil), p...)
	s.written = append(s.written, cp)
	return len(p), nil
}

func (s *stubTransport) ReadAll(ctx context.Context, p []byte) (int, error) {
	if s.readErr != nil {
		return 0, s.readErr
	}
	n := copy(p, s.reply)
	return n, nil
}

func TestBufferFlushScattersObservers(t *testing.T) {
	st := &stubTransport{reply: []byte{0xf0, 0xaa, 0xbb}}
	b := newBuffer(st)
	dstBit := make([]byte, 1)
	dstByte := make([]byte, 2)

	b.appendBitRightJustified([]byte{jtagBitShiftOp, 3, 0}, dstBit, 0, 4)
	b.appendByteBulk([]byte{jtagByteShiftOp, 1, 0}, dstByte, 0, 2)

	if err := b.flush(context.Background()); err != nil {
		t.Fatalf("flush: %v", err)
	}
	if dstByte[0] != 0xaa || dstByte[1] != 0xbb {
		t.Fatalf("byte bulk not scattered: %x", dstByte)
	}
	if len(b.obs) != 0 || b.rx != 0 || len(b.tx) != 0 {
		t.Fatal("flush did not reset cursors")
	}
}

func TestBufferReserveTriggersFlush(t *testing.T) {
	st := &stubTransport{}
	b := newBuffer(st)
	b.tx = b.tx[:txCap*highWaterNum/highWaterDen-1]
	if err := b.reserve(context.Background(), 5, 0); err != nil {
		t.Fatal(err)
	}
	if len(st.written) != 1 {
		t.Fatalf("expected a flush to have occurred, got %d writes", len(st.written))
	}
}

func TestBufferWriteFailurePropagates(t *testing.T) {
	st := &stubTransport{writeErr: errors.New("usb gone")}
	b := newBuffer(st)
	b.appendTMSOnly([]byte{tmsOutLSBFFall, 0, 0})
	err := b.flush(context.Background())
	if !errors.Is(err, ErrDeviceWriteFailed) {
		t.Fatalf("got %v, want ErrDeviceWriteFailed", err)
	}
}

func TestBufferReadTimeoutPropagates(t *testing.T) {
	st := &stubTransport{readErr: context.DeadlineExceeded}
	b := newBuffer(st)
	b.appendBitLeftJustified([]byte{tmsIOLSBInFall, 0, 0}, make([]byte, 1), 0)
	err := b.flush(context.Background())
	if !errors.Is(err, ErrDeviceReadTimeout) {
		t.Fatalf("got %v, want ErrDeviceReadTimeout", err)
	}
}

func TestBufferObserverUnderrunIsOverflow(t *testing.T) {
	st := &stubTransport{reply: []byte{0x00}}
	b := newBuffer(st)
	b.appendByteBulk([]byte{jtagByteShiftOp, 1, 0}, make([]byte, 2), 0, 2)
	err := b.flush(context.Background())
	if !errors.Is(err, ErrBufferOverflow) {
		t.Fatalf("got %v, want ErrBufferOverflow", err)
	}
}

func TestBufferNoopFlush(t *testing.T) {
	st := &stubTransport{}
	b := newBuffer(st)
	if err := b.flush(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(st.written) != 0 {
		t.Fatal("flush with nothing pending should not write")
	}
}
