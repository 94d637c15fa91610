// Copyright 2017 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package ftdi

import (
	"context"
	"fmt"
	"time"
)

// Capacity bounds for the MPSSE command buffer. TX holds three chunks since
// each payload byte may be accompanied by a 3-byte opcode header.
const (
	chunk = 65536
	txCap = 3 * chunk
	rxCap = 1 * chunk

	// highWater is the fraction of capacity at which reserve triggers an
	// eager flush, before the hard cap is reached.
	highWaterNum = 94
	highWaterDen = 100
)

// flushDeadline bounds how long a single flush may wait for the device to
// return the bytes it owes.
const flushDeadline = 500 * time.Millisecond

// transport is the subset of the USB device interface the buffer needs to
// flush itself. *handle implements it.
type transport interface {
	Write(p []byte) (int, error)
	ReadAll(ctx context.Context, p []byte) (int, error)
}

type obsKind int

const (
	obsBitRightJustified obsKind = iota
	obsBitLeftJustified
	obsByteBulk
	obsByteSingle
)

// observer records where and how to deposit a future chunk of device
// response once it arrives. Kept as a closed tagged union rather than a
// function pointer, per the zero-heap-churn, FIFO-ordering requirement.
type observer struct {
	kind       obsKind
	dst        []byte
	bitOffset  int // valid for obsBitRightJustified/obsBitLeftJustified
	byteOffset int // valid for obsByteBulk/obsByteSingle
	n          int // bit count for bit kinds, byte count for byte kinds
	srcLen     int // bytes consumed from the RX staging area
}

// buffer is the append-only MPSSE command buffer (C4): TX bytes plus an
// RX-expectation cursor and ordered observer list, flushed through a
// transport in bounded chunks.
type buffer struct {
	t   transport
	tx  []byte
	rx  int // bytes of RX still owed by the device for the pending TX
	obs []observer

	rxStage []byte // reused staging area, grown as needed

	txBytes, rxBytes, commands uint64
}

func newBuffer(t transport) *buffer {
	return &buffer{
		t:       t,
		tx:      make([]byte, 0, txCap),
		obs:     make([]observer, 0, 256),
		rxStage: make([]byte, rxCap),
	}
}

// reserve ensures txNeed and rxNeed bytes fit before the high-water mark;
// if not, it flushes first.
func (b *buffer) reserve(ctx context.Context, txNeed, rxNeed int) error {
	if len(b.tx)+txNeed > txCap*highWaterNum/highWaterDen || b.rx+rxNeed > rxCap*highWaterNum/highWaterDen {
		return b.flush(ctx)
	}
	return nil
}

func (b *buffer) appendTMSOnly(cmd []byte) {
	b.tx = append(b.tx, cmd...)
	b.commands++
}

func (b *buffer) appendBitRightJustified(cmd []byte, dst []byte, bitOffset, k int) {
	b.tx = append(b.tx, cmd...)
	b.obs = append(b.obs, observer{kind: obsBitRightJustified, dst: dst, bitOffset: bitOffset, n: k, srcLen: 1})
	b.rx++
	b.commands++
}

func (b *buffer) appendBitLeftJustified(cmd []byte, dst []byte, bitOffset int) {
	b.tx = append(b.tx, cmd...)
	b.obs = append(b.obs, observer{kind: obsBitLeftJustified, dst: dst, bitOffset: bitOffset, n: 1, srcLen: 1})
	b.rx++
	b.commands++
}

func (b *buffer) appendByteBulk(cmd []byte, dst []byte, byteOffset, n int) {
	b.tx = append(b.tx, cmd...)
	b.obs = append(b.obs, observer{kind: obsByteBulk, dst: dst, byteOffset: byteOffset, n: n, srcLen: n})
	b.rx += n
	b.commands++
}

// flush writes all pending TX bytes, reads exactly the bytes the device
// owes, and scatters them to every registered observer in FIFO order.
func (b *buffer) flush(ctx context.Context) error {
	if len(b.tx) == 0 && b.rx == 0 {
		return nil
	}
	if len(b.tx) > 0 {
		n, err := b.t.Write(b.tx)
		if err != nil {
			return fmt.Errorf("%w: %s", ErrDeviceWriteFailed, err)
		}
		if n != len(b.tx) {
			return fmt.Errorf("%w: short write %d/%d", ErrDeviceWriteFailed, n, len(b.tx))
		}
		b.txBytes += uint64(n)
	}
	if b.rx > 0 {
		if cap(b.rxStage) < b.rx {
			b.rxStage = make([]byte, b.rx)
		}
		stage := b.rxStage[:b.rx]
		fctx, cancel := context.WithTimeout(ctx, flushDeadline)
		n, err := b.t.ReadAll(fctx, stage)
		cancel()
		if err != nil {
			return fmt.Errorf("%w: %s", ErrDeviceReadTimeout, err)
		}
		stage = stage[:n]
		b.rxBytes += uint64(n)

		off := 0
		for _, o := range b.obs {
			if off+o.srcLen > len(stage) {
				return fmt.Errorf("%w: observer needs %d bytes, %d remain", ErrBufferOverflow, o.srcLen, len(stage)-off)
			}
			chunk := stage[off : off+o.srcLen]
			switch o.kind {
			case obsBitRightJustified:
				scatterRightJustified(o.dst, o.bitOffset, chunk[0], o.n)
			case obsBitLeftJustified:
				scatterLeftJustified(o.dst, o.bitOffset, chunk[0])
			case obsByteBulk, obsByteSingle:
				copy(o.dst[o.byteOffset:o.byteOffset+o.n], chunk)
			}
			off += o.srcLen
		}
		if off != len(stage) {
			return fmt.Errorf("%w: observers consumed %d of %d RX bytes", ErrBufferOverflow, off, len(stage))
		}
	}
	b.tx = b.tx[:0]
	b.rx = 0
	b.obs = b.obs[:0]
	return nil
}
