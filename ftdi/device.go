// Copyright 2017 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package ftdi

import (
	"errors"
	"fmt"
	"time"
)

// Selector identifies which connected FTDI device to open (C8).
type Selector struct {
	// Serial, if non-empty, selects the device whose EEPROM serial string
	// matches exactly.
	Serial string
	// Index selects by discovery order when Serial is empty and Auto is
	// false.
	Index int
	// Auto picks the first MPSSE-capable device found, ignoring Serial and
	// Index.
	Auto bool
}

// ErrNoMatchingDevice is returned by Open when no connected device matches
// the selector.
var ErrNoMatchingDevice = errors.New("ftdi: no device matches selector")

// Open finds the device matching sel among the devices the ftdi driver
// already opened and initialized (reset, MPSSE mode, GPIOs as inputs), then
// completes the JTAG-specific portion of the bring-up sequence (C8): set
// the TCK divisor for hz, program the low-byte GPIO direction/value for the
// dedicated TCK/TDI/TDO/TMS pins, and settle.
//
// It returns the achieved TCK frequency alongside the device.
func Open(sel Selector, hz uint32) (Dev, uint32, error) {
	var candidates []*FT232H
	for _, d := range All() {
		if f, ok := d.(*FT232H); ok {
			candidates = append(candidates, f)
		}
	}
	f, err := pick(candidates, sel)
	if err != nil {
		return nil, 0, err
	}
	actual, err := bringupJTAG(f, hz)
	if err != nil {
		return nil, 0, err
	}
	return f, actual, nil
}

func pick(candidates []*FT232H, sel Selector) (*FT232H, error) {
	if len(candidates) == 0 {
		return nil, ErrNoMatchingDevice
	}
	if sel.Auto {
		return candidates[0], nil
	}
	if sel.Serial != "" {
		for _, f := range candidates {
			var ee EEPROM
			if err := f.EEPROM(&ee); err != nil {
				continue
			}
			if ee.Serial == sel.Serial {
				return f, nil
			}
		}
		return nil, fmt.Errorf("%w: serial %q", ErrNoMatchingDevice, sel.Serial)
	}
	if sel.Index < 0 || sel.Index >= len(candidates) {
		return nil, fmt.Errorf("%w: index %d", ErrNoMatchingDevice, sel.Index)
	}
	return candidates[sel.Index], nil
}

// jtagGPIODirection is 0x0B: TCK (D0), TDI (D1) and TMS (D3) are outputs,
// TDO (D2) is an input.
const jtagGPIODirection = 0x0b

// jtagGPIOIdleValue is 0x08: TMS idles high, TCK/TDI idle low.
const jtagGPIOIdleValue = 0x08

// mpsseSettleDelay is the minimum time the device needs after switching
// into MPSSE mode before it reliably accepts commands.
const mpsseSettleDelay = 50 * time.Millisecond

func bringupJTAG(f *FT232H, hz uint32) (uint32, error) {
	time.Sleep(mpsseSettleDelay)
	if err := f.h.Flush(); err != nil {
		return 0, err
	}
	div, actual := tckDivisor(hz)
	cmd := append(encodeDisableDiv5(), encodeSetDivisor(div)...)
	cmd = append(cmd, encodeGPIOLow(jtagGPIOIdleValue, jtagGPIODirection)...)
	if _, err := f.h.Write(cmd); err != nil {
		return 0, fmt.Errorf("%w: %s", ErrDeviceWriteFailed, err)
	}
	return actual, nil
}
