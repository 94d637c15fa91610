// Copyright 2017 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package ftdi

import (
	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"
)

// Info is the information gathered about the connected FTDI device.
//
// The data is gathered from the USB descriptor.
type Info struct {
	// Opened is true if the device was successfully opened.
	Opened bool
	// Type is the FTDI device type.
	//
	// The value can be "FT232H", "FT2232H", etc. An empty string means the
	// type is unknown.
	Type string
	// VenID is the vendor ID from the USB descriptor information. It is expected
	// to be 0x0403 (FTDI).
	VenID uint16
	// DevID is the product ID from the USB descriptor information.
	DevID uint16
}

// Dev represents one MPSSE-capable FTDI device usable as a JTAG adapter.
//
// There can be multiple FTDI devices connected to a host; each maps to at
// most one JTAG instance.
type Dev interface {
	String() string
	Halt() error

	// Info returns information about an opened device.
	Info(i *Info)

	// Header returns the dedicated JTAG pins (TCK, TDI, TDO, TMS) as
	// invalidPin placeholders: they are driven through the scan engine,
	// not through gpio.PinIO.Out/In. It exists so registerDev can
	// register them in the periph pin registries.
	Header() []gpio.PinIO

	// SetSpeed sets the base clock for all I/O transactions.
	SetSpeed(f physic.Frequency) error

	// EEPROM returns the EEPROM content, used to read the device serial
	// number for device-selector matching.
	EEPROM(ee *EEPROM) error
	// WriteEEPROM updates the EEPROM. Must be used carefully.
	WriteEEPROM(ee *EEPROM) error
	// EraseEEPROM erases the EEPROM. Must be used carefully.
	EraseEEPROM() error
	// UserArea reads and return the EEPROM part that can be used to stored user
	// defined values.
	UserArea() ([]byte, error)
	// WriteUserArea updates the user area in the EEPROM.
	//
	// If the length of ua is less than the available space, is it zero extended.
	WriteUserArea(ua []byte) error

	// Scanner returns the scan orchestrator driving this device's MPSSE
	// engine over TCK/TDI/TDO/TMS.
	Scanner() *Scanner
}

// broken represents a device that couldn't be opened correctly.
//
// It returns an error message to help the user diagnose issues.
type broken struct {
	index int
	err   error
	name  string
}

func (b *broken) String() string {
	return b.name
}

func (b *broken) Halt() error {
	return nil
}

func (b *broken) Info(i *Info) {
	i.Opened = false
}

func (b *broken) Header() []gpio.PinIO {
	return nil
}

func (b *broken) SetSpeed(f physic.Frequency) error {
	return b.err
}

func (b *broken) EEPROM(ee *EEPROM) error {
	return b.err
}

func (b *broken) WriteEEPROM(ee *EEPROM) error {
	return b.err
}

func (b *broken) EraseEEPROM() error {
	return b.err
}

func (b *broken) UserArea() ([]byte, error) {
	return nil, b.err
}

func (b *broken) WriteUserArea(ua []byte) error {
	return b.err
}

func (b *broken) Scanner() *Scanner {
	return nil
}

// generic represents a generic FTDI device.
//
// It is used for the models that this package doesn't fully support yet.
type generic struct {
	// Immutable after initialization.
	index int
	h     *handle
	name  string
	sc    *Scanner
}

func (f *generic) String() string {
	return f.name
}

// Halt implements conn.Resource.
//
// This halts all operations going through this device.
func (f *generic) Halt() error {
	return f.h.Reset()
}

// Info returns information about an opened device.
func (f *generic) Info(i *Info) {
	i.Opened = true
	i.Type = f.h.t.String()
	i.VenID = f.h.venID
	i.DevID = f.h.devID
}

// Header returns the GPIO pins exposed on the chip.
func (f *generic) Header() []gpio.PinIO {
	return nil
}

func (f *generic) SetSpeed(freq physic.Frequency) error {
	return f.h.SetBaudRate(freq)
}

func (f *generic) EEPROM(ee *EEPROM) error {
	return f.h.ReadEEPROM(ee)
}

func (f *generic) WriteEEPROM(ee *EEPROM) error {
	return f.h.WriteEEPROM(ee)
}

func (f *generic) EraseEEPROM() error {
	return f.h.EraseEEPROM()
}

func (f *generic) UserArea() ([]byte, error) {
	return f.h.ReadUA()
}

func (f *generic) WriteUserArea(ua []byte) error {
	return f.h.WriteUA(ua)
}

func (f *generic) Scanner() *Scanner {
	return f.sc
}

//

func newFT232H(g generic) (*FT232H, error) {
	g.sc = NewScanner(g.h)
	f := &FT232H{generic: g}

	// D0..D3 are the dedicated JTAG lines (TCK, TDI, TDO, TMS); they are
	// driven by the scan engine, not exposed as general GPIO.
	f.jtagD0 = invalidPin{num: 0, n: g.name + ".TCK"}
	f.jtagD1 = invalidPin{num: 1, n: g.name + ".TDI"}
	f.jtagD2 = invalidPin{num: 2, n: g.name + ".TDO"}
	f.jtagD3 = invalidPin{num: 3, n: g.name + ".TMS"}
	f.hdr[0] = &f.jtagD0
	f.hdr[1] = &f.jtagD1
	f.hdr[2] = &f.jtagD2
	f.hdr[3] = &f.jtagD3

	// This function forces all pins as inputs; the JTAG bring-up sequence
	// (device.go) programs the low-byte direction/value afterwards.
	if err := f.h.InitMPSSE(); err != nil {
		return nil, err
	}
	return f, nil
}

// FT232H represents an FT232H-family device (FT232H/FT2232H/FT4232H share
// the same MPSSE engine) configured as a JTAG adapter.
//
// D0 is TCK, D1 is TDI, D2 is TDO, D3 is TMS — the dedicated MPSSE JTAG
// pins, driven through Scanner rather than as general GPIO.
//
// # Datasheet
//
// http://www.ftdichip.com/Support/Documents/DataSheets/ICs/DS_FT232H.pdf
type FT232H struct {
	generic

	hdr    [4]gpio.PinIO
	jtagD0 invalidPin
	jtagD1 invalidPin
	jtagD2 invalidPin
	jtagD3 invalidPin
}

// Header returns the GPIO pins exposed on the chip.
func (f *FT232H) Header() []gpio.PinIO {
	out := make([]gpio.PinIO, len(f.hdr))
	copy(out, f.hdr[:])
	return out
}

func (f *FT232H) SetSpeed(freq physic.Frequency) error {
	return f.h.SetBaudRate(freq)
}

var _ conn.Resource = Dev(nil)
