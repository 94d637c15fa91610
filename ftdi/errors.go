// Copyright 2017 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package ftdi

import "errors"

// Sentinel errors for the scan engine's failure taxonomy. Session-level
// code (package xvc) matches against these with errors.Is to decide
// whether a failure is fatal to the session.
var (
	// ErrDeviceWriteFailed is returned when a bulk write to the device did
	// not complete in full.
	ErrDeviceWriteFailed = errors.New("ftdi: device write failed")
	// ErrDeviceReadTimeout is returned when the flush deadline elapsed
	// before the device returned all bytes it owed.
	ErrDeviceReadTimeout = errors.New("ftdi: device read timed out")
	// ErrBufferOverflow signals a broken invariant in the TX/RX buffer
	// bookkeeping: observers did not account for exactly the bytes read.
	ErrBufferOverflow = errors.New("ftdi: buffer invariant violated")
)
