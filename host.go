// Copyright 2016 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package xvcserver bridges an XVC (Xilinx Virtual Cable) TCP client to a
// JTAG chain driven through an FTDI MPSSE-capable USB adapter.
package xvcserver

import "periph.io/x/conn/v3/driver/driverreg"

// Init calls driverreg.Init() and returns it as-is.
//
// The only difference is that by calling xvcserver.Init(), you are
// guaranteed to have the ftdi driver implemented in this module implicitly
// loaded.
func Init() (*driverreg.State, error) {
	return driverreg.Init()
}
