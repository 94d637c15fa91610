// Copyright 2017 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package ftdi implements support for FTDI MPSSE-capable USB devices
// (FT232H, FT2232H, FT4232H) configured as JTAG adapters: device
// enumeration and bring-up, the MPSSE command encoder, the TX/RX
// command buffer, and the scan orchestrator that drives a JTAG chain
// over them.
//
// Other FTDI chips (e.g. FT232R) lack an MPSSE engine and are exposed
// only as opaque, unscannable devices.
//
// Use build tag periph_host_ftdi_debug to enable verbose debugging.
//
// # Datasheets
//
// http://www.ftdichip.com/Support/Documents/DataSheets/ICs/DS_FT232H.pdf
package ftdi
