// Copyright 2018 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package ftdi_test

import (
	"fmt"
	"log"

	xvcserver "github.com/anshi233/xvc-server-d2xx"
	"github.com/anshi233/xvc-server-d2xx/ftdi"
)

func Example() {
	if _, err := xvcserver.Init(); err != nil {
		log.Fatal(err)
	}
	for _, d := range ftdi.All() {
		fmt.Printf("%s\n", d)
	}
}
