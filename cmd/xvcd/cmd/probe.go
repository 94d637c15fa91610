package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	xvcserver "github.com/anshi233/xvc-server-d2xx"
	"github.com/anshi233/xvc-server-d2xx/ftdi"
)

var (
	probeSerial string
	probeIndex  int
	probeHz     uint32
)

var probeCmd = &cobra.Command{
	Use:   "probe",
	Short: "Open one device, reset the TAP, and report the achieved TCK rate",
	Long: `probe opens a single MPSSE-capable device (by serial, index, or the
first one found), runs the chain through Test-Logic-Reset, and prints the
TCK frequency the MPSSE divisor actually achieved.

Examples:
  xvcd probe                       # first device found, default clock
  xvcd probe --serial ABC12345     # a specific adapter
  xvcd probe --index 1 --hz 1000000`,
	RunE: runProbe,
}

func init() {
	rootCmd.AddCommand(probeCmd)
	probeCmd.Flags().StringVarP(&probeSerial, "serial", "s", "", "adapter serial number")
	probeCmd.Flags().IntVarP(&probeIndex, "index", "i", -1, "adapter index (from 'xvcd devices')")
	probeCmd.Flags().Uint32Var(&probeHz, "hz", 15000000, "TCK frequency in Hz")
}

func runProbe(cmd *cobra.Command, args []string) error {
	if _, err := xvcserver.Init(); err != nil {
		return fmt.Errorf("initialize ftdi driver: %w", err)
	}

	sel := ftdi.Selector{Auto: true}
	if probeSerial != "" {
		sel = ftdi.Selector{Serial: probeSerial}
	} else if probeIndex >= 0 {
		sel = ftdi.Selector{Index: probeIndex}
	}

	dev, actual, err := ftdi.Open(sel, probeHz)
	if err != nil {
		return fmt.Errorf("open device: %w", err)
	}
	defer dev.Halt()

	fmt.Printf("opened %s, TCK=%d Hz (requested %d Hz)\n", dev, actual, probeHz)

	sc := dev.Scanner()
	// Ten TMS=1 bits from any state walk the TAP to Test-Logic-Reset.
	tms := []byte{0xff, 0x03}
	tdi := make([]byte, 2)
	tdo := make([]byte, 2)
	state, err := sc.Scan(context.Background(), tms, tdi, tdo, 10)
	if err != nil {
		return fmt.Errorf("reset scan: %w", err)
	}
	fmt.Printf("TAP state after reset: %s\n", state)
	tx, rx, cmds := sc.Counters()
	fmt.Printf("bytes sent=%d received=%d, MPSSE commands=%d\n", tx, rx, cmds)
	return nil
}
