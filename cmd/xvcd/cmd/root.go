package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	verbose    bool
	configPath string
)

var rootCmd = &cobra.Command{
	Use:   "xvcd",
	Short: "Xilinx Virtual Cable bridge for FTDI MPSSE JTAG adapters",
	Long: `xvcd exposes one or more FTDI MPSSE-capable USB adapters as XVC
(Xilinx Virtual Cable) servers, so tools like Vivado's Hardware Manager
can drive a physical JTAG chain over TCP.

Examples:
  xvcd serve -c /etc/xvcd.ini     # run every enabled instance
  xvcd devices                    # list connected FTDI adapters and their JTAG capability
  xvcd probe --serial ABC12345    # open one device, reset its TAP and report the TCK rate`,
	Version: "1.0.0",
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose (debug-level) logging")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "/etc/xvcd.ini", "path to the INI configuration file")
}

func logLevel() string {
	if verbose {
		return "debug"
	}
	return "info"
}
