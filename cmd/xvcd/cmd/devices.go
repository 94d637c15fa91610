package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	xvcserver "github.com/anshi233/xvc-server-d2xx"
	"github.com/anshi233/xvc-server-d2xx/ftdi"
)

var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "List connected FTDI devices and their MPSSE capability",
	RunE:  runDevices,
}

func init() {
	rootCmd.AddCommand(devicesCmd)
}

func runDevices(cmd *cobra.Command, args []string) error {
	if _, err := xvcserver.Init(); err != nil {
		return fmt.Errorf("initialize ftdi driver: %w", err)
	}
	all := ftdi.All()
	if len(all) == 0 {
		fmt.Println("no FTDI devices found")
		return nil
	}
	for i, d := range all {
		var info ftdi.Info
		d.Info(&info)
		jtagCapable := "no"
		if _, ok := d.(*ftdi.FT232H); ok {
			jtagCapable = "yes"
		}
		var serial string
		var ee ftdi.EEPROM
		if err := d.EEPROM(&ee); err == nil {
			serial = ee.Serial
		}
		fmt.Printf("%d: %s type=%s vid=%#04x pid=%#04x serial=%q jtag=%s\n",
			i, d, info.Type, info.VenID, info.DevID, serial, jtagCapable)
	}
	return nil
}
