package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/kestrelsense/go-kestrel/pkg/driver"
	"github.com/kestrelsense/go-kestrel/pkg/sensor"
)

var modesCmd = &cobra.Command{
	Use:   "modes",
	Short: "List the video modes a simulated device enumerates",
	RunE: func(cmd *cobra.Command, args []string) error {
		drv := driver.NewSim()
		mgr := sensor.NewManager()
		dev, err := mgr.Open(drv, drv.Open())
		if err != nil {
			return err
		}
		defer dev.Close()

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "FORMAT\tRESOLUTION\tFRAME BYTES")
		for _, m := range dev.Video().Modes() {
			fmt.Fprintf(w, "%s\t%s\t%d\n", m.Format, m.Resolution, m.FrameSize())
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(modesCmd)
}
