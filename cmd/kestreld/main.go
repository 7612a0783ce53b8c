// kestreld runs simulated Kestrel depth/RGB sensors behind the viewer
// server, for development without hardware attached.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "kestreld",
	Short: "Kestrel sensor daemon",
	Long: `kestreld opens one or more simulated Kestrel depth/RGB sensors and
serves them over HTTP: REST control of video modes and streaming, a
websocket frame feed per device, and optional RTP export to a UDP peer.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
