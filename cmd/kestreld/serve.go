package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/kestrelsense/go-kestrel/internal/config"
	"github.com/kestrelsense/go-kestrel/internal/log"
	"github.com/kestrelsense/go-kestrel/pkg/driver"
	"github.com/kestrelsense/go-kestrel/pkg/sensor"
	"github.com/kestrelsense/go-kestrel/pkg/stream"
	"github.com/kestrelsense/go-kestrel/pkg/web"
)

var (
	servePort    string
	serveDevices int
	serveFPS     int
	serveRTPAddr string
	serveStart   bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run simulated sensors behind the viewer server",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&servePort, "port", config.ViewerPort(), "viewer HTTP port")
	serveCmd.Flags().IntVar(&serveDevices, "devices", config.SimDevices(), "number of simulated devices")
	serveCmd.Flags().IntVar(&serveFPS, "fps", config.SimFPS(), "simulated frame rate")
	serveCmd.Flags().StringVar(&serveRTPAddr, "rtp", config.RTPTarget(), "RTP export target (host:port, empty disables)")
	serveCmd.Flags().BoolVar(&serveStart, "start", true, "start streaming on all devices immediately")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	if serveFPS <= 0 {
		serveFPS = config.DefaultSimFPS
	}
	drv := driver.NewSim()
	drv.SetInterval(time.Second / time.Duration(serveFPS))

	mgr := sensor.NewManager()
	server := web.NewServer(mgr, servePort)

	var sender *stream.Sender
	if serveRTPAddr != "" {
		var err error
		sender, err = stream.NewSender(serveRTPAddr, config.DefaultRTPMTU)
		if err != nil {
			return err
		}
		defer sender.Close()
		log.Info("rtp export enabled", "target", serveRTPAddr)
	}

	devices := make([]*sensor.Device, 0, serveDevices)
	for i := 0; i < serveDevices; i++ {
		dev, err := mgr.Open(drv, drv.Open())
		if err != nil {
			return fmt.Errorf("open simulated device %d: %w", i, err)
		}
		server.Attach(dev)
		if sender != nil {
			dev.Video().Subscribe("rtp:"+dev.Serial(), sender.Handler())
		}
		if serveStart {
			if err := dev.Video().Start(); err != nil {
				return fmt.Errorf("start %s: %w", dev.Serial(), err)
			}
		}
		devices = append(devices, dev)
	}

	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		<-sig
		log.Info("shutting down")
		for _, dev := range devices {
			if err := dev.Close(); err != nil {
				log.Warn("device close failed", "serial", dev.Serial(), "err", err)
			}
		}
		if err := server.Shutdown(); err != nil {
			log.Warn("server shutdown failed", "err", err)
		}
	}()

	log.Info("kestreld serving",
		"port", servePort,
		"devices", serveDevices,
		"fps", serveFPS,
	)
	return server.Listen()
}
