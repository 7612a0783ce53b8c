// capture grabs frames from a simulated Kestrel sensor and writes the
// first complete frame to disk as PNG. Handy smoke test for the full
// path: mode selection, buffer registration, delivery, decoding.
package main

import (
	"flag"
	"fmt"
	"image/png"
	"log"
	"os"
	"time"

	"github.com/kestrelsense/go-kestrel/pkg/driver"
	"github.com/kestrelsense/go-kestrel/pkg/sensor"
)

func main() {
	format := flag.String("format", "depth16", "pixel format (depth16, rgb888)")
	resolution := flag.String("res", "640x480", "resolution (320x240, 640x480, 1280x1024)")
	out := flag.String("o", "frame.png", "output PNG path")
	count := flag.Int("n", 30, "frames to capture before exiting")
	flag.Parse()

	drv := driver.NewSim()
	mgr := sensor.NewManager()
	dev, err := mgr.Open(drv, drv.Open())
	if err != nil {
		log.Fatalf("open device: %v", err)
	}
	defer dev.Close()

	video := dev.Video()
	mode, ok := findMode(video.Modes(), *format, *resolution)
	if !ok {
		log.Fatalf("no %s@%s mode; run 'kestreld modes' for the list", *format, *resolution)
	}
	if err := video.SetMode(mode); err != nil {
		log.Fatalf("set mode: %v", err)
	}

	fmt.Printf("capturing %d frames in %s from device %s\n", *count, mode, dev.Serial())

	frames := make(chan sensor.FrameEvent, 8)
	video.Subscribe("capture", func(ev sensor.FrameEvent) {
		select {
		case frames <- ev:
		default: // keep up with delivery, drop when the printer lags
		}
	})

	if err := video.Start(); err != nil {
		log.Fatalf("start: %v", err)
	}

	saved := false
	for i := 0; i < *count; i++ {
		select {
		case ev := <-frames:
			fmt.Printf("  frame %d: seq=%d ts=%s bytes=%d\n",
				i+1, ev.Seq, ev.Timestamp.Format("15:04:05.000"), len(ev.Frame.Bytes()))
			if !saved {
				if err := writePNG(*out, ev); err != nil {
					log.Fatalf("write %s: %v", *out, err)
				}
				fmt.Printf("  wrote %s\n", *out)
				saved = true
			}
		case <-time.After(2 * time.Second):
			log.Fatal("no frame within 2s")
		}
	}

	if err := video.Stop(); err != nil {
		log.Fatalf("stop: %v", err)
	}
	stats := video.Stats()
	fmt.Printf("done: %d frames delivered\n", stats.Delivered)
}

func findMode(modes []sensor.VideoMode, format, resolution string) (sensor.VideoMode, bool) {
	for _, m := range modes {
		if m.Format.String() == format && m.Resolution.String() == resolution {
			return m, true
		}
	}
	return sensor.VideoMode{}, false
}

func writePNG(path string, ev sensor.FrameEvent) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return png.Encode(f, ev.Frame.Image())
}
