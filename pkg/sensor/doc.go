// Package sensor is the managed-side adapter for Kestrel depth/RGB
// camera devices.
//
// It mirrors one hardware video stream per opened device: the current
// mode, the frame buffer registered with the driver, and the running
// flag. Configuration calls translate into native driver calls; each
// completed frame comes back as a driver callback on a driver-owned
// goroutine and is redelivered as a FrameEvent to the stream's
// subscribers, carrying an absolute timestamp and the frame buffer
// committed at delivery time.
//
// Device lifecycle goes through a Manager, which owns the
// handle-to-device registry used to resolve callbacks. A callback for
// a handle the manager does not know is a lifecycle bug and is
// counted and logged, never silently dropped.
//
// Typical use:
//
//	sim := driver.NewSim()
//	mgr := sensor.NewManager()
//	dev, err := mgr.Open(sim, sim.Open())
//	if err != nil {
//		// no decodable modes, or handle already open
//	}
//	defer dev.Close()
//
//	video := dev.Video()
//	video.Subscribe("printer", func(ev sensor.FrameEvent) {
//		fmt.Println(ev.Seq, ev.Timestamp, ev.Frame.Mode())
//	})
//	if err := video.Start(); err != nil {
//		// driver status code in *driver.StatusError
//	}
package sensor
