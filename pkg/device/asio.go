//go:build windows

package device

import "github.com/xsjk/go-asio"

// ASIOMono runs one input and one output channel of an ASIO driver.
type ASIOMono struct {
	DeviceName string
	SampleRate float64
	InChannel  int
	OutChannel int
	device     asio.Device
}

func (a *ASIOMono) Start(callback func(in, out []int32)) error {
	a.device.Load(a.DeviceName)
	a.device.SetSampleRate(a.SampleRate)
	a.device.Open()
	a.device.Start(func(in, out [][]int32) {
		callback(in[a.InChannel], out[a.OutChannel])
	})
	return nil
}

func (a *ASIOMono) Stop() error {
	a.device.Stop()
	a.device.Close()
	a.device.Unload()
	return nil
}
