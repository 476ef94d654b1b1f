package config

import "Chirpnet/pkg/device"

func init() {
	backends["asio"] = func(c *Config) device.Device {
		return &device.ASIOMono{
			DeviceName: c.Device.DeviceName,
			SampleRate: c.Device.SampleRate,
			InChannel:  c.Device.InChannel,
			OutChannel: c.Device.OutChannel,
		}
	}
}
