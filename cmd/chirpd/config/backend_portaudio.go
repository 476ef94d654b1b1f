//go:build portaudio

package config

import "Chirpnet/pkg/device"

func init() {
	backends["portaudio"] = func(c *Config) device.Device {
		return &device.PortAudio{SampleRate: c.Device.SampleRate}
	}
}
