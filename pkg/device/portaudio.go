//go:build portaudio

package device

import (
	"fmt"

	"github.com/gordonklaus/portaudio"
)

// PortAudio opens the default input and output as one mono stream.
type PortAudio struct {
	SampleRate float64
	stream     *portaudio.Stream
}

func (d *PortAudio) Start(callback func(in, out []int32)) error {
	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("portaudio init: %w", err)
	}
	stream, err := portaudio.OpenDefaultStream(1, 1, d.SampleRate, BufferSize, func(in, out []int32) {
		callback(in, out)
	})
	if err != nil {
		portaudio.Terminate()
		return fmt.Errorf("open default stream: %w", err)
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		portaudio.Terminate()
		return fmt.Errorf("start stream: %w", err)
	}
	d.stream = stream
	return nil
}

func (d *PortAudio) Stop() error {
	if d.stream == nil {
		return nil
	}
	defer portaudio.Terminate()
	if err := d.stream.Stop(); err != nil {
		return fmt.Errorf("stop stream: %w", err)
	}
	err := d.stream.Close()
	d.stream = nil
	return err
}
