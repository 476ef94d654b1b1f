package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"Chirpnet/cmd/chirpd/config"
	"Chirpnet/internel/utils"
	"Chirpnet/pkg/device"
	"Chirpnet/pkg/modem"
	"Chirpnet/pkg/protocol"
)

func encodeCommand(args []string) error {
	fs := flag.NewFlagSet("encode", flag.ExitOnError)
	configFile := fs.String("config", "", "configuration file, defaults when empty")
	output := fs.String("o", "message.wav", "output file")
	raw := fs.Bool("raw", false, "write raw little-endian 16-bit PCM instead of WAV")
	silence := fs.Duration("silence", 200*time.Millisecond, "silence around the message in a WAV file")
	fs.Parse(args)
	if fs.NArg() != 1 {
		return fmt.Errorf("expected one message, got %d arguments", fs.NArg())
	}

	cfg, params, _, err := load(*configFile)
	if err != nil {
		return err
	}
	pcm, err := synthesize(cfg, params, fs.Arg(0))
	if err != nil {
		return err
	}
	if *raw {
		return writeRaw(*output, pcm)
	}
	return writeWav(*output, int(cfg.Device.SampleRate), pcm, *silence)
}

// synthesize returns the PCM a node configured by cfg would play for message.
func synthesize(cfg *config.Config, params *protocol.Params, message string) ([]byte, error) {
	codec := modem.NewFrameCodec(params)
	frame, err := codec.Encode(message)
	if err != nil {
		return nil, err
	}
	modulator := modem.Modulator{
		Params:      params,
		SampleRate:  int(cfg.Device.SampleRate),
		RampRatio:   cfg.Transmitter.RampRatio,
		FilterAlpha: cfg.Transmitter.FilterAlpha,
	}
	return modulator.Modulate(codec.Compact(frame)), nil
}

func writeRaw(filename string, pcm []byte) error {
	samples := make([]int16, len(pcm)/2)
	for i, v := range modem.PCM16ToInt32(pcm) {
		samples[i] = int16(v >> 16)
	}
	return utils.WriteBinary(filename, samples)
}

func writeWav(filename string, sampleRate int, pcm []byte, silence time.Duration) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	sink := device.NewWavSink(file, sampleRate)
	if err := sink.Silence(silence); err != nil {
		return err
	}
	if err := sink.Play(context.Background(), pcm); err != nil {
		return err
	}
	if err := sink.Silence(silence); err != nil {
		return err
	}
	if err := sink.Close(); err != nil {
		return err
	}
	return file.Close()
}
