package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"Chirpnet/cmd/chirpd/config"
	"Chirpnet/pkg/async"
	"Chirpnet/pkg/device"
	layer "Chirpnet/pkg/layers"
	"Chirpnet/pkg/logger"
	"Chirpnet/pkg/modem"
	"Chirpnet/pkg/protocol"
)

type simulation struct {
	Gain  float64
	Noise float64
	Seed  uint64
}

// run sends message from one simulated node to another sharing the same
// air and returns what the second node heard.
func (s simulation) run(ctx context.Context, cfg *config.Config, params *protocol.Params, message string, log *logger.Logger) ([]string, error) {
	network := device.Network[string]{
		Config: device.NetworkConfig[string]{
			{In: "air", Out: "air"},
			{In: "air", Out: "air"},
		},
		Gain:  s.Gain,
		Noise: s.Noise,
		Seed:  s.Seed,
	}
	devs := network.Build()
	defer network.Stop()

	receivers := make([]*layer.Receiver, len(devs))
	var sender *layer.Transmitter
	for i, dev := range devs {
		status := &layer.Status{}
		rx, err := layer.NewReceiver(layer.ReceiverConfig{
			Params:            params,
			SubsamplingFactor: cfg.Receiver.SubsamplingFactor,
			IgnoreSelf:        true,
			Status:            status,
			Detector: modem.Detector{
				Threshold: cfg.Receiver.Threshold,
				Ignore:    cfg.Receiver.IgnoreRatio,
			},
			Logger: log,
		})
		if err != nil {
			return nil, err
		}
		defer rx.Close()
		receivers[i] = rx

		// the simulated air runs as fast as the analysis keeps up
		phy, err := layer.NewPhysicalLayer(layer.PhysicalLayerConfig{
			Device:         dev,
			SampleRate:     int(cfg.Device.SampleRate),
			Receiver:       rx,
			CaptureBuffers: 1,
			Lossless:       true,
			Logger:         log,
		})
		if err != nil {
			return nil, err
		}
		if err := phy.Open(); err != nil {
			return nil, err
		}
		defer phy.Close()

		if i == 0 {
			sender, err = layer.NewTransmitter(layer.TransmitterConfig{
				Params:     params,
				SampleRate: int(cfg.Device.SampleRate),
				Sink:       phy,
				Status:     status,
				Logger:     log,
			})
			if err != nil {
				return nil, err
			}
		}
	}

	sent := sender.SendAsync(ctx, message)
	var heard []string
	timeout := time.After(time.Second + time.Duration(params.EncodedLength()+5)*params.SymbolDuration())
	for {
		select {
		case m := <-receivers[1].Messages():
			heard = append(heard, m)
		case <-timeout:
			return heard, async.Await(sent)
		case <-ctx.Done():
			return heard, ctx.Err()
		}
	}
}

func simulateCommand(args []string) error {
	fs := flag.NewFlagSet("simulate", flag.ExitOnError)
	configFile := fs.String("config", "", "configuration file, defaults when empty")
	var s simulation
	fs.Float64Var(&s.Gain, "gain", 0.5, "attenuation of the simulated air")
	fs.Float64Var(&s.Noise, "noise", 0.001, "uniform noise amplitude relative to full scale")
	fs.Uint64Var(&s.Seed, "seed", 1, "noise seed")
	fs.Parse(args)
	if fs.NArg() != 1 {
		return fmt.Errorf("expected one message, got %d arguments", fs.NArg())
	}

	cfg, params, log, err := load(*configFile)
	if err != nil {
		return err
	}
	heard, err := s.run(context.Background(), cfg, params, fs.Arg(0), log)
	if err != nil {
		return err
	}
	if len(heard) == 0 {
		return fmt.Errorf("nothing was received")
	}
	for _, message := range heard {
		fmt.Println(message)
	}
	return nil
}
