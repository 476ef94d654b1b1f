package main

import (
	"flag"
	"fmt"
	"os"

	"Chirpnet/cmd/chirpd/config"
	"Chirpnet/internel/utils"
	"Chirpnet/pkg/device"
	layer "Chirpnet/pkg/layers"
	"Chirpnet/pkg/logger"
	"Chirpnet/pkg/modem"
	"Chirpnet/pkg/pitch"
	"Chirpnet/pkg/protocol"
)

// decoder runs recorded audio through the same pipeline as a live node.
type decoder struct {
	receiver  *layer.Receiver
	estimator *pitch.Estimator
	framer    *pitch.Framer
	keepTrace bool
	trace     []utils.Estimate
	messages  []string
}

func newDecoder(cfg *config.Config, params *protocol.Params, sampleRate int, log *logger.Logger) (*decoder, error) {
	receiver, err := layer.NewReceiver(layer.ReceiverConfig{
		Params:            params,
		SubsamplingFactor: cfg.Receiver.SubsamplingFactor,
		Detector: modem.Detector{
			Threshold: cfg.Receiver.Threshold,
			Ignore:    cfg.Receiver.IgnoreRatio,
		},
		Logger: log,
	})
	if err != nil {
		return nil, err
	}
	size := pitch.AnalysisFrameSize(params.SamplesPerSymbol(sampleRate), cfg.Receiver.SubsamplingFactor)
	return &decoder{
		receiver:  receiver,
		estimator: pitch.NewEstimator(sampleRate, size),
		framer:    pitch.NewFramer(size),
	}, nil
}

func (d *decoder) push(samples []float64) {
	d.framer.Push(samples, func(frame []float64) {
		est := d.estimator.Estimate(frame)
		if d.keepTrace {
			d.trace = append(d.trace, utils.Estimate{Pitch: est.Pitch, Confidence: est.Confidence})
		}
		d.estimate(est.Pitch, est.Confidence)
	})
}

func (d *decoder) estimate(frequency, confidence float64) {
	d.receiver.OnEstimate(frequency, confidence)
	for {
		select {
		case message := <-d.receiver.Messages():
			d.messages = append(d.messages, message)
		default:
			return
		}
	}
}

// decodeFile returns the messages found in a WAV recording and the pitch
// trace that produced them.
func decodeFile(cfg *config.Config, params *protocol.Params, filename string, log *logger.Logger) ([]string, []utils.Estimate, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, nil, err
	}
	defer file.Close()

	samples, sampleRate, err := device.ReadWav(file)
	if err != nil {
		return nil, nil, err
	}
	d, err := newDecoder(cfg, params, sampleRate, log)
	if err != nil {
		return nil, nil, err
	}
	d.keepTrace = true
	d.push(samples)
	// flush the last partial symbol
	d.push(make([]float64, params.SamplesPerSymbol(sampleRate)))
	return d.messages, d.trace, nil
}

func decodeCommand(args []string) error {
	fs := flag.NewFlagSet("decode", flag.ExitOnError)
	configFile := fs.String("config", "", "configuration file, defaults when empty")
	traceFile := fs.String("trace", "", "write the pitch trace to this file")
	fs.Parse(args)
	if fs.NArg() != 1 {
		return fmt.Errorf("expected one WAV file, got %d arguments", fs.NArg())
	}

	cfg, params, log, err := load(*configFile)
	if err != nil {
		return err
	}
	messages, trace, err := decodeFile(cfg, params, fs.Arg(0), log)
	if err != nil {
		return err
	}
	if *traceFile != "" {
		if err := utils.WriteTrace(*traceFile, trace); err != nil {
			return err
		}
	}
	for _, message := range messages {
		fmt.Println(message)
	}
	return nil
}

// replayTrace feeds a recorded pitch trace, one estimate per analysis frame.
func replayTrace(cfg *config.Config, params *protocol.Params, filename string, log *logger.Logger) ([]string, error) {
	trace, err := utils.ReadTrace(filename)
	if err != nil {
		return nil, err
	}
	d, err := newDecoder(cfg, params, int(cfg.Device.SampleRate), log)
	if err != nil {
		return nil, err
	}
	for _, est := range trace {
		d.estimate(est.Pitch, est.Confidence)
	}
	return d.messages, nil
}

func replayCommand(args []string) error {
	fs := flag.NewFlagSet("replay", flag.ExitOnError)
	configFile := fs.String("config", "", "configuration file, defaults when empty")
	fs.Parse(args)
	if fs.NArg() != 1 {
		return fmt.Errorf("expected one trace file, got %d arguments", fs.NArg())
	}

	cfg, params, log, err := load(*configFile)
	if err != nil {
		return err
	}
	messages, err := replayTrace(cfg, params, fs.Arg(0), log)
	if err != nil {
		return err
	}
	for _, message := range messages {
		fmt.Println(message)
	}
	return nil
}
