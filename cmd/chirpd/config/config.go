package config

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"Chirpnet/pkg/device"
	layer "Chirpnet/pkg/layers"
	"Chirpnet/pkg/logger"
	"Chirpnet/pkg/modem"
	"Chirpnet/pkg/mqtt"
	"Chirpnet/pkg/protocol"
	"Chirpnet/pkg/web"
)

// PracticalPeriodFloorMs is the shortest symbol period older sound hardware
// reproduces reliably.
const PracticalPeriodFloorMs = 120

type Config struct {
	Node struct {
		ID string `yaml:"id"` // a random UUID when empty
	} `yaml:"node"`

	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`

	Device struct {
		Backend    string  `yaml:"backend"` // loopback, asio or portaudio
		DeviceName string  `yaml:"device_name"`
		SampleRate float64 `yaml:"sample_rate"`
		InChannel  int     `yaml:"in_channel"`
		OutChannel int     `yaml:"out_channel"`
	} `yaml:"device"`

	Protocol struct {
		Identifier     string  `yaml:"identifier"`
		PayloadLength  int     `yaml:"payload_length"`
		ParityLength   int     `yaml:"parity_length"`
		SymbolPeriodMs int     `yaml:"symbol_period_ms"`
		BaseFrequency  float64 `yaml:"base_frequency"`
	} `yaml:"protocol"`

	Receiver struct {
		SubsamplingFactor int     `yaml:"subsampling_factor"`
		IgnoreSelf        bool    `yaml:"ignore_self"`
		Threshold         float64 `yaml:"confidence_threshold"`
		IgnoreRatio       float64 `yaml:"ignore_ratio"`
		CaptureBuffers    int     `yaml:"capture_buffers"`
	} `yaml:"receiver"`

	Transmitter struct {
		RampRatio   float64 `yaml:"ramp_ratio"`
		FilterAlpha float64 `yaml:"filter_alpha"`
	} `yaml:"transmitter"`

	Web web.Config `yaml:"web"`

	Metrics struct {
		Enabled bool `yaml:"enabled"`
	} `yaml:"metrics"`

	MQTT mqtt.Config `yaml:"mqtt"`
}

// Default returns the configuration used for every key a file leaves out.
func Default() *Config {
	var cfg Config
	p := protocol.DefaultConfig()

	cfg.Log.Level = "info"
	cfg.Device.Backend = "loopback"
	cfg.Device.SampleRate = 44100
	cfg.Protocol.Identifier = p.Identifier
	cfg.Protocol.PayloadLength = p.PayloadLength
	cfg.Protocol.ParityLength = p.ParityLength
	cfg.Protocol.SymbolPeriodMs = p.SymbolPeriodMs
	cfg.Protocol.BaseFrequency = p.BaseFrequency
	cfg.Receiver.SubsamplingFactor = layer.DefaultSubsamplingFactor
	cfg.Receiver.Threshold = modem.DefaultConfidenceThreshold
	cfg.Receiver.IgnoreRatio = modem.DefaultIgnoreRatio
	cfg.Receiver.CaptureBuffers = layer.DefaultCaptureBuffers
	cfg.Transmitter.RampRatio = modem.DefaultRampRatio
	cfg.Transmitter.FilterAlpha = modem.DefaultFilterAlpha
	cfg.Web.Host = "127.0.0.1"
	cfg.Web.Port = 8080
	cfg.MQTT.TopicPrefix = mqtt.DefaultTopicPrefix
	return &cfg
}

func LoadConfig(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse decodes data over Default and validates the result.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if _, err := CreateParams(c); err != nil {
		return err
	}
	if c.Device.SampleRate <= 0 {
		return fmt.Errorf("%w: sample rate %v", protocol.ErrInvalidConfig, c.Device.SampleRate)
	}
	if c.Receiver.SubsamplingFactor <= 0 {
		return fmt.Errorf("%w: subsampling factor %d", protocol.ErrInvalidConfig, c.Receiver.SubsamplingFactor)
	}
	// zero would silently select the library default
	if c.Receiver.Threshold <= 0 || c.Receiver.Threshold >= 1 {
		return fmt.Errorf("%w: confidence threshold %v outside (0, 1)", protocol.ErrInvalidConfig, c.Receiver.Threshold)
	}
	if c.Receiver.IgnoreRatio <= 0 || c.Receiver.IgnoreRatio >= 0.5 {
		return fmt.Errorf("%w: ignore ratio %v outside (0, 0.5)", protocol.ErrInvalidConfig, c.Receiver.IgnoreRatio)
	}
	if c.Transmitter.RampRatio <= 0 || c.Transmitter.RampRatio > 0.5 {
		return fmt.Errorf("%w: ramp ratio %v outside (0, 0.5]", protocol.ErrInvalidConfig, c.Transmitter.RampRatio)
	}
	if c.Transmitter.FilterAlpha <= 0 || c.Transmitter.FilterAlpha > 1 {
		return fmt.Errorf("%w: filter alpha %v outside (0, 1]", protocol.ErrInvalidConfig, c.Transmitter.FilterAlpha)
	}
	if _, ok := backends[c.Device.Backend]; !ok {
		return fmt.Errorf("%w: device backend %q not built in, have %v", protocol.ErrInvalidConfig, c.Device.Backend, Backends())
	}
	if c.Web.Enabled && (c.Web.Port < 0 || c.Web.Port > 65535) {
		return fmt.Errorf("%w: web port %d", protocol.ErrInvalidConfig, c.Web.Port)
	}
	if c.MQTT.Enabled && c.MQTT.Broker == "" {
		return fmt.Errorf("%w: mqtt enabled without a broker", protocol.ErrInvalidConfig)
	}
	return nil
}

// Warnings lists settings that are accepted but likely to misbehave.
func (c *Config) Warnings() []string {
	var warnings []string
	if c.Protocol.SymbolPeriodMs < PracticalPeriodFloorMs {
		warnings = append(warnings, fmt.Sprintf("symbol period %d ms is below the %d ms that older hardware reproduces reliably", c.Protocol.SymbolPeriodMs, PracticalPeriodFloorMs))
	}
	if c.Device.Backend == "loopback" && c.Receiver.IgnoreSelf {
		warnings = append(warnings, "loopback device with ignore_self set will never receive anything")
	}
	return warnings
}

func CreateParams(c *Config) (*protocol.Params, error) {
	p := protocol.DefaultConfig()
	p.Identifier = c.Protocol.Identifier
	p.PayloadLength = c.Protocol.PayloadLength
	p.ParityLength = c.Protocol.ParityLength
	p.SymbolPeriodMs = c.Protocol.SymbolPeriodMs
	p.BaseFrequency = c.Protocol.BaseFrequency
	return protocol.New(p)
}

var backends = map[string]func(c *Config) device.Device{
	"loopback": func(*Config) device.Device { return &device.Loopback{} },
}

// Backends lists the device backends compiled into this binary.
func Backends() []string {
	names := make([]string, 0, len(backends))
	for name := range backends {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func CreateDevice(c *Config) (device.Device, error) {
	create, ok := backends[c.Device.Backend]
	if !ok {
		return nil, fmt.Errorf("%w: device backend %q", protocol.ErrInvalidConfig, c.Device.Backend)
	}
	return create(c), nil
}

func CreateLogger(c *Config) *logger.Logger {
	return logger.New(logger.Config{Level: c.Log.Level})
}

// Node is a configured transceiver: one device shared by a Receiver and a
// Transmitter through a PhysicalLayer.
type Node struct {
	Params      *protocol.Params
	Physical    *layer.PhysicalLayer
	Receiver    *layer.Receiver
	Transmitter *layer.Transmitter
}

// CreateNode wires the sessions to the configured device. Observer may be
// nil.
func CreateNode(c *Config, observer layer.Observer, log *logger.Logger) (*Node, error) {
	params, err := CreateParams(c)
	if err != nil {
		return nil, err
	}
	dev, err := CreateDevice(c)
	if err != nil {
		return nil, err
	}
	sampleRate := int(c.Device.SampleRate)
	status := &layer.Status{}

	rx, err := layer.NewReceiver(layer.ReceiverConfig{
		Params:            params,
		SubsamplingFactor: c.Receiver.SubsamplingFactor,
		IgnoreSelf:        c.Receiver.IgnoreSelf,
		Status:            status,
		Detector: modem.Detector{
			Threshold: c.Receiver.Threshold,
			Ignore:    c.Receiver.IgnoreRatio,
		},
		Observer: observer,
		Logger:   log,
	})
	if err != nil {
		return nil, err
	}

	physical, err := CreatePhysicalLayer(c, dev, rx, observer, log)
	if err != nil {
		return nil, err
	}

	tx, err := layer.NewTransmitter(layer.TransmitterConfig{
		Params:     params,
		SampleRate: sampleRate,
		Sink:       physical,
		Status:     status,
		Modulator: modem.Modulator{
			RampRatio:   c.Transmitter.RampRatio,
			FilterAlpha: c.Transmitter.FilterAlpha,
		},
		Observer: observer,
		Logger:   log,
	})
	if err != nil {
		return nil, err
	}

	return &Node{Params: params, Physical: physical, Receiver: rx, Transmitter: tx}, nil
}

// CreatePhysicalLayer drops capture buffers when analysis falls behind,
// except on the loopback backend, which has no clock of its own.
func CreatePhysicalLayer(c *Config, dev device.Device, rx *layer.Receiver, observer layer.Observer, log *logger.Logger) (*layer.PhysicalLayer, error) {
	return layer.NewPhysicalLayer(layer.PhysicalLayerConfig{
		Device:         dev,
		SampleRate:     int(c.Device.SampleRate),
		Receiver:       rx,
		CaptureBuffers: c.Receiver.CaptureBuffers,
		Lossless:       c.Device.Backend == "loopback",
		Observer:       observer,
		Logger:         log,
	})
}
