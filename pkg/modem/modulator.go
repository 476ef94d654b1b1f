package modem

import (
	"encoding/binary"

	"Chirpnet/pkg/protocol"
)

const (
	DefaultRampRatio   = 0.3
	DefaultFilterAlpha = 0.3
)

// Modulator synthesizes symbol tones as 16-bit little-endian mono PCM.
type Modulator struct {
	Params     *protocol.Params
	SampleRate int

	RampRatio   float64 // share of each symbol faded in and out, 0 means DefaultRampRatio
	FilterAlpha float64 // differencing filter gain, 0 means DefaultFilterAlpha
}

// SamplesPerSymbol is the tone length in samples.
func (m Modulator) SamplesPerSymbol() int {
	return m.Params.SamplesPerSymbol(m.SampleRate)
}

// Signal returns the filtered waveform of symbols, normalized to [-1, 1].
// Each symbol restarts at phase zero.
func (m Modulator) Signal(symbols []int) []float64 {
	rampRatio := m.RampRatio
	if rampRatio == 0 {
		rampRatio = DefaultRampRatio
	}
	alpha := m.FilterAlpha
	if alpha == 0 {
		alpha = DefaultFilterAlpha
	}

	n := m.SamplesPerSymbol()
	signal := make([]float64, len(symbols)*n)
	for i, s := range symbols {
		tone := signal[i*n : (i+1)*n]
		CarrierConfig{
			Amplitude:  1,
			Freq:       m.Params.FrequencyAt(s),
			SampleRate: float64(m.SampleRate),
		}.Fill(tone)
		ramp(tone, rampRatio)
	}

	// one-pole differencing filter over the whole stream
	previous := 0.0
	for i, v := range signal {
		filtered := (v - previous) * alpha
		signal[i] = filtered
		previous = filtered
	}
	return signal
}

// Modulate returns 2 * len(symbols) * SamplesPerSymbol bytes of PCM.
func (m Modulator) Modulate(symbols []int) []byte {
	return Float64ToPCM16(m.Signal(symbols))
}

// Float64ToPCM16 truncates normalized samples to int16, low byte first.
func Float64ToPCM16(input []float64) []byte {
	output := make([]byte, 2*len(input))
	for i, v := range input {
		binary.LittleEndian.PutUint16(output[2*i:], uint16(int16(v*32767)))
	}
	return output
}
