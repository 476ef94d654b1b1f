package modem

import "math"

// CarrierConfig describes the tone of a single symbol.
type CarrierConfig struct {
	Amplitude  float64
	Freq       float64
	Phase      float64
	SampleRate float64
	Size       int
}

func (p CarrierConfig) New() []float64 {
	signal := make([]float64, p.Size)
	p.Fill(signal)
	return signal
}

// Fill writes the first len(signal) samples of the tone, starting at phase p.Phase.
func (p CarrierConfig) Fill(signal []float64) {
	for i := range signal {
		t := float64(i) / p.SampleRate
		signal[i] = p.Amplitude * math.Sin(2*math.Pi*p.Freq*t+p.Phase)
	}
}

// ramp fades the first and last ratio of signal in and out linearly.
func ramp(signal []float64, ratio float64) {
	width := int(float64(len(signal)) * ratio)
	for j := 0; j < width; j++ {
		p := float64(j) / float64(width)
		signal[j] *= p
		signal[len(signal)-j-1] *= p
	}
}
