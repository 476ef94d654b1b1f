// Package pitch estimates the fundamental frequency of short audio frames
// with the YIN difference function, computed through an FFT autocorrelation.
package pitch

import (
	"math"

	"gonum.org/v1/gonum/dsp/fourier"
)

const (
	DefaultThreshold = 0.2
	DefaultMinRMS    = 1e-3

	// NoPitch is reported for frames without a periodic component.
	NoPitch = -1.0
)

// Estimate is one pitch reading with its confidence in [0, 1].
type Estimate struct {
	Pitch      float64
	Confidence float64
}

// Estimator is not safe for concurrent use: it reuses its buffers.
type Estimator struct {
	sampleRate float64
	frameSize  int

	Threshold float64 // cumulative mean normalized difference threshold
	MinRMS    float64 // frames quieter than this are silence

	fftInstance *fourier.FFT
	padded      []float64
	coeffs      []complex128
	acf         []float64
	diff        []float64
	cmnd        []float64
}

func NewEstimator(sampleRate, frameSize int) *Estimator {
	n := 1
	for n < 2*frameSize {
		n <<= 1
	}
	half := frameSize / 2
	return &Estimator{
		sampleRate:  float64(sampleRate),
		frameSize:   frameSize,
		Threshold:   DefaultThreshold,
		MinRMS:      DefaultMinRMS,
		fftInstance: fourier.NewFFT(n),
		padded:      make([]float64, n),
		coeffs:      make([]complex128, n/2+1),
		acf:         make([]float64, n),
		diff:        make([]float64, half),
		cmnd:        make([]float64, half),
	}
}

func (e *Estimator) FrameSize() int { return e.frameSize }

// Estimate analyzes the first FrameSize samples of frame. Shorter frames
// and silence yield NoPitch with zero confidence.
func (e *Estimator) Estimate(frame []float64) Estimate {
	if len(frame) < e.frameSize {
		return Estimate{Pitch: NoPitch}
	}
	frame = frame[:e.frameSize]

	energy := 0.0
	for _, v := range frame {
		energy += v * v
	}
	if math.Sqrt(energy/float64(e.frameSize)) < e.MinRMS {
		return Estimate{Pitch: NoPitch}
	}

	e.difference(frame)
	e.normalize()

	tau := e.pick()
	if tau < 0 {
		return Estimate{Pitch: NoPitch}
	}
	confidence := 1 - e.cmnd[tau]
	if confidence < 0 {
		confidence = 0
	}
	return Estimate{
		Pitch:      e.sampleRate / e.interpolate(tau),
		Confidence: confidence,
	}
}

// difference fills diff[tau] = sum_j (x[j] - x[j+tau])^2 over the window
// shared by both terms.
func (e *Estimator) difference(frame []float64) {
	n := len(e.padded)
	copy(e.padded, frame)
	for i := len(frame); i < n; i++ {
		e.padded[i] = 0
	}

	// autocorrelation is the inverse transform of the power spectrum
	coeffs := e.fftInstance.Coefficients(e.coeffs, e.padded)
	for i, c := range coeffs {
		coeffs[i] = complex(real(c)*real(c)+imag(c)*imag(c), 0)
	}
	acf := e.fftInstance.Sequence(e.acf, coeffs)

	w := len(frame)
	head := 0.0 // sum of x[j]^2 for j < w-tau
	for _, v := range frame {
		head += v * v
	}
	tail := head // sum of x[j]^2 for j >= tau
	// the inverse transform is unnormalized; lag zero equals the frame energy
	scale := head / acf[0]
	for tau := range e.diff {
		if tau > 0 {
			head -= frame[w-tau] * frame[w-tau]
			tail -= frame[tau-1] * frame[tau-1]
		}
		d := head + tail - 2*acf[tau]*scale
		if d < 0 {
			d = 0
		}
		e.diff[tau] = d
	}
}

func (e *Estimator) normalize() {
	e.cmnd[0] = 1
	sum := 0.0
	for tau := 1; tau < len(e.diff); tau++ {
		sum += e.diff[tau]
		if sum == 0 {
			e.cmnd[tau] = 1
			continue
		}
		e.cmnd[tau] = e.diff[tau] * float64(tau) / sum
	}
}

// pick returns the first dip under the threshold, or the global minimum
// when no dip qualifies.
func (e *Estimator) pick() int {
	for tau := 2; tau < len(e.cmnd); tau++ {
		if e.cmnd[tau] < e.Threshold {
			for tau+1 < len(e.cmnd) && e.cmnd[tau+1] < e.cmnd[tau] {
				tau++
			}
			return tau
		}
	}

	best := -1
	for tau := 2; tau < len(e.cmnd); tau++ {
		if best < 0 || e.cmnd[tau] < e.cmnd[best] {
			best = tau
		}
	}
	return best
}

// interpolate refines tau with a parabola through the raw difference.
func (e *Estimator) interpolate(tau int) float64 {
	if tau < 1 || tau+1 >= len(e.diff) {
		return float64(tau)
	}
	s0, s1, s2 := e.diff[tau-1], e.diff[tau], e.diff[tau+1]
	denominator := s0 - 2*s1 + s2
	if denominator == 0 {
		return float64(tau)
	}
	shift := (s0 - s2) / (2 * denominator)
	if math.Abs(shift) > 1 {
		return float64(tau)
	}
	return float64(tau) + shift
}
