package modem

import (
	"math"

	"Chirpnet/pkg/protocol"
)

const (
	DefaultConfidenceThreshold = 0.75
	DefaultIgnoreRatio         = 0.3
)

// Detector recovers one symbol from a run of pitch estimates by averaging
// the confident estimates in its interior.
type Detector struct {
	Params *protocol.Params

	Threshold float64 // confidence must exceed this, 0 means DefaultConfidenceThreshold
	Ignore    float64 // share trimmed from each end, 0 means DefaultIgnoreRatio
}

// Detect examines pitches[offset:offset+length]. It reports false when no
// estimate qualifies, which is expected during silence.
func (d Detector) Detect(pitches, confidences []float64, offset, length int) (byte, bool) {
	threshold := d.Threshold
	if threshold == 0 {
		threshold = DefaultConfidenceThreshold
	}
	ratio := d.Ignore
	if ratio == 0 {
		ratio = DefaultIgnoreRatio
	}

	// edges are where the tone slews between symbols
	ignore := int(math.Ceil(float64(length) * ratio))

	sum := 0.0
	count := 0
	for i := offset + ignore; i < offset+length-ignore; i++ {
		if confidences[i] > threshold && pitches[i] != protocol.NoSignal {
			sum += pitches[i]
			count++
		}
	}
	if count == 0 {
		return 0, false
	}
	return d.Params.CharacterFor(sum / float64(count)), true
}
