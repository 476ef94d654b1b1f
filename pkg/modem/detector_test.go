package modem

import (
	"testing"

	"Chirpnet/pkg/protocol"
)

func TestDetect(t *testing.T) {
	p := protocol.MustNew(protocol.DefaultConfig())
	d := Detector{Params: p}
	f := p.FrequencyAt(5)

	tests := []struct {
		name        string
		pitches     []float64
		confidences []float64
		want        byte
		ok          bool
	}{
		{
			name:        "steady tone",
			pitches:     []float64{f, f, f, f, f, f, f, f, f},
			confidences: []float64{1, 1, 1, 1, 1, 1, 1, 1, 1},
			want:        '4',
			ok:          true,
		},
		{
			name:        "edges ignored",
			pitches:     []float64{9000, 9000, 9000, f, f, f, 9000, 9000, 9000},
			confidences: []float64{1, 1, 1, 1, 1, 1, 1, 1, 1},
			want:        '4',
			ok:          true,
		},
		{
			name:        "averaged jitter",
			pitches:     []float64{0, 0, 0, f * 0.99, f, f * 1.01, 0, 0, 0},
			confidences: []float64{0, 0, 0, 0.8, 0.8, 0.8, 0, 0, 0},
			want:        '4',
			ok:          true,
		},
		{
			name:        "unconfident estimates dropped",
			pitches:     []float64{f, f, f, 9000, f, 9000, f, f, f},
			confidences: []float64{1, 1, 1, 0.5, 0.9, 0.75, 1, 1, 1},
			want:        '4',
			ok:          true,
		},
		{
			name:        "silence",
			pitches:     []float64{-1, -1, -1, -1, -1, -1, -1, -1, -1},
			confidences: []float64{0, 0, 0, 0, 0, 0, 0, 0, 0},
			ok:          false,
		},
		{
			name:        "confident but no pitch",
			pitches:     []float64{f, f, f, -1, -1, -1, f, f, f},
			confidences: []float64{1, 1, 1, 1, 1, 1, 1, 1, 1},
			ok:          false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := d.Detect(tt.pitches, tt.confidences, 0, len(tt.pitches))
			if ok != tt.ok || (ok && got != tt.want) {
				t.Errorf("got (%q, %v), want (%q, %v)", got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestDetectOffset(t *testing.T) {
	p := protocol.MustNew(protocol.DefaultConfig())
	d := Detector{Params: p}

	pitches := make([]float64, 18)
	confidences := make([]float64, 18)
	for i := range pitches {
		confidences[i] = 1
		pitches[i] = p.FrequencyAt(10)
		if i >= 9 {
			pitches[i] = p.FrequencyAt(20)
		}
	}

	if c, ok := d.Detect(pitches, confidences, 0, 9); !ok || c != p.Character(10) {
		t.Errorf("first window: got (%q, %v), want %q", c, ok, p.Character(10))
	}
	if c, ok := d.Detect(pitches, confidences, 9, 9); !ok || c != p.Character(20) {
		t.Errorf("second window: got (%q, %v), want %q", c, ok, p.Character(20))
	}
}
