package modem

import (
	"math"
	"reflect"
	"testing"

	"Chirpnet/pkg/protocol"
)

func TestModulateLength(t *testing.T) {
	m := Modulator{Params: protocol.MustNew(protocol.DefaultConfig()), SampleRate: 44100}
	symbols := make([]int, 20)
	for i := range symbols {
		symbols[i] = i
	}

	pcm := m.Modulate(symbols)
	if len(pcm) != 2*20*3748 {
		t.Fatalf("expected %d bytes, got %d", 2*20*3748, len(pcm))
	}
	if pcm[0] != 0 || pcm[1] != 0 {
		t.Errorf("expected the first sample to be silent, got %v", pcm[:2])
	}
}

func TestModulateEmpty(t *testing.T) {
	m := Modulator{Params: protocol.MustNew(protocol.DefaultConfig()), SampleRate: 44100}
	if pcm := m.Modulate(nil); len(pcm) != 0 {
		t.Errorf("expected no samples, got %d bytes", len(pcm))
	}
}

func TestSignalBounded(t *testing.T) {
	m := Modulator{Params: protocol.MustNew(protocol.DefaultConfig()), SampleRate: 44100}
	signal := m.Signal([]int{0, 31, 12, 5})
	peak := 0.0
	for _, v := range signal {
		peak = math.Max(peak, math.Abs(v))
	}
	if peak == 0 || peak >= 1 {
		t.Errorf("expected peak in (0, 1), got %v", peak)
	}
}

func TestSignalRamp(t *testing.T) {
	m := Modulator{Params: protocol.MustNew(protocol.DefaultConfig()), SampleRate: 44100}
	n := m.SamplesPerSymbol()
	tone := CarrierConfig{Amplitude: 1, Freq: m.Params.FrequencyAt(3), SampleRate: 44100, Size: n}.New()
	ramp(tone, DefaultRampRatio)

	width := int(float64(n) * DefaultRampRatio)
	if tone[0] != 0 || tone[n-1] != 0 {
		t.Errorf("expected silent symbol edges, got %v and %v", tone[0], tone[n-1])
	}
	raw := CarrierConfig{Amplitude: 1, Freq: m.Params.FrequencyAt(3), SampleRate: 44100, Size: n}.New()
	if tone[n/2] != raw[n/2] {
		t.Errorf("expected the middle of the symbol to be untouched")
	}
	if math.Abs(tone[width/2]) > math.Abs(raw[width/2])*0.51 {
		t.Errorf("expected half attenuation inside the ramp")
	}
}

func TestFloat64ToPCM16(t *testing.T) {
	got := Float64ToPCM16([]float64{0, 0.5, -1, 1})
	want := []byte{0x00, 0x00, 0xff, 0x3f, 0x01, 0x80, 0xff, 0x7f}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %x, want %x", got, want)
	}

	back := PCM16ToFloat64(got)
	for i, v := range []float64{0, 0.5, -1, 1} {
		if math.Abs(back[i]-v) > 1e-3 {
			t.Errorf("sample %d: got %v, want %v", i, back[i], v)
		}
	}
	if wide := PCM16ToInt32(got); wide[3] != 0x7fff<<16 {
		t.Errorf("expected full scale int32, got %x", wide[3])
	}
}
