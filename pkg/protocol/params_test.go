package protocol

import (
	"errors"
	"math"
	"reflect"
	"testing"
)

func TestNewDefault(t *testing.T) {
	p, err := New(DefaultConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.EncodedLength() != 20 {
		t.Errorf("expected encoded length 20, got %d", p.EncodedLength())
	}
	if p.DataLength() != 12 {
		t.Errorf("expected data length 12, got %d", p.DataLength())
	}
	if f := p.FrequencyAt(0); f != DefaultBaseFrequency {
		t.Errorf("expected base frequency %v, got %v", DefaultBaseFrequency, f)
	}
	if f := p.FrequencyAt(12); math.Abs(f-2*DefaultBaseFrequency) > 0.01 {
		t.Errorf("expected an octave above base at index 12, got %v", f)
	}
}

func TestNewInvalid(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"zero payload", func(c *Config) { c.PayloadLength = 0 }},
		{"negative parity", func(c *Config) { c.ParityLength = -1 }},
		{"empty identifier", func(c *Config) { c.Identifier = "" }},
		{"zero period", func(c *Config) { c.SymbolPeriodMs = 0 }},
		{"zero base frequency", func(c *Config) { c.BaseFrequency = 0 }},
		{"frame overflow", func(c *Config) { c.PayloadLength = 22 }},
		{"identifier outside alphabet", func(c *Config) { c.Identifier = "HJ" }},
		{"alphabet not power of two", func(c *Config) { c.Range.Characters = "abc" }},
		{"duplicate character", func(c *Config) {
			c.Range.Characters = ".0123456789abcdefghijklmnopqrs  "
		}},
		{"wrong polynomial degree", func(c *Config) { c.Range.GaloisPolynomial = 0b1011 }},
		{"wrong frame length", func(c *Config) { c.Range.FrameLength = 30 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(&cfg)
			_, err := New(cfg)
			if !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}

func TestFrequencyBijection(t *testing.T) {
	p := MustNew(DefaultConfig())
	chars := p.Range().Characters
	for i := 0; i < len(chars); i++ {
		f, ok := p.Frequency(chars[i])
		if !ok {
			t.Fatalf("no frequency for %q", chars[i])
		}
		if c := p.CharacterFor(f); c != chars[i] {
			t.Errorf("expected %q, got %q", chars[i], c)
		}
	}
	if _, ok := p.Frequency('Z'); ok {
		t.Error("expected no frequency for a character outside the alphabet")
	}
}

func TestCharacterForNearest(t *testing.T) {
	p := MustNew(DefaultConfig())
	tests := []struct {
		pitch    float64
		expected byte
	}{
		{0, '.'},
		{1, '.'},
		{1800, '.'},
		{1870, '0'},
		{100000, ' '},
		{NoSignal, '.'},
	}

	for _, tt := range tests {
		if c := p.CharacterFor(tt.pitch); c != tt.expected {
			t.Errorf("pitch %v: expected %q, got %q", tt.pitch, tt.expected, c)
		}
	}
}

func TestSymbolsText(t *testing.T) {
	p := MustNew(DefaultConfig())

	symbols, err := p.Symbols("hj.0 ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	expected := []int{18, 20, 0, 1, 31}
	if !reflect.DeepEqual(symbols, expected) {
		t.Errorf("expected %v, got %v", expected, symbols)
	}
	if text := p.Text(symbols); text != "hj.0 " {
		t.Errorf("expected %q, got %q", "hj.0 ", text)
	}
	if text := p.Text([]int{-1, 32}); text != "??" {
		t.Errorf("expected out-of-range symbols to render as ?, got %q", text)
	}

	if _, err := p.Symbols("Hello"); !errors.Is(err, ErrIllegalCharacter) {
		t.Errorf("expected ErrIllegalCharacter, got %v", err)
	}
}

func TestSamplesPerSymbol(t *testing.T) {
	p := MustNew(DefaultConfig())
	if n := p.SamplesPerSymbol(44100); n != 3748 {
		t.Errorf("expected 3748 samples, got %d", n)
	}
}
