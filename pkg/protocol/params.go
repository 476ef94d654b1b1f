package protocol

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// Semitone is the twelve-tone equal temperament frequency ratio.
const Semitone = 1.05946311

const (
	DefaultBaseFrequency  = 1760.0
	DefaultIdentifier     = "hj"
	DefaultPayloadLength  = 10
	DefaultParityLength   = 8
	DefaultSymbolPeriodMs = 85

	// MinimumSymbolPeriodMs is the shortest period older handsets decode reliably.
	MinimumSymbolPeriodMs = 120
)

// NoSignal is the pitch reported when no tone is present.
const NoSignal = -1.0

type Config struct {
	BaseFrequency  float64
	Range          Range
	Identifier     string
	PayloadLength  int
	ParityLength   int
	SymbolPeriodMs int
}

func DefaultConfig() Config {
	return Config{
		BaseFrequency:  DefaultBaseFrequency,
		Range:          DefaultRange,
		Identifier:     DefaultIdentifier,
		PayloadLength:  DefaultPayloadLength,
		ParityLength:   DefaultParityLength,
		SymbolPeriodMs: DefaultSymbolPeriodMs,
	}
}

// Params is the immutable description of a protocol instance. It is safe
// for concurrent use.
type Params struct {
	config      Config
	frequencies []float64
	index       [256]int
	charToFreq  map[byte]float64
	freqToChar  map[float64]byte
}

// New validates cfg and precomputes the character/frequency mappings.
func New(cfg Config) (*Params, error) {
	if err := cfg.Range.validate(); err != nil {
		return nil, err
	}
	if cfg.BaseFrequency <= 0 {
		return nil, fmt.Errorf("%w: base frequency %v", ErrInvalidConfig, cfg.BaseFrequency)
	}
	if len(cfg.Identifier) == 0 || cfg.PayloadLength <= 0 || cfg.ParityLength <= 0 {
		return nil, fmt.Errorf("%w: identifier, payload and parity lengths must be positive", ErrInvalidConfig)
	}
	if cfg.SymbolPeriodMs <= 0 {
		return nil, fmt.Errorf("%w: symbol period %dms", ErrInvalidConfig, cfg.SymbolPeriodMs)
	}
	encoded := len(cfg.Identifier) + cfg.PayloadLength + cfg.ParityLength
	if encoded > cfg.Range.FrameLength {
		return nil, fmt.Errorf("%w: encoded length %d exceeds frame length %d", ErrInvalidConfig, encoded, cfg.Range.FrameLength)
	}

	p := &Params{
		config:      cfg,
		frequencies: make([]float64, len(cfg.Range.Characters)),
		charToFreq:  make(map[byte]float64, len(cfg.Range.Characters)),
		freqToChar:  make(map[float64]byte, len(cfg.Range.Characters)),
	}
	for i := range p.index {
		p.index[i] = -1
	}
	for i := 0; i < len(cfg.Range.Characters); i++ {
		c := cfg.Range.Characters[i]
		f := cfg.BaseFrequency * math.Pow(Semitone, float64(i))
		p.frequencies[i] = f
		p.index[c] = i
		p.charToFreq[c] = f
		p.freqToChar[f] = c
	}
	for i := 0; i < len(cfg.Identifier); i++ {
		if p.index[cfg.Identifier[i]] < 0 {
			return nil, fmt.Errorf("%w: identifier character %q not in alphabet", ErrInvalidConfig, cfg.Identifier[i])
		}
	}
	return p, nil
}

// MustNew is like New but panics on an invalid configuration.
func MustNew(cfg Config) *Params {
	p, err := New(cfg)
	if err != nil {
		panic(err)
	}
	return p
}

func (p *Params) Config() Config         { return p.config }
func (p *Params) Range() Range           { return p.config.Range }
func (p *Params) Identifier() string     { return p.config.Identifier }
func (p *Params) PayloadLength() int     { return p.config.PayloadLength }
func (p *Params) ParityLength() int      { return p.config.ParityLength }
func (p *Params) SymbolPeriodMs() int    { return p.config.SymbolPeriodMs }
func (p *Params) BaseFrequency() float64 { return p.config.BaseFrequency }

// EncodedLength is the number of symbols on air: identifier + payload + parity.
func (p *Params) EncodedLength() int {
	return len(p.config.Identifier) + p.config.PayloadLength + p.config.ParityLength
}

// DataLength is the identifier + payload part of a frame.
func (p *Params) DataLength() int {
	return len(p.config.Identifier) + p.config.PayloadLength
}

func (p *Params) SymbolDuration() time.Duration {
	return time.Duration(p.config.SymbolPeriodMs) * time.Millisecond
}

// SamplesPerSymbol is the number of PCM samples one tone lasts at sampleRate.
func (p *Params) SamplesPerSymbol(sampleRate int) int {
	return int(float64(sampleRate) * (float64(p.config.SymbolPeriodMs) / 1000.0))
}

// Frequency returns the tone carrying c.
func (p *Params) Frequency(c byte) (float64, bool) {
	f, ok := p.charToFreq[c]
	return f, ok
}

// FrequencyAt returns the tone of the i-th alphabet symbol.
func (p *Params) FrequencyAt(i int) float64 {
	return p.frequencies[i]
}

// Frequencies returns a copy of the tone table in alphabet order.
func (p *Params) Frequencies() []float64 {
	out := make([]float64, len(p.frequencies))
	copy(out, p.frequencies)
	return out
}

// CharacterFor returns the alphabet character whose tone is nearest to
// pitch. There is no rejection threshold: any pitch maps to some
// character and the FEC is relied upon to discard garbage.
func (p *Params) CharacterFor(pitch float64) byte {
	best := math.Inf(1)
	index := 0
	for i, f := range p.frequencies {
		if d := math.Abs(pitch - f); d < best {
			best = d
			index = i
		}
	}
	return p.freqToChar[p.frequencies[index]]
}

// Index returns the alphabet position of c, or -1.
func (p *Params) Index(c byte) int {
	return p.index[c]
}

func (p *Params) Character(i int) byte {
	return p.config.Range.Characters[i]
}

// Symbols maps text to alphabet indices.
func (p *Params) Symbols(text string) ([]int, error) {
	out := make([]int, len(text))
	for i := 0; i < len(text); i++ {
		idx := p.index[text[i]]
		if idx < 0 {
			return nil, fmt.Errorf("%w: %q at %d", ErrIllegalCharacter, text[i], i)
		}
		out[i] = idx
	}
	return out, nil
}

// Text maps alphabet indices back to characters. Out-of-range indices
// render as '?'.
func (p *Params) Text(symbols []int) string {
	var sb strings.Builder
	sb.Grow(len(symbols))
	for _, s := range symbols {
		if s < 0 || s >= len(p.config.Range.Characters) {
			sb.WriteByte('?')
			continue
		}
		sb.WriteByte(p.config.Range.Characters[s])
	}
	return sb.String()
}
