package modem

// SymbolModulator turns alphabet indices into little-endian 16-bit PCM.
type SymbolModulator interface {
	Modulate(symbols []int) []byte
}

// SymbolDetector recognizes the symbol carried by a run of pitch estimates.
type SymbolDetector interface {
	Detect(pitches, confidences []float64, offset, length int) (byte, bool)
}

var (
	_ SymbolModulator = Modulator{}
	_ SymbolDetector  = Detector{}
)
