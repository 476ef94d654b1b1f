package reedsolomon

import (
	"fmt"
	"sync"
)

type Encoder struct {
	field *Field

	mu         sync.Mutex
	generators []*Poly
}

func NewEncoder(field *Field) *Encoder {
	return &Encoder{
		field:      field,
		generators: []*Poly{field.One()},
	}
}

// generator returns prod_{i<degree} (x - a^(i+base)), caching every lower
// degree on the way.
func (e *Encoder) generator(degree int) *Poly {
	e.mu.Lock()
	defer e.mu.Unlock()

	for d := len(e.generators); d <= degree; d++ {
		last := e.generators[d-1]
		next := last.Multiply(NewPoly(e.field, []int{1, e.field.Exp(d - 1 + e.field.GeneratorBase())}))
		e.generators = append(e.generators, next)
	}
	return e.generators[degree]
}

// Encode overwrites the last ecSymbols entries of symbols with parity
// computed over the leading entries.
func (e *Encoder) Encode(symbols []int, ecSymbols int) error {
	if ecSymbols <= 0 {
		return fmt.Errorf("reedsolomon: no error correction symbols")
	}
	dataSymbols := len(symbols) - ecSymbols
	if dataSymbols <= 0 {
		return fmt.Errorf("reedsolomon: no data symbols")
	}
	if len(symbols) >= e.field.Size() {
		return fmt.Errorf("reedsolomon: codeword of %d symbols exceeds %v", len(symbols), e.field)
	}
	for i, s := range symbols[:dataSymbols] {
		if s < 0 || s >= e.field.Size() {
			return fmt.Errorf("reedsolomon: symbol %d at %d outside %v", s, i, e.field)
		}
	}

	info := NewPoly(e.field, symbols[:dataSymbols]).MultiplyByMonomial(ecSymbols, 1)
	_, remainder := info.Divide(e.generator(ecSymbols))

	coefficients := remainder.Coefficients()
	if remainder.IsZero() {
		coefficients = nil
	}
	zeros := ecSymbols - len(coefficients)
	for i := 0; i < zeros; i++ {
		symbols[dataSymbols+i] = 0
	}
	copy(symbols[dataSymbols+zeros:], coefficients)
	return nil
}
