package protocol

import (
	"fmt"
	"math/bits"
)

// Range is the set of characters a protocol may carry together with the
// Galois field used to protect them.
type Range struct {
	Characters       string // ordered, duplicate-free alphabet
	GaloisPolynomial int    // primitive polynomial of GF(len(Characters))
	FrameLength      int    // symbols per FEC codeword, including parity
}

// DefaultRange is GF(32) over x^5 + x^2 + 1, i.e. 2^5 - 1 symbols per codeword.
var DefaultRange = Range{
	Characters:       ".0123456789abcdefghijklmnopqrst ",
	GaloisPolynomial: 0b00100101,
	FrameLength:      31,
}

// FieldSize is the number of elements of the field, which is also the
// size of the alphabet.
func (r Range) FieldSize() int {
	return len(r.Characters)
}

func (r Range) validate() error {
	size := len(r.Characters)
	if size < 2 || size&(size-1) != 0 {
		return fmt.Errorf("%w: alphabet size %d is not a power of two", ErrInvalidConfig, size)
	}
	if r.FrameLength != size-1 {
		return fmt.Errorf("%w: frame length %d does not match field size %d", ErrInvalidConfig, r.FrameLength, size)
	}
	// the primitive polynomial has degree log2(size)
	if r.GaloisPolynomial <= 0 || bits.Len(uint(r.GaloisPolynomial)) != bits.Len(uint(size)) {
		return fmt.Errorf("%w: polynomial %#b does not generate GF(%d)", ErrInvalidConfig, r.GaloisPolynomial, size)
	}
	seen := make(map[byte]bool, size)
	for i := 0; i < size; i++ {
		c := r.Characters[i]
		if seen[c] {
			return fmt.Errorf("%w: duplicate character %q", ErrInvalidConfig, c)
		}
		seen[c] = true
	}
	return nil
}
