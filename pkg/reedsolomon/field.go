// Package reedsolomon implements Reed-Solomon error correction over small
// binary extension fields GF(2^m), with symbols stored as ints.
package reedsolomon

import "fmt"

// Field is GF(size) generated by a primitive polynomial.
type Field struct {
	expTable      []int
	logTable      []int
	zero          *Poly
	one           *Poly
	size          int
	primitive     int
	generatorBase int
}

// NewField builds the exp/log tables of GF(size). The generator base is
// the exponent of the first root of generator polynomials (b in most
// texts; 1 for the acoustic frames).
func NewField(primitive, size, generatorBase int) *Field {
	if size < 2 || size&(size-1) != 0 {
		panic(fmt.Sprintf("reedsolomon: field size %d is not a power of two", size))
	}
	f := &Field{
		expTable:      make([]int, size),
		logTable:      make([]int, size),
		size:          size,
		primitive:     primitive,
		generatorBase: generatorBase,
	}
	x := 1
	for i := 0; i < size; i++ {
		f.expTable[i] = x
		x <<= 1
		if x >= size {
			x ^= primitive
			x &= size - 1
		}
	}
	for i := 0; i < size-1; i++ {
		f.logTable[f.expTable[i]] = i
	}
	f.zero = &Poly{field: f, coefficients: []int{0}}
	f.one = &Poly{field: f, coefficients: []int{1}}
	return f
}

func (f *Field) Size() int          { return f.size }
func (f *Field) GeneratorBase() int { return f.generatorBase }

// Zero and One are the constant polynomials.
func (f *Field) Zero() *Poly { return f.zero }
func (f *Field) One() *Poly  { return f.one }

// Monomial returns coefficient * x^degree.
func (f *Field) Monomial(degree, coefficient int) *Poly {
	if degree < 0 {
		panic("reedsolomon: negative monomial degree")
	}
	if coefficient == 0 {
		return f.zero
	}
	coefficients := make([]int, degree+1)
	coefficients[0] = coefficient
	return &Poly{field: f, coefficients: coefficients}
}

// Exp returns alpha^a.
func (f *Field) Exp(a int) int {
	return f.expTable[a]
}

func (f *Field) Log(a int) int {
	if a == 0 {
		panic("reedsolomon: log of zero")
	}
	return f.logTable[a]
}

func (f *Field) Inverse(a int) int {
	if a == 0 {
		panic("reedsolomon: inverse of zero")
	}
	return f.expTable[f.size-f.logTable[a]-1]
}

func (f *Field) Multiply(a, b int) int {
	if a == 0 || b == 0 {
		return 0
	}
	return f.expTable[(f.logTable[a]+f.logTable[b])%(f.size-1)]
}

// Add is also subtraction in characteristic 2.
func Add(a, b int) int {
	return a ^ b
}

func (f *Field) String() string {
	return fmt.Sprintf("GF(0x%x,%d)", f.primitive, f.size)
}
