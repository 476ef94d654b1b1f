package reedsolomon

import (
	"errors"
	"fmt"
)

// ErrUncorrectable reports a codeword with more errors than the code can
// repair.
var ErrUncorrectable = errors.New("reedsolomon: uncorrectable codeword")

type Decoder struct {
	field *Field
}

func NewDecoder(field *Field) *Decoder {
	return &Decoder{field: field}
}

// Decode corrects received in place using twoS parity symbols and returns
// the number of symbols it changed. Symbols outside the field are erasures:
// their position is known and only their value is recovered. A codeword
// with e errors and f erasures is repaired when 2e + f <= twoS; beyond that
// ErrUncorrectable is returned and received is left untouched.
func (d *Decoder) Decode(received []int, twoS int) (int, error) {
	if twoS <= 0 || twoS >= len(received) {
		return 0, fmt.Errorf("reedsolomon: invalid parity length %d for %d symbols", twoS, len(received))
	}
	if len(received) >= d.field.Size() {
		return 0, fmt.Errorf("reedsolomon: codeword of %d symbols exceeds %v", len(received), d.field)
	}

	work := make([]int, len(received))
	var erasures []int
	for i, s := range received {
		if s >= 0 && s < d.field.Size() {
			work[i] = s
		} else {
			erasures = append(erasures, i)
		}
	}
	if len(erasures) > twoS {
		return 0, fmt.Errorf("%w: %d erasures with %d parity symbols", ErrUncorrectable, len(erasures), twoS)
	}

	poly := NewPoly(d.field, work)
	syndromes := make([]int, twoS)
	clean := true
	for i := 0; i < twoS; i++ {
		eval := poly.EvaluateAt(d.field.Exp(i + d.field.GeneratorBase()))
		syndromes[len(syndromes)-1-i] = eval
		if eval != 0 {
			clean = false
		}
	}
	if clean {
		return d.commit(received, work), nil
	}

	gamma := d.erasureLocator(len(work), erasures)
	modified := truncate(d.field, gamma.Multiply(NewPoly(d.field, syndromes)), twoS)

	lambda, omega, err := d.euclidean(d.field.Monomial(twoS, 1), modified, twoS+len(erasures))
	if err != nil {
		return 0, err
	}
	if 2*lambda.Degree()+len(erasures) > twoS {
		return 0, fmt.Errorf("%w: %d errors beside %d erasures", ErrUncorrectable, lambda.Degree(), len(erasures))
	}
	locations, err := d.errorLocations(lambda.Multiply(gamma))
	if err != nil {
		return 0, err
	}
	magnitudes, err := d.errorMagnitudes(omega, locations)
	if err != nil {
		return 0, err
	}
	for i, location := range locations {
		position := len(work) - 1 - d.field.Log(location)
		if position < 0 {
			return 0, fmt.Errorf("%w: bad error location", ErrUncorrectable)
		}
		work[position] = Add(work[position], magnitudes[i])
	}
	if !d.isCodeword(work, twoS) {
		return 0, fmt.Errorf("%w: correction did not yield a codeword", ErrUncorrectable)
	}
	return d.commit(received, work), nil
}

// erasureLocator returns the product of (1 + X x) over the erased
// positions, X being the field element of the position's power.
func (d *Decoder) erasureLocator(n int, erasures []int) *Poly {
	gamma := d.field.One()
	for _, position := range erasures {
		gamma = gamma.Multiply(NewPoly(d.field, []int{d.field.Exp(n - 1 - position), 1}))
	}
	return gamma
}

// truncate returns p mod x^n.
func truncate(field *Field, p *Poly, n int) *Poly {
	if p.Degree() < n {
		return p
	}
	c := p.Coefficients()
	return NewPoly(field, c[len(c)-n:])
}

func (d *Decoder) isCodeword(symbols []int, twoS int) bool {
	poly := NewPoly(d.field, symbols)
	for i := 0; i < twoS; i++ {
		if poly.EvaluateAt(d.field.Exp(i+d.field.GeneratorBase())) != 0 {
			return false
		}
	}
	return true
}

func (d *Decoder) commit(received, work []int) int {
	changed := 0
	for i := range received {
		if received[i] != work[i] {
			received[i] = work[i]
			changed++
		}
	}
	return changed
}

func (d *Decoder) euclidean(a, b *Poly, r int) (sigma, omega *Poly, err error) {
	if a.Degree() < b.Degree() {
		a, b = b, a
	}

	rLast, rCur := a, b
	tLast, tCur := d.field.Zero(), d.field.One()

	// run until r(x) has degree below r/2
	for 2*rCur.Degree() >= r {
		rLastLast, tLastLast := rLast, tLast
		rLast, tLast = rCur, tCur

		if rLast.IsZero() {
			return nil, nil, fmt.Errorf("%w: r_{i-1} was zero", ErrUncorrectable)
		}
		rCur = rLastLast
		q := d.field.Zero()
		dltInverse := d.field.Inverse(rLast.Coefficient(rLast.Degree()))
		for rCur.Degree() >= rLast.Degree() && !rCur.IsZero() {
			degreeDiff := rCur.Degree() - rLast.Degree()
			scale := d.field.Multiply(rCur.Coefficient(rCur.Degree()), dltInverse)
			q = q.Add(d.field.Monomial(degreeDiff, scale))
			rCur = rCur.Add(rLast.MultiplyByMonomial(degreeDiff, scale))
		}

		tCur = q.Multiply(tLast).Add(tLastLast)

		if rCur.Degree() >= rLast.Degree() {
			return nil, nil, fmt.Errorf("%w: division algorithm failed", ErrUncorrectable)
		}
	}

	sigmaTildeAtZero := tCur.Coefficient(0)
	if sigmaTildeAtZero == 0 {
		return nil, nil, fmt.Errorf("%w: sigma(0) was zero", ErrUncorrectable)
	}
	inverse := d.field.Inverse(sigmaTildeAtZero)
	return tCur.Scale(inverse), rCur.Scale(inverse), nil
}

// errorLocations finds the roots of the locator by Chien search.
func (d *Decoder) errorLocations(locator *Poly) ([]int, error) {
	numErrors := locator.Degree()
	if numErrors == 1 {
		return []int{locator.Coefficient(1)}, nil
	}
	result := make([]int, 0, numErrors)
	for i := 1; i < d.field.Size() && len(result) < numErrors; i++ {
		if locator.EvaluateAt(i) == 0 {
			result = append(result, d.field.Inverse(i))
		}
	}
	if len(result) != numErrors {
		return nil, fmt.Errorf("%w: locator degree does not match number of roots", ErrUncorrectable)
	}
	return result, nil
}

// errorMagnitudes applies Forney's formula.
func (d *Decoder) errorMagnitudes(evaluator *Poly, locations []int) ([]int, error) {
	result := make([]int, len(locations))
	for i, location := range locations {
		xiInverse := d.field.Inverse(location)
		denominator := 1
		for j, other := range locations {
			if i == j {
				continue
			}
			term := d.field.Multiply(other, xiInverse)
			// 1 + term in GF(2^m)
			termPlus1 := term ^ 1
			denominator = d.field.Multiply(denominator, termPlus1)
		}
		if denominator == 0 {
			return nil, fmt.Errorf("%w: repeated error location", ErrUncorrectable)
		}
		result[i] = d.field.Multiply(evaluator.EvaluateAt(xiInverse), d.field.Inverse(denominator))
		if d.field.GeneratorBase() != 0 {
			result[i] = d.field.Multiply(result[i], xiInverse)
		}
	}
	return result, nil
}
