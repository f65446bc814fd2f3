package exifreader

import (
	"fmt"
	"math"
)

// Rational is an unsigned numerator/denominator pair, used for fields
// like exposure time where the value can never be negative.
type Rational struct {
	Num, Den uint32
}

// NewRational builds a Rational, reporting ok=false when den is zero --
// per the EXIF convention that a zero denominator means the field is
// absent rather than an error.
func NewRational(num, den uint32) (Rational, bool) {
	if den == 0 {
		return Rational{}, false
	}
	return Rational{Num: num, Den: den}, true
}

// Float64 returns the rational's value, or NaN if the denominator is
// zero (a zero-value Rational).
func (r Rational) Float64() float64 {
	if r.Den == 0 {
		return math.NaN()
	}
	return float64(r.Num) / float64(r.Den)
}

func (r Rational) String() string {
	return fmt.Sprintf("%d/%d", r.Num, r.Den)
}

// SignedRational is a signed numerator/denominator pair, used for
// exposure bias where a negative value is meaningful.
type SignedRational struct {
	Num, Den int32
}

// NewSignedRational builds a SignedRational, reporting ok=false when
// den is zero.
func NewSignedRational(num, den int32) (SignedRational, bool) {
	if den == 0 {
		return SignedRational{}, false
	}
	return SignedRational{Num: num, Den: den}, true
}

// Float64 returns the rational's value, or NaN if the denominator is
// zero.
func (r SignedRational) Float64() float64 {
	if r.Den == 0 {
		return math.NaN()
	}
	return float64(r.Num) / float64(r.Den)
}

func (r SignedRational) String() string {
	return fmt.Sprintf("%d/%d", r.Num, r.Den)
}
