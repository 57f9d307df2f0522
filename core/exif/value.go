package exif

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"github.com/rwcarlsen/goexif/tiff"
)

// Kind is the shape of a decoded value.
type Kind int

const (
	KindText Kind = iota
	KindUnsigned
	KindSigned
	KindRational
	KindRationalArray
	KindFloat
	KindBytes
)

func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindUnsigned:
		return "unsigned"
	case KindSigned:
		return "signed"
	case KindRational:
		return "rational"
	case KindRationalArray:
		return "rational-array"
	case KindFloat:
		return "float"
	default:
		return "bytes"
	}
}

// Rational is a numerator/denominator pair. SRATIONAL values may be
// negative; RATIONAL values never are.
type Rational struct {
	Num int64
	Den int64
}

// ErrZeroDenominator is returned when a rational cannot be evaluated.
var ErrZeroDenominator = errors.New("zero denominator")

// Float evaluates r. It refuses degenerate rationals instead of returning 0.
func (r Rational) Float() (float64, error) {
	if r.Den == 0 {
		return 0, errors.Wrapf(ErrZeroDenominator, "%d/0", r.Num)
	}
	return float64(r.Num) / float64(r.Den), nil
}

func (r Rational) String() string { return fmt.Sprintf("%d/%d", r.Num, r.Den) }

// Value is a decoded tag value. Exactly one payload is populated, selected
// by Kind; Type is the EXIF type code the tag declared.
type Value struct {
	Kind  Kind
	Type  tiff.DataType
	Count uint32

	text   string
	uints  []uint32
	ints   []int32
	rats   []Rational
	floats []float64
	raw    []byte
}

// Text builds an ASCII value.
func Text(s string) Value {
	return Value{Kind: KindText, Type: tiff.DTAscii, Count: uint32(len(s) + 1), text: s}
}

// Unsigned builds an unsigned integer value of the given declared type.
func Unsigned(typ tiff.DataType, vals ...uint32) Value {
	return Value{Kind: KindUnsigned, Type: typ, Count: uint32(len(vals)), uints: vals}
}

// Signed builds a signed integer value of the given declared type.
func Signed(typ tiff.DataType, vals ...int32) Value {
	return Value{Kind: KindSigned, Type: typ, Count: uint32(len(vals)), ints: vals}
}

// Rationals builds a RATIONAL or SRATIONAL value. A single element is a
// KindRational, more than one a KindRationalArray.
func Rationals(typ tiff.DataType, vals ...Rational) Value {
	kind := KindRational
	if len(vals) > 1 {
		kind = KindRationalArray
	}
	return Value{Kind: kind, Type: typ, Count: uint32(len(vals)), rats: vals}
}

// Floats builds a FLOAT or DOUBLE value.
func Floats(typ tiff.DataType, vals ...float64) Value {
	return Value{Kind: KindFloat, Type: typ, Count: uint32(len(vals)), floats: vals}
}

// Bytes builds an opaque value. b is copied.
func Bytes(typ tiff.DataType, b []byte) Value {
	return Value{Kind: KindBytes, Type: typ, Count: uint32(len(b)), raw: append([]byte(nil), b...)}
}

// Text returns the string payload of a KindText value.
func (v Value) Text() string { return v.text }

// Uints returns the payload of a KindUnsigned value.
func (v Value) Uints() []uint32 { return v.uints }

// Ints returns the payload of a KindSigned value.
func (v Value) Ints() []int32 { return v.ints }

// Rationals returns the payload of a KindRational or KindRationalArray value.
func (v Value) Rationals() []Rational { return v.rats }

// Floats returns the payload of a KindFloat value.
func (v Value) Floats() []float64 { return v.floats }

// Bytes returns the payload of a KindBytes value.
func (v Value) Bytes() []byte { return v.raw }

// Int returns the first integer element of an integer value.
func (v Value) Int() (int64, bool) {
	switch {
	case v.Kind == KindUnsigned && len(v.uints) > 0:
		return int64(v.uints[0]), true
	case v.Kind == KindSigned && len(v.ints) > 0:
		return int64(v.ints[0]), true
	}
	return 0, false
}

// String renders v for logs and plain-text listings.
func (v Value) String() string {
	switch v.Kind {
	case KindText:
		return v.text
	case KindUnsigned:
		return joinValues(len(v.uints), func(i int) string { return fmt.Sprint(v.uints[i]) })
	case KindSigned:
		return joinValues(len(v.ints), func(i int) string { return fmt.Sprint(v.ints[i]) })
	case KindRational, KindRationalArray:
		return joinValues(len(v.rats), func(i int) string { return v.rats[i].String() })
	case KindFloat:
		return joinValues(len(v.floats), func(i int) string { return fmt.Sprint(v.floats[i]) })
	default:
		return fmt.Sprintf("[%d bytes]", len(v.raw))
	}
}

func joinValues(n int, at func(int) string) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = at(i)
	}
	return strings.Join(parts, ", ")
}
