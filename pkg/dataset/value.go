package dataset

import (
	"math"
	"strconv"
)

// Kind tags the content of a Value.
type Kind uint8

const (
	KindMissing Kind = iota
	KindNumber
	KindText
)

func (k Kind) String() string {
	switch k {
	case KindNumber:
		return "number"
	case KindText:
		return "text"
	default:
		return "missing"
	}
}

// Value is a single cell: missing, a number or a piece of text.
type Value struct {
	Kind Kind
	Num  float64
	Text string
}

// Number wraps f. NaN is treated as missing.
func Number(f float64) Value {
	if math.IsNaN(f) {
		return Value{}
	}
	return Value{Kind: KindNumber, Num: f}
}

// Text wraps s.
func Text(s string) Value {
	return Value{Kind: KindText, Text: s}
}

// Missing returns an empty cell.
func Missing() Value {
	return Value{}
}

func (v Value) IsMissing() bool { return v.Kind == KindMissing }

// Category is the string key a categorical stage counts and encodes by.
// Numbers are formatted in their shortest exact form.
func (v Value) Category() string {
	switch v.Kind {
	case KindText:
		return v.Text
	case KindNumber:
		return strconv.FormatFloat(v.Num, 'g', -1, 64)
	default:
		return ""
	}
}

func (v Value) String() string {
	if v.Kind == KindMissing {
		return "<missing>"
	}
	return v.Category()
}
