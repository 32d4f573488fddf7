package expr

import (
	"strconv"

	"github.com/KaramelBytes/qtable-cli/internal/table"
	"github.com/go-gota/gota/series"
)

// Kind is the dynamic type of a Value.
type Kind int

const (
	KindInvalid Kind = iota
	KindNull
	KindNumber
	KindString
	KindBool
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindBool:
		return "bool"
	}
	return "invalid"
}

// Value is one cell or literal during evaluation.
type Value struct {
	Kind Kind
	Num  float64
	Str  string
	Bool bool
}

var null = Value{Kind: KindNull}

func number(f float64) Value { return Value{Kind: KindNumber, Num: f} }
func text(s string) Value    { return Value{Kind: KindString, Str: s} }
func boolean(b bool) Value   { return Value{Kind: KindBool, Bool: b} }

func (v Value) String() string {
	switch v.Kind {
	case KindNull:
		return "null"
	case KindNumber:
		return strconv.FormatFloat(v.Num, 'g', -1, 64)
	case KindString:
		return strconv.Quote(v.Str)
	case KindBool:
		return strconv.FormatBool(v.Bool)
	}
	return "invalid"
}

// truthy treats null as false.
func (v Value) truthy() bool {
	return v.Kind == KindBool && v.Bool
}

// kindOf maps a series type to the value kind its elements produce.
func kindOf(t series.Type) Kind {
	switch t {
	case series.Int, series.Float:
		return KindNumber
	case series.Bool:
		return KindBool
	default:
		return KindString
	}
}

// fromElement converts a cell. NA and blank strings become null.
func fromElement(e series.Element) Value {
	if table.IsMissing(e) {
		return null
	}
	switch e.Type() {
	case series.Int, series.Float:
		return number(e.Float())
	case series.Bool:
		b, err := e.Bool()
		if err != nil {
			return null
		}
		return boolean(b)
	default:
		return text(e.String())
	}
}
