package table

import (
	"math"
	"strconv"
	"strings"
)

// Value is one nullable cell of a record set. Cells keep their textual form so
// values read from a file are written back byte-for-byte.
type Value struct {
	text  string
	valid bool
}

var nullTokens = map[string]struct{}{
	"":      {},
	"NA":    {},
	"NaN":   {},
	"nan":   {},
	"null":  {},
	"NULL":  {},
	"None":  {},
	"<nil>": {},
}

func Null() Value {
	return Value{}
}

func String(s string) Value {
	return Value{text: s, valid: true}
}

func Float(f float64) Value {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Null()
	}
	return Value{text: strconv.FormatFloat(f, 'f', -1, 64), valid: true}
}

func Int(i int64) Value {
	return Value{text: strconv.FormatInt(i, 10), valid: true}
}

// Parse converts raw file text to a cell, mapping the usual missing-value
// tokens to null.
func Parse(raw string) Value {
	if _, ok := nullTokens[strings.TrimSpace(raw)]; ok {
		return Null()
	}
	return String(raw)
}

func (v Value) IsNull() bool {
	return !v.valid
}

// Text returns the cell text, or "" for null.
func (v Value) Text() string {
	if !v.valid {
		return ""
	}
	return v.text
}

func (v Value) Float64() (float64, bool) {
	if !v.valid {
		return 0, false
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v.text), 64)
	if err != nil || math.IsNaN(f) {
		return 0, false
	}
	return f, true
}

// Flag coerces a boolean-as-integer cell to 0 or 1. Null and unparsable
// values are 0.
func (v Value) Flag() int64 {
	if !v.valid {
		return 0
	}
	switch strings.ToLower(strings.TrimSpace(v.text)) {
	case "true", "t", "yes", "y":
		return 1
	}
	f, ok := v.Float64()
	if !ok || f == 0 {
		return 0
	}
	return 1
}

func (v Value) Equal(other Value) bool {
	return v.valid == other.valid && v.text == other.text
}
