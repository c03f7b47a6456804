// Package table holds the in-memory record table the insight pipeline operates on:
// ordered named columns, one row per ad/day observation, typed cells.
package table

import (
	"math"
	"strconv"
	"time"
)

// Kind identifies what a cell holds.
type Kind int

const (
	KindNull Kind = iota
	KindNumber
	KindString
	KindTime
)

func (k Kind) String() string {
	switch k {
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindTime:
		return "time"
	default:
		return "null"
	}
}

// Value is a single cell. The zero Value is null.
type Value struct {
	kind Kind
	num  float64
	str  string
	ts   time.Time
}

// Null returns a missing cell.
func Null() Value { return Value{} }

// Number returns a numeric cell. NaN is stored as null.
func Number(f float64) Value {
	if math.IsNaN(f) {
		return Value{}
	}
	return Value{kind: KindNumber, num: f}
}

// String returns a text cell.
func String(s string) Value { return Value{kind: KindString, str: s} }

// Time returns a timestamp cell.
func Time(t time.Time) Value { return Value{kind: KindTime, ts: t} }

// Parse types a raw text field: empty is null, a finite float is a number,
// everything else (including "Inf" and "NaN") is a string.
func Parse(raw string) Value {
	if raw == "" {
		return Null()
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil && !math.IsInf(f, 0) && !math.IsNaN(f) {
		return Number(f)
	}
	return String(raw)
}

func (v Value) Kind() Kind     { return v.kind }
func (v Value) IsNull() bool   { return v.kind == KindNull }
func (v Value) IsNumber() bool { return v.kind == KindNumber }

// Float returns the numeric value and whether the cell is a number.
func (v Value) Float() (float64, bool) {
	if v.kind != KindNumber {
		return 0, false
	}
	return v.num, true
}

// TimeValue returns the timestamp and whether the cell is a time.
func (v Value) TimeValue() (time.Time, bool) {
	if v.kind != KindTime {
		return time.Time{}, false
	}
	return v.ts, true
}

// Text renders the cell the way it would be written back to a CSV field.
func (v Value) Text() string {
	switch v.kind {
	case KindNumber:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	case KindString:
		return v.str
	case KindTime:
		if v.ts.Hour() == 0 && v.ts.Minute() == 0 && v.ts.Second() == 0 && v.ts.Nanosecond() == 0 {
			return v.ts.Format("2006-01-02")
		}
		return v.ts.Format(time.RFC3339)
	default:
		return ""
	}
}

// Equal reports whether two cells hold the same kind and value.
// Two nulls are equal.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindNumber:
		return v.num == o.num
	case KindString:
		return v.str == o.str
	case KindTime:
		return v.ts.Equal(o.ts)
	default:
		return true
	}
}

// Interface returns the cell as a plain Go value, nil for null.
func (v Value) Interface() interface{} {
	switch v.kind {
	case KindNumber:
		return v.num
	case KindString:
		return v.str
	case KindTime:
		return v.ts
	default:
		return nil
	}
}

// key is a stable identity used for duplicate detection and grouping.
func (v Value) key() string {
	switch v.kind {
	case KindNumber:
		return "n:" + strconv.FormatFloat(v.num, 'g', -1, 64)
	case KindString:
		return "s:" + v.str
	case KindTime:
		return "t:" + strconv.FormatInt(v.ts.UnixNano(), 10)
	default:
		return "0"
	}
}
