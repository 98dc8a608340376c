package model

import (
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/gofhir/model/schema"
)

// Value is the scalar carried by a primitive element. The set of
// implementations is closed.
type Value interface {
	// Kind returns the scalar kind.
	Kind() schema.ValueKind
	// String returns the lexical form.
	String() string

	isValue()
}

// StringValue holds string-like primitives (string, code, uri, date, ...).
type StringValue string

// Kind implements Value.
func (StringValue) Kind() schema.ValueKind { return schema.ValueString }

func (v StringValue) String() string { return string(v) }
func (StringValue) isValue()         {}

// BoolValue holds a boolean primitive.
type BoolValue bool

// Kind implements Value.
func (BoolValue) Kind() schema.ValueKind { return schema.ValueBoolean }

func (v BoolValue) String() string { return strconv.FormatBool(bool(v)) }
func (BoolValue) isValue()         {}

// IntValue holds integer, positiveInt and unsignedInt primitives.
type IntValue int64

// Kind implements Value.
func (IntValue) Kind() schema.ValueKind { return schema.ValueInteger }

func (v IntValue) String() string { return strconv.FormatInt(int64(v), 10) }
func (IntValue) isValue()         {}

// DecimalValue holds a decimal primitive. The original lexical form is kept
// so that precision ("1.50" vs "1.5") survives.
type DecimalValue struct {
	d    decimal.Decimal
	text string
}

// ParseDecimal parses the lexical form of a FHIR decimal.
func ParseDecimal(s string) (DecimalValue, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return DecimalValue{}, err
	}
	return DecimalValue{d: d, text: s}, nil
}

// DecimalOf wraps d, using its canonical string as the lexical form.
func DecimalOf(d decimal.Decimal) DecimalValue {
	return DecimalValue{d: d, text: d.String()}
}

// Kind implements Value.
func (DecimalValue) Kind() schema.ValueKind { return schema.ValueDecimal }

func (v DecimalValue) String() string { return v.text }
func (DecimalValue) isValue()         {}

// Decimal returns the numeric value.
func (v DecimalValue) Decimal() decimal.Decimal { return v.d }

// equalValues compares two values by kind and lexical form.
func equalValues(a, b Value) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Kind() == b.Kind() && a.String() == b.String()
}
