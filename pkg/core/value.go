package core

import (
	"strconv"
)

// ValueKind tags the variant held by a Value.
type ValueKind int

// Value kinds.
const (
	KindNull ValueKind = iota
	KindInteger
	KindFloat
	KindText
	KindBoolean
	KindBlob
	KindDateTime
	KindDate
	KindUUID
	KindDecimal
	KindJSON
)

var kindNames = [...]string{
	KindNull:     "null",
	KindInteger:  "integer",
	KindFloat:    "float",
	KindText:     "text",
	KindBoolean:  "boolean",
	KindBlob:     "blob",
	KindDateTime: "datetime",
	KindDate:     "date",
	KindUUID:     "uuid",
	KindDecimal:  "decimal",
	KindJSON:     "json",
}

// String returns the kind name.
func (k ValueKind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// Value is a decoded column value.
//
// Text, DateTime, Date, UUID and Decimal carry their textual form in Text.
// Decimal text is kept verbatim so no precision is lost.
type Value struct {
	Kind  ValueKind
	Int   int64
	Float float64
	Text  string
	Bool  bool
	Bytes []byte
	JSON  any
}

// Null returns the null value.
func Null() Value { return Value{Kind: KindNull} }

// Int returns an integer value.
func Int(v int64) Value { return Value{Kind: KindInteger, Int: v} }

// Float returns a float value.
func Float(v float64) Value { return Value{Kind: KindFloat, Float: v} }

// Text returns a text value.
func Text(v string) Value { return Value{Kind: KindText, Text: v} }

// Bool returns a boolean value.
func Bool(v bool) Value { return Value{Kind: KindBoolean, Bool: v} }

// Blob returns a binary value.
func Blob(v []byte) Value { return Value{Kind: KindBlob, Bytes: v} }

// DateTime returns a date-time tagged value.
func DateTime(v string) Value { return Value{Kind: KindDateTime, Text: v} }

// Date returns a date tagged value.
func Date(v string) Value { return Value{Kind: KindDate, Text: v} }

// UUID returns a uuid tagged value.
func UUID(v string) Value { return Value{Kind: KindUUID, Text: v} }

// Decimal returns an exact decimal value from its textual form.
func Decimal(v string) Value { return Value{Kind: KindDecimal, Text: v} }

// JSON returns a structured value parsed from JSON text.
func JSON(v any) Value { return Value{Kind: KindJSON, JSON: v} }

// IsNull reports whether v is the null value.
func (v Value) IsNull() bool { return v.Kind == KindNull }

// Interface returns v as a plain Go value suitable for JSON encoding.
func (v Value) Interface() any {
	switch v.Kind {
	case KindInteger:
		return v.Int
	case KindFloat:
		return v.Float
	case KindBoolean:
		return v.Bool
	case KindBlob:
		return v.Bytes
	case KindJSON:
		return v.JSON
	case KindText, KindDateTime, KindDate, KindUUID, KindDecimal:
		return v.Text
	default:
		return nil
	}
}

// KeyText renders v as identity-map key text.
// Null renders as the empty string.
func (v Value) KeyText() string {
	switch v.Kind {
	case KindInteger:
		return strconv.FormatInt(v.Int, 10)
	case KindFloat:
		return strconv.FormatFloat(v.Float, 'f', -1, 64)
	case KindBoolean:
		return strconv.FormatBool(v.Bool)
	case KindBlob:
		return string(v.Bytes)
	case KindText, KindDateTime, KindDate, KindUUID, KindDecimal:
		return v.Text
	default:
		return ""
	}
}

// String implements fmt.Stringer.
func (v Value) String() string {
	if v.Kind == KindNull {
		return "NULL"
	}
	return v.KeyText()
}
