package codec

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a decode failure.
type ErrorKind int

const (
	WrongDiscriminant ErrorKind = iota + 1
	WrongFieldCount
	WrongFieldType
	MalformedAddress
	OutOfRange
	MalformedIdentifier
)

func (k ErrorKind) String() string {
	switch k {
	case WrongDiscriminant:
		return "wrong_discriminant"
	case WrongFieldCount:
		return "wrong_field_count"
	case WrongFieldType:
		return "wrong_field_type"
	case MalformedAddress:
		return "malformed_address"
	case OutOfRange:
		return "out_of_range"
	case MalformedIdentifier:
		return "malformed_identifier"
	default:
		return fmt.Sprintf("error_kind(%d)", int(k))
	}
}

// DecodeError reports where and why a payload failed to decode.
type DecodeError struct {
	Kind    ErrorKind `json:"kind"`
	Variant string    `json:"variant,omitempty"`
	Field   string    `json:"field,omitempty"`
	Detail  string    `json:"detail,omitempty"`
}

func (e *DecodeError) Error() string {
	msg := "decode"
	if e.Variant != "" {
		msg += " " + e.Variant
	}
	if e.Field != "" {
		msg += "." + e.Field
	}
	msg += ": " + e.Kind.String()
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

// Is matches another *DecodeError of the same kind, so callers can write
// errors.Is(err, &DecodeError{Kind: OutOfRange}).
func (e *DecodeError) Is(target error) bool {
	t, ok := target.(*DecodeError)
	return ok && t.Kind == e.Kind
}

// KindOf returns the kind of the first DecodeError in err's chain, or 0.
func KindOf(err error) ErrorKind {
	var de *DecodeError
	if errors.As(err, &de) {
		return de.Kind
	}
	return 0
}

func newError(kind ErrorKind, variant, field, format string, args ...any) *DecodeError {
	return &DecodeError{Kind: kind, Variant: variant, Field: field, Detail: fmt.Sprintf(format, args...)}
}
