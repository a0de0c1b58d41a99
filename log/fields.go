package log

import (
	"fmt"
	"strconv"
	"time"
)

// Field is a typed key/value pair attached to a log line
type Field interface {
	KV() (string, string)
}

type field struct {
	k string
	v string
}

func (f field) KV() (string, string) {
	return f.k, f.v
}

// String creates a string field
func String(k, v string) Field {
	return field{k: k, v: v}
}

// Int creates an integer field
func Int(k string, v int) Field {
	return field{k: k, v: strconv.Itoa(v)}
}

// Uint creates an unsigned integer field
func Uint(k string, v uint) Field {
	return field{k: k, v: strconv.FormatUint(uint64(v), 10)}
}

// Bool creates a boolean field
func Bool(k string, v bool) Field {
	return field{k: k, v: strconv.FormatBool(v)}
}

// Duration creates a duration field
func Duration(k string, v time.Duration) Field {
	return field{k: k, v: v.String()}
}

// Time creates a time field (RFC3339)
func Time(k string, v time.Time) Field {
	return field{k: k, v: v.Format(time.RFC3339Nano)}
}

// Error creates an error field. A nil error renders as <nil>
func Error(err error) Field {
	if err == nil {
		return field{k: "error", v: "<nil>"}
	}
	return field{k: "error", v: err.Error()}
}

// Type creates a field with the type of the given value
func Type(k string, v interface{}) Field {
	return field{k: k, v: fmt.Sprintf("%T", v)}
}

// Stringer creates a field from a fmt.Stringer
func Stringer(k string, v fmt.Stringer) Field {
	return field{k: k, v: v.String()}
}

// Object creates a field from an arbitrary value
func Object(k string, v interface{}) Field {
	return field{k: k, v: fmt.Sprintf("%+v", v)}
}
