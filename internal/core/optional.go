package core

import (
	"bytes"
	"encoding/json"
)

// Optional holds a value that may be absent from a version document.
// The zero Optional is absent. Absent fields are omitted when marshalled
// with the omitzero tag option, and a JSON null decodes as absent.
type Optional[T any] struct {
	value T
	set   bool
}

// Some returns a present Optional holding v.
func Some[T any](v T) Optional[T] {
	return Optional[T]{value: v, set: true}
}

// Get returns the value and whether it is present.
func (o Optional[T]) Get() (T, bool) {
	return o.value, o.set
}

// Value returns the value, or the zero value of T when absent.
func (o Optional[T]) Value() T {
	return o.value
}

// IsSet reports whether a value is present.
func (o Optional[T]) IsSet() bool {
	return o.set
}

// IsZero reports whether the value is absent. Used by omitzero.
func (o Optional[T]) IsZero() bool {
	return !o.set
}

// Or returns o when present, otherwise fallback.
func (o Optional[T]) Or(fallback Optional[T]) Optional[T] {
	if o.set {
		return o
	}
	return fallback
}

// MarshalJSON implements json.Marshaler
func (o Optional[T]) MarshalJSON() ([]byte, error) {
	if !o.set {
		return []byte("null"), nil
	}
	return json.Marshal(o.value)
}

// UnmarshalJSON implements json.Unmarshaler
func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*o = Optional[T]{}
		return nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*o = Some(v)
	return nil
}
