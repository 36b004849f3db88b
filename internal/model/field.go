package model

import (
	"bytes"
	"encoding/json"
)

type fieldState uint8

const (
	fieldAbsent fieldState = iota
	fieldNull
	fieldSet
)

// Field is a tri-state value carried by partial updates: absent, null, or set.
// The zero Field is absent.
type Field[T any] struct {
	state fieldState
	value T
}

// Set returns a Field holding v.
func Set[T any](v T) Field[T] {
	return Field[T]{state: fieldSet, value: v}
}

// Null returns a Field that clears its target.
func Null[T any]() Field[T] {
	return Field[T]{state: fieldNull}
}

// FromPtr maps nil to Null and non-nil to Set.
func FromPtr[T any](p *T) Field[T] {
	if p == nil {
		return Null[T]()
	}
	return Set(*p)
}

// IsAbsent reports whether the field was not present in the update.
func (f Field[T]) IsAbsent() bool { return f.state == fieldAbsent }

// IsNull reports whether the field was explicitly null.
func (f Field[T]) IsNull() bool { return f.state == fieldNull }

// IsSet reports whether the field carries a value.
func (f Field[T]) IsSet() bool { return f.state == fieldSet }

// IsZero lets encoding/json omit absent fields with the omitzero option.
func (f Field[T]) IsZero() bool { return f.state == fieldAbsent }

// Get returns the value and whether one is set.
func (f Field[T]) Get() (T, bool) {
	return f.value, f.state == fieldSet
}

// Or returns f unless it is absent, in which case fallback is returned.
func (f Field[T]) Or(fallback Field[T]) Field[T] {
	if f.state == fieldAbsent {
		return fallback
	}
	return f
}

// UnmarshalJSON is only invoked when the key is present, so a missing key
// stays absent.
func (f *Field[T]) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		var zero T
		f.state = fieldNull
		f.value = zero
		return nil
	}

	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	f.state = fieldSet
	f.value = v
	return nil
}

// MarshalJSON writes null for null and absent fields. Use omitzero to drop
// absent ones.
func (f Field[T]) MarshalJSON() ([]byte, error) {
	if f.state != fieldSet {
		return []byte("null"), nil
	}
	return json.Marshal(f.value)
}

// assign merges f into a non-nullable destination. Null resets to the zero value.
func assign[T any](dst *T, f Field[T]) {
	switch f.state {
	case fieldSet:
		*dst = f.value
	case fieldNull:
		var zero T
		*dst = zero
	}
}

// assignPtr merges f into a nullable destination. Null clears it.
func assignPtr[T any](dst **T, f Field[T]) {
	switch f.state {
	case fieldSet:
		v := f.value
		*dst = &v
	case fieldNull:
		*dst = nil
	}
}
