// Package ptrx has small helpers for optional values.
package ptrx

// Of returns a pointer to a copy of v.
func Of[T any](v T) *T {
	return &v
}

// Value dereferences p, returning the zero value for nil.
func Value[T any](p *T) T {
	if p == nil {
		var zero T
		return zero
	}
	return *p
}

// NonZero returns a pointer to v, or nil when v is the zero value.
func NonZero[T comparable](v T) *T {
	var zero T
	if v == zero {
		return nil
	}
	return &v
}
