package mathx

import "golang.org/x/exp/constraints"

// Range is an inclusive interval [Lo, Hi].
type Range[T constraints.Ordered] struct {
	Lo, Hi T
}

// Contains reports Lo <= v <= Hi.
func (r Range[T]) Contains(v T) bool { return v >= r.Lo && v <= r.Hi }

// Clamp limits v to the range.
func (r Range[T]) Clamp(v T) T {
	return max(r.Lo, min(v, r.Hi))
}

// Or returns v if it lies in the range and def otherwise.
func (r Range[T]) Or(v, def T) T {
	if r.Contains(v) {
		return v
	}
	return def
}
