package utils

import "cmp"

// Min returns the smallest of the given values.
// It panics when called without arguments.
func Min[T cmp.Ordered](first T, rest ...T) T {
	result := first
	for _, v := range rest {
		if v < result {
			result = v
		}
	}
	return result
}

// Clamp bounds v to [lo, hi]
func Clamp[T cmp.Ordered](v, lo, hi T) T {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
