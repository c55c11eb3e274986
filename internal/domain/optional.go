package domain

import "time"

// CoalesceStr returns the first non-empty string from vals.
func CoalesceStr(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

// TimeFromPtrs returns the first non-nil date, or nil. Plan merges use it so
// an omitted planned date keeps the stored one.
func TimeFromPtrs(ptrs ...*time.Time) *time.Time {
	for _, p := range ptrs {
		if p != nil {
			return p
		}
	}
	return nil
}

// SameInstant reports whether two optional timestamps denote the same instant.
// Two nils are equal; nil and non-nil are not.
func SameInstant(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.UTC().Equal(b.UTC())
}
