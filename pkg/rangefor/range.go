package rangefor

import (
	"strconv"
	"strings"
)

// Range is an exclusive numeric interval. A nil bound is unconstrained.
type Range struct {
	Lower *float64
	Upper *float64
}

// Bounded reports whether at least one bound is set. An unbounded range
// never matches.
func (r Range) Bounded() bool {
	return r.Lower != nil || r.Upper != nil
}

// Matches reports whether v lies strictly inside the range.
func (r Range) Matches(v float64) bool {
	switch {
	case r.Lower != nil && r.Upper != nil:
		return v > *r.Lower && v < *r.Upper
	case r.Upper != nil:
		return v < *r.Upper
	case r.Lower != nil:
		return v > *r.Lower
	default:
		return false
	}
}

// Empty reports whether both bounds are set such that no value can match.
func (r Range) Empty() bool {
	return r.Lower != nil && r.Upper != nil && *r.Lower >= *r.Upper
}

// String renders the range as an inequality, e.g. "10 < v < 20".
func (r Range) String() string {
	var b strings.Builder
	if r.Lower != nil {
		b.WriteString(formatValue(*r.Lower))
		b.WriteString(" < ")
	}
	b.WriteString("v")
	if r.Upper != nil {
		b.WriteString(" < ")
		b.WriteString(formatValue(*r.Upper))
	}
	if !r.Bounded() {
		return "unbounded"
	}
	return b.String()
}

func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
