package semver

import "sort"

// Interval is a half-open version range [Lo, Hi), unless HiInclusive
// is set, in which case the upper bound is closed: [Lo, Hi]. The
// closed form is needed to represent an exact-version constraint
// (`=V`) without inventing a synthetic "version immediately after V",
// which semver's discrete major.minor.patch-plus-prerelease structure
// has no natural definition for.
type Interval struct {
	Lo, Hi      Version
	HiInclusive bool
}

// Contains reports whether v falls within the interval.
func (iv Interval) Contains(v Version) bool {
	if v.Compare(iv.Lo) < 0 {
		return false
	}
	if iv.HiInclusive {
		return v.Compare(iv.Hi) <= 0
	}
	return v.Compare(iv.Hi) < 0
}

// empty reports whether the interval contains no version at all.
func (iv Interval) empty() bool {
	c := iv.Lo.Compare(iv.Hi)
	if iv.HiInclusive {
		return c > 0
	}
	return c >= 0
}

// IntervalSet is a union of Intervals, kept normalized: sorted by Lo,
// non-overlapping, non-adjacent (adjacent touching intervals are
// merged), and with every empty interval discarded.
type IntervalSet struct {
	intervals []Interval
}

// NewIntervalSet builds a normalized IntervalSet from the given
// intervals, in any order and with any amount of overlap.
func NewIntervalSet(ivs ...Interval) IntervalSet {
	s := IntervalSet{intervals: append([]Interval(nil), ivs...)}
	s.normalize()
	return s
}

// Empty reports whether the set contains no versions at all.
func (s IntervalSet) Empty() bool { return len(s.intervals) == 0 }

// Intervals returns the normalized intervals making up the set, in
// ascending order. The returned slice must not be mutated.
func (s IntervalSet) Intervals() []Interval { return s.intervals }

// Contains reports whether v is a member of any interval in the set.
func (s IntervalSet) Contains(v Version) bool {
	for _, iv := range s.intervals {
		if iv.Contains(v) {
			return true
		}
		if v.Compare(iv.Lo) < 0 {
			break // intervals sorted by Lo; no further interval can contain v
		}
	}
	return false
}

func (s *IntervalSet) normalize() {
	ivs := s.intervals[:0:0]
	for _, iv := range s.intervals {
		if !iv.empty() {
			ivs = append(ivs, iv)
		}
	}
	sort.Slice(ivs, func(i, j int) bool {
		return ivs[i].Lo.Compare(ivs[j].Lo) < 0
	})

	var merged []Interval
	for _, iv := range ivs {
		if len(merged) == 0 {
			merged = append(merged, iv)
			continue
		}
		last := &merged[len(merged)-1]
		if overlapsOrTouches(*last, iv) {
			*last = unionTwo(*last, iv)
		} else {
			merged = append(merged, iv)
		}
	}
	s.intervals = merged
}

// overlapsOrTouches reports whether b's lower bound falls inside or
// immediately at a's upper bound, so the two intervals merge into one
// contiguous range.
func overlapsOrTouches(a, b Interval) bool {
	// b.Lo <= a.Hi: either b starts inside a, or exactly where a ends,
	// and half-open bounds are contiguous at that point either way.
	return b.Lo.Compare(a.Hi) <= 0
}

func unionTwo(a, b Interval) Interval {
	hi, hiIncl := a.Hi, a.HiInclusive
	switch {
	case b.Hi.Compare(a.Hi) > 0:
		hi, hiIncl = b.Hi, b.HiInclusive
	case b.Hi.Compare(a.Hi) == 0:
		hiIncl = hiIncl || b.HiInclusive
	}
	return Interval{Lo: a.Lo, Hi: hi, HiInclusive: hiIncl}
}

// Union returns the set union of s and other.
func (s IntervalSet) Union(other IntervalSet) IntervalSet {
	all := append(append([]Interval(nil), s.intervals...), other.intervals...)
	return NewIntervalSet(all...)
}

// Intersect returns the set intersection of s and other.
func (s IntervalSet) Intersect(other IntervalSet) IntervalSet {
	var out []Interval
	for _, a := range s.intervals {
		for _, b := range other.intervals {
			if iv, ok := intersectTwo(a, b); ok {
				out = append(out, iv)
			}
		}
	}
	return NewIntervalSet(out...)
}

func intersectTwo(a, b Interval) (Interval, bool) {
	lo := a.Lo
	if b.Lo.Compare(lo) > 0 {
		lo = b.Lo
	}

	hi, hiIncl := a.Hi, a.HiInclusive
	switch c := b.Hi.Compare(a.Hi); {
	case c < 0:
		hi, hiIncl = b.Hi, b.HiInclusive
	case c == 0:
		hiIncl = a.HiInclusive && b.HiInclusive
	}

	iv := Interval{Lo: lo, Hi: hi, HiInclusive: hiIncl}
	if iv.empty() {
		return Interval{}, false
	}
	return iv, true
}

// Sample returns a representative version from the set and true, or
// the zero Version and false if the set is empty. It returns the
// lower bound of the first interval, which is always a member.
func (s IntervalSet) Sample() (Version, bool) {
	if len(s.intervals) == 0 {
		return Version{}, false
	}
	return s.intervals[0].Lo, true
}
